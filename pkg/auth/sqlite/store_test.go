package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamharada/stepwise-system/pkg/auth"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_PutLookup(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_001", Username: "alice", PasswordHash: "h1"}))

	u, err := s.Lookup(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "user_001", u.UserID)
	assert.Equal(t, "h1", u.PasswordHash)

	missing, err := s.Lookup(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_PutReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_001", Username: "alice", PasswordHash: "h1"}))
	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_001", Username: "alice", PasswordHash: "h2"}))

	u, err := s.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h2", u.PasswordHash)
}

func TestStore_DuplicateUserID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_001", Username: "alice", PasswordHash: "h"}))
	assert.Error(t, s.Put(ctx, auth.User{UserID: "user_001", Username: "mallory", PasswordHash: "h"}))
}

func TestStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_002", Username: "bob", PasswordHash: "h"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	require.NoError(t, s.Ping(ctx))

	u, err := s.Lookup(ctx, "bob")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "user_002", u.UserID)
}

func TestStore_WorksWithAuthenticator(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	u, err := auth.NewUser("user_003", "carol", "correct horse")
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, u))

	got, err := auth.NewAuthenticator(s).Authenticate(ctx, "carol", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "user_003", got.UserID)
}

func TestStore_List(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	users, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_002", Username: "bob", PasswordHash: "h"}))
	require.NoError(t, s.Put(ctx, auth.User{UserID: "user_001", Username: "alice", PasswordHash: "h"}))

	users, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "user_002", users[1].UserID)
}
