package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// FileStore keeps users in a JSON file. The whole file is rewritten on Put.
type FileStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]User
}

// OpenFileStore loads path, which may not exist yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, users: make(map[string]User)}

	// #nosec G304 -- path comes from admin-controlled config
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading users file: %w", err)
	}

	var records []fileRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing users file: %w", err)
	}
	for i, rec := range records {
		u := rec.user()
		if err := validateStored(u); err != nil {
			return nil, fmt.Errorf("users file record %d: %w", i, err)
		}
		s.users[u.Username] = u
	}
	return s, nil
}

// fileRecord accepts both the current field names and the legacy
// {"username","password","userId"} layout, where password holds the hash.
type fileRecord struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"` // #nosec G117 -- bcrypt hash

	LegacyUserID   string `json:"userId"`
	LegacyPassword string `json:"password"` // #nosec G117 -- bcrypt hash
}

func (r fileRecord) user() User {
	u := User{UserID: r.UserID, Username: r.Username, PasswordHash: r.PasswordHash}
	if u.UserID == "" {
		u.UserID = r.LegacyUserID
	}
	if u.PasswordHash == "" {
		u.PasswordHash = r.LegacyPassword
	}
	return u
}

func validateStored(u User) error {
	if !usernamePattern.MatchString(u.Username) {
		return fmt.Errorf("%w: username %q", ErrInvalidUser, u.Username)
	}
	if !userIDPattern.MatchString(u.UserID) {
		return fmt.Errorf("%w: user id %q for %s", ErrInvalidUser, u.UserID, u.Username)
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("%w: no password hash for %s", ErrInvalidUser, u.Username)
	}
	return nil
}

// Lookup returns the user with username. Returns nil, nil if not found.
func (s *FileStore) Lookup(_ context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, nil //nolint:nilnil // CredentialStore specifies nil,nil for not-found
	}
	return &u, nil
}

// Put creates or replaces a user and persists the file.
func (s *FileStore) Put(_ context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.users[u.Username]
	s.users[u.Username] = u
	if err := s.save(); err != nil {
		if had {
			s.users[u.Username] = prev
		} else {
			delete(s.users, u.Username)
		}
		return err
	}
	return nil
}

// List returns all users sorted by username.
func (s *FileStore) List(context.Context) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Close implements CredentialStore.
func (*FileStore) Close() error {
	return nil
}

// save writes the file atomically. Callers hold mu.
func (s *FileStore) save() error {
	users := make([]User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding users: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.json")
	if err != nil {
		return fmt.Errorf("creating temp users file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing users file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing users file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing users file: %w", err)
	}
	return nil
}

// Verify interface compliance.
var _ CredentialStore = (*FileStore)(nil)
