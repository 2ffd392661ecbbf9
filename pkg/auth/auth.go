// Package auth verifies student credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// User is a stored credential record.
type User struct {
	UserID       string `json:"user_id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"` // #nosec G117 -- bcrypt hash
}

// CredentialStore persists users.
type CredentialStore interface {
	// Lookup returns the user with username. Returns nil, nil if not found.
	Lookup(ctx context.Context, username string) (*User, error)

	// Put creates or replaces a user.
	Put(ctx context.Context, u User) error

	// List returns all users sorted by username.
	List(ctx context.Context) ([]User, error)

	// Close releases resources.
	Close() error
}

// hashCost is the bcrypt cost for new hashes.
var hashCost = bcrypt.DefaultCost

// dummyHash is compared against when the user does not exist so that
// unknown users and wrong passwords take the same time.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("stepwise-dummy-password"), bcrypt.DefaultCost)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9._@-]{1,64}$`)
	userIDPattern   = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
)

// Authenticator checks username and password pairs.
type Authenticator struct {
	store CredentialStore
}

// NewAuthenticator creates an Authenticator over store.
func NewAuthenticator(store CredentialStore) *Authenticator {
	return &Authenticator{store: store}
}

// Authenticate returns the user when password matches. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := a.store.Lookup(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("comparing password: %w", err)
	}
	return u, nil
}

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", ErrInvalidUser)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(h), nil
}

// NewUser validates the fields and hashes password.
func NewUser(userID, username, password string) (User, error) {
	if !userIDPattern.MatchString(userID) {
		return User{}, fmt.Errorf("%w: user id %q", ErrInvalidUser, userID)
	}
	if !usernamePattern.MatchString(username) {
		return User{}, fmt.Errorf("%w: username %q", ErrInvalidUser, username)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return User{}, err
	}
	return User{UserID: userID, Username: username, PasswordHash: hash}, nil
}
