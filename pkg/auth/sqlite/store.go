// Package sqlite stores credentials in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/iamharada/stepwise-system/pkg/auth"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL
);`

// Store implements auth.CredentialStore over SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening credential database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating users table: %w", err)
	}
	return &Store{db: db}, nil
}

// Lookup returns the user with username. Returns nil, nil if not found.
func (s *Store) Lookup(ctx context.Context, username string) (*auth.User, error) {
	var u auth.User
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, password_hash FROM users WHERE username = ?`, username,
	).Scan(&u.UserID, &u.Username, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // CredentialStore specifies nil,nil for not-found
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

// Put creates or replaces a user.
func (s *Store) Put(ctx context.Context, u auth.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, user_id, password_hash) VALUES (?, ?, ?)
		ON CONFLICT(username) DO UPDATE SET user_id = excluded.user_id, password_hash = excluded.password_hash`,
		u.Username, u.UserID, u.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("storing user: %w", err)
	}
	return nil
}

// List returns all users sorted by username.
func (s *Store) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, username, password_hash FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []auth.User
	for rows.Next() {
		var u auth.User
		if err := rows.Scan(&u.UserID, &u.Username, &u.PasswordHash); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Verify interface compliance.
var _ auth.CredentialStore = (*Store)(nil)
