package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// SeedUser is a user declared in configuration.
type SeedUser struct {
	UserID   string `yaml:"user_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"` // #nosec G117 -- plaintext only in local config
}

// Seed adds the users that do not exist yet. Existing users are left alone
// so that passwords changed through the CLI are not reset.
func Seed(ctx context.Context, store CredentialStore, users []SeedUser) error {
	for _, su := range users {
		existing, err := store.Lookup(ctx, su.Username)
		if err != nil {
			return fmt.Errorf("looking up seed user %s: %w", su.Username, err)
		}
		if existing != nil {
			continue
		}

		u, err := NewUser(su.UserID, su.Username, su.Password)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.Username, err)
		}
		if err := store.Put(ctx, u); err != nil {
			return fmt.Errorf("storing seed user %s: %w", su.Username, err)
		}
		slog.Info("seeded user", "username", su.Username, "user_id", su.UserID)
	}
	return nil
}
