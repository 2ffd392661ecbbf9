package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iamharada/stepwise-system/pkg/auth"
	"github.com/iamharada/stepwise-system/pkg/platform"
)

func newUsersCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage student accounts",
	}
	cmd.AddCommand(newUsersAddCmd(load))
	cmd.AddCommand(newUsersListCmd(load))
	cmd.AddCommand(newUsersHashCmd())
	return cmd
}

func newUsersAddCmd(load configLoader) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create or replace an account in the configured credential store",
		Long: `Create an account, or replace the password of an existing one. The
password is prompted for on a terminal and read from stdin otherwise.`,
		Example: `  stepwise users add alice --user-id user_001
  echo "$PASSWORD" | stepwise users add bob --user-id user_002`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			u, err := auth.NewUser(userID, args[0], password)
			if err != nil {
				return err
			}

			store, err := platform.OpenCredentialStore(cfg.Auth)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Put(cmd.Context(), u); err != nil {
				return fmt.Errorf("storing user: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved user %s (%s)\n", u.Username, u.UserID)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user-id", "", "stable user id used in activity log keys")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newUsersListCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts in the configured credential store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			store, err := platform.OpenCredentialStore(cfg.Auth)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			users, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "USERNAME\tUSER ID")
			for _, u := range users {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", u.Username, u.UserID)
			}
			return w.Flush()
		},
	}
}

func newUsersHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Print a bcrypt hash for a password",
		Long:  `Print a bcrypt hash suitable for the password_hash field of a users file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readPassword(cmd, "Password: ")
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
			return err
		},
	}
}
