package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "github.com/lib/pq" // postgres driver
	"github.com/spf13/cobra"

	"github.com/iamharada/stepwise-system/pkg/database/migrate"
)

var errNoDSN = errors.New("database.dsn is not configured")

func newMigrateCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the session database schema",
		Long: `Apply or roll back the PostgreSQL schema used by the postgres session
store. The server applies pending migrations on startup as well.`,
	}

	withDB := func(fn func(cmd *cobra.Command, db *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errNoDSN
			}
			db, err := sql.Open("postgres", cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer func() { _ = db.Close() }()
			return fn(cmd, db)
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *sql.DB) error {
			if err := migrate.Run(db); err != nil {
				return err
			}
			return printVersion(cmd, db)
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: withDB(func(cmd *cobra.Command, db *sql.DB) error {
			if err := migrate.Down(db); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "schema removed")
			return err
		}),
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "steps <n>",
		Short: "Apply n migrations, or roll back when n is negative",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("steps must be a non-zero integer, got %q", args[0])
			}
			return withDB(func(cmd *cobra.Command, db *sql.DB) error {
				if err := migrate.Steps(db, n); err != nil {
					return err
				}
				return printVersion(cmd, db)
			})(cmd, args)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE:  withDB(printVersion),
	})
	return cmd
}

func printVersion(cmd *cobra.Command, db *sql.DB) error {
	v, dirty, err := migrate.Version(db)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if dirty {
		_, err = fmt.Fprintf(out, "schema version %d (dirty)\n", v)
		return err
	}
	_, err = fmt.Fprintf(out, "schema version %d\n", v)
	return err
}
