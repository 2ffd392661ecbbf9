// Package cli implements the stepwise command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iamharada/stepwise-system/pkg/platform"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "stepwise.yaml"

// NewRootCmd creates the stepwise command tree.
func NewRootCmd(version string) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "stepwise",
		Short: "Coding practice backend with step-by-step advice",
		Long: `stepwise serves the coding practice API: students log in, run C programs,
ask for staged advice and restore their latest code. Every run, advice and
save is appended to an activity log keyed by user and task.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", DefaultConfigPath, "path to the configuration file")

	load := func() (*platform.Config, error) {
		cfg, err := platform.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", configPath, err)
		}
		return cfg, nil
	}

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newUsersCmd(load))
	root.AddCommand(newMigrateCmd(load))
	root.AddCommand(newVersionCmd(version))
	return root
}

// configLoader loads the configuration named by --config.
type configLoader func() (*platform.Config, error)
