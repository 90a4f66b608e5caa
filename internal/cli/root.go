// Package cli defines the sudarmaa command line. Every command shares the
// environment configuration; flags only override individual values.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/entrypoint"
)

// NewRootCommand builds the command tree. Running without a subcommand serves
// the API.
func NewRootCommand(version string) *cobra.Command {
	var databasePath string
	cfg := config.NewConfig()

	serve := NewServeCommand(cfg, version)

	root := &cobra.Command{
		Use:           "sudarmaa",
		Short:         "Book catalogue with hierarchical pages, shelves and picks",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if databasePath != "" {
				cfg.Database.Path = databasePath
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.Run()
		},
	}
	root.PersistentFlags().StringVar(&databasePath, "db", "", "SQLite database path (overrides DATABASE_PATH)")

	root.AddCommand(
		serve.Command(),
		NewCreateUserCommand(cfg).Command(),
		NewBootstrapCommand(cfg).Command(),
	)
	return root
}

// withLogging runs fn with the global logger installed.
func withLogging(cfg *config.Config, fn func() error) error {
	flush, err := entrypoint.SetupLogging(cfg.Global.LogLevel)
	if err != nil {
		return err
	}
	defer flush()
	return fn()
}
