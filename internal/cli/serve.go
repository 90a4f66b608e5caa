package cli

import (
	"github.com/spf13/cobra"

	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/entrypoint"
)

// ServeCommand starts the HTTP API.
type ServeCommand struct {
	cfg     *config.Config
	version string
	port    int32
}

func NewServeCommand(cfg *config.Config, version string) *ServeCommand {
	return &ServeCommand{cfg: cfg, version: version}
}

func (cmd *ServeCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE: func(*cobra.Command, []string) error {
			return cmd.Run()
		},
	}
	c.Flags().Int32Var(&cmd.port, "port", 0, "Listen port (overrides PORT)")
	return c
}

func (cmd *ServeCommand) Run() error {
	if cmd.port > 0 {
		cmd.cfg.HTTP.Port = cmd.port
	}
	return withLogging(cmd.cfg, func() error {
		return entrypoint.Run(cmd.cfg, cmd.version)
	})
}
