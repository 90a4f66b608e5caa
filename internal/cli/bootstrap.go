package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/entities"
	"github.com/sudarmaa/sudarmaa/internal/entrypoint"
)

// BootstrapCommand migrates the database and creates the Publishers group
// without starting the server.
type BootstrapCommand struct {
	cfg *config.Config
}

func NewBootstrapCommand(cfg *config.Config) *BootstrapCommand {
	return &BootstrapCommand{cfg: cfg}
}

func (cmd *BootstrapCommand) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Migrate the database and ensure the Publishers group",
		RunE: func(*cobra.Command, []string) error {
			return withLogging(cmd.cfg, cmd.Run)
		},
	}
}

func (cmd *BootstrapCommand) Run() error {
	db, err := entrypoint.Bootstrap(cmd.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	group, err := groups.NewRepository(db.DB).GetGroupByName(entities.GroupPublishers)
	if err != nil {
		return err
	}
	fmt.Printf("Group %q ready with %d permission(s)\n", group.Name, len(group.Permissions))
	return nil
}
