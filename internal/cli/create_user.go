package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sudarmaa/sudarmaa/internal/auth"
	"github.com/sudarmaa/sudarmaa/internal/config"
	"github.com/sudarmaa/sudarmaa/internal/database/groups"
	"github.com/sudarmaa/sudarmaa/internal/entities"
	"github.com/sudarmaa/sudarmaa/internal/entrypoint"
)

// CreateUserCommand registers a user, with default shelves, from the shell.
type CreateUserCommand struct {
	cfg       *config.Config
	Username  string
	Email     string
	Password  string
	Role      string
	Publisher bool
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{cfg: cfg}
}

func (cmd *CreateUserCommand) Command() *cobra.Command {
	c := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user with the default shelves",
		Example: `  sudarmaa create-user --username alice --email alice@example.com --password 'long enough secret' --role admin
  sudarmaa create-user --username bob --email bob@example.com --password 'long enough secret' --publisher`,
		RunE: func(*cobra.Command, []string) error {
			return withLogging(cmd.cfg, cmd.Run)
		},
	}
	c.Flags().StringVar(&cmd.Username, "username", "", "Username (required)")
	c.Flags().StringVar(&cmd.Email, "email", "", "Email address (required)")
	c.Flags().StringVar(&cmd.Password, "password", "", "Password, at least 12 characters (required)")
	c.Flags().StringVar(&cmd.Role, "role", string(entities.UserRoleViewer), "Role: admin, editor or viewer")
	c.Flags().BoolVar(&cmd.Publisher, "publisher", false, "Add the user to the Publishers group")
	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func (cmd *CreateUserCommand) Run() error {
	db, err := entrypoint.Bootstrap(cmd.cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := auth.NewService(db.DB, cmd.cfg.Auth).CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRole(cmd.Role))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	if cmd.Publisher {
		if err := groups.NewRepository(db.DB).AddUserToGroup(entities.GroupPublishers, user.ID); err != nil {
			return fmt.Errorf("add to %s: %w", entities.GroupPublishers, err)
		}
	}

	fmt.Printf("Created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}
