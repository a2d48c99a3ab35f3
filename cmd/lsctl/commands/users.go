package commands

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewUsersCommand creates the users command.
func NewUsersCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "users",
		Aliases: []string{"user"},
		Short:   "List server accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			users, err := client.Users().List(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, users, func(table *tableWriter) {
				table.header("ID", "Method", "Roles")

				for _, user := range users {
					table.row(user.ID, user.Method, strings.Join(user.RoleNames(), ", "))
				}
			})
		},
	}
}
