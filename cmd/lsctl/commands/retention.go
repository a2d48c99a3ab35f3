package commands

import (
	"github.com/spf13/cobra"
)

// NewRetentionCommand creates the retention command.
func NewRetentionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "retention STREAM",
		Short: "Show the retention policies of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			policies, err := client.Retention().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, policies, func(table *tableWriter) {
				table.header("Action", "Duration", "Description")

				for _, policy := range policies {
					table.row(policy.Action, policy.Duration, policy.Description)
				}
			})
		},
	}
}
