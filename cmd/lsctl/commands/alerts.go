package commands

import (
	"github.com/spf13/cobra"
)

// NewAlertsCommand creates the alerts command.
func NewAlertsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "alerts STREAM",
		Aliases: []string{"alert"},
		Short:   "Show the alerts configured for a stream",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			config, err := client.Alerts().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, config, func(table *tableWriter) {
				table.header("ID", "Name", "Severity", "State", "Message")

				for _, alert := range config.Alerts {
					table.row(alert.ID, alert.DisplayName(), alert.Severity, alert.State, alert.Message)
				}
			})
		},
	}
}
