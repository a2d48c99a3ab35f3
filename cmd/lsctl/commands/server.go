package commands

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is live",
		Long:  "Check the liveness endpoint of the selected connection. Only a 200 answer counts as healthy.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Health(cmd.Context())
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"status": "ok"})
		},
	}
}

// NewAboutCommand creates the about command.
func NewAboutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Show server information",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			about, err := client.About(cmd.Context())
			if err != nil {
				return err
			}

			return render(cmd, about, func(table *tableWriter) {
				table.header("Property", "Value")
				table.row("Version", about.Version)
				table.row("UI Version", about.UIVersion)
				table.row("Commit", about.Commit)
				table.row("Deployment ID", about.DeploymentID)
				table.row("Mode", about.Mode)
				table.row("License", about.License)
				table.row("Store", about.Store.Type)

				if about.Store.Path != "" {
					table.row("Store Path", about.Store.Path)
				}

				table.row("OIDC", strconv.FormatBool(about.OIDCActive))

				if about.UpdateAvailable {
					table.row("Update Available", about.LatestVersion)
				}
			})
		},
	}
}
