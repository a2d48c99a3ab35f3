package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the lsctl CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			type VersionInfo struct {
				Version string `json:"version" toml:"version" yaml:"version"`
				Commit  string `json:"commit"  toml:"commit"  yaml:"commit"`
				Built   string `json:"built"   toml:"built"   yaml:"built"`
				Go      string `json:"go"      toml:"go"      yaml:"go"`
			}

			versionInfo := VersionInfo{
				Version: version,
				Commit:  commit,
				Built:   date,
				Go:      runtime.Version(),
			}

			return render(cmd, versionInfo, func(table *tableWriter) {
				table.header("Property", "Value")
				table.row("Version", versionInfo.Version)
				table.row("Commit", versionInfo.Commit)
				table.row("Built", versionInfo.Built)
				table.row("Go", versionInfo.Go)
			})
		},
	}
}
