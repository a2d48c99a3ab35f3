package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached response of the selected connection",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.InvalidateCache(cmd.Context())
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "cleared"})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the cache settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			settings := config.Cache
			if settings.Type == "" {
				settings.Type = string(logstream.CacheTypeMemory)
			}

			if settings.TTL == "" {
				settings.TTL = constants.CacheTTL.String()
			}

			return render(cmd, settings, func(table *tableWriter) {
				table.header("Setting", "Value")
				table.row("Type", settings.Type)
				table.row("TTL", settings.TTL)

				if settings.NATSURL != "" {
					table.row("NATS URL", settings.NATSURL)
					table.row("Bucket", settings.Bucket)
				}

				table.row("Rate Limit", rateLimitText(config.RateLimit))
			})
		},
	})

	return cmd
}

func rateLimitText(limit float64) string {
	if limit <= 0 {
		return "unlimited"
	}

	return fmt.Sprintf("%s/s", strconv.FormatFloat(limit, 'f', -1, 64))
}
