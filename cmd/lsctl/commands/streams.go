package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// NewStreamsCommand creates the streams command group.
func NewStreamsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "streams",
		Aliases: []string{"stream", "logstreams"},
		Short:   "Manage log streams",
	}

	cmd.AddCommand(newStreamsListCommand())
	cmd.AddCommand(newStreamsCreateCommand())
	cmd.AddCommand(newStreamsDeleteCommand())
	cmd.AddCommand(newStreamsSchemaCommand())
	cmd.AddCommand(newStreamsStatsCommand())
	cmd.AddCommand(newStreamsInfoCommand())

	return cmd
}

// streamSummary is one row of "streams list --details".
type streamSummary struct {
	Name        string             `json:"name"            toml:"name"            yaml:"name"`
	EventCount  uint64             `json:"event_count"     toml:"event_count"     yaml:"event_count"`
	IngestSize  logstream.ByteSize `json:"ingestion_size"  toml:"ingestion_size"  yaml:"ingestion_size"`
	StorageSize logstream.ByteSize `json:"storage_size"    toml:"storage_size"    yaml:"storage_size"`
	Error       string             `json:"error,omitempty" toml:"error,omitempty" yaml:"error,omitempty"`
}

func newStreamsListCommand() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			streams, err := client.Streams().List(cmd.Context())
			if err != nil {
				return err
			}

			if !details {
				return render(cmd, streams, func(table *tableWriter) {
					table.header("Name")

					for _, stream := range streams {
						table.row(stream.Name)
					}
				})
			}

			summaries, err := summarizeStreams(cmd.Context(), client.Streams(), streams)
			if err != nil {
				return err
			}

			return render(cmd, summaries, func(table *tableWriter) {
				table.header("Name", "Events", "Ingested", "Stored", "Error")

				for _, summary := range summaries {
					table.row(summary.Name, humanize.Comma(int64(summary.EventCount)), //nolint:gosec // display only
						summary.IngestSize.String(), summary.StorageSize.String(), summary.Error)
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&details, "details", "d", false, "fetch event counts and sizes for every stream")

	return cmd
}

// summarizeStreams fetches stats for every stream with bounded concurrency.
// A stream whose stats fail is reported in its row; only cancellation aborts.
func summarizeStreams(ctx context.Context, client logstream.StreamsClient, streams []logstream.LogStream) ([]streamSummary, error) {
	summaries := make([]streamSummary, len(streams))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(constants.DefaultConcurrencyLimit)

	for i, stream := range streams {
		group.Go(func() error {
			summaries[i].Name = stream.Name

			stats, err := client.Stats(groupCtx, stream.Name)
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}

				summaries[i].Error = err.Error()

				return nil
			}

			summaries[i].EventCount = stats.Ingestion.Count
			summaries[i].IngestSize = stats.Ingestion.Size
			summaries[i].StorageSize = stats.Storage.Size

			return nil
		})
	}

	err := group.Wait()
	if err != nil {
		return nil, fmt.Errorf("fetching stream statistics: %w", err)
	}

	return summaries, nil
}

func newStreamsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME",
		Short: "Create a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Streams().Create(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "created", "stream": args[0]})
		},
	}
}

func newStreamsDeleteCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stream and all of its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			if !force {
				answer, err := prompt(cmd, fmt.Sprintf("Really delete stream %q and all of its data? [y/N]: ", name))
				if err != nil {
					return err
				}

				if answer != "y" && answer != "yes" {
					return renderResult(cmd, map[string]string{"action": "skipped", "stream": name})
				}
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Streams().Delete(cmd.Context(), name)
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "deleted", "stream": name})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "do not ask for confirmation")

	return cmd
}

func newStreamsSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema NAME",
		Short: "Show the field list of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			schema, err := client.Streams().Schema(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, schema, func(table *tableWriter) {
				table.header("Field", "Type", "Nullable")

				for _, field := range schema.Fields {
					table.row(field.Name, field.TypeName(), strconv.FormatBool(field.Nullable))
				}
			})
		},
	}
}

func newStreamsStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats NAME",
		Short: "Show ingestion and storage statistics of a stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			stats, err := client.Streams().Stats(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, stats, func(table *tableWriter) {
				table.header("Property", "Value")
				table.row("Stream", stats.Stream)
				table.row("Time", stats.Time)
				table.row("Events", humanize.Comma(int64(stats.Ingestion.Count))) //nolint:gosec // display only
				table.row("Ingested", stats.Ingestion.Size.String())
				table.row("Stored", stats.Storage.Size.String())

				if stats.Ingestion.LifetimeCount > 0 {
					table.row("Lifetime Events", humanize.Comma(int64(stats.Ingestion.LifetimeCount))) //nolint:gosec // display only
				}

				if stats.Ingestion.DeletedCount > 0 {
					table.row("Deleted Events", humanize.Comma(int64(stats.Ingestion.DeletedCount))) //nolint:gosec // display only
				}
			})
		},
	}
}

func newStreamsInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info NAME",
		Short: "Show stream metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			info, err := client.Streams().Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, info, func(table *tableWriter) {
				table.header("Property", "Value")
				table.row("Created", info.CreatedAt)
				table.row("First Event", info.FirstEventAt)
				table.row("Time Partition", info.TimePartition)
				table.row("Custom Partition", info.CustomPartition)
				table.row("Static Schema", strconv.FormatBool(bool(info.StaticSchemaFlag)))
				table.row("Type", info.StreamType)
			})
		},
	}
}
