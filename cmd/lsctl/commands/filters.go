package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// NewFiltersCommand creates the filters command group.
func NewFiltersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filters",
		Aliases: []string{"filter"},
		Short:   "Manage saved filters",
	}

	cmd.AddCommand(newFiltersListCommand())
	cmd.AddCommand(newFiltersGetCommand())
	cmd.AddCommand(newFiltersCreateCommand())
	cmd.AddCommand(newFiltersDeleteCommand())

	return cmd
}

func filterRows(table *tableWriter, filters []logstream.Filter) {
	table.header("ID", "Name", "Stream", "Type", "Query")

	for _, filter := range filters {
		table.row(filter.ID, filter.Name, filter.StreamName, filter.Query.FilterType, filter.Query.FilterQuery)
	}
}

func newFiltersListCommand() *cobra.Command {
	var stream string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			filters, err := client.Filters().List(cmd.Context())
			if err != nil {
				return err
			}

			if stream != "" {
				filtered := make([]logstream.Filter, 0, len(filters))

				for _, filter := range filters {
					if filter.StreamName == stream {
						filtered = append(filtered, filter)
					}
				}

				filters = filtered
			}

			return render(cmd, filters, func(table *tableWriter) {
				filterRows(table, filters)
			})
		},
	}

	cmd.Flags().StringVarP(&stream, "stream", "s", "", "only show filters of this stream")

	return cmd
}

func newFiltersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a saved filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			filter, err := client.Filters().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return render(cmd, filter, func(table *tableWriter) {
				filterRows(table, []logstream.Filter{*filter})
			})
		},
	}
}

func newFiltersCreateCommand() *cobra.Command {
	var (
		stream     string
		filterType string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "create NAME QUERY",
		Short: "Save a filter",
		Example: `  lsctl filters create errors "SELECT * FROM app WHERE level = 'error'" --stream app
  lsctl filters create last-hour "SELECT * FROM app" --stream app --from 1h`,
		Args: cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			if stream == "" {
				return fmt.Errorf("%w: --stream", constants.ErrMissingFlag)
			}

			request := &logstream.FilterCreateRequest{
				Name:       args[0],
				StreamName: stream,
				Query: logstream.FilterQuery{
					FilterType:  filterType,
					FilterQuery: args[1],
				},
			}

			if from != "" {
				request.TimeFilter = &logstream.TimeFilter{From: from, To: to}
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			filter, err := client.Filters().Create(cmd.Context(), request)
			if err != nil {
				return err
			}

			return render(cmd, filter, func(table *tableWriter) {
				filterRows(table, []logstream.Filter{*filter})
			})
		},
	}

	cmd.Flags().StringVarP(&stream, "stream", "s", "", "stream the filter applies to (required)")
	cmd.Flags().StringVar(&filterType, "type", "sql", "filter type")
	cmd.Flags().StringVar(&from, "from", "", "saved window start, as the server expects it")
	cmd.Flags().StringVar(&to, "to", "now", "saved window end")

	return cmd
}

func newFiltersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a saved filter",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			err = client.Filters().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "deleted", "filter": args[0]})
		},
	}
}
