package commands

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	var (
		from     string
		to       string
		since    time.Duration
		fields   bool
		sendNull bool
	)

	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: "Run a SQL query",
		Long: `Run a SQL query over a time window.

--from and --to accept RFC 3339 timestamps or a duration that is subtracted
from now, e.g. "--from 2h --to 1h". Without --from the query covers the last
--since (default 10m).`,
		Example: `  lsctl query "SELECT * FROM app LIMIT 10"
  lsctl query --since 1h "SELECT count(*) FROM app"
  lsctl query --from 2025-01-01T00:00:00Z --to 2025-01-02T00:00:00Z -o json "SELECT * FROM app"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()

			start, end, err := queryWindow(now, from, to, since)
			if err != nil {
				return err
			}

			client, err := newClient(cmd.Context())
			if err != nil {
				return err
			}

			result, err := client.Query().Run(cmd.Context(), &logstream.QueryRequest{
				Query:     strings.Join(args, " "),
				StartTime: start,
				EndTime:   end,
				Fields:    fields,
				SendNull:  sendNull,
			})
			if err != nil {
				return err
			}

			return render(cmd, result, func(table *tableWriter) {
				columns := resultColumns(result)
				table.header(columns...)

				for _, record := range result.Records {
					row := make([]string, len(columns))
					for i, column := range columns {
						row[i] = cellText(record[column])
					}

					table.row(row...)
				}
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "start of the window, RFC 3339 or a duration ago")
	cmd.Flags().StringVar(&to, "to", "", "end of the window, RFC 3339 or a duration ago (default now)")
	cmd.Flags().DurationVar(&since, "since", constants.DefaultQueryWindow, "window length when --from is not given")
	cmd.Flags().BoolVar(&fields, "fields", false, "ask the server for the field list")
	cmd.Flags().BoolVar(&sendNull, "send-null", false, "keep null columns in the result")

	return cmd
}

// queryWindow resolves the --from/--to/--since flags against now.
func queryWindow(now time.Time, from, to string, since time.Duration) (time.Time, time.Time, error) {
	end := now

	if to != "" {
		var err error

		end, err = parseTimeFlag(now, to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	start := end.Add(-since)

	if from != "" {
		var err error

		start, err = parseTimeFlag(now, from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	return start, end, nil
}

func parseTimeFlag(now time.Time, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}

	if d, err := time.ParseDuration(value); err == nil && d >= 0 {
		return now.Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", constants.ErrInvalidTime, value)
}

// resultColumns uses the server's field list, or the sorted union of record
// keys when the server did not send one.
func resultColumns(result *logstream.QueryResult) []string {
	if len(result.Fields) > 0 {
		return result.Fields
	}

	seen := map[string]bool{}

	var columns []string

	for _, record := range result.Records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	sort.Strings(columns)

	return columns
}

func cellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}

		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
