package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
)

// tableWriter collects rows for the table output format.
type tableWriter struct {
	table *tablewriter.Table
	err   error
}

func (t *tableWriter) header(columns ...string) {
	values := make([]any, len(columns))
	for i, column := range columns {
		values[i] = column
	}

	t.table.Header(values...)
}

func (t *tableWriter) row(values ...string) {
	if t.err != nil {
		return
	}

	err := t.table.Append(values)
	if err != nil {
		t.err = fmt.Errorf("failed to append table row: %w", err)
	}
}

func isSupportedFormat(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML, constants.FormatTOML:
		return true
	default:
		return false
	}
}

// outputFormat returns the selected output format.
func outputFormat() string {
	format := viper.GetString("output")
	if format == "" {
		return constants.FormatTable
	}

	return format
}

// render writes data in the selected format. fillTable builds the table
// representation.
func render(cmd *cobra.Command, data any, fillTable func(table *tableWriter)) error {
	return renderTo(cmd.OutOrStdout(), outputFormat(), data, fillTable)
}

func renderTo(out io.Writer, format string, data any, fillTable func(table *tableWriter)) error {
	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as JSON: %w", err)
		}

		return nil

	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		defer encoder.Close()

		err := encoder.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode output as YAML: %w", err)
		}

		return nil

	case constants.FormatTOML:
		err := toml.NewEncoder(out).Encode(tomlDocument(data))
		if err != nil {
			return fmt.Errorf("failed to encode output as TOML: %w", err)
		}

		return nil

	case constants.FormatTable:
		table := &tableWriter{table: tablewriter.NewWriter(out)}
		fillTable(table)

		if table.err != nil {
			return table.err
		}

		err := table.table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil

	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, format)
	}
}

// tomlDocument wraps values TOML cannot hold at the top level.
func tomlDocument(data any) any {
	value := reflect.ValueOf(data)
	for value.Kind() == reflect.Pointer && !value.IsNil() {
		value = value.Elem()
	}

	switch value.Kind() {
	case reflect.Struct, reflect.Map:
		return data
	default:
		return map[string]any{"items": data}
	}
}

// renderResult prints the outcome of a command that changes state.
func renderResult(cmd *cobra.Command, result map[string]string) error {
	return render(cmd, result, func(table *tableWriter) {
		keys := make([]string, 0, len(result))
		for key := range result {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		table.header("Property", "Value")

		for _, key := range keys {
			table.row(key, result[key])
		}
	})
}
