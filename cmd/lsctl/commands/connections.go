package commands

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/lsclient"
)

// NewConnectionsCommand creates the connections command group.
func NewConnectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connections",
		Aliases: []string{"connection", "conn"},
		Short:   "Manage server connections",
		Long:    "Add, list, select and remove log server connections. Passwords are kept in a separate credentials file.",
	}

	cmd.AddCommand(newConnectionsAddCommand())
	cmd.AddCommand(newConnectionsListCommand())
	cmd.AddCommand(newConnectionsUseCommand())
	cmd.AddCommand(newConnectionsRemoveCommand())
	cmd.AddCommand(newConnectionsMigrateCommand())

	return cmd
}

func newConnectionsAddCommand() *cobra.Command {
	var (
		baseURL       string
		username      string
		password      string
		skipTLSVerify bool
		noVerify      bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add or update a connection",
		Long: `Add a connection, or update the one with the same name.

The password is read from --password, the LSCTL_PASSWORD environment variable,
or an interactive prompt, in that order. The connection is verified against the
server's liveness endpoint unless --no-verify is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			ctx := cmd.Context()

			config, err := loadConfig()
			if err != nil {
				return err
			}

			connection, updating := connectionByName(config, name)
			if !updating {
				connection = &ConnectionConfig{ID: uuid.NewString(), Name: name}
			}

			if baseURL != "" {
				connection.BaseURL = lsclient.NormalizeBaseURL(baseURL)
			}

			if username != "" {
				connection.Username = username
			}

			if cmd.Flags().Changed("skip-tls-verify") {
				connection.SkipTLSVerify = skipTLSVerify
			}

			if connection.BaseURL == "" {
				return fmt.Errorf("%w: --url is required for a new connection", constants.ErrMissingFlag)
			}

			if connection.Username == "" {
				connection.Username, err = prompt(cmd, "Username: ")
				if err != nil {
					return err
				}
			}

			if password == "" {
				password = viper.GetString("password")
			}

			if password == "" {
				password, err = promptPassword(cmd)
				if err != nil {
					return err
				}
			}

			logger, err := commandLogger(config)
			if err != nil {
				return err
			}

			err = credentialStore(logger).SaveSecret(ctx, connection.ID, password)
			if err != nil {
				return fmt.Errorf("failed to store password: %w", err)
			}

			connection.Password = ""
			config.Connections[connection.ID] = connection

			if config.CurrentConnection == "" {
				config.CurrentConnection = connection.ID
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			if !noVerify || updating {
				client, err := newClientFor(ctx, config, connection, !noVerify)
				if err != nil {
					return fmt.Errorf("connection saved but not reachable: %w", err)
				}

				// Cached responses may belong to the old URL or account.
				if updating {
					err = client.InvalidateCache(ctx)
					if err != nil {
						return err
					}
				}
			}

			action := "added"
			if updating {
				action = "updated"
			}

			return renderResult(cmd, map[string]string{
				"action":   action,
				"id":       connection.ID,
				"name":     connection.Name,
				"base_url": connection.BaseURL,
			})
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "", "server base URL, e.g. https://logs.example.com")
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&skipTLSVerify, "skip-tls-verify", false, "skip TLS certificate verification")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "do not check the connection before saving")

	return cmd
}

func newConnectionsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List connections",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			connections := sortedConnections(config)

			return render(cmd, connections, func(table *tableWriter) {
				table.header("Current", "Name", "URL", "Username", "TLS Verify", "ID")

				for _, connection := range connections {
					marker := ""
					if connection.ID == config.CurrentConnection {
						marker = "*"
					}

					table.row(marker, connection.Name, connection.BaseURL, connection.Username,
						strconv.FormatBool(!connection.SkipTLSVerify), connection.ID)
				}
			})
		},
	}
}

func newConnectionsUseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME|ID",
		Short: "Select the current connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			connection, err := findConnection(config, args[0])
			if err != nil {
				return err
			}

			config.CurrentConnection = connection.ID

			err = saveConfig(config)
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "selected", "name": connection.DisplayName(), "id": connection.ID})
		},
	}
}

func newConnectionsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME|ID",
		Aliases: []string{"rm"},
		Short:   "Remove a connection and its stored password",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			connection, err := findConnection(config, args[0])
			if err != nil {
				return err
			}

			logger, err := commandLogger(config)
			if err != nil {
				return err
			}

			err = credentialStore(logger).DeleteSecret(cmd.Context(), connection.ID)
			if err != nil {
				return fmt.Errorf("failed to delete password: %w", err)
			}

			// The legacy store may have rewritten the file.
			config, err = loadConfig()
			if err != nil {
				return err
			}

			delete(config.Connections, connection.ID)

			if config.CurrentConnection == connection.ID {
				config.CurrentConnection = ""
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "removed", "name": connection.DisplayName(), "id": connection.ID})
		},
	}
}

func newConnectionsMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Move passwords from the config file into the credentials file",
		Long:  "Older versions kept passwords in config.yml. Passwords are moved on first use anyway; this moves all of them now.",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			logger, err := commandLogger(config)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(config.Connections))
			for _, connection := range sortedConnections(config) {
				ids = append(ids, connection.ID)
			}

			migrated, err := credentialStore(logger).MigrateAll(cmd.Context(), ids)
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "migrated", "count": strconv.Itoa(migrated)})
		},
	}
}

func connectionByName(config *Config, name string) (*ConnectionConfig, bool) {
	for _, connection := range config.Connections {
		if connection.Name == name {
			return connection, true
		}
	}

	return nil, false
}

func sortedConnections(config *Config) []*ConnectionConfig {
	connections := make([]*ConnectionConfig, 0, len(config.Connections))
	for _, connection := range config.Connections {
		connections = append(connections, connection)
	}

	sort.Slice(connections, func(i, j int) bool {
		return connections[i].DisplayName() < connections[j].DisplayName()
	})

	return connections
}

func prompt(cmd *cobra.Command, label string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), label)

	reader := bufio.NewReader(cmd.InOrStdin())

	value, err := reader.ReadString('\n')
	if err != nil && value == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	return strings.TrimSpace(value), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd()) //nolint:gosec // file descriptors fit in int
	if !term.IsTerminal(fd) {
		return prompt(cmd, "Password: ")
	}

	_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

	bytePassword, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.ErrOrStderr())

	return string(bytePassword), nil
}
