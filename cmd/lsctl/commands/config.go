package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// Config represents the CLI configuration.
type Config struct {
	Connections       map[string]*ConnectionConfig `json:"connections,omitempty"        toml:"connections,omitempty"        yaml:"connections,omitempty"`
	CurrentConnection string                       `json:"current_connection,omitempty" toml:"current_connection,omitempty" yaml:"current_connection,omitempty"`

	// Global settings
	Output    string        `json:"output,omitempty"     toml:"output,omitempty"     yaml:"output,omitempty"`
	LogLevel  string        `json:"log_level,omitempty"  toml:"log_level,omitempty"  yaml:"log_level,omitempty"`
	LogFile   string        `json:"log_file,omitempty"   toml:"log_file,omitempty"   yaml:"log_file,omitempty"`
	Timeout   string        `json:"timeout,omitempty"    toml:"timeout,omitempty"    yaml:"timeout,omitempty"`
	RateLimit float64       `json:"rate_limit,omitempty" toml:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	RetryMax  int           `json:"retry_max,omitempty"  toml:"retry_max,omitempty"  yaml:"retry_max,omitempty"`
	Cache     CacheSettings `json:"cache"                toml:"cache"                yaml:"cache,omitempty"`
}

// ConnectionConfig is one saved server connection. The secret lives in the
// credential store; Password is only read to migrate old config files.
type ConnectionConfig struct {
	ID            string `json:"id"                        toml:"id"                        yaml:"id"`
	Name          string `json:"name,omitempty"            toml:"name,omitempty"            yaml:"name,omitempty"`
	BaseURL       string `json:"base_url"                  toml:"base_url"                  yaml:"base_url"`
	Username      string `json:"username"                  toml:"username"                  yaml:"username"`
	SkipTLSVerify bool   `json:"skip_tls_verify,omitempty" toml:"skip_tls_verify,omitempty" yaml:"skip_tls_verify,omitempty"`
	Password      string `json:"-"                         toml:"-"                         yaml:"password,omitempty"`
}

// CacheSettings selects the response cache backend.
type CacheSettings struct {
	Type    string `json:"type,omitempty"     toml:"type,omitempty"     yaml:"type,omitempty"`
	TTL     string `json:"ttl,omitempty"      toml:"ttl,omitempty"      yaml:"ttl,omitempty"`
	NATSURL string `json:"nats_url,omitempty" toml:"nats_url,omitempty" yaml:"nats_url,omitempty"`
	Bucket  string `json:"bucket,omitempty"   toml:"bucket,omitempty"   yaml:"bucket,omitempty"`
}

// Connection returns the connection record handed to the library.
func (c *ConnectionConfig) Connection() logstream.Connection {
	return logstream.Connection{
		ID:       c.ID,
		BaseURL:  c.BaseURL,
		Username: c.Username,
	}
}

// DisplayName returns the name, or the id for unnamed connections.
func (c *ConnectionConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}

	return c.ID
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change global lsctl settings such as output format, logging and caching",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}

			return render(cmd, config, func(table *tableWriter) {
				table.header("Setting", "Value")
				table.row("Config file", configFilePath())
				table.row("Current connection", config.CurrentConnection)
				table.row("Connections", strconv.Itoa(len(config.Connections)))

				for _, key := range configKeys() {
					table.row(key, configSettings[key].get(config))
				}
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a global configuration value. Known keys: " + fmt.Sprint(configKeys()),
		Args:  cobra.ExactArgs(constants.MinimumArgumentCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			setting, ok := configSettings[key]
			if !ok {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			err = setting.set(config, value)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}

			err = saveConfig(config)
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "set", "key": key, "value": value})
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			setting, ok := configSettings[key]
			if !ok {
				return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
			}

			config, err := loadConfig()
			if err != nil {
				return err
			}

			_ = setting.set(config, "")

			err = saveConfig(config)
			if err != nil {
				return err
			}

			return renderResult(cmd, map[string]string{"action": "unset", "key": key})
		},
	}
}

// configSetting reads and writes one global key. Setting "" resets it.
type configSetting struct {
	get func(*Config) string
	set func(*Config, string) error
}

var configSettings = map[string]configSetting{
	"output": {
		get: func(c *Config) string { return c.Output },
		set: func(c *Config, v string) error {
			if v != "" && !isSupportedFormat(v) {
				return fmt.Errorf("%w: %s", constants.ErrUnsupportedOutput, v)
			}

			c.Output = v

			return nil
		},
	},
	"log_level": stringSetting(func(c *Config) *string { return &c.LogLevel }),
	"log_file":  stringSetting(func(c *Config) *string { return &c.LogFile }),
	"timeout": {
		get: func(c *Config) string { return c.Timeout },
		set: func(c *Config, v string) error { return setDuration(&c.Timeout, v) },
	},
	"rate_limit": {
		get: func(c *Config) string {
			if c.RateLimit == 0 {
				return ""
			}

			return strconv.FormatFloat(c.RateLimit, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.RateLimit = 0

				return nil
			}

			limit, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("parsing rate limit: %w", err)
			}

			c.RateLimit = limit

			return nil
		},
	},
	"retry_max": {
		get: func(c *Config) string {
			if c.RetryMax == 0 {
				return ""
			}

			return strconv.Itoa(c.RetryMax)
		},
		set: func(c *Config, v string) error {
			if v == "" {
				c.RetryMax = 0

				return nil
			}

			retries, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("parsing retry count: %w", err)
			}

			c.RetryMax = retries

			return nil
		},
	},
	"cache.type": {
		get: func(c *Config) string { return c.Cache.Type },
		set: func(c *Config, v string) error {
			switch logstream.CacheType(v) {
			case "", logstream.CacheTypeMemory, logstream.CacheTypeNATS, logstream.CacheTypeTiered, logstream.CacheTypeNone:
				c.Cache.Type = v

				return nil
			default:
				return fmt.Errorf("%w: %s", logstream.ErrUnsupportedCacheType, v)
			}
		},
	},
	"cache.ttl": {
		get: func(c *Config) string { return c.Cache.TTL },
		set: func(c *Config, v string) error { return setDuration(&c.Cache.TTL, v) },
	},
	"cache.nats_url": stringSetting(func(c *Config) *string { return &c.Cache.NATSURL }),
	"cache.bucket":   stringSetting(func(c *Config) *string { return &c.Cache.Bucket }),
}

// stringSetting is a setting stored verbatim.
func stringSetting(field func(*Config) *string) configSetting {
	return configSetting{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			*field(c) = v

			return nil
		},
	}
}

func configKeys() []string {
	keys := make([]string, 0, len(configSettings))
	for key := range configSettings {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func setDuration(field *string, value string) error {
	if value != "" {
		_, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("parsing duration: %w", err)
		}
	}

	*field = value

	return nil
}

// configFilePath returns the config file in use, or the default location.
func configFilePath() string {
	if file := viper.ConfigFileUsed(); file != "" {
		return file
	}

	if file := viper.GetString("config"); file != "" {
		return file
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".lsctl", "config.yml")
	}

	return filepath.Join(home, ".lsctl", "config.yml")
}

// credentialsFilePath keeps secrets next to the config file.
func credentialsFilePath() string {
	return filepath.Join(filepath.Dir(configFilePath()), "credentials.yml")
}

func loadConfig() (*Config, error) {
	config := &Config{}

	// configFilePath is derived from the home directory or the --config flag
	// #nosec G304
	data, err := os.ReadFile(configFilePath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if len(data) > 0 {
		err = yaml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFilePath(), err)
		}
	}

	if config.Connections == nil {
		config.Connections = make(map[string]*ConnectionConfig)
	}

	for id, connection := range config.Connections {
		if connection.ID == "" {
			connection.ID = id
		}
	}

	return config, nil
}

func saveConfig(config *Config) error {
	configFile := configFilePath()

	err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// findConnection resolves a connection by id or name.
func findConnection(config *Config, ref string) (*ConnectionConfig, error) {
	if len(config.Connections) == 0 {
		return nil, constants.ErrNoConnectionsConfigured
	}

	if connection, ok := config.Connections[ref]; ok {
		return connection, nil
	}

	for _, connection := range config.Connections {
		if connection.Name != "" && connection.Name == ref {
			return connection, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", constants.ErrConnectionNotFound, ref)
}

// selectedConnection returns the --connection override or the current one.
func selectedConnection(config *Config) (*ConnectionConfig, error) {
	ref := viper.GetString("connection")
	if ref == "" {
		ref = config.CurrentConnection
	}

	if ref == "" {
		if len(config.Connections) == 0 {
			return nil, constants.ErrNoConnectionsConfigured
		}

		return nil, constants.ErrNoCurrentConnection
	}

	return findConnection(config, ref)
}
