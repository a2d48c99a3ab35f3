package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration and credential files.
	ConfigFilePerm = 0600
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout bounds the wait for response headers on a single request.
	DefaultHTTPTimeout = 30 * time.Second

	// BodyTransferTimeout bounds a whole exchange, including reading the body.
	// Large query result sets need minutes, not seconds.
	BodyTransferTimeout = 5 * time.Minute

	// ShortHTTPTimeout bounds the liveness check run on client initialization.
	ShortHTTPTimeout = 10 * time.Second

	// DialTimeout bounds TCP connection setup.
	DialTimeout = 10 * time.Second

	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout = 10 * time.Second

	// IdleConnTimeout is how long idle pooled connections are kept.
	IdleConnTimeout = 90 * time.Second

	// MaxIdleConnsPerHost sizes the per-host connection pool.
	MaxIdleConnsPerHost = 16
)

// Retry limits.
const (
	// LowRetryMax is used when the caller does not configure retries.
	LowRetryMax = 3

	// DefaultRetryWaitMin is the minimum wait time between retries.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax is the maximum wait time between retries.
	DefaultRetryWaitMax = 10 * time.Second
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent per-stream fetches in the CLI.
	DefaultConcurrencyLimit = 4
)

// Cache settings.
const (
	// CacheTTL is how long a cached response stays valid.
	CacheTTL = 60 * time.Second

	// DefaultNATSBucket is the JetStream KV bucket used for the shared cache.
	DefaultNATSBucket = "logstream_cache"
)

// API paths.
const (
	APIPrefix     = "/api/v1"
	PathLiveness  = APIPrefix + "/liveness"
	PathAbout     = APIPrefix + "/about"
	PathLogStream = APIPrefix + "/logstream"
	PathQuery     = APIPrefix + "/query"
	PathAlerts    = APIPrefix + "/alerts"
	PathUsers     = APIPrefix + "/user"
	PathFilters   = APIPrefix + "/filters"
)

// Wire formats.
const (
	// QueryTimeLayout is the ISO-8601 layout the server expects for query bounds.
	QueryTimeLayout = "2006-01-02T15:04:05.000Z"

	// ContentTypeJSON is sent as both Content-Type and Accept.
	ContentTypeJSON = "application/json"

	// InvalidCredentialsHeader replaces the Authorization value when the
	// credentials cannot be encoded as UTF-8.
	InvalidCredentialsHeader = "Basic invalid-credentials"

	// DefaultUserAgent identifies the client on the wire.
	DefaultUserAgent = "logstream-client/1.0"

	// NonTextBodyPlaceholder stands in for a server error body that is not text.
	NonTextBodyPlaceholder = "<non-text response body>"
)

// Format constants.
const (
	// FormatTable for table output format.
	FormatTable = "table"

	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTOML for TOML output format.
	FormatTOML = "toml"
)

// Command line limits.
const (
	// MinimumArgumentCount is the argument count for KEY VALUE commands.
	MinimumArgumentCount = 2

	// DefaultQueryWindow is the look-back used by the query command when no
	// start time is given.
	DefaultQueryWindow = 10 * time.Minute
)
