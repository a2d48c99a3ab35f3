package logstream

import (
	"context"
	"time"
)

// StreamsClient manages log streams.
type StreamsClient interface {
	List(ctx context.Context) ([]LogStream, error)
	Create(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Schema(ctx context.Context, name string) (*Schema, error)
	Stats(ctx context.Context, name string) (*Stats, error)
	Info(ctx context.Context, name string) (*StreamInfo, error)
}

// QueryClient runs SQL queries over a time range.
type QueryClient interface {
	Run(ctx context.Context, request *QueryRequest) (*QueryResult, error)
}

// AlertsClient reads alert configuration.
type AlertsClient interface {
	Get(ctx context.Context, stream string) (*AlertConfig, error)
}

// RetentionClient reads retention policies.
type RetentionClient interface {
	Get(ctx context.Context, stream string) ([]RetentionPolicy, error)
}

// UsersClient lists server accounts.
type UsersClient interface {
	List(ctx context.Context) ([]User, error)
}

// FiltersClient manages saved filters.
type FiltersClient interface {
	List(ctx context.Context) ([]Filter, error)
	Get(ctx context.Context, id string) (*Filter, error)
	Create(ctx context.Context, request *FilterCreateRequest) (*Filter, error)
	Delete(ctx context.Context, id string) error
}

// ServerClient provides access to server level endpoints.
type ServerClient interface {
	// Health succeeds only when the liveness endpoint answers exactly 200.
	Health(ctx context.Context) error
	About(ctx context.Context) (*About, error)
}

// ResourceClients provides access to all resource-specific clients.
type ResourceClients interface {
	Streams() StreamsClient
	Query() QueryClient
	Alerts() AlertsClient
	Retention() RetentionClient
	Users() UsersClient
	Filters() FiltersClient
}

// CacheControl exposes the per-connection response cache.
type CacheControl interface {
	// InvalidateCache drops every cached response, e.g. after the connection
	// was edited.
	InvalidateCache(ctx context.Context) error
	CacheStats() CacheStats
}

// Client is one connection to a log-analytics server.
type Client interface {
	ServerClient
	ResourceClients
	CacheControl

	// Close stops accepting new requests. In-flight requests run to completion.
	Close() error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a logstream.Client.
//
// # Credentials
//
// The password is never part of Config. It is resolved on every request from
// Credentials using ConnectionID as the key, so rotating a secret in the store
// takes effect without rebuilding the client. A missing secret is sent as an
// empty password and the server decides.
//
// # Timeouts and retries
//
// HTTPTimeout bounds the wait for response headers of a single attempt.
// TransferTimeout bounds the whole exchange including the body, which matters
// for large query results. Contexts passed to client methods can cancel
// earlier.
type Config struct {
	// BaseURL of the server (e.g. "https://logs.example.com"). lsclient.New
	// trims a trailing slash and adds "https://" if no scheme is present.
	BaseURL string
	// Username for basic authentication.
	Username string
	// ConnectionID keys the secret in Credentials and identifies the cache.
	ConnectionID string
	// Credentials resolves the password for ConnectionID.
	Credentials CredentialStore

	// HTTPTimeout: per-attempt response header timeout. Zero uses 30s.
	HTTPTimeout time.Duration
	// TransferTimeout: whole-exchange timeout. Zero uses 5m.
	TransferTimeout time.Duration
	// RetryMax: retries for transient failures (>=500 except 501, 429, and
	// connection errors). Zero uses a low default; negative disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// RateLimit caps outgoing requests per second. Zero means unlimited.
	RateLimit float64

	// Debug: enables request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger.
	Logger Logger
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// SkipTLSVerify disables certificate verification. Development only.
	SkipTLSVerify bool

	// Cache is the backend for cached reads. Nil uses an in-memory cache with
	// the standard 60 second TTL.
	Cache Cache
	// Interceptors run around every request.
	Interceptors *InterceptorChain

	// VerifyOnInit: when true, lsclient.New checks the liveness endpoint
	// before returning the client.
	VerifyOnInit bool
}
