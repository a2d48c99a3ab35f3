package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/logstream-client/internal/auth"
	"github.com/fivetwenty-io/logstream-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// Client implements logstream.Client for one server connection.
type Client struct {
	httpClient *internalhttp.Client
	cache      *logstream.ResponseCache
	baseURL    string
	logger     logstream.Logger

	// Resource clients
	streams   *StreamsClient
	query     *QueryClient
	alerts    *AlertsClient
	retention *RetentionClient
	users     *UsersClient
	filters   *FiltersClient
}

// initializeResourceClients initializes all resource clients.
func (c *Client) initializeResourceClients() {
	c.streams = NewStreamsClient(c.httpClient, c.cache)
	c.query = NewQueryClient(c.httpClient)
	c.alerts = NewAlertsClient(c.httpClient)
	c.retention = NewRetentionClient(c.httpClient)
	c.users = NewUsersClient(c.httpClient)
	c.filters = NewFiltersClient(c.httpClient, c.cache)
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *logstream.Config) []internalhttp.Option {
	var httpOpts []internalhttp.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, internalhttp.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, internalhttp.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, internalhttp.WithUserAgent(config.UserAgent))
	}

	if config.RetryMax != 0 || config.RetryWaitMin > 0 || config.RetryWaitMax > 0 {
		retryMax := config.RetryMax
		if retryMax == 0 {
			retryMax = constants.LowRetryMax
		}

		httpOpts = append(httpOpts, internalhttp.WithRetryConfig(retryMax, config.RetryWaitMin, config.RetryWaitMax))
	}

	if config.HTTPTimeout > 0 || config.TransferTimeout > 0 {
		httpOpts = append(httpOpts, internalhttp.WithTimeouts(config.HTTPTimeout, config.TransferTimeout))
	}

	if config.SkipTLSVerify {
		httpOpts = append(httpOpts, internalhttp.WithInsecureSkipVerify(true))
	}

	chain := config.Interceptors
	if config.RateLimit > 0 {
		// Wrap instead of appending so the caller's chain is left untouched.
		chain = logstream.NewInterceptorChain().
			AddRequestInterceptor(logstream.RateLimitInterceptor(config.RateLimit, 1)).
			AddRequestInterceptor(config.Interceptors.ExecuteRequestInterceptors).
			AddResponseInterceptor(config.Interceptors.ExecuteResponseInterceptors)
	}

	if chain != nil {
		httpOpts = append(httpOpts, internalhttp.WithInterceptors(chain))
	}

	return httpOpts
}

// New creates a client for the connection described by config. The base URL
// is used as given; lsclient.New normalizes it first.
func New(config *logstream.Config) (*Client, error) {
	if config == nil {
		return nil, logstream.ErrConfigRequired
	}

	if config.BaseURL == "" {
		return nil, logstream.ErrBaseURLRequired
	}

	authorizer := auth.NewBasicAuthorizer(config.Username, config.ConnectionID, config.Credentials)

	return NewWithAuthorizer(config, authorizer), nil
}

// NewWithAuthorizer creates a client with a custom authorizer.
func NewWithAuthorizer(config *logstream.Config, authorizer internalhttp.Authorizer) *Client {
	httpClient := internalhttp.NewClient(config.BaseURL, authorizer, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient: httpClient,
		cache:      logstream.NewResponseCache(config.Cache, config.Logger),
		baseURL:    config.BaseURL,
		logger:     config.Logger,
	}

	client.initializeResourceClients()

	return client
}

// BaseURL returns the server this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health implements logstream.Client.Health.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.httpClient.Head(ctx, constants.PathLiveness)
	if err != nil {
		return fmt.Errorf("checking liveness: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checking liveness: %w", logstream.NewServerError(resp.StatusCode, http.StatusText(resp.StatusCode)))
	}

	return nil
}

// About implements logstream.Client.About.
func (c *Client) About(ctx context.Context) (*logstream.About, error) {
	about, err := fetchCached[logstream.About](ctx, c.httpClient, c.cache, logstream.CacheKey("about"), constants.PathAbout)
	if err != nil {
		return nil, fmt.Errorf("getting server info: %w", err)
	}

	return about, nil
}

// InvalidateCache implements logstream.Client.InvalidateCache.
func (c *Client) InvalidateCache(ctx context.Context) error {
	err := c.cache.InvalidateAll(ctx)
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}

	return nil
}

// CacheStats implements logstream.Client.CacheStats.
func (c *Client) CacheStats() logstream.CacheStats {
	return c.cache.Stats()
}

// Close implements logstream.Client.Close.
func (c *Client) Close() error {
	return c.httpClient.Close()
}

// Resource client accessors

// Streams implements logstream.Client.Streams.
func (c *Client) Streams() logstream.StreamsClient {
	return c.streams
}

// Query implements logstream.Client.Query.
func (c *Client) Query() logstream.QueryClient {
	return c.query
}

// Alerts implements logstream.Client.Alerts.
func (c *Client) Alerts() logstream.AlertsClient {
	return c.alerts
}

// Retention implements logstream.Client.Retention.
func (c *Client) Retention() logstream.RetentionClient {
	return c.retention
}

// Users implements logstream.Client.Users.
func (c *Client) Users() logstream.UsersClient {
	return c.users
}

// Filters implements logstream.Client.Filters.
func (c *Client) Filters() logstream.FiltersClient {
	return c.filters
}

// fetchCached serves path from the cache when possible. On a miss it fetches,
// decodes and then stores the raw body, so a body that does not decode is
// never cached.
func fetchCached[T any](
	ctx context.Context,
	httpClient *internalhttp.Client,
	cache *logstream.ResponseCache,
	key, path string,
) (*T, error) {
	if body, ok := cache.Get(ctx, key); ok {
		value, err := logstream.DecodeStrict[T](body)
		if err == nil {
			return &value, nil
		}
	}

	body, err := fetch(ctx, httpClient, path, nil)
	if err != nil {
		return nil, err
	}

	value, err := logstream.DecodeStrict[T](body)
	if err != nil {
		return nil, err
	}

	_ = cache.Set(ctx, key, body) // failures are logged by the cache

	return &value, nil
}

// fetch performs a GET and returns the successful body.
func fetch(ctx context.Context, httpClient *internalhttp.Client, path string, query url.Values) ([]byte, error) {
	resp, err := httpClient.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

// Compile-time check.
var _ logstream.Client = (*Client)(nil)
