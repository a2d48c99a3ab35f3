package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// StreamsClient implements logstream.StreamsClient.
type StreamsClient struct {
	httpClient *internalhttp.Client
	cache      *logstream.ResponseCache
}

// NewStreamsClient creates a new streams client.
func NewStreamsClient(httpClient *internalhttp.Client, cache *logstream.ResponseCache) *StreamsClient {
	return &StreamsClient{
		httpClient: httpClient,
		cache:      cache,
	}
}

// List implements logstream.StreamsClient.List.
func (c *StreamsClient) List(ctx context.Context) ([]logstream.LogStream, error) {
	body, err := fetch(ctx, c.httpClient, constants.PathLogStream, nil)
	if err != nil {
		return nil, fmt.Errorf("listing streams: %w", err)
	}

	streams, err := logstream.DecodeStrict[[]logstream.LogStream](body)
	if err != nil {
		return nil, fmt.Errorf("parsing streams list: %w", err)
	}

	return streams, nil
}

// Create implements logstream.StreamsClient.Create.
func (c *StreamsClient) Create(ctx context.Context, name string) error {
	if name == "" {
		return logstream.ErrStreamNameRequired
	}

	_, err := c.httpClient.Put(ctx, streamPath(name), nil)
	if err != nil {
		return fmt.Errorf("creating stream: %w", err)
	}

	_ = c.cache.InvalidateAll(ctx)

	return nil
}

// Delete implements logstream.StreamsClient.Delete.
func (c *StreamsClient) Delete(ctx context.Context, name string) error {
	if name == "" {
		return logstream.ErrStreamNameRequired
	}

	_, err := c.httpClient.Delete(ctx, streamPath(name))
	if err != nil {
		return fmt.Errorf("deleting stream: %w", err)
	}

	_ = c.cache.InvalidateAll(ctx)

	return nil
}

// Schema implements logstream.StreamsClient.Schema.
func (c *StreamsClient) Schema(ctx context.Context, name string) (*logstream.Schema, error) {
	if name == "" {
		return nil, logstream.ErrStreamNameRequired
	}

	schema, err := fetchCached[logstream.Schema](ctx, c.httpClient, c.cache,
		logstream.CacheKey("schema", name), streamPath(name, "schema"))
	if err != nil {
		return nil, fmt.Errorf("getting schema of %s: %w", name, err)
	}

	return schema, nil
}

// Stats implements logstream.StreamsClient.Stats.
func (c *StreamsClient) Stats(ctx context.Context, name string) (*logstream.Stats, error) {
	if name == "" {
		return nil, logstream.ErrStreamNameRequired
	}

	stats, err := fetchCached[logstream.Stats](ctx, c.httpClient, c.cache,
		logstream.CacheKey("stats", name), streamPath(name, "stats"))
	if err != nil {
		return nil, fmt.Errorf("getting stats of %s: %w", name, err)
	}

	return stats, nil
}

// Info implements logstream.StreamsClient.Info.
func (c *StreamsClient) Info(ctx context.Context, name string) (*logstream.StreamInfo, error) {
	if name == "" {
		return nil, logstream.ErrStreamNameRequired
	}

	info, err := fetchCached[logstream.StreamInfo](ctx, c.httpClient, c.cache,
		logstream.CacheKey("info", name), streamPath(name, "info"))
	if err != nil {
		return nil, fmt.Errorf("getting info of %s: %w", name, err)
	}

	return info, nil
}

// streamPath returns the escaped path of a stream or one of its sub-resources.
func streamPath(name string, subresource ...string) string {
	return internalhttp.Path(constants.PathLogStream, append([]string{name}, subresource...)...)
}
