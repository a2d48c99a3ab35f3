package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// FiltersClient implements logstream.FiltersClient.
type FiltersClient struct {
	httpClient *internalhttp.Client
	cache      *logstream.ResponseCache
}

// NewFiltersClient creates a new filters client.
func NewFiltersClient(httpClient *internalhttp.Client, cache *logstream.ResponseCache) *FiltersClient {
	return &FiltersClient{
		httpClient: httpClient,
		cache:      cache,
	}
}

// List implements logstream.FiltersClient.List.
func (c *FiltersClient) List(ctx context.Context) ([]logstream.Filter, error) {
	body, err := fetch(ctx, c.httpClient, constants.PathFilters, nil)
	if err != nil {
		return nil, fmt.Errorf("listing filters: %w", err)
	}

	filters, err := logstream.DecodeStrict[[]logstream.Filter](body)
	if err != nil {
		return nil, fmt.Errorf("parsing filters list: %w", err)
	}

	return filters, nil
}

// Get implements logstream.FiltersClient.Get.
func (c *FiltersClient) Get(ctx context.Context, id string) (*logstream.Filter, error) {
	if id == "" {
		return nil, logstream.ErrFilterIDRequired
	}

	body, err := fetch(ctx, c.httpClient, internalhttp.Path(constants.PathFilters, id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting filter: %w", err)
	}

	filter, err := logstream.DecodeStrict[logstream.Filter](body)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}

	return &filter, nil
}

// Create implements logstream.FiltersClient.Create.
func (c *FiltersClient) Create(ctx context.Context, request *logstream.FilterCreateRequest) (*logstream.Filter, error) {
	if request == nil || request.StreamName == "" {
		return nil, logstream.ErrStreamNameRequired
	}

	resp, err := c.httpClient.Post(ctx, constants.PathFilters, request)
	if err != nil {
		return nil, fmt.Errorf("creating filter: %w", err)
	}

	_ = c.cache.InvalidateAll(ctx)

	filter, err := logstream.DecodeStrict[logstream.Filter](resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}

	return &filter, nil
}

// Delete implements logstream.FiltersClient.Delete.
func (c *FiltersClient) Delete(ctx context.Context, id string) error {
	if id == "" {
		return logstream.ErrFilterIDRequired
	}

	_, err := c.httpClient.Delete(ctx, internalhttp.Path(constants.PathFilters, id))
	if err != nil {
		return fmt.Errorf("deleting filter: %w", err)
	}

	_ = c.cache.InvalidateAll(ctx)

	return nil
}
