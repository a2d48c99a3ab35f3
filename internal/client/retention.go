package client

import (
	"context"
	"fmt"

	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// RetentionClient implements logstream.RetentionClient.
type RetentionClient struct {
	httpClient *internalhttp.Client
}

// NewRetentionClient creates a new retention client.
func NewRetentionClient(httpClient *internalhttp.Client) *RetentionClient {
	return &RetentionClient{
		httpClient: httpClient,
	}
}

// Get implements logstream.RetentionClient.Get. A stream without a policy
// yields an empty list.
func (c *RetentionClient) Get(ctx context.Context, stream string) ([]logstream.RetentionPolicy, error) {
	if stream == "" {
		return nil, logstream.ErrStreamNameRequired
	}

	body, err := fetch(ctx, c.httpClient, streamPath(stream, "retention"), nil)
	if err != nil {
		return nil, fmt.Errorf("getting retention of %s: %w", stream, err)
	}

	policies, err := logstream.DecodeRetention(body)
	if err != nil {
		return nil, fmt.Errorf("parsing retention of %s: %w", stream, err)
	}

	return policies, nil
}
