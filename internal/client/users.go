package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// UsersClient implements logstream.UsersClient.
type UsersClient struct {
	httpClient *internalhttp.Client
}

// NewUsersClient creates a new users client.
func NewUsersClient(httpClient *internalhttp.Client) *UsersClient {
	return &UsersClient{
		httpClient: httpClient,
	}
}

// List implements logstream.UsersClient.List.
func (c *UsersClient) List(ctx context.Context) ([]logstream.User, error) {
	body, err := fetch(ctx, c.httpClient, constants.PathUsers, nil)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	users, err := logstream.DecodeUsers(body)
	if err != nil {
		return nil, fmt.Errorf("parsing users list: %w", err)
	}

	return users, nil
}
