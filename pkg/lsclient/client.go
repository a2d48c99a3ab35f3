package lsclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/logstream-client/internal/client"
	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// New creates a log-analytics API client for one connection.
func New(ctx context.Context, config *logstream.Config) (logstream.Client, error) {
	if config == nil {
		return nil, logstream.ErrConfigRequired
	}

	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, logstream.ErrBaseURLRequired
	}

	normalized := *config
	normalized.BaseURL = NormalizeBaseURL(config.BaseURL)

	// Use the internal client implementation
	apiClient, err := client.New(&normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	if config.VerifyOnInit {
		verifyCtx, cancel := context.WithTimeout(ctx, constants.ShortHTTPTimeout)
		err = apiClient.Health(verifyCtx)

		cancel()

		if err != nil {
			_ = apiClient.Close()

			return nil, fmt.Errorf("verifying connection: %w", err)
		}
	}

	return apiClient, nil
}

// NewWithPassword creates a client that authenticates with a fixed password.
func NewWithPassword(ctx context.Context, baseURL, username, password string) (logstream.Client, error) {
	config := &logstream.Config{
		BaseURL:     baseURL,
		Username:    username,
		Credentials: logstream.StaticCredentials(password),
	}

	return New(ctx, config)
}

// NewFromConnection creates a client for a stored connection whose secret
// lives in store.
func NewFromConnection(
	ctx context.Context,
	connection logstream.Connection,
	store logstream.CredentialStore,
	opts ...func(*logstream.Config),
) (logstream.Client, error) {
	config := &logstream.Config{
		BaseURL:      connection.BaseURL,
		Username:     connection.Username,
		ConnectionID: connection.ID,
		Credentials:  store,
	}

	for _, opt := range opts {
		opt(config)
	}

	return New(ctx, config)
}

// NormalizeBaseURL trims whitespace and trailing slashes and assumes https
// when no scheme is given.
func NormalizeBaseURL(baseURL string) string {
	normalized := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}

	return normalized
}
