//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
	"github.com/fivetwenty-io/logstream-client/pkg/lsclient"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BaseURL  string
	Username string
	Password string
	NATSURL  string
	Verbose  bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		BaseURL:  os.Getenv("LOGSTREAM_URL"),
		Username: os.Getenv("LOGSTREAM_USERNAME"),
		Password: os.Getenv("LOGSTREAM_PASSWORD"),
		NATSURL:  os.Getenv("NATS_URL"),
		Verbose:  os.Getenv("LOGSTREAM_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.BaseURL == "" {
		t.Skip("LOGSTREAM_URL not set, skipping integration test")
	}
}

// NewClient creates a verified client for the configured server.
func (config *TestConfig) NewClient(ctx context.Context, cache logstream.Cache) (logstream.Client, error) {
	return lsclient.New(ctx, &logstream.Config{
		BaseURL:      config.BaseURL,
		Username:     config.Username,
		ConnectionID: "integration",
		Credentials:  logstream.StaticCredentials(config.Password),
		Cache:        cache,
		VerifyOnInit: true,
		Debug:        config.Verbose,
	})
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}
