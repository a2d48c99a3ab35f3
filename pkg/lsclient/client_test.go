package lsclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
	"github.com/fivetwenty-io/logstream-client/pkg/lsclient"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := lsclient.New(context.Background(), nil)
		require.ErrorIs(t, err, logstream.ErrConfigRequired)

		_, err = lsclient.New(context.Background(), &logstream.Config{BaseURL: "  "})
		require.ErrorIs(t, err, logstream.ErrBaseURLRequired)
	})

	t.Run("creates client without network access", func(t *testing.T) {
		t.Parallel()

		config := &logstream.Config{BaseURL: "logs.example.com/"}

		client, err := lsclient.New(context.Background(), config)
		require.NoError(t, err)
		assert.NotNil(t, client)
		assert.Equal(t, "logs.example.com/", config.BaseURL, "caller config is not modified")
		require.NoError(t, client.Close())
	})
}

func TestNormalizeBaseURL(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"logs.example.com":          "https://logs.example.com",
		"https://logs.example.com/": "https://logs.example.com",
		"http://localhost:8000//":   "http://localhost:8000",
		" https://logs.example.com": "https://logs.example.com",
	}

	for input, expected := range tests {
		assert.Equal(t, expected, lsclient.NormalizeBaseURL(input), input)
	}
}

func TestNew_VerifyOnInit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "healthy", status: http.StatusOK},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: logstream.ErrUnauthorized},
		{name: "unhealthy", status: http.StatusServiceUnavailable, wantErr: logstream.ErrServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodHead, r.Method)
				assert.Equal(t, "/api/v1/liveness", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client, err := lsclient.New(context.Background(), &logstream.Config{
				BaseURL:      server.URL,
				Username:     "admin",
				Credentials:  logstream.StaticCredentials("admin"),
				RetryMax:     -1,
				VerifyOnInit: true,
			})

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, client)

				return
			}

			require.NoError(t, err)
			require.NoError(t, client.Close())
		})
	}
}

func TestNewWithPassword(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "admin" || pass != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"app"}]`))
	}))
	defer server.Close()

	client, err := lsclient.NewWithPassword(context.Background(), server.URL+"/", "admin", "hunter2")
	require.NoError(t, err)

	defer client.Close()

	streams, err := client.Streams().List(context.Background())
	require.NoError(t, err)
	require.Len(t, streams, 1)
	assert.Equal(t, "app", streams[0].Name)
}

func TestClient_ArgumentValidation(t *testing.T) {
	t.Parallel()

	client, err := lsclient.New(context.Background(), &logstream.Config{BaseURL: "https://logs.example.com"})
	require.NoError(t, err)

	defer client.Close()

	ctx := context.Background()
	now := time.Now()

	require.ErrorIs(t, client.Streams().Create(ctx, ""), logstream.ErrStreamNameRequired)

	_, err = client.Filters().Get(ctx, "")
	require.ErrorIs(t, err, logstream.ErrFilterIDRequired)

	_, err = client.Query().Run(ctx, &logstream.QueryRequest{StartTime: now.Add(-time.Hour), EndTime: now})
	require.ErrorIs(t, err, logstream.ErrQueryRequired)

	_, err = client.Query().Run(ctx, &logstream.QueryRequest{Query: "SELECT 1", StartTime: now, EndTime: now.Add(-time.Hour)})
	require.ErrorIs(t, err, logstream.ErrInvalidTimeRange)
}

func TestNew_VerifyOnInitDeadline(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var deadline time.Time

	chain := logstream.NewInterceptorChain().AddRequestInterceptor(func(ctx context.Context, req *logstream.Request) error {
		deadline, _ = ctx.Deadline()

		return nil
	})

	start := time.Now()

	client, err := lsclient.New(context.Background(), &logstream.Config{
		BaseURL:      server.URL,
		Username:     "admin",
		Credentials:  logstream.StaticCredentials("admin"),
		RetryMax:     -1,
		Interceptors: chain,
		VerifyOnInit: true,
	})
	require.NoError(t, err)
	require.NoError(t, client.Close())

	require.False(t, deadline.IsZero(), "liveness check runs without a deadline")
	assert.WithinDuration(t, start.Add(constants.ShortHTTPTimeout), deadline, time.Second)
}

func TestNewFromConnection(t *testing.T) {
	t.Parallel()

	var authorization string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx := context.Background()
	store := logstream.NewMemoryCredentialStore()
	require.NoError(t, store.SaveSecret(ctx, "conn-1", "first"))

	client, err := lsclient.NewFromConnection(ctx, logstream.Connection{
		ID:       "conn-1",
		BaseURL:  server.URL,
		Username: "admin",
	}, store, func(config *logstream.Config) { config.RetryMax = -1 })
	require.NoError(t, err)

	defer client.Close()

	require.NoError(t, client.Health(ctx))
	assert.True(t, strings.HasPrefix(authorization, "Basic "))
	first := authorization

	require.NoError(t, store.SaveSecret(ctx, "conn-1", "rotated"))
	require.NoError(t, client.Health(ctx))
	assert.NotEqual(t, first, authorization, "rotated secret applies without rebuilding the client")
}
