package logstream_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

type recordingFetcher struct {
	calls     []string
	responses map[string]error
}

func (f *recordingFetcher) fetch(ctx context.Context, path string) ([]byte, error) {
	f.calls = append(f.calls, path)

	if err := f.responses[path]; err != nil {
		return nil, err
	}

	return []byte(path), nil
}

func TestEndpointNegotiator_Resolve(t *testing.T) {
	t.Parallel()

	negotiator := logstream.EndpointNegotiator{
		Preferred: "/api/v1/alerts",
		Legacy:    "/api/v1/logstream/web/alert",
	}

	errNetwork := errors.New("connection refused")

	tests := []struct {
		name      string
		responses map[string]error
		wantCalls []string
		wantPath  string
		wantErr   error
	}{
		{
			name:      "preferred succeeds",
			wantCalls: []string{"/api/v1/alerts"},
			wantPath:  "/api/v1/alerts",
		},
		{
			name: "404 falls back once",
			responses: map[string]error{
				"/api/v1/alerts": logstream.NewServerError(404, "not found"),
			},
			wantCalls: []string{"/api/v1/alerts", "/api/v1/logstream/web/alert"},
			wantPath:  "/api/v1/logstream/web/alert",
		},
		{
			name: "legacy failure returned as is",
			responses: map[string]error{
				"/api/v1/alerts":              logstream.NewServerError(404, "not found"),
				"/api/v1/logstream/web/alert": logstream.NewServerError(404, "stream not found"),
			},
			wantCalls: []string{"/api/v1/alerts", "/api/v1/logstream/web/alert"},
			wantPath:  "/api/v1/logstream/web/alert",
			wantErr:   logstream.ErrNotFound,
		},
		{
			name: "401 does not fall back",
			responses: map[string]error{
				"/api/v1/alerts": logstream.NewUnauthorizedError(),
			},
			wantCalls: []string{"/api/v1/alerts"},
			wantPath:  "/api/v1/alerts",
			wantErr:   logstream.ErrUnauthorized,
		},
		{
			name: "500 does not fall back",
			responses: map[string]error{
				"/api/v1/alerts": logstream.NewServerError(500, "boom"),
			},
			wantCalls: []string{"/api/v1/alerts"},
			wantPath:  "/api/v1/alerts",
			wantErr:   logstream.ErrServerError,
		},
		{
			name: "network failure does not fall back",
			responses: map[string]error{
				"/api/v1/alerts": errNetwork,
			},
			wantCalls: []string{"/api/v1/alerts"},
			wantPath:  "/api/v1/alerts",
			wantErr:   errNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fetcher := &recordingFetcher{responses: tt.responses}

			body, path, err := negotiator.Resolve(context.Background(), fetcher.fetch)

			assert.Equal(t, tt.wantCalls, fetcher.calls)
			assert.Equal(t, tt.wantPath, path)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, body)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, []byte(tt.wantPath), body)
		})
	}
}

func TestEndpointNegotiator_CustomFallbackRule(t *testing.T) {
	t.Parallel()

	negotiator := logstream.EndpointNegotiator{
		Preferred: "/new",
		Legacy:    "/old",
		ShouldFallback: func(err error) bool {
			return logstream.StatusCode(err) == 405
		},
	}

	fetcher := &recordingFetcher{responses: map[string]error{
		"/new": logstream.NewServerError(405, "method not allowed"),
	}}

	_, path, err := negotiator.Resolve(context.Background(), fetcher.fetch)
	require.NoError(t, err)
	assert.Equal(t, "/old", path)
	assert.Equal(t, []string{"/new", "/old"}, fetcher.calls)
}
