package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lshttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// staticAuthorizer always returns the same header value.
type staticAuthorizer string

func (a staticAuthorizer) Authorization(ctx context.Context) (string, error) {
	return string(a), nil
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) add(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.add("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.add("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.add("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.add("error", msg, fields) }

func noRetry() lshttp.Option {
	return lshttp.WithRetryConfig(-1, 0, 0)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v1/logstream", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Basic YWRtaW46YWRtaW4=", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, "logstream-client/1.0", request.Header.Get("User-Agent"))

			_ = json.NewEncoder(writer).Encode([]map[string]string{{"name": "web"}})
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, staticAuthorizer("Basic YWRtaW46YWRtaW4="))

		resp, err := client.Get(context.Background(), "/api/v1/logstream", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.JSONEq(t, `[{"name":"web"}]`, string(resp.Body))
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "fields=true", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil)

		resp, err := client.Do(context.Background(), &lshttp.Request{
			Method: "POST",
			Path:   "/api/v1/query",
			Query:  url.Values{"fields": []string{"true"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "SELECT 1", body["query"])

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil)

		resp, err := client.Post(context.Background(), "/api/v1/query", map[string]string{"query": "SELECT 1"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("base URL with path prefix", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/logs/api/v1/about", request.URL.Path)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL+"/logs/", nil)

		_, err := client.Get(context.Background(), "/api/v1/about", nil)
		require.NoError(t, err)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "acme", request.Header.Get("X-P-Tenant"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		chain := logstream.NewInterceptorChain().
			AddRequestInterceptor(logstream.HeaderInterceptor(map[string]string{"X-P-Tenant": "acme"}))
		client := lshttp.NewClient(server.URL, nil, lshttp.WithInterceptors(chain))

		resp, err := client.Do(context.Background(), &lshttp.Request{
			Method:  "GET",
			Path:    "/api/v1/about",
			Headers: map[string]string{"X-Custom-Header": "custom-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := lshttp.NewClient(server.URL, staticAuthorizer("Basic c2VjcmV0"),
			lshttp.WithLogger(logger), lshttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/api/v1/about", nil)
		require.NoError(t, err)

		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])

		fields, ok := logger.logs[0]["fields"].(map[string]interface{})
		require.True(t, ok)

		headers, ok := fields["headers"].(map[string]string)
		require.True(t, ok)
		assert.Equal(t, "[REDACTED]", headers["Authorization"])
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_StatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        []byte
		check       func(t *testing.T, err error)
		wantMessage string
	}{
		{
			name:   "201 is success",
			status: http.StatusCreated,
			check: func(t *testing.T, err error) {
				t.Helper()
				require.NoError(t, err)
			},
		},
		{
			name:   "401 is unauthorized regardless of body",
			status: http.StatusUnauthorized,
			body:   []byte(`{"error":"stream not found"}`),
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, logstream.ErrUnauthorized)
				assert.False(t, logstream.IsServerError(err))
			},
		},
		{
			name:   "404 carries body text",
			status: http.StatusNotFound,
			body:   []byte("stream web not found\n"),
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, logstream.ErrNotFound)
			},
			wantMessage: "stream web not found",
		},
		{
			name:   "empty body falls back to status text",
			status: http.StatusBadRequest,
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, logstream.ErrServerError)
			},
			wantMessage: "Bad Request",
		},
		{
			name:   "binary body is replaced",
			status: http.StatusBadRequest,
			body:   []byte{0xff, 0xfe, 0x00},
			check: func(t *testing.T, err error) {
				t.Helper()
				require.ErrorIs(t, err, logstream.ErrServerError)
			},
			wantMessage: "<non-text response body>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(tt.status)
				_, _ = writer.Write(tt.body)
			}))
			defer server.Close()

			client := lshttp.NewClient(server.URL, nil, noRetry())

			resp, err := client.Get(context.Background(), "/api/v1/logstream/web/schema", nil)
			tt.check(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.wantMessage != "" {
				apiErr := &logstream.Error{}
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.wantMessage, apiErr.Message)
				assert.Equal(t, tt.status, apiErr.StatusCode)
			}
		})
	}
}

// rawServer answers every connection with reply and hangs up.
func rawServer(t *testing.T, reply string) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			buf := make([]byte, 4096)
			_, _ = conn.Read(buf)
			_, _ = conn.Write([]byte(reply))
			_ = conn.Close()
		}
	}()

	return "http://" + listener.Addr().String()
}

func TestClient_MalformedResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
	}{
		{name: "bad status line", reply: "HELLO THERE\r\n\r\n"},
		{name: "bad header line", reply: "HTTP/1.1 200 OK\r\nnot a header\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := lshttp.NewClient(rawServer(t, tt.reply), nil, noRetry())

			_, err := client.Get(context.Background(), "/api/v1/about", nil)
			require.ErrorIs(t, err, logstream.ErrInvalidResponse)
		})
	}
}

func TestClient_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	for _, base := range []string{"", "logs.example.com", "http://", "://bad"} {
		client := lshttp.NewClient(base, nil)

		_, err := client.Get(context.Background(), "/api/v1/about", nil)
		require.ErrorIs(t, err, logstream.ErrInvalidURL, "base %q", base)
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*lshttp.Client, context.Context) (*lshttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *lshttp.Client, ctx context.Context) (*lshttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "HEAD",
			method: "HEAD",
			fn: func(c *lshttp.Client, ctx context.Context) (*lshttp.Response, error) {
				return c.Head(ctx, "/test")
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *lshttp.Client, ctx context.Context) (*lshttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *lshttp.Client, ctx context.Context) (*lshttp.Response, error) {
				return c.Put(ctx, "/test", nil)
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *lshttp.Client, ctx context.Context) (*lshttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *lshttp.Client, ctx context.Context) (*lshttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := lshttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil, lshttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("exhausted retries keep the last status", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
			_, _ = writer.Write([]byte("warming up"))
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil, lshttp.WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.ErrorIs(t, err, logstream.ErrServerError)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, 503, logstream.StatusCode(err))
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("does not retry POST", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil, lshttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond))

		resp, err := client.Post(context.Background(), "/api/v1/filters", map[string]string{"name": "errors"})
		require.ErrorIs(t, err, logstream.ErrServerError)
		assert.Equal(t, 502, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("does not retry POST after a connection error", func(t *testing.T) {
		t.Parallel()

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		defer listener.Close()

		var accepted atomic.Int32

		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}

				accepted.Add(1)
				_ = conn.Close()
			}
		}()

		client := lshttp.NewClient("http://"+listener.Addr().String(), nil,
			lshttp.WithRetryConfig(3, time.Millisecond, 5*time.Millisecond))

		_, err = client.Post(context.Background(), "/api/v1/query", map[string]string{"query": "SELECT 1"})
		require.Error(t, err)
		assert.Equal(t, int32(1), accepted.Load())
	})

	t.Run("retries PUT and DELETE", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil, lshttp.WithRetryConfig(2, time.Millisecond, 5*time.Millisecond))

		_, err := client.Put(context.Background(), "/api/v1/logstream/app", nil)
		require.ErrorIs(t, err, logstream.ErrServerError)
		assert.Equal(t, int32(3), attempts.Load())

		_, err = client.Delete(context.Background(), "/api/v1/logstream/app")
		require.ErrorIs(t, err, logstream.ErrServerError)
		assert.Equal(t, int32(6), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := lshttp.NewClient(server.URL, nil, lshttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_PathEscaping(t *testing.T) {
	t.Parallel()

	names := []string{
		"plain-name_1.0~x:y",
		"a/b", "a?b", "a#b", "a[b]", "a@b", "a!b", "a$b", "a&b", "a'b",
		"a(b)", "a*b", "a+b", "a,b", "a;b", "a=b", "a%b", "a b", "läuft",
		"..", ".",
	}

	var seen sync.Map

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		seen.Store(request.Header.Get("X-Name"), request.RequestURI)
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := lshttp.NewClient(server.URL, nil)

	for _, name := range names {
		_, err := client.Do(context.Background(), &lshttp.Request{
			Method:  "GET",
			Path:    lshttp.Path("/api/v1/logstream", name, "schema"),
			Headers: map[string]string{"X-Name": url.QueryEscape(name)},
		})
		require.NoError(t, err, name)

		value, ok := seen.Load(url.QueryEscape(name))
		require.True(t, ok, name)

		requestURI, _ := value.(string)
		require.True(t, strings.HasPrefix(requestURI, "/api/v1/logstream/"), requestURI)
		assert.NotContains(t, requestURI, "?", name)
		assert.NotContains(t, requestURI, "#", name)

		segments := strings.Split(strings.TrimPrefix(requestURI, "/api/v1/logstream/"), "/")
		require.Len(t, segments, 2, "name %q must stay one segment: %s", name, requestURI)
		assert.Equal(t, "schema", segments[1])

		decoded, err := url.PathUnescape(segments[0])
		require.NoError(t, err)
		assert.Equal(t, name, decoded)
	}
}

func TestEscapePathSegment(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "web-logs_2.0~a:b", lshttp.EscapePathSegment("web-logs_2.0~a:b"))
	assert.Equal(t, "a%2Fb%3Fc%23d", lshttp.EscapePathSegment("a/b?c#d"))
	assert.Equal(t, "%5B%5D%40%21%24%26%27%28%29%2A%2B%2C%3B%3D", lshttp.EscapePathSegment("[]@!$&'()*+,;="))
	assert.Equal(t, "%2E%2E", lshttp.EscapePathSegment(".."))
	assert.Equal(t, "a..b", lshttp.EscapePathSegment("a..b"))
	assert.Equal(t, "%C3%A4", lshttp.EscapePathSegment("ä"))
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	built, err := lshttp.BuildURL("https://logs.example.com/", lshttp.Path("/api/v1/logstream", "a/b"), url.Values{"x": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, "https://logs.example.com/api/v1/logstream/a%2Fb?x=1", built.String())
	assert.Equal(t, "/api/v1/logstream/a/b", built.Path)

	_, err = lshttp.BuildURL("not a url", "/api/v1/about", nil)
	require.ErrorIs(t, err, logstream.ErrInvalidURL)
}

func TestClient_CloseLetsInFlightFinish(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		close(entered)
		<-release
		_, _ = writer.Write([]byte(`{"records":[]}`))
	}))
	defer server.Close()

	client := lshttp.NewClient(server.URL, nil)

	type result struct {
		resp *lshttp.Response
		err  error
	}

	done := make(chan result, 1)

	go func() {
		resp, err := client.Post(context.Background(), "/api/v1/query", map[string]string{"query": "SELECT 1"})
		done <- result{resp, err}
	}()

	<-entered
	assert.Equal(t, 1, client.InFlight())
	require.NoError(t, client.Close())

	_, err := client.Get(context.Background(), "/api/v1/about", nil)
	require.ErrorIs(t, err, logstream.ErrClientClosed)

	close(release)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.JSONEq(t, `{"records":[]}`, string(res.resp.Body))
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request did not finish after Close")
	}

	assert.Equal(t, 0, client.InFlight())
	require.NoError(t, client.Close())
}

func TestClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		<-request.Context().Done()
	}))
	defer server.Close()

	client := lshttp.NewClient(server.URL, nil, noRetry())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/api/v1/about", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
