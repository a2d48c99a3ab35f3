package client

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// requestLog records the escaped request URIs a test server saw.
type requestLog struct {
	mu   sync.Mutex
	uris []string
}

func (l *requestLog) add(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.uris = append(l.uris, r.Method+" "+r.URL.EscapedPath())
}

func (l *requestLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.uris...)
}

func (l *requestLog) count(entry string) int {
	n := 0

	for _, uri := range l.all() {
		if uri == entry {
			n++
		}
	}

	return n
}

// NewTestClient starts handler behind an httptest server and returns a
// client for it with retries disabled.
func NewTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *requestLog) {
	t.Helper()

	log := &requestLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := New(&logstream.Config{
		BaseURL:      server.URL,
		Username:     "admin",
		ConnectionID: "test-connection",
		Credentials:  logstream.StaticCredentials("admin"),
		RetryMax:     -1,
	})
	if err != nil {
		t.Fatalf("creating test client: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client, log
}

// writeJSON writes body with a JSON content type.
func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
