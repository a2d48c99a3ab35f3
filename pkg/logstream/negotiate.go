package logstream

import (
	"context"
)

// FetchFunc performs a GET of path and returns the successful body.
type FetchFunc func(ctx context.Context, path string) ([]byte, error)

// EndpointNegotiator tries a newer endpoint and falls back to a legacy one
// when the server does not know it. Only a 404 triggers the fallback; any
// other failure is returned as is.
type EndpointNegotiator struct {
	Preferred string
	Legacy    string
	// ShouldFallback overrides the fallback rule. Nil means IsNotFound.
	ShouldFallback func(error) bool
}

// Resolve fetches Preferred and, on a fallback-class error, Legacy exactly
// once. It returns the body and the path that produced it.
func (n EndpointNegotiator) Resolve(ctx context.Context, fetch FetchFunc) ([]byte, string, error) {
	body, err := fetch(ctx, n.Preferred)
	if err == nil {
		return body, n.Preferred, nil
	}

	shouldFallback := n.ShouldFallback
	if shouldFallback == nil {
		shouldFallback = IsNotFound
	}

	if n.Legacy == "" || !shouldFallback(err) {
		return nil, n.Preferred, err
	}

	body, err = fetch(ctx, n.Legacy)
	if err != nil {
		return nil, n.Legacy, err
	}

	return body, n.Legacy, nil
}
