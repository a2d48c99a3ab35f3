package http

import (
	"net/url"
	"strings"

	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

const upperhex = "0123456789ABCDEF"

// segmentAllowed reports whether b may appear unescaped in a path segment.
// Everything the URL grammar treats as a delimiter or sub-delimiter is
// escaped, including characters url.PathEscape would keep.
func segmentAllowed(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	case b == '-', b == '.', b == '_', b == '~', b == ':':
		return true
	default:
		return false
	}
}

// EscapePathSegment percent-encodes s for use as exactly one path segment.
// Segments made only of dots are fully encoded so they cannot act as
// relative references.
func EscapePathSegment(s string) string {
	dotsOnly := s != "" && strings.Trim(s, ".") == ""

	var builder strings.Builder

	builder.Grow(len(s))

	for i := range len(s) {
		b := s[i]
		if segmentAllowed(b) && !(dotsOnly && b == '.') {
			builder.WriteByte(b)

			continue
		}

		builder.WriteByte('%')
		builder.WriteByte(upperhex[b>>4])
		builder.WriteByte(upperhex[b&0x0F])
	}

	return builder.String()
}

// Path joins a fixed, already escaped prefix with user supplied segments,
// escaping each segment.
func Path(prefix string, segments ...string) string {
	var builder strings.Builder

	builder.WriteString(strings.TrimRight(prefix, "/"))

	for _, segment := range segments {
		builder.WriteByte('/')
		builder.WriteString(EscapePathSegment(segment))
	}

	return builder.String()
}

// BuildURL composes an absolute URL from a base URL, an escaped path, and
// query parameters. The escaped path is kept as the wire form.
func BuildURL(baseURL, escapedPath string, query url.Values) (*url.URL, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, logstream.NewInvalidURLError(baseURL, err)
	}

	if base.Scheme == "" || base.Host == "" || base.Opaque != "" {
		return nil, logstream.NewInvalidURLError(baseURL, nil)
	}

	if escapedPath != "" && !strings.HasPrefix(escapedPath, "/") {
		escapedPath = "/" + escapedPath
	}

	rawPath := strings.TrimRight(base.EscapedPath(), "/") + escapedPath

	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, logstream.NewInvalidURLError(rawPath, err)
	}

	composed := &url.URL{
		Scheme:  base.Scheme,
		User:    base.User,
		Host:    base.Host,
		Path:    path,
		RawPath: rawPath,
	}

	if len(query) > 0 {
		composed.RawQuery = query.Encode()
	}

	// Round-trip to catch anything net/url itself would reject.
	_, err = url.Parse(composed.String())
	if err != nil {
		return nil, logstream.NewInvalidURLError(composed.String(), err)
	}

	return composed, nil
}
