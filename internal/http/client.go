package http

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// Authorizer supplies the Authorization header value for a request.
type Authorizer interface {
	Authorization(ctx context.Context) (string, error)
}

// Request describes one API call. Path must already be escaped; build it
// with Path.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Client executes authenticated requests over a pooled, retrying transport.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	authorizer Authorizer
	httpClient *retryablehttp.Client
	transport  *http.Transport

	logger       logstream.Logger
	debug        bool
	userAgent    string
	interceptors *logstream.InterceptorChain

	retryMax        int
	retryWaitMin    time.Duration
	retryWaitMax    time.Duration
	headerTimeout   time.Duration
	transferTimeout time.Duration
	skipTLSVerify   bool

	mu     sync.Mutex
	active int
	closed bool
}

// Option configures the HTTP client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger logstream.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request and response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithRetryConfig configures retries. A negative retryMax disables them.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.retryMax = max(retryMax, 0)

		if waitMin > 0 {
			c.retryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.retryWaitMax = waitMax
		}
	}
}

// WithTimeouts sets the per-attempt response header timeout and the whole
// exchange timeout. Zero values keep the defaults.
func WithTimeouts(header, transfer time.Duration) Option {
	return func(c *Client) {
		if header > 0 {
			c.headerTimeout = header
		}

		if transfer > 0 {
			c.transferTimeout = transfer
		}
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *logstream.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Client) {
		c.skipTLSVerify = skip
	}
}

// NewClient creates a new HTTP client. The base URL is validated per request
// so a malformed one surfaces as an InvalidURL error from the call.
func NewClient(baseURL string, authorizer Authorizer, opts ...Option) *Client {
	client := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		authorizer:      authorizer,
		userAgent:       constants.DefaultUserAgent,
		retryMax:        constants.LowRetryMax,
		retryWaitMin:    constants.DefaultRetryWaitMin,
		retryWaitMax:    constants.DefaultRetryWaitMax,
		headerTimeout:   constants.DefaultHTTPTimeout,
		transferTimeout: constants.BodyTransferTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   constants.DialTimeout,
			KeepAlive: constants.DefaultHTTPTimeout,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConnsPerHost:   constants.MaxIdleConnsPerHost,
		IdleConnTimeout:       constants.IdleConnTimeout,
		TLSHandshakeTimeout:   constants.TLSHandshakeTimeout,
		ResponseHeaderTimeout: client.headerTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: client.skipTLSVerify, //nolint:gosec // opt-in for development servers
		},
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = &http.Client{
		Transport: client.transport,
		Timeout:   client.transferTimeout,
	}
	retryClient.RetryMax = client.retryMax
	retryClient.RetryWaitMin = client.retryWaitMin
	retryClient.RetryWaitMax = client.retryWaitMax
	retryClient.CheckRetry = retryPolicy
	// Keep the last response so its status can be classified.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	if client.logger != nil {
		retryClient.Logger = &retryLogger{logger: client.logger}
	} else {
		retryClient.Logger = nil
	}

	client.httpClient = retryClient

	return client
}

// Do executes a request. On a non-2xx status the response is returned
// together with the classified error.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	err := c.begin()
	if err != nil {
		return nil, err
	}
	defer c.end()

	target, err := BuildURL(c.baseURL, req.Path, req.Query)
	if err != nil {
		return nil, err
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	intercepted := &logstream.Request{
		Method:  req.Method,
		Path:    req.Path,
		Headers: make(http.Header),
		Body:    body,
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	var rawBody interface{}
	if body != nil {
		rawBody = body
	}

	reqCtx := context.WithValue(ctx, requestMethodKey{}, req.Method)

	httpReq, err := retryablehttp.NewRequestWithContext(reqCtx, req.Method, target.String(), rawBody)
	if err != nil {
		return nil, logstream.NewInvalidURLError(target.String(), err)
	}

	httpReq.URL = target

	err = c.setHeaders(ctx, httpReq, intercepted.Headers, req.Headers)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  req.Method,
			"url":     target.String(),
			"headers": redactHeaders(httpReq.Header),
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = classifyTransportError(err)
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &logstream.Response{Error: err})

		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		err = logstream.NewInvalidResponseError(fmt.Errorf("reading response body: %w", err))
		_ = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &logstream.Response{
			StatusCode: httpResp.StatusCode,
			Headers:    httpResp.Header,
			Error:      err,
		})

		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"duration": time.Since(start).String(),
			"bytes":    len(respBody),
		})
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	statusErr := classifyStatus(resp.StatusCode, respBody)

	err = c.interceptors.ExecuteResponseInterceptors(ctx, intercepted, &logstream.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       respBody,
		Error:      statusErr,
	})
	if err != nil {
		return resp, err
	}

	if statusErr != nil {
		return resp, statusErr
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Head performs a HEAD request.
func (c *Client) Head(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodHead, Path: path})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

// Close rejects new requests. Requests already running finish normally;
// pooled connections are released once the last one returns.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true

	if c.active == 0 {
		c.transport.CloseIdleConnections()
	}

	return nil
}

// InFlight returns the number of requests currently running.
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active
}

func (c *Client) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return logstream.ErrClientClosed
	}

	c.active++

	return nil
}

func (c *Client) end() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.active--

	if c.closed && c.active == 0 {
		c.transport.CloseIdleConnections()
	}
}

func (c *Client) setHeaders(ctx context.Context, req *retryablehttp.Request, intercepted http.Header, extra map[string]string) error {
	req.Header.Set("Content-Type", constants.ContentTypeJSON)
	req.Header.Set("Accept", constants.ContentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)

	for key, values := range intercepted {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	for key, value := range extra {
		req.Header.Set(key, value)
	}

	if c.authorizer == nil {
		return nil
	}

	authorization, err := c.authorizer.Authorization(ctx)
	if err != nil {
		return fmt.Errorf("getting authorization: %w", err)
	}

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	return nil
}

func encodeBody(body interface{}) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return typed, nil
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}

		return data, nil
	}
}

// classifyStatus maps an HTTP status to the error taxonomy. 401 is always
// Unauthorized regardless of the body.
func classifyStatus(statusCode int, body []byte) error {
	switch {
	case statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices:
		return nil
	case statusCode == http.StatusUnauthorized:
		return logstream.NewUnauthorizedError()
	default:
		return logstream.NewServerError(statusCode, bodyText(statusCode, body))
	}
}

func bodyText(statusCode int, body []byte) string {
	if !utf8.Valid(body) {
		return constants.NonTextBodyPlaceholder
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(statusCode)
	}

	return text
}

type requestMethodKey struct{}

// retryPolicy applies the retryablehttp default policy to idempotent methods
// only. A POST or PATCH is sent once, since the server may have acted on it.
// A status error is dropped so the last response reaches classifyStatus.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	retry, checkErr := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	if resp != nil && ctx.Err() == nil {
		checkErr = nil
	}

	method, _ := ctx.Value(requestMethodKey{}).(string)
	if resp != nil && resp.Request != nil {
		method = resp.Request.Method
	}

	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return retry, checkErr
	default:
		return false, checkErr
	}
}

// classifyTransportError keeps context and network errors intact for
// errors.Is/As and marks protocol garbage as an invalid response.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("executing request: %w", err)
	}

	var protoErr textproto.ProtocolError
	if errors.As(err, &protoErr) {
		return logstream.NewInvalidResponseError(err)
	}

	// net/http reports a bad status line with an unexported fmt error.
	if strings.Contains(err.Error(), "malformed HTTP") {
		return logstream.NewInvalidResponseError(err)
	}

	return fmt.Errorf("executing request: %w", err)
}

func redactHeaders(headers http.Header) map[string]string {
	redacted := make(map[string]string, len(headers))

	for key := range headers {
		if strings.EqualFold(key, "Authorization") {
			redacted[key] = "[REDACTED]"

			continue
		}

		redacted[key] = headers.Get(key)
	}

	return redacted
}

// retryLogger implements the retryablehttp.LeveledLogger interface. Only
// warnings and errors are forwarded.
type retryLogger struct {
	logger logstream.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keyValueFields(keysAndValues))
}

func (l *retryLogger) Info(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Debug(msg string, keysAndValues ...interface{}) {}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keyValueFields(keysAndValues))
}

func keyValueFields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	return fields
}
