package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// queryBody is the wire form of a query request.
type queryBody struct {
	Query     string `json:"query"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// QueryClient implements logstream.QueryClient.
type QueryClient struct {
	httpClient *internalhttp.Client
}

// NewQueryClient creates a new query client.
func NewQueryClient(httpClient *internalhttp.Client) *QueryClient {
	return &QueryClient{
		httpClient: httpClient,
	}
}

// Run implements logstream.QueryClient.Run.
func (c *QueryClient) Run(ctx context.Context, request *logstream.QueryRequest) (*logstream.QueryResult, error) {
	if request == nil || request.Query == "" {
		return nil, logstream.ErrQueryRequired
	}

	if !request.StartTime.Before(request.EndTime) {
		return nil, fmt.Errorf("%w: start %s is not before end %s", logstream.ErrInvalidTimeRange,
			logstream.FormatQueryTime(request.StartTime), logstream.FormatQueryTime(request.EndTime))
	}

	query := url.Values{}
	if request.Fields {
		query.Set("fields", "true")
	}

	if request.SendNull {
		query.Set("send_null", "true")
	}

	resp, err := c.httpClient.Do(ctx, &internalhttp.Request{
		Method: http.MethodPost,
		Path:   constants.PathQuery,
		Query:  query,
		Body: queryBody{
			Query:     request.Query,
			StartTime: logstream.FormatQueryTime(request.StartTime),
			EndTime:   logstream.FormatQueryTime(request.EndTime),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("running query: %w", err)
	}

	result, err := logstream.DecodeQueryResult(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing query result: %w", err)
	}

	return result, nil
}
