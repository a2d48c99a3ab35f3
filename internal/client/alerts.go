package client

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	internalhttp "github.com/fivetwenty-io/logstream-client/internal/http"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// AlertsClient implements logstream.AlertsClient. Newer servers expose one
// consolidated alerts endpoint; older ones only the per-stream one.
type AlertsClient struct {
	httpClient *internalhttp.Client
}

// NewAlertsClient creates a new alerts client.
func NewAlertsClient(httpClient *internalhttp.Client) *AlertsClient {
	return &AlertsClient{
		httpClient: httpClient,
	}
}

// Get implements logstream.AlertsClient.Get.
func (c *AlertsClient) Get(ctx context.Context, stream string) (*logstream.AlertConfig, error) {
	if stream == "" {
		return nil, logstream.ErrStreamNameRequired
	}

	negotiator := logstream.EndpointNegotiator{
		Preferred: constants.PathAlerts,
		Legacy:    streamPath(stream, "alert"),
	}

	body, path, err := negotiator.Resolve(ctx, func(ctx context.Context, path string) ([]byte, error) {
		return fetch(ctx, c.httpClient, path, nil)
	})
	if err != nil {
		return nil, fmt.Errorf("getting alerts of %s: %w", stream, err)
	}

	consolidated := path == negotiator.Preferred

	config, err := logstream.DecodeAlerts(body, consolidated)
	if err != nil {
		return nil, fmt.Errorf("parsing alerts of %s: %w", stream, err)
	}

	if consolidated {
		config.Alerts = alertsForStream(config.Alerts, stream)
	}

	return config, nil
}

// alertsForStream keeps the alerts of stream. Alerts that do not name a
// stream are kept as well since they cannot be attributed.
func alertsForStream(alerts []logstream.Alert, stream string) []logstream.Alert {
	filtered := make([]logstream.Alert, 0, len(alerts))

	for _, alert := range alerts {
		if alert.Stream == "" || alert.Stream == stream {
			filtered = append(filtered, alert)
		}
	}

	return filtered
}
