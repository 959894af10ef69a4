// Package client talks to the forecast HTTP API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meterforecast/backend/internal/domain"
)

// Client calls a running forecast server
type Client struct {
	serverURL  string
	httpClient *http.Client
}

// Forecast is the decoded payload of a prediction response
type Forecast struct {
	MeterID     string      `json:"meter_id"`
	Timestamps  []time.Time `json:"timestamps"`
	Consumption []float64   `json:"consumption"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// New creates a client for the server at serverURL
func New(serverURL string, timeout time.Duration) *Client {
	return &Client{
		serverURL: strings.TrimRight(serverURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BusinessIDs lists every business known to the server
func (c *Client) BusinessIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := c.get(ctx, "/api/business_ids", nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MeterIDs lists the meters of a business
func (c *Client) MeterIDs(ctx context.Context, businessID string) ([]string, error) {
	var ids []string
	if err := c.get(ctx, "/api/meter_ids", url.Values{"business_id": {businessID}}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Predict asks the server to forecast a meter from the weather CSV at csvURL
func (c *Client) Predict(ctx context.Context, meterID, csvURL string) (Forecast, error) {
	var f Forecast
	q := url.Values{"meter_id": {meterID}, "csv_url": {csvURL}}
	if err := c.get(ctx, "/api/predict", q, &f); err != nil {
		return Forecast{}, err
	}
	if len(f.Timestamps) != len(f.Consumption) {
		return Forecast{}, fmt.Errorf("client: %d timestamps for %d values", len(f.Timestamps), len(f.Consumption))
	}
	return f, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.serverURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("client: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("client: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("client: failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, env.Message)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("client: failed to decode data: %w", err)
	}
	return nil
}

// statusError restores the pipeline error kind from the response status
func statusError(status int, message string) error {
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, message)
	case http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrInsufficientData, message)
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInputFormat, message)
	default:
		return fmt.Errorf("client: server returned status %d: %s", status, message)
	}
}
