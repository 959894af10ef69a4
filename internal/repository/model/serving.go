package model

import (
	"bytes"
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

// ServingRepository resolves meters to models hosted on a TensorFlow Serving
// compatible REST endpoint, one model per meter id.
type ServingRepository struct {
	serviceURL string
	httpClient *http.Client
}

// NewServingRepository creates a repository for the model server at serviceURL
func NewServingRepository(serviceURL string, timeout time.Duration) *ServingRepository {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ServingRepository{
		serviceURL: serviceURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Resolve checks that the server knows the meter's model
func (r *ServingRepository) Resolve(ctx context.Context, meterID string) (domain.Forecaster, error) {
	if meterID == "" {
		return nil, domain.NotFoundError("no model for empty meter id")
	}

	statusURL := fmt.Sprintf("%s/v1/models/%s", r.serviceURL, url.PathEscape(meterID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("serving: failed to create status request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serving: status request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return &servedModel{repo: r, meterID: meterID}, nil
	case http.StatusNotFound:
		return nil, domain.NotFoundError("no model for meter %s", meterID)
	default:
		return nil, fmt.Errorf("serving: status request returned %d", resp.StatusCode)
	}
}

// Health checks model server connectivity
func (r *ServingRepository) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.serviceURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("serving: failed to create health request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("serving: health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("serving: health check returned status %d", resp.StatusCode)
	}
	return nil
}

type servedModel struct {
	repo    *ServingRepository
	meterID string
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

// Predict posts every window to the server's predict endpoint
func (m *servedModel) Predict(ctx context.Context, in *domain.InputWindow) ([]float64, error) {
	instances := make([][][]float64, in.Windows)
	for w := range instances {
		instances[w] = in.Window(w)
	}

	body, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return nil, fmt.Errorf("serving: failed to marshal request: %w", err)
	}

	predictURL := fmt.Sprintf("%s/v1/models/%s:predict", m.repo.serviceURL, url.PathEscape(m.meterID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, predictURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("serving: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.repo.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serving: predict request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure predictResponse
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(msg, &failure) == nil && failure.Error != "" {
			msg = []byte(failure.Error)
		}
		return nil, fmt.Errorf("serving: predict returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("serving: failed to decode response: %w", err)
	}

	values := make([]float64, len(out.Predictions))
	for i, raw := range out.Predictions {
		v, err := scalar(raw)
		if err != nil {
			return nil, fmt.Errorf("serving: prediction %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// scalar accepts either a bare number or a one-element array
func scalar(raw json.RawMessage) (float64, error) {
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, nil
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err != nil {
		return 0, err
	}
	if len(arr) != 1 {
		return 0, fmt.Errorf("expected one output, got %d", len(arr))
	}
	return arr[0], nil
}
