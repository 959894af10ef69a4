package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterforecast/backend/internal/domain"
	"github.com/meterforecast/backend/internal/features"
	"github.com/meterforecast/backend/internal/repository/directory"
	"github.com/meterforecast/backend/internal/repository/postgres"
	"github.com/meterforecast/backend/internal/repository/profile"
	"github.com/meterforecast/backend/internal/service"
)

const meterID = "200713"

var t0 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

type constModel float64

func (m constModel) Predict(_ context.Context, in *domain.InputWindow) ([]float64, error) {
	out := make([]float64, in.Windows)
	for i := range out {
		out[i] = float64(m)
	}
	return out, nil
}

type models map[string]domain.Forecaster

func (r models) Resolve(_ context.Context, id string) (domain.Forecaster, error) {
	m, ok := r[id]
	if !ok {
		return nil, domain.NotFoundError("no model for meter %s", id)
	}
	return m, nil
}

func weatherCSV(n int) string {
	var b strings.Builder
	b.WriteString("captured_on_h,surface_pressure,total_precipitation,total_cloud_cover,2m_temperature_c,2m_dewpoint_temperature_c\n")
	for i := 0; i < n; i++ {
		ts := t0.Add(time.Duration(i) * time.Hour)
		fmt.Fprintf(&b, "%s,1012.5,0.0,0.3,21.4,12.1\n", ts.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

type envelope struct {
	Success bool            `json:"success"`
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupApp(t *testing.T) (*fiber.App, *service.ForecastService) {
	t.Helper()

	p := domain.ScalingProfile{MeterID: meterID, Features: domain.RawFeatures}
	for range domain.RawFeatures {
		p.Means = append(p.Means, 0)
		p.StdDevs = append(p.StdDevs, 1)
	}
	predictor, err := service.NewPredictor(
		service.PredictorConfig{Timesteps: features.DefaultTimesteps, FeatureOrder: domain.DefaultFeatureOrder},
		features.NewHolidayCalendar(),
		profile.NewStore(p),
		models{meterID: constModel(5.0)},
	)
	require.NoError(t, err)

	weather := service.NewWeatherService("", predictor.RequiredColumns(), time.Second)
	forecastSvc := service.NewForecastService(predictor, weather, postgres.NewMockRepository(), time.Second)
	t.Cleanup(forecastSvc.WaitBackground)

	dir, err := directory.Read(strings.NewReader(`{"business_ids": [393403], "meter_ids": {"393403": [200713, 200714]}}`))
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	SetupRoutes(app, forecastSvc, dir)
	return app, forecastSvc
}

func do(t *testing.T, app *fiber.App, req *nethttp.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	if resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(body, &env), string(body))
	}
	return resp.StatusCode, env
}

func TestHealthCheck(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

func TestPredict_FromURL(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Write([]byte(weatherCSV(25)))
	}))
	defer srv.Close()
	app, _ := setupApp(t)

	status, env := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/predict?meter_id="+meterID+"&csv_url="+srv.URL+"/feats.csv", nil))
	require.Equal(t, nethttp.StatusOK, status, env.Message)
	assert.True(t, env.Success)

	var data PredictionData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, meterID, data.MeterID)
	assert.Equal(t, []float64{5.0, 5.0}, data.Consumption)
	require.Len(t, data.Timestamps, 2)
	assert.True(t, data.Timestamps[0].Equal(t0.Add(23*time.Hour)))
	assert.True(t, data.Timestamps[1].Equal(t0.Add(24*time.Hour)))
}

func TestPredictUpload(t *testing.T) {
	app, forecastSvc := setupApp(t)

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "weather.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(weatherCSV(26)))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(nethttp.MethodPost, "/api/predict?meter_id="+meterID, &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		status, env := do(t, app, req)
		require.Equal(t, nethttp.StatusOK, status, env.Message)

		var data PredictionData
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Len(t, data.Consumption, 3)
	})

	t.Run("raw body", func(t *testing.T) {
		req := httptest.NewRequest(nethttp.MethodPost, "/api/predict?meter_id="+meterID, strings.NewReader(weatherCSV(24)))
		req.Header.Set("Content-Type", "text/csv")

		status, env := do(t, app, req)
		require.Equal(t, nethttp.StatusOK, status, env.Message)

		var data PredictionData
		require.NoError(t, json.Unmarshal(env.Data, &data))
		assert.Equal(t, []float64{5.0}, data.Consumption)
	})

	forecastSvc.WaitBackground()
	status, env := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/meters/"+meterID+"/runs", nil))
	require.Equal(t, nethttp.StatusOK, status)
	var runs []domain.PredictionRun
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	assert.Len(t, runs, 2)
}

func TestPredict_ErrorStatus(t *testing.T) {
	app, _ := setupApp(t)

	tests := []struct {
		name   string
		meter  string
		body   string
		status int
	}{
		{"unknown meter", "999", weatherCSV(30), nethttp.StatusNotFound},
		{"too few rows", meterID, weatherCSV(10), nethttp.StatusUnprocessableEntity},
		{"missing column", meterID, "captured_on_h,surface_pressure\n2024-06-03 00:00:00,1\n", nethttp.StatusBadRequest},
		{"missing meter id", "", weatherCSV(30), nethttp.StatusBadRequest},
		{"empty body", meterID, "", nethttp.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(nethttp.MethodPost, "/api/predict?meter_id="+tt.meter, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "text/csv")

			status, env := do(t, app, req)
			assert.Equal(t, tt.status, status)
			assert.True(t, env.Error)
			assert.NotEmpty(t, env.Message)
		})
	}

	status, _ := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/predict?meter_id="+meterID, nil))
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestDirectory(t *testing.T) {
	app, _ := setupApp(t)

	status, env := do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/business_ids", nil))
	require.Equal(t, nethttp.StatusOK, status)
	var businesses []string
	require.NoError(t, json.Unmarshal(env.Data, &businesses))
	assert.Equal(t, []string{"393403"}, businesses)

	status, env = do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/meter_ids?business_id=393403", nil))
	require.Equal(t, nethttp.StatusOK, status)
	var meters []string
	require.NoError(t, json.Unmarshal(env.Data, &meters))
	assert.Equal(t, []string{"200713", "200714"}, meters)

	status, _ = do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/meter_ids?business_id=1", nil))
	assert.Equal(t, nethttp.StatusNotFound, status)

	status, _ = do(t, app, httptest.NewRequest(nethttp.MethodGet, "/api/meter_ids", nil))
	assert.Equal(t, nethttp.StatusBadRequest, status)
}

func TestMetricsEndpoint(t *testing.T) {
	app, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(nethttp.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")
}
