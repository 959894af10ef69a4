package service

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meterforecast/backend/internal/domain"
)

// ForecastService ties weather ingestion, the predictor and run logging together
type ForecastService struct {
	predictor *Predictor
	weather   *WeatherService
	repo      RunRepository
	timeout   time.Duration

	wgBg sync.WaitGroup // tracks background goroutines for graceful shutdown
}

// NewForecastService creates a new forecast service.
// A positive timeout bounds each prediction; the pipeline itself never cancels.
func NewForecastService(predictor *Predictor, weather *WeatherService, repo RunRepository, timeout time.Duration) *ForecastService {
	return &ForecastService{
		predictor: predictor,
		weather:   weather,
		repo:      repo,
		timeout:   timeout,
	}
}

// WaitBackground blocks until all background save goroutines complete.
// Call during graceful shutdown to avoid dropped writes.
func (s *ForecastService) WaitBackground() {
	s.wgBg.Wait()
}

// PredictFromURL fetches the weather CSV at url and forecasts the meter's consumption
func (s *ForecastService) PredictFromURL(ctx context.Context, meterID, url string) (domain.PredictionResult, error) {
	series, err := s.weather.FetchSeries(ctx, url)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return s.Predict(ctx, meterID, series, "url")
}

// PredictFromCSV parses an uploaded weather CSV and forecasts the meter's consumption
func (s *ForecastService) PredictFromCSV(ctx context.Context, meterID string, r io.Reader) (domain.PredictionResult, error) {
	series, err := s.weather.Parse(r)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	return s.Predict(ctx, meterID, series, "upload")
}

// Predict runs the pipeline and records the run asynchronously
func (s *ForecastService) Predict(ctx context.Context, meterID string, series *domain.WeatherSeries, source string) (domain.PredictionResult, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	result, err := s.predictor.Predict(ctx, meterID, series)
	if err != nil {
		return domain.PredictionResult{}, err
	}

	run := domain.PredictionRun{
		ID:        uuid.NewString(),
		MeterID:   meterID,
		Windows:   len(result.Points),
		Source:    source,
		Duration:  time.Since(started),
		CreatedAt: time.Now().UTC(),
	}
	if n := len(result.Points); n > 0 {
		run.FirstHour = result.Points[0].Timestamp
		run.LastHour = result.Points[n-1].Timestamp
	}

	// Persist run asynchronously (tracked for graceful shutdown)
	s.wgBg.Add(1)
	go func() {
		defer s.wgBg.Done()
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.SavePredictionRun(bgCtx, run); err != nil {
			log.Printf("Failed to save prediction run: %v", err)
		}
	}()

	return result, nil
}

// RecentRuns returns the latest recorded runs for a meter
func (s *ForecastService) RecentRuns(ctx context.Context, meterID string, limit int) ([]domain.PredictionRun, error) {
	return s.repo.RecentRuns(ctx, meterID, limit)
}

// Health checks the run repository
func (s *ForecastService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}
