package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/meterforecast/backend/internal/domain"
	"github.com/meterforecast/backend/internal/features"
)

var tracer = otel.Tracer("github.com/meterforecast/backend/internal/service")

// PredictorConfig is the explicit configuration of the feature pipeline
type PredictorConfig struct {
	Timesteps    int
	FeatureOrder []string
}

// Predictor composes the feature pipeline with a meter's forecasting artifact.
// It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	cfg      PredictorConfig
	calendar *features.HolidayCalendar
	profiles ProfileStore
	models   ModelRepository
	required []string
}

// NewPredictor creates a predictor
func NewPredictor(cfg PredictorConfig, calendar *features.HolidayCalendar, profiles ProfileStore, models ModelRepository) (*Predictor, error) {
	if cfg.Timesteps < 1 {
		return nil, domain.ConfigurationError("window length must be positive, got %d", cfg.Timesteps)
	}
	if len(cfg.FeatureOrder) == 0 {
		return nil, domain.ConfigurationError("empty feature order")
	}
	if calendar == nil || profiles == nil || models == nil {
		return nil, domain.ConfigurationError("predictor needs a holiday calendar, profile store and model repository")
	}

	derived := map[string]bool{
		domain.FeatureDaySin:        true,
		domain.FeatureDayCos:        true,
		domain.FeatureWeekSin:       true,
		domain.FeatureWeekCos:       true,
		domain.FeaturePublicHoliday: true,
	}
	seen := make(map[string]bool, len(cfg.FeatureOrder))
	var required []string
	for _, name := range cfg.FeatureOrder {
		if seen[name] {
			return nil, domain.ConfigurationError("feature %q listed twice", name)
		}
		seen[name] = true
		if !derived[name] {
			required = append(required, name)
		}
	}

	return &Predictor{
		cfg:      PredictorConfig{Timesteps: cfg.Timesteps, FeatureOrder: append([]string(nil), cfg.FeatureOrder...)},
		calendar: calendar,
		profiles: profiles,
		models:   models,
		required: required,
	}, nil
}

// Timesteps returns the configured window length
func (p *Predictor) Timesteps() int {
	return p.cfg.Timesteps
}

// RequiredColumns returns the raw columns a series must carry
func (p *Predictor) RequiredColumns() []string {
	return append([]string(nil), p.required...)
}

// Predict forecasts consumption for every hour of the series that has a full
// lookback window behind it. Any failure aborts the call; no partial result is returned.
func (p *Predictor) Predict(ctx context.Context, meterID string, series *domain.WeatherSeries) (result domain.PredictionResult, err error) {
	ctx, span := tracer.Start(ctx, "Predictor.Predict", trace.WithAttributes(
		attribute.String("meter_id", meterID),
	))
	started := time.Now()
	defer func() {
		observePrediction(err, time.Since(started))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if meterID == "" {
		return domain.PredictionResult{}, domain.InputFormatError("meter id is required")
	}
	if series == nil {
		return domain.PredictionResult{}, domain.InputFormatError("weather series is required")
	}
	span.SetAttributes(attribute.Int("rows", series.Len()))
	if err := series.Require(p.required...); err != nil {
		return domain.PredictionResult{}, err
	}
	if err := requireFinite(series, p.required); err != nil {
		return domain.PredictionResult{}, err
	}

	table, err := features.AddSeasonality(series)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	if table, err = features.AddHolidayFlag(table, p.calendar); err != nil {
		return domain.PredictionResult{}, err
	}

	profile, err := p.profiles.Profile(ctx, meterID)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	if table, err = features.Normalize(table, profile); err != nil {
		return domain.PredictionResult{}, err
	}

	input, err := features.BuildWindows(table, p.cfg.FeatureOrder, p.cfg.Timesteps)
	if err != nil {
		return domain.PredictionResult{}, err
	}
	span.SetAttributes(attribute.Int("windows", input.Windows))
	windowsBuilt.Observe(float64(input.Windows))

	model, err := p.models.Resolve(ctx, meterID)
	if err != nil {
		return domain.PredictionResult{}, err
	}

	_, inferSpan := tracer.Start(ctx, "Forecaster.Predict")
	values, err := model.Predict(ctx, input)
	inferSpan.End()
	if err != nil {
		return domain.PredictionResult{}, fmt.Errorf("inference for meter %s: %w", meterID, err)
	}

	return align(meterID, input, values)
}

// requireFinite rejects NaN and Inf in the raw weather columns
func requireFinite(series *domain.WeatherSeries, columns []string) error {
	for _, name := range columns {
		values, _ := series.Column(name)
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return domain.InputFormatError("column %q has a non-finite value at %s",
					name, series.Timestamp(i).Format(time.RFC3339))
			}
		}
	}
	return nil
}

// align pairs each model output with its window's forecast hour
func align(meterID string, input *domain.InputWindow, values []float64) (domain.PredictionResult, error) {
	if len(values) != input.Windows {
		return domain.PredictionResult{}, domain.ConfigurationError(
			"model for meter %s returned %d values for %d windows", meterID, len(values), input.Windows)
	}

	points := make([]domain.PredictionPoint, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return domain.PredictionResult{}, domain.ConfigurationError(
				"model for meter %s returned a non-finite value for %s", meterID, input.Timestamps[i].Format(time.RFC3339))
		}
		points[i] = domain.PredictionPoint{Timestamp: input.Timestamps[i], Consumption: v}
	}
	return domain.PredictionResult{MeterID: meterID, Points: points}, nil
}
