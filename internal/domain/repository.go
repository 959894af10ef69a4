package domain

import (
	"context"
)

// ProfileStore resolves the scaling profile of a meter.
// Implementations are read-only from the pipeline's point of view and safe for concurrent use.
type ProfileStore interface {
	// Profile returns ErrNotFound for an unknown meter
	Profile(ctx context.Context, meterID string) (ScalingProfile, error)
}

// ModelRepository resolves a meter id to its forecasting artifact
type ModelRepository interface {
	// Resolve returns ErrNotFound when no artifact exists for the meter
	Resolve(ctx context.Context, meterID string) (Forecaster, error)
}

// Directory answers the static business -> meter lookups used to populate clients
type Directory interface {
	BusinessIDs(ctx context.Context) ([]string, error)
	MeterIDs(ctx context.Context, businessID string) ([]string, error)
}

// RunRepository defines the interface for prediction run persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type RunRepository interface {
	// SavePredictionRun persists a completed prediction
	SavePredictionRun(ctx context.Context, run PredictionRun) error

	// RecentRuns returns the latest runs for a meter, newest first
	RecentRuns(ctx context.Context, meterID string, limit int) ([]PredictionRun, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
