package domain

import (
	"context"
	"time"
)

// ScalingProfile holds the z-score parameters a meter's model was trained with
type ScalingProfile struct {
	MeterID  string    `json:"meter_id"`
	Features []string  `json:"feats"`
	Means    []float64 `json:"means"`
	StdDevs  []float64 `json:"std_devs"`
}

// InputWindow is the (windows, timesteps, features) tensor fed to a forecasting model.
// Values are stored row-major; window i holds rows i..i+Timesteps-1 oldest first.
type InputWindow struct {
	Windows    int
	Timesteps  int
	Features   []string
	Values     []float64
	Timestamps []time.Time // timestamp of the last row of each window
}

// At returns the value of feature f at step t of window w
func (in *InputWindow) At(w, t, f int) float64 {
	return in.Values[(w*in.Timesteps+t)*len(in.Features)+f]
}

// Window returns window w as timesteps x features rows, sharing storage with the tensor
func (in *InputWindow) Window(w int) [][]float64 {
	nf := len(in.Features)
	rows := make([][]float64, in.Timesteps)
	base := w * in.Timesteps * nf
	for t := range rows {
		start := base + t*nf
		rows[t] = in.Values[start : start+nf : start+nf]
	}
	return rows
}

// Flat returns window w flattened to timesteps*features values
func (in *InputWindow) Flat(w int) []float64 {
	size := in.Timesteps * len(in.Features)
	return in.Values[w*size : (w+1)*size : (w+1)*size]
}

// PredictionPoint is one forecast consumption value
type PredictionPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Consumption float64   `json:"consumption"`
}

// PredictionResult is the ordered forecast for one meter
type PredictionResult struct {
	MeterID string            `json:"meter_id"`
	Points  []PredictionPoint `json:"points"`
}

// Timestamps returns the forecast timestamps in order
func (r PredictionResult) Timestamps() []time.Time {
	out := make([]time.Time, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Timestamp
	}
	return out
}

// Values returns the forecast consumption values in order
func (r PredictionResult) Values() []float64 {
	out := make([]float64, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.Consumption
	}
	return out
}

// Forecaster is a loaded, per-meter forecasting artifact.
// Implementations must be safe for concurrent use and must not change once loaded.
type Forecaster interface {
	// Predict returns one scalar per window, in window order
	Predict(ctx context.Context, in *InputWindow) ([]float64, error)
}

// PredictionRun records one completed prediction for auditing
type PredictionRun struct {
	ID        string        `json:"id"`
	MeterID   string        `json:"meter_id"`
	Windows   int           `json:"windows"`
	FirstHour time.Time     `json:"first_hour"`
	LastHour  time.Time     `json:"last_hour"`
	Source    string        `json:"source"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}
