// Package features holds the pure transformation stages that turn a weather
// series into the windowed tensor a forecasting model consumes.
package features

import (
	"math"

	"github.com/meterforecast/backend/internal/domain"
)

const (
	secondsPerDay  = 24 * 60 * 60
	secondsPerWeek = 7 * secondsPerDay
)

// AddSeasonality returns a new table with day and week sine/cosine columns
// derived from each row's Unix time.
func AddSeasonality(in *domain.FeatureTable) (*domain.FeatureTable, error) {
	n := in.Len()
	daySin := make([]float64, n)
	dayCos := make([]float64, n)
	weekSin := make([]float64, n)
	weekCos := make([]float64, n)

	for i := 0; i < n; i++ {
		ts := in.Timestamp(i)
		if ts.IsZero() {
			return nil, domain.InputFormatError("zero timestamp at row %d", i)
		}
		s := float64(ts.Unix())
		daySin[i], dayCos[i] = math.Sincos(s * (2 * math.Pi / secondsPerDay))
		weekSin[i], weekCos[i] = math.Sincos(s * (2 * math.Pi / secondsPerWeek))
	}

	out := in
	for _, col := range []struct {
		name   string
		values []float64
	}{
		{domain.FeatureDaySin, daySin},
		{domain.FeatureDayCos, dayCos},
		{domain.FeatureWeekSin, weekSin},
		{domain.FeatureWeekCos, weekCos},
	} {
		var err error
		if out, err = out.WithColumn(col.name, col.values); err != nil {
			return nil, err
		}
	}
	return out, nil
}
