package features

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterforecast/backend/internal/domain"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// hourlyTable builds n hourly rows starting at from; every raw feature column holds the row index
func hourlyTable(t *testing.T, from time.Time, n int) *domain.FeatureTable {
	t.Helper()
	ts := make([]time.Time, n)
	cols := make([][]float64, len(domain.RawFeatures))
	for c := range cols {
		cols[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		ts[i] = from.Add(time.Duration(i) * time.Hour)
		for c := range cols {
			cols[c][i] = float64(i)
		}
	}
	table, err := domain.NewFeatureTable(ts, domain.RawFeatures, cols)
	require.NoError(t, err)
	return table
}

func TestAddSeasonality_Periodic(t *testing.T) {
	base := time.Date(2023, 3, 14, 7, 0, 0, 0, time.UTC)
	table, err := domain.NewFeatureTable(
		[]time.Time{base, base.Add(24 * time.Hour), base.Add(7 * 24 * time.Hour)},
		nil, nil,
	)
	require.NoError(t, err)

	out, err := AddSeasonality(table)
	require.NoError(t, err)

	daySin, _ := out.Column(domain.FeatureDaySin)
	dayCos, _ := out.Column(domain.FeatureDayCos)
	weekSin, _ := out.Column(domain.FeatureWeekSin)
	weekCos, _ := out.Column(domain.FeatureWeekCos)

	assert.InDelta(t, daySin[0], daySin[1], 1e-9)
	assert.InDelta(t, dayCos[0], dayCos[1], 1e-9)
	assert.InDelta(t, weekSin[0], weekSin[2], 1e-9)
	assert.InDelta(t, weekCos[0], weekCos[2], 1e-9)

	// a day apart is not a week apart
	assert.NotEqual(t, math.Round(weekSin[0]*1e6), math.Round(weekSin[1]*1e6))
}

func TestAddSeasonality_Values(t *testing.T) {
	// Unix epoch plus six hours is a quarter of a day
	table, err := domain.NewFeatureTable([]time.Time{time.Unix(6*3600, 0).UTC()}, nil, nil)
	require.NoError(t, err)

	out, err := AddSeasonality(table)
	require.NoError(t, err)

	daySin, _ := out.Column(domain.FeatureDaySin)
	dayCos, _ := out.Column(domain.FeatureDayCos)
	assert.InDelta(t, 1.0, daySin[0], 1e-12)
	assert.InDelta(t, 0.0, dayCos[0], 1e-12)
	assert.False(t, table.Has(domain.FeatureDaySin), "input table must not change")
}

func TestHolidayFlag(t *testing.T) {
	cal, err := ReadHolidayCalendar(strings.NewReader(
		"public_holiday_dates\n2024-01-01\n2024-03-21\n2024-12-25\n"))
	require.NoError(t, err)
	require.Equal(t, 3, cal.Len())

	table := hourlyTable(t, time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), 72)
	out, err := AddHolidayFlag(table, cal)
	require.NoError(t, err)

	flags, ok := out.Column(domain.FeaturePublicHoliday)
	require.True(t, ok)
	for i, f := range flags {
		ts := out.Timestamp(i)
		if ts.Day() == 1 && ts.Month() == time.January {
			assert.Equal(t, 1.0, f, "row %d (%s)", i, ts)
		} else {
			assert.Equal(t, 0.0, f, "row %d (%s)", i, ts)
		}
	}
}

func TestReadHolidayCalendar_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"empty", ""},
		{"missing column", "date\n2024-01-01\n"},
		{"bad date", "public_holiday_dates\nnot-a-date\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadHolidayCalendar(strings.NewReader(tt.csv))
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoadHolidayCalendar_MissingFile(t *testing.T) {
	_, err := LoadHolidayCalendar(t.TempDir() + "/absent.csv")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestAddHolidayFlag_NilCalendar(t *testing.T) {
	_, err := AddHolidayFlag(hourlyTable(t, start, 2), nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestNormalize_RoundTrip(t *testing.T) {
	table := hourlyTable(t, start, 10)
	profile := domain.ScalingProfile{
		MeterID:  "200713",
		Features: []string{domain.FeatureTemperature, domain.FeatureSurfacePressure},
		Means:    []float64{18.5, 1013.25},
		StdDevs:  []float64{4.2, 7.1},
	}

	out, err := Normalize(table, profile)
	require.NoError(t, err)

	for i, name := range profile.Features {
		orig, _ := table.Column(name)
		scaled, _ := out.Column(name)
		for j := range orig {
			assert.InDelta(t, orig[j], Denormalize(scaled[j], profile.Means[i], profile.StdDevs[i]), 1e-9)
		}
	}
}

func TestNormalize_PassThrough(t *testing.T) {
	table := hourlyTable(t, start, 5)
	profile := domain.ScalingProfile{
		Features: []string{domain.FeatureTemperature},
		Means:    []float64{3},
		StdDevs:  []float64{2},
	}

	out, err := Normalize(table, profile)
	require.NoError(t, err)

	for _, name := range table.Names() {
		if name == domain.FeatureTemperature {
			continue
		}
		before, _ := table.Column(name)
		after, _ := out.Column(name)
		assert.Equal(t, before, after, name)
	}
	orig, _ := table.Column(domain.FeatureTemperature)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, orig, "input table must not change")
}

func TestNormalize_InvalidProfile(t *testing.T) {
	table := hourlyTable(t, start, 3)

	_, err := Normalize(table, domain.ScalingProfile{
		Features: []string{domain.FeatureTemperature},
		Means:    []float64{0},
		StdDevs:  []float64{0},
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = Normalize(table, domain.ScalingProfile{
		Features: []string{domain.FeatureTemperature},
		Means:    []float64{0, 1},
		StdDevs:  []float64{1},
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = Normalize(table, domain.ScalingProfile{
		Features: []string{"wind_speed"},
		Means:    []float64{0},
		StdDevs:  []float64{1},
	})
	assert.ErrorIs(t, err, domain.ErrInputFormat)
}

func TestBuildWindows_CountAndAlignment(t *testing.T) {
	for _, tc := range []struct{ n, timesteps int }{
		{24, 24}, {25, 24}, {48, 24}, {5, 1}, {7, 3},
	} {
		table := hourlyTable(t, start, tc.n)
		in, err := BuildWindows(table, domain.RawFeatures, tc.timesteps)
		require.NoError(t, err)

		require.Equal(t, tc.n-tc.timesteps+1, in.Windows)
		require.Len(t, in.Timestamps, in.Windows)
		require.Len(t, in.Values, in.Windows*tc.timesteps*len(domain.RawFeatures))
		for k, ts := range in.Timestamps {
			assert.Equal(t, table.Timestamp(k+tc.timesteps-1), ts)
		}
	}
}

func TestBuildWindows_CausalOrder(t *testing.T) {
	table := hourlyTable(t, start, 30)
	in, err := BuildWindows(table, domain.RawFeatures, 24)
	require.NoError(t, err)

	// every column holds the row index, so step s of window w must be w+s
	for w := 0; w < in.Windows; w++ {
		rows := in.Window(w)
		for s, row := range rows {
			for f := range row {
				assert.Equal(t, float64(w+s), row[f])
				assert.Equal(t, float64(w+s), in.At(w, s, f))
			}
		}
		// the last row of the window is the labelled hour
		assert.Equal(t, float64(w+23), rows[len(rows)-1][0])
	}
}

func TestBuildWindows_ColumnOrder(t *testing.T) {
	ts := []time.Time{start, start.Add(time.Hour)}
	table, err := domain.NewFeatureTable(ts, []string{"a", "b"}, [][]float64{{1, 2}, {10, 20}})
	require.NoError(t, err)

	in, err := BuildWindows(table, []string{"b", "a"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 1, 20, 2}, in.Flat(0))
}

func TestBuildWindows_Errors(t *testing.T) {
	table := hourlyTable(t, start, 23)

	_, err := BuildWindows(table, domain.RawFeatures, 24)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = BuildWindows(hourlyTable(t, start, 0), domain.RawFeatures, 24)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)

	_, err = BuildWindows(table, []string{"missing"}, 1)
	assert.ErrorIs(t, err, domain.ErrInputFormat)

	_, err = BuildWindows(table, domain.RawFeatures, 0)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}
