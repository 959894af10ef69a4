package domain

import (
	"time"
)

// Raw weather measurements expected in every series
const (
	FeatureSurfacePressure     = "surface_pressure"
	FeatureTotalPrecipitation  = "total_precipitation"
	FeatureTotalCloudCover     = "total_cloud_cover"
	FeatureTemperature         = "2m_temperature_c"
	FeatureDewpointTemperature = "2m_dewpoint_temperature_c"
)

// Derived features added by the pipeline
const (
	FeatureDaySin        = "Day sin"
	FeatureDayCos        = "Day cos"
	FeatureWeekSin       = "Week sin"
	FeatureWeekCos       = "Week cos"
	FeaturePublicHoliday = "public_holiday"
)

// RawFeatures lists the weather columns a series must carry
var RawFeatures = []string{
	FeatureSurfacePressure,
	FeatureTotalPrecipitation,
	FeatureTotalCloudCover,
	FeatureTemperature,
	FeatureDewpointTemperature,
}

// DefaultFeatureOrder is the column order the forecasting models were trained with
var DefaultFeatureOrder = []string{
	FeatureDaySin, FeatureDayCos, FeatureWeekSin, FeatureWeekCos,
	FeatureSurfacePressure, FeatureTotalPrecipitation, FeatureTotalCloudCover,
	FeatureTemperature, FeatureDewpointTemperature, FeaturePublicHoliday,
}

// FeatureTable is an hourly, timestamp-indexed table of named float columns.
// A table is never mutated after construction: WithColumn returns a new table
// that shares the untouched column slices with its parent.
type FeatureTable struct {
	timestamps []time.Time
	names      []string
	index      map[string]int
	columns    [][]float64
}

// WeatherSeries is the raw input table handed to the pipeline
type WeatherSeries = FeatureTable

// NewFeatureTable builds a table from timestamps and named columns.
// Timestamps must be strictly increasing and every column must have one value per timestamp.
func NewFeatureTable(timestamps []time.Time, names []string, columns [][]float64) (*FeatureTable, error) {
	if len(names) != len(columns) {
		return nil, InputFormatError("%d column names for %d columns", len(names), len(columns))
	}
	for i := 1; i < len(timestamps); i++ {
		if !timestamps[i].After(timestamps[i-1]) {
			return nil, InputFormatError("timestamp %s at row %d is not after %s",
				timestamps[i].Format(time.RFC3339), i, timestamps[i-1].Format(time.RFC3339))
		}
	}

	t := &FeatureTable{
		timestamps: append([]time.Time(nil), timestamps...),
		names:      make([]string, 0, len(names)),
		index:      make(map[string]int, len(names)),
		columns:    make([][]float64, 0, len(columns)),
	}
	for i, name := range names {
		if _, dup := t.index[name]; dup {
			return nil, InputFormatError("duplicate column %q", name)
		}
		if len(columns[i]) != len(timestamps) {
			return nil, InputFormatError("column %q has %d values for %d rows", name, len(columns[i]), len(timestamps))
		}
		t.index[name] = len(t.names)
		t.names = append(t.names, name)
		t.columns = append(t.columns, append([]float64(nil), columns[i]...))
	}
	return t, nil
}

// Len returns the number of rows
func (t *FeatureTable) Len() int {
	return len(t.timestamps)
}

// Timestamp returns the timestamp of row i
func (t *FeatureTable) Timestamp(i int) time.Time {
	return t.timestamps[i]
}

// Timestamps returns a copy of the row index
func (t *FeatureTable) Timestamps() []time.Time {
	return append([]time.Time(nil), t.timestamps...)
}

// Names returns the column names in insertion order
func (t *FeatureTable) Names() []string {
	return append([]string(nil), t.names...)
}

// Has reports whether the table carries a column
func (t *FeatureTable) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the values of a column. The returned slice must not be modified.
func (t *FeatureTable) Column(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// WithColumn returns a new table with the column added, or replaced if it already exists.
func (t *FeatureTable) WithColumn(name string, values []float64) (*FeatureTable, error) {
	if len(values) != len(t.timestamps) {
		return nil, InputFormatError("column %q has %d values for %d rows", name, len(values), len(t.timestamps))
	}

	next := &FeatureTable{
		timestamps: t.timestamps,
		names:      append([]string(nil), t.names...),
		index:      make(map[string]int, len(t.index)+1),
		columns:    append([][]float64(nil), t.columns...),
	}
	for k, v := range t.index {
		next.index[k] = v
	}

	if i, ok := next.index[name]; ok {
		next.columns[i] = values
		return next, nil
	}
	next.index[name] = len(next.names)
	next.names = append(next.names, name)
	next.columns = append(next.columns, values)
	return next, nil
}

// Require checks that every named column is present
func (t *FeatureTable) Require(names ...string) error {
	for _, name := range names {
		if !t.Has(name) {
			return InputFormatError("missing required column %q", name)
		}
	}
	return nil
}
