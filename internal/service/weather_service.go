package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meterforecast/backend/internal/domain"
)

// DefaultIndexColumn is the timestamp column of the hourly weather CSVs
const DefaultIndexColumn = "captured_on_h"

// maxCSVBytes bounds how much of a remote CSV is read
const maxCSVBytes = 32 << 20

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// WeatherService fetches and parses hourly weather feature tables
type WeatherService struct {
	indexColumn string
	required    []string
	httpClient  *http.Client
}

// NewWeatherService creates a new weather service.
// Columns in required must be present and numeric in every table it parses.
func NewWeatherService(indexColumn string, required []string, timeout time.Duration) *WeatherService {
	if indexColumn == "" {
		indexColumn = DefaultIndexColumn
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WeatherService{
		indexColumn: indexColumn,
		required:    append([]string(nil), required...),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// FetchSeries downloads a weather CSV and parses it
func (s *WeatherService) FetchSeries(ctx context.Context, url string) (*domain.WeatherSeries, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, domain.InputFormatError("csv url must be http or https, got %q", url)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.InputFormatError("invalid csv url: %v", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: failed to fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: csv fetch returned status %d", resp.StatusCode)
	}

	return s.Parse(io.LimitReader(resp.Body, maxCSVBytes))
}

// Parse reads a weather CSV with the service's index column and required columns
func (s *WeatherService) Parse(r io.Reader) (*domain.WeatherSeries, error) {
	return ParseWeatherCSV(r, s.indexColumn, s.required)
}

// ParseWeatherCSV builds a weather series from CSV content.
//
// The index column holds hourly timestamps. Columns listed in required must be
// numeric in every row; any other column with a non-numeric value is dropped.
func ParseWeatherCSV(r io.Reader, indexColumn string, required []string) (*domain.WeatherSeries, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.InputFormatError("empty csv")
	}
	if err != nil {
		return nil, domain.InputFormatError("reading csv header: %v", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := -1
	for i, h := range header {
		if h == indexColumn {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, domain.InputFormatError("missing index column %q", indexColumn)
	}

	isRequired := make(map[string]bool, len(required))
	for _, name := range required {
		isRequired[name] = true
	}

	var (
		timestamps []time.Time
		columns    = make([][]float64, len(header))
		dropped    = make([]bool, len(header))
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.InputFormatError("line %d: %v", line, err)
		}

		ts, err := parseTimestamp(strings.TrimSpace(record[index]))
		if err != nil {
			return nil, domain.InputFormatError("line %d: %v", line, err)
		}
		timestamps = append(timestamps, ts)

		for c, raw := range record {
			if c == index || dropped[c] {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				if isRequired[header[c]] {
					return nil, domain.InputFormatError("line %d: column %q: %q is not a number", line, header[c], raw)
				}
				dropped[c] = true
				columns[c] = nil
				continue
			}
			if isRequired[header[c]] && (math.IsNaN(v) || math.IsInf(v, 0)) {
				return nil, domain.InputFormatError("line %d: column %q: %q is not a finite number", line, header[c], raw)
			}
			columns[c] = append(columns[c], v)
		}
	}

	var (
		names []string
		kept  [][]float64
	)
	for c, name := range header {
		if c == index || dropped[c] {
			continue
		}
		names = append(names, name)
		if columns[c] == nil {
			columns[c] = []float64{}
		}
		kept = append(kept, columns[c])
	}

	series, err := domain.NewFeatureTable(timestamps, names, kept)
	if err != nil {
		return nil, err
	}
	if err := series.Require(required...); err != nil {
		return nil, err
	}
	return series, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
