package features

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/meterforecast/backend/internal/domain"
)

// HolidayColumn is the CSV header holding the holiday dates
const HolidayColumn = "public_holiday_dates"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{y, m, d}
}

// HolidayCalendar is an immutable set of calendar dates
type HolidayCalendar struct {
	dates map[civilDate]struct{}
}

// NewHolidayCalendar builds a calendar from dates; the time of day is ignored
func NewHolidayCalendar(dates ...time.Time) *HolidayCalendar {
	c := &HolidayCalendar{dates: make(map[civilDate]struct{}, len(dates))}
	for _, d := range dates {
		c.dates[dateOf(d)] = struct{}{}
	}
	return c
}

// LoadHolidayCalendar reads a calendar CSV file with a public_holiday_dates column
func LoadHolidayCalendar(path string) (*HolidayCalendar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ConfigurationError("holiday calendar %s: %v", path, err)
	}
	defer f.Close()

	cal, err := ReadHolidayCalendar(f)
	if err != nil {
		return nil, fmt.Errorf("holiday calendar %s: %w", path, err)
	}
	return cal, nil
}

// ReadHolidayCalendar parses calendar CSV content
func ReadHolidayCalendar(r io.Reader) (*HolidayCalendar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, domain.ConfigurationError("reading header: %v", err)
	}
	col := -1
	for i, h := range header {
		if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == HolidayColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, domain.ConfigurationError("missing %q column", HolidayColumn)
	}

	var dates []time.Time
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.ConfigurationError("line %d: %v", line, err)
		}
		if col >= len(record) {
			return nil, domain.ConfigurationError("line %d: missing date", line)
		}
		d, err := parseDate(strings.TrimSpace(record[col]))
		if err != nil {
			return nil, domain.ConfigurationError("line %d: %v", line, err)
		}
		dates = append(dates, d)
	}
	return NewHolidayCalendar(dates...), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Contains reports whether t falls on a holiday
func (c *HolidayCalendar) Contains(t time.Time) bool {
	_, ok := c.dates[dateOf(t)]
	return ok
}

// Len returns the number of distinct holiday dates
func (c *HolidayCalendar) Len() int {
	return len(c.dates)
}

// AddHolidayFlag returns a new table with a binary public_holiday column
func AddHolidayFlag(in *domain.FeatureTable, cal *HolidayCalendar) (*domain.FeatureTable, error) {
	if cal == nil {
		return nil, domain.ConfigurationError("holiday calendar not loaded")
	}
	flags := make([]float64, in.Len())
	for i := range flags {
		if cal.Contains(in.Timestamp(i)) {
			flags[i] = 1
		}
	}
	return in.WithColumn(domain.FeaturePublicHoliday, flags)
}
