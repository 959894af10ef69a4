package utils

import (
	"math"
	"time"
)

// HourLayout renders forecast hours the way the weather CSVs index them
const HourLayout = "2006-01-02 15:04"

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

// FormatHour formats a timestamp in UTC with HourLayout
func FormatHour(t time.Time) string {
	return t.UTC().Format(HourLayout)
}
