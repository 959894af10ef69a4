package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 3.14, RoundTo(3.14159, 2))
	assert.Equal(t, 2.0, RoundTo(1.96, 0))
	assert.Equal(t, -0.5, RoundTo(-0.456, 1))
}

func TestFormatHour(t *testing.T) {
	loc := time.FixedZone("SAST", 2*60*60)
	assert.Equal(t, "2024-06-03 22:00", FormatHour(time.Date(2024, 6, 4, 0, 0, 0, 0, loc)))
}
