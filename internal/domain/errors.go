package domain

import (
	"errors"
	"fmt"
)

// Error kinds raised by the prediction pipeline. Callers match them with errors.Is.
var (
	// ErrConfiguration covers missing or malformed calendars, profiles and artifacts
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound is returned for an unknown meter id
	ErrNotFound = errors.New("not found")

	// ErrInsufficientData is returned when fewer rows than the window length are supplied
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInputFormat covers malformed timestamps and missing feature columns
	ErrInputFormat = errors.New("input format error")
)

// ConfigurationError wraps ErrConfiguration with a formatted message
func ConfigurationError(format string, args ...any) error {
	return kindError(ErrConfiguration, format, args...)
}

// NotFoundError wraps ErrNotFound with a formatted message
func NotFoundError(format string, args ...any) error {
	return kindError(ErrNotFound, format, args...)
}

// InsufficientDataError wraps ErrInsufficientData with a formatted message
func InsufficientDataError(format string, args ...any) error {
	return kindError(ErrInsufficientData, format, args...)
}

// InputFormatError wraps ErrInputFormat with a formatted message
func InputFormatError(format string, args ...any) error {
	return kindError(ErrInputFormat, format, args...)
}

func kindError(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}
