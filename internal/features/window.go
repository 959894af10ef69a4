package features

import (
	"time"

	"github.com/meterforecast/backend/internal/domain"
)

// DefaultTimesteps is the lookback length, in hours, the models were trained with
const DefaultTimesteps = 24

// BuildWindows frames a feature table into overlapping causal windows.
//
// For N rows it yields N-timesteps+1 windows. Window k holds rows k..k+timesteps-1
// in chronological order and is labelled with the timestamp of its last row,
// which is the hour being forecast.
func BuildWindows(in *domain.FeatureTable, order []string, timesteps int) (*domain.InputWindow, error) {
	if timesteps < 1 {
		return nil, domain.ConfigurationError("window length must be positive, got %d", timesteps)
	}
	if len(order) == 0 {
		return nil, domain.ConfigurationError("empty feature order")
	}

	n := in.Len()
	if n < timesteps {
		return nil, domain.InsufficientDataError("%d rows supplied, at least %d required", n, timesteps)
	}

	cols := make([][]float64, len(order))
	for f, name := range order {
		values, ok := in.Column(name)
		if !ok {
			return nil, domain.InputFormatError("feature %q missing from series", name)
		}
		cols[f] = values
	}

	windows := n - timesteps + 1
	nf := len(order)
	out := &domain.InputWindow{
		Windows:    windows,
		Timesteps:  timesteps,
		Features:   append([]string(nil), order...),
		Values:     make([]float64, windows*timesteps*nf),
		Timestamps: make([]time.Time, windows),
	}

	pos := 0
	for w := 0; w < windows; w++ {
		for t := 0; t < timesteps; t++ {
			row := w + t
			for f := 0; f < nf; f++ {
				out.Values[pos] = cols[f][row]
				pos++
			}
		}
		out.Timestamps[w] = in.Timestamp(w + timesteps - 1)
	}
	return out, nil
}
