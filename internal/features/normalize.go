package features

import (
	"math"

	"github.com/meterforecast/backend/internal/domain"
)

// ValidateProfile checks that a profile can be applied without producing NaN or Inf
func ValidateProfile(p domain.ScalingProfile) error {
	if len(p.Means) != len(p.Features) || len(p.StdDevs) != len(p.Features) {
		return domain.ConfigurationError("profile for meter %s: %d features, %d means, %d std devs",
			p.MeterID, len(p.Features), len(p.Means), len(p.StdDevs))
	}
	for i, name := range p.Features {
		mean, std := p.Means[i], p.StdDevs[i]
		if std == 0 {
			return domain.ConfigurationError("profile for meter %s: zero std dev for %q", p.MeterID, name)
		}
		if math.IsNaN(mean) || math.IsInf(mean, 0) || math.IsNaN(std) || math.IsInf(std, 0) {
			return domain.ConfigurationError("profile for meter %s: non-finite parameters for %q", p.MeterID, name)
		}
	}
	return nil
}

// Normalize returns a new table where every profile feature is z-score scaled.
// Columns not named by the profile are carried over untouched.
func Normalize(in *domain.FeatureTable, p domain.ScalingProfile) (*domain.FeatureTable, error) {
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}

	out := in
	for i, name := range p.Features {
		src, ok := in.Column(name)
		if !ok {
			return nil, domain.InputFormatError("scaled feature %q missing from series", name)
		}
		mean, std := p.Means[i], p.StdDevs[i]
		scaled := make([]float64, len(src))
		for j, v := range src {
			scaled[j] = (v - mean) / std
		}

		var err error
		if out, err = out.WithColumn(name, scaled); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Denormalize maps a scaled value back to its original units
func Denormalize(v, mean, std float64) float64 {
	return v*std + mean
}
