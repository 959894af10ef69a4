// Package profile loads per-meter scaling profiles from the JSON document
// written alongside the trained models.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/meterforecast/backend/internal/domain"
)

type meterParams struct {
	Means   []float64 `json:"means"`
	StdDevs []float64 `json:"std_devs"`
}

// FileStore implements domain.ProfileStore over a scaling_params.json document.
// The whole document is swapped atomically on Reload, never edited in place.
type FileStore struct {
	path     string
	profiles atomic.Pointer[map[string]domain.ScalingProfile]
}

// NewFileStore loads the profile document at path
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStore builds a store from an already parsed set of profiles
func NewStore(profiles ...domain.ScalingProfile) *FileStore {
	m := make(map[string]domain.ScalingProfile, len(profiles))
	for _, p := range profiles {
		m[p.MeterID] = p
	}
	s := &FileStore{}
	s.profiles.Store(&m)
	return s
}

// Reload re-reads the document and replaces every profile at once
func (s *FileStore) Reload() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return domain.ConfigurationError("scaling profiles %s: %v", s.path, err)
	}
	m, err := Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("scaling profiles %s: %w", s.path, err)
	}
	s.profiles.Store(&m)
	return nil
}

// Profile returns the scaling profile of a meter
func (s *FileStore) Profile(_ context.Context, meterID string) (domain.ScalingProfile, error) {
	m := s.profiles.Load()
	if m == nil {
		return domain.ScalingProfile{}, domain.ConfigurationError("scaling profiles not loaded")
	}
	p, ok := (*m)[meterID]
	if !ok {
		return domain.ScalingProfile{}, domain.NotFoundError("no scaling profile for meter %s", meterID)
	}
	return p, nil
}

// MeterIDs returns the meters that have a profile
func (s *FileStore) MeterIDs() []string {
	m := s.profiles.Load()
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(*m))
	for id := range *m {
		ids = append(ids, id)
	}
	return ids
}

// Parse decodes a document of the form
//
//	{"feats": ["2m_temperature_c", ...], "<meter id>": {"means": [...], "std_devs": [...]}}
func Parse(r io.Reader) (map[string]domain.ScalingProfile, error) {
	var doc map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, domain.ConfigurationError("decoding profiles: %v", err)
	}

	rawFeats, ok := doc["feats"]
	if !ok {
		return nil, domain.ConfigurationError("missing \"feats\" list")
	}
	var feats []string
	if err := json.Unmarshal(rawFeats, &feats); err != nil {
		return nil, domain.ConfigurationError("decoding feats: %v", err)
	}

	out := make(map[string]domain.ScalingProfile, len(doc)-1)
	for key, raw := range doc {
		if key == "feats" {
			continue
		}
		var params meterParams
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, domain.ConfigurationError("decoding meter %s: %v", key, err)
		}
		if len(params.Means) != len(feats) || len(params.StdDevs) != len(feats) {
			return nil, domain.ConfigurationError("meter %s: %d feats, %d means, %d std devs",
				key, len(feats), len(params.Means), len(params.StdDevs))
		}
		out[key] = domain.ScalingProfile{
			MeterID:  key,
			Features: append([]string(nil), feats...),
			Means:    params.Means,
			StdDevs:  params.StdDevs,
		}
	}
	return out, nil
}
