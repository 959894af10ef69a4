// Package directory serves the static business and meter id lists used by clients
// to populate their selectors.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meterforecast/backend/internal/domain"
)

type document struct {
	BusinessIDs []json.RawMessage            `json:"business_ids"`
	MeterIDs    map[string][]json.RawMessage `json:"meter_ids"`
}

// FileDirectory implements domain.Directory over an ids.json document
type FileDirectory struct {
	businessIDs []string
	meterIDs    map[string][]string
}

// LoadFile reads the directory document at path
func LoadFile(path string) (*FileDirectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.ConfigurationError("directory %s: %v", path, err)
	}
	defer f.Close()

	d, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("directory %s: %w", path, err)
	}
	return d, nil
}

// Empty returns a directory with no businesses
func Empty() *FileDirectory {
	return &FileDirectory{meterIDs: map[string][]string{}}
}

// Read decodes a document of the form
//
//	{"business_ids": [393403, ...], "meter_ids": {"393403": [200713, ...]}}
//
// Ids may be JSON numbers or strings.
func Read(r io.Reader) (*FileDirectory, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, domain.ConfigurationError("decoding directory: %v", err)
	}

	businesses, err := idStrings(doc.BusinessIDs)
	if err != nil {
		return nil, domain.ConfigurationError("business_ids: %v", err)
	}
	meters := make(map[string][]string, len(doc.MeterIDs))
	for business, raw := range doc.MeterIDs {
		ids, err := idStrings(raw)
		if err != nil {
			return nil, domain.ConfigurationError("meter_ids[%s]: %v", business, err)
		}
		meters[business] = ids
	}
	return &FileDirectory{businessIDs: businesses, meterIDs: meters}, nil
}

// BusinessIDs returns every business id
func (d *FileDirectory) BusinessIDs(_ context.Context) ([]string, error) {
	return append([]string{}, d.businessIDs...), nil
}

// MeterIDs returns the meters owned by a business
func (d *FileDirectory) MeterIDs(_ context.Context, businessID string) ([]string, error) {
	ids, ok := d.meterIDs[businessID]
	if !ok {
		return nil, domain.NotFoundError("unknown business %s", businessID)
	}
	return append([]string(nil), ids...), nil
}

func idStrings(raw []json.RawMessage) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(r, &n); err != nil {
			return nil, fmt.Errorf("id %s is neither a string nor a number", strings.TrimSpace(string(r)))
		}
		out = append(out, n.String())
	}
	return out, nil
}
