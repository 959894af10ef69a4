package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/meterforecast/backend/internal/domain"
)

// DirRepository loads artifacts from a directory laid out as
// <root>/<meter>.json or <root>/<meter>/model.json
type DirRepository struct {
	root string
}

// NewDirRepository creates a repository rooted at dir
func NewDirRepository(dir string) (*DirRepository, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, domain.ConfigurationError("model directory %s: %v", dir, err)
	}
	if !info.IsDir() {
		return nil, domain.ConfigurationError("model directory %s is not a directory", dir)
	}
	return &DirRepository{root: dir}, nil
}

// Resolve loads the artifact of a meter
func (r *DirRepository) Resolve(ctx context.Context, meterID string) (domain.Forecaster, error) {
	if !validMeterID(meterID) {
		return nil, domain.NotFoundError("no model for meter %q", meterID)
	}

	for _, candidate := range []string{
		filepath.Join(r.root, meterID+".json"),
		filepath.Join(r.root, meterID, "model.json"),
	} {
		f, err := os.Open(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("model: failed to open %s: %w", candidate, err)
		}
		n, err := DecodeDenseNetwork(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("model: %s: %w", candidate, err)
		}
		return n, nil
	}
	return nil, domain.NotFoundError("no model for meter %s", meterID)
}

// validMeterID keeps ids from escaping the repository root
func validMeterID(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	for _, r := range id {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
