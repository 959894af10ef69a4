package postgres

import (
	"context"
	"sync"

	"github.com/meterforecast/backend/internal/domain"
)

// MockRepository implements domain.RunRepository for testing/demo mode.
// Runs are kept in memory so the latest ones can still be listed.
type MockRepository struct {
	mu   sync.Mutex
	runs []domain.PredictionRun
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{}
}

// SavePredictionRun keeps the run in memory
func (r *MockRepository) SavePredictionRun(ctx context.Context, run domain.PredictionRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

// RecentRuns returns the in-memory runs for a meter, newest first
func (r *MockRepository) RecentRuns(ctx context.Context, meterID string, limit int) ([]domain.PredictionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var results []domain.PredictionRun
	for i := len(r.runs) - 1; i >= 0 && len(results) < limit; i-- {
		if r.runs[i].MeterID == meterID {
			results = append(results, r.runs[i])
		}
	}
	return results, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}
