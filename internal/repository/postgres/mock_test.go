package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meterforecast/backend/internal/domain"
)

func TestMockRepository_RecentRuns(t *testing.T) {
	repo := NewMockRepository()
	ctx := context.Background()

	for i, meter := range []string{"1", "2", "1", "1"} {
		require.NoError(t, repo.SavePredictionRun(ctx, domain.PredictionRun{
			ID:        string(rune('a' + i)),
			MeterID:   meter,
			CreatedAt: time.Unix(int64(i), 0),
		}))
	}

	runs, err := repo.RecentRuns(ctx, "1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "d", runs[0].ID)
	assert.Equal(t, "c", runs[1].ID)

	assert.NoError(t, repo.Health(ctx))
}

func TestMsToDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, msToDuration(1500))
}
