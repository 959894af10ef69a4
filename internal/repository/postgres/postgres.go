package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meterforecast/backend/internal/domain"
)

// PostgresRepository implements domain.RunRepository and domain.ProfileStore
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Profile reads a meter's scaling profile, ordered by feature position
func (r *PostgresRepository) Profile(ctx context.Context, meterID string) (domain.ScalingProfile, error) {
	query := `
		SELECT feature, mean, std_dev
		FROM scaling_profiles
		WHERE meter_id = $1
		ORDER BY position
	`

	rows, err := r.pool.Query(ctx, query, meterID)
	if err != nil {
		return domain.ScalingProfile{}, fmt.Errorf("postgres: failed to query scaling profile: %w", err)
	}
	defer rows.Close()

	p := domain.ScalingProfile{MeterID: meterID}
	for rows.Next() {
		var (
			feature   string
			mean, std float64
		)
		if err := rows.Scan(&feature, &mean, &std); err != nil {
			return domain.ScalingProfile{}, fmt.Errorf("postgres: failed to scan scaling profile row: %w", err)
		}
		p.Features = append(p.Features, feature)
		p.Means = append(p.Means, mean)
		p.StdDevs = append(p.StdDevs, std)
	}
	if err := rows.Err(); err != nil {
		return domain.ScalingProfile{}, fmt.Errorf("postgres: failed to read scaling profile: %w", err)
	}

	if len(p.Features) == 0 {
		return domain.ScalingProfile{}, domain.NotFoundError("no scaling profile for meter %s", meterID)
	}
	return p, nil
}

// SavePredictionRun persists a completed prediction to PostgreSQL
func (r *PostgresRepository) SavePredictionRun(ctx context.Context, run domain.PredictionRun) error {
	query := `
		INSERT INTO prediction_runs (
			id, meter_id, windows, first_hour, last_hour, source, duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		run.ID, run.MeterID, run.Windows, run.FirstHour, run.LastHour,
		run.Source, run.Duration.Milliseconds(), run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save prediction run: %w", err)
	}

	return nil
}

// RecentRuns retrieves the latest prediction runs for a meter
func (r *PostgresRepository) RecentRuns(ctx context.Context, meterID string, limit int) ([]domain.PredictionRun, error) {
	query := `
		SELECT id, meter_id, windows, first_hour, last_hour, source, duration_ms, created_at
		FROM prediction_runs
		WHERE meter_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, meterID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query prediction runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// runRows is the part of pgx.Rows that scanRuns reads
type runRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRuns(rows runRows) ([]domain.PredictionRun, error) {
	var results []domain.PredictionRun
	for rows.Next() {
		var (
			run        domain.PredictionRun
			durationMS int64
		)
		err := rows.Scan(
			&run.ID, &run.MeterID, &run.Windows, &run.FirstHour, &run.LastHour,
			&run.Source, &durationMS, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan prediction run row: %w", err)
		}
		run.Duration = msToDuration(durationMS)
		results = append(results, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read prediction runs: %w", err)
	}

	return results, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
