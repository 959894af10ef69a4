package postgres

import (
	"context"
	"fmt"
	"time"
)

// Schema creates the tables used by the repository
const Schema = `
CREATE TABLE IF NOT EXISTS scaling_profiles (
	meter_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	feature  TEXT NOT NULL,
	mean     DOUBLE PRECISION NOT NULL,
	std_dev  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (meter_id, position)
);

CREATE TABLE IF NOT EXISTS prediction_runs (
	id          UUID PRIMARY KEY,
	meter_id    TEXT NOT NULL,
	windows     INTEGER NOT NULL,
	first_hour  TIMESTAMPTZ NOT NULL,
	last_hour   TIMESTAMPTZ NOT NULL,
	source      TEXT NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS prediction_runs_meter_idx ON prediction_runs (meter_id, created_at DESC);
`

// Migrate applies Schema
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
