package db

import (
	"context"
	"time"

	"github.com/roncastellon/BWM-walker-app-sub000/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	newPoolFn  = pgxpool.New
	pingPoolFn = func(ctx context.Context, pool *pgxpool.Pool) error { return pool.Ping(ctx) }
)

// ConnectPostgres opens the journal pool. An empty URL disables it.
func ConnectPostgres(cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.PostgresURL == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := newPoolFn(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, err
	}
	if err := pingPoolFn(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// Schema creates the tables the companion writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS walk_tracking_events (
	id             UUID PRIMARY KEY,
	session_id     TEXT NOT NULL,
	appointment_id TEXT NOT NULL,
	kind           TEXT NOT NULL,
	lat            DOUBLE PRECISION,
	lng            DOUBLE PRECISION,
	detail         TEXT NOT NULL DEFAULT '',
	recorded_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS walk_tracking_events_appt_idx
	ON walk_tracking_events (appointment_id, recorded_at);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, Schema)
	return err
}
