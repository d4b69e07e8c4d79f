// Package audit persists structured per-session, per-stage timing and
// outcome records to PostgreSQL. It never stores transcript text or raw
// audio, only stage name, duration, status, and error strings, so the
// audit trail can be retained even where the transcript itself cannot.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddl = `
CREATE TABLE IF NOT EXISTS voice_sessions (
    id         TEXT        PRIMARY KEY,
    started_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    ended_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS voice_spans (
    id          BIGSERIAL   PRIMARY KEY,
    session_id  TEXT        NOT NULL REFERENCES voice_sessions (id) ON DELETE CASCADE,
    stage       TEXT        NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms DOUBLE PRECISION NOT NULL,
    status      TEXT        NOT NULL,
    error_msg   TEXT        NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_voice_spans_session_id ON voice_spans (session_id);
`

// Store is the PostgreSQL-backed audit log.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the audit database at dsn and ensures its schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("audit store: connect: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit store: ping: %w", err)
	}
	if _, err = pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("audit store: migrate: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CreateSession records the start of a voice session.
func (s *Store) CreateSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO voice_sessions (id, started_at) VALUES ($1, $2)`,
		id, time.Now().UTC())
	return err
}

// EndSession records the end of a voice session.
func (s *Store) EndSession(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE voice_sessions SET ended_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	return err
}

// RecordSpan records one stage execution's timing and outcome.
func (s *Store) RecordSpan(ctx context.Context, sessionID, stage string, startedAt time.Time, durationMs float64, status, errMsg string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO voice_spans (session_id, stage, started_at, duration_ms, status, error_msg)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		sessionID, stage, startedAt.UTC(), durationMs, status, errMsg)
	return err
}
