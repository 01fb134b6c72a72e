// Package store provides PostgreSQL persistence for the job records table.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a PostgreSQL connection pool holding the job records table.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema creates the job records table and its indexes if missing.
func (s *Store) InitSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS job_records (
			job_id               TEXT PRIMARY KEY,
			title                TEXT NOT NULL DEFAULT '',
			company              TEXT NOT NULL DEFAULT '',
			location             TEXT NOT NULL DEFAULT '',
			link                 TEXT NOT NULL DEFAULT '',
			posted_age           TEXT NOT NULL DEFAULT '',
			promoted             BOOLEAN NOT NULL DEFAULT FALSE,
			easy_apply           BOOLEAN NOT NULL DEFAULT FALSE,
			description          TEXT NOT NULL DEFAULT '',
			company_overview     TEXT NOT NULL DEFAULT '',
			contacts             JSONB,
			requirements         JSONB,
			scores               JSONB,
			total_score          DOUBLE PRECISION NOT NULL DEFAULT 0,
			tailored_summary     TEXT NOT NULL DEFAULT '',
			tailored_bullets     TEXT NOT NULL DEFAULT '',
			tailored_skills      TEXT NOT NULL DEFAULT '',
			tailored_html_path   TEXT NOT NULL DEFAULT '',
			tailored_pdf_path    TEXT NOT NULL DEFAULT '',
			page_count           INTEGER NOT NULL DEFAULT 0,
			retailoring_attempts INTEGER NOT NULL DEFAULT 0,
			tailored_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
			score_delta          DOUBLE PRECISION NOT NULL DEFAULT 0,
			status               TEXT NOT NULL,
			notes                TEXT NOT NULL DEFAULT '',
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS job_records_status_idx ON job_records (status);
		CREATE INDEX IF NOT EXISTS job_records_link_idx ON job_records (link);
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
