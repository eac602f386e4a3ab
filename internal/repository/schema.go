package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the projection tables if they do not exist.
// Called once at startup; safe to run concurrently across replicas.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS event_documents (
			id VARCHAR(36) PRIMARY KEY,
			doc JSONB NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_documents_sessions
			ON event_documents USING GIN ((doc->'sessions') jsonb_path_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_event_documents_category
			ON event_documents ((doc->'category'->>'id'))`,
		`CREATE INDEX IF NOT EXISTS idx_event_documents_organization
			ON event_documents ((doc->'organization'->>'id'))`,
		`CREATE TABLE IF NOT EXISTS event_trending (
			event_id VARCHAR(36) PRIMARY KEY,
			view_count BIGINT NOT NULL DEFAULT 0,
			purchase_count BIGINT NOT NULL DEFAULT 0,
			reservation_count BIGINT NOT NULL DEFAULT 0,
			score DOUBLE PRECISION NOT NULL DEFAULT 0,
			last_calculated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_trending_score
			ON event_trending (score DESC)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
