package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// PostgresTrendingRepository stores trending records in the
// event_trending table, one row per event.
type PostgresTrendingRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTrendingRepository creates a new PostgresTrendingRepository
func NewPostgresTrendingRepository(pool *pgxpool.Pool) *PostgresTrendingRepository {
	return &PostgresTrendingRepository{pool: pool}
}

// Get returns the record or domain.ErrTrendingNotFound
func (r *PostgresTrendingRepository) Get(ctx context.Context, eventID string) (*domain.TrendingRecord, error) {
	record := &domain.TrendingRecord{}
	err := r.pool.QueryRow(ctx, `
		SELECT event_id, view_count, purchase_count, reservation_count,
		       score, last_calculated_at, last_updated_at
		FROM event_trending WHERE event_id = $1`,
		eventID,
	).Scan(
		&record.EventID, &record.ViewCount, &record.PurchaseCount,
		&record.ReservationCount, &record.Score,
		&record.LastCalculatedAt, &record.LastUpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTrendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trending record %s: %w", eventID, err)
	}
	return record, nil
}

// Upsert creates or replaces the record
func (r *PostgresTrendingRepository) Upsert(ctx context.Context, record *domain.TrendingRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_trending
			(event_id, view_count, purchase_count, reservation_count,
			 score, last_calculated_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO UPDATE SET
			view_count = EXCLUDED.view_count,
			purchase_count = EXCLUDED.purchase_count,
			reservation_count = EXCLUDED.reservation_count,
			score = EXCLUDED.score,
			last_calculated_at = EXCLUDED.last_calculated_at,
			last_updated_at = EXCLUDED.last_updated_at`,
		record.EventID, record.ViewCount, record.PurchaseCount,
		record.ReservationCount, record.Score,
		record.LastCalculatedAt, record.LastUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert trending record %s: %w", record.EventID, err)
	}
	return nil
}

// Delete removes the record; no error if already absent
func (r *PostgresTrendingRepository) Delete(ctx context.Context, eventID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_trending WHERE event_id = $1`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete trending record %s: %w", eventID, err)
	}
	return nil
}

// ListTop returns records ordered by score descending
func (r *PostgresTrendingRepository) ListTop(ctx context.Context, limit int) ([]*domain.TrendingRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT event_id, view_count, purchase_count, reservation_count,
		       score, last_calculated_at, last_updated_at
		FROM event_trending
		ORDER BY score DESC, event_id ASC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trending records: %w", err)
	}
	defer rows.Close()

	var records []*domain.TrendingRecord
	for rows.Next() {
		record := &domain.TrendingRecord{}
		if err := rows.Scan(
			&record.EventID, &record.ViewCount, &record.PurchaseCount,
			&record.ReservationCount, &record.Score,
			&record.LastCalculatedAt, &record.LastUpdatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
