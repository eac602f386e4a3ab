package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// PostgresEventRepository stores one JSONB document per event in the
// event_documents table.
type PostgresEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(pool *pgxpool.Pool) *PostgresEventRepository {
	return &PostgresEventRepository{pool: pool}
}

// Upsert replaces the whole document by ID
func (r *PostgresEventRepository) Upsert(ctx context.Context, event *domain.Event) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event document: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO event_documents (id, doc, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		event.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert event document %s: %w", event.ID, err)
	}
	return nil
}

// Delete removes the document; no error if already absent
func (r *PostgresEventRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event document %s: %w", id, err)
	}
	return nil
}

// GetByID returns the document or domain.ErrEventNotFound
func (r *PostgresEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM event_documents WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load event document %s: %w", id, err)
	}

	event := &domain.Event{}
	if err := json.Unmarshal(doc, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event document %s: %w", id, err)
	}
	return event, nil
}

// Exists reports whether the document is present
func (r *PostgresEventRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM event_documents WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event document %s: %w", id, err)
	}
	return exists, nil
}

// FindSession locates a session by ID across documents using a JSONB
// containment probe on the sessions array.
func (r *PostgresEventRepository) FindSession(ctx context.Context, sessionID string) (*domain.Session, string, error) {
	var eventID string
	var doc []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, doc FROM event_documents
		WHERE doc->'sessions' @> jsonb_build_array(jsonb_build_object('id', $1::text))
		LIMIT 1`,
		sessionID,
	).Scan(&eventID, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to find session %s: %w", sessionID, err)
	}

	event := &domain.Event{}
	if err := json.Unmarshal(doc, event); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal event document %s: %w", eventID, err)
	}
	for i := range event.Sessions {
		if event.Sessions[i].ID == sessionID {
			return &event.Sessions[i], eventID, nil
		}
	}
	return nil, "", domain.ErrSessionNotFound
}

// ReplaceSession replaces the matching session array element by ID
func (r *PostgresEventRepository) ReplaceSession(ctx context.Context, eventID string, session *domain.Session) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for i := range event.Sessions {
			if event.Sessions[i].ID == session.ID {
				event.Sessions[i] = *session
				return true
			}
		}
		return false
	})
}

// ReplaceSessionLayout replaces only the layout of the matching session
func (r *PostgresEventRepository) ReplaceSessionLayout(ctx context.Context, eventID, sessionID string, layout *domain.SeatingLayout) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for i := range event.Sessions {
			if event.Sessions[i].ID == sessionID {
				event.Sessions[i].Layout = layout
				return true
			}
		}
		return false
	})
}

// UpsertDiscount adds or replaces a discount array element by ID
func (r *PostgresEventRepository) UpsertDiscount(ctx context.Context, eventID string, discount domain.Discount) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for i := range event.Discounts {
			if event.Discounts[i].ID == discount.ID {
				event.Discounts[i] = discount
				return true
			}
		}
		event.Discounts = append(event.Discounts, discount)
		return true
	})
}

// RemoveDiscount pulls a discount from the array; no-op if absent
func (r *PostgresEventRepository) RemoveDiscount(ctx context.Context, eventID, discountID string) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for i := range event.Discounts {
			if event.Discounts[i].ID == discountID {
				event.Discounts = append(event.Discounts[:i], event.Discounts[i+1:]...)
				return true
			}
		}
		return false
	})
}

// UpdateTier replaces the matching tier list entry in place. Seat tier
// snapshots are left untouched; they refresh on the next layout patch.
func (r *PostgresEventRepository) UpdateTier(ctx context.Context, eventID string, tier domain.Tier) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for i := range event.Tiers {
			if event.Tiers[i].ID == tier.ID {
				event.Tiers[i] = tier
				return true
			}
		}
		return false
	})
}

// UpdateCategory rewrites the embedded category on every document
// referencing it, with a single targeted jsonb_set.
func (r *PostgresEventRepository) UpdateCategory(ctx context.Context, category domain.Category) error {
	patch, err := json.Marshal(category)
	if err != nil {
		return fmt.Errorf("failed to marshal category patch: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE event_documents
		SET doc = jsonb_set(doc, '{category}', $2::jsonb, true), updated_at = now()
		WHERE doc->'category'->>'id' = $1`,
		category.ID, patch,
	)
	if err != nil {
		return fmt.Errorf("failed to patch category %s: %w", category.ID, err)
	}
	return nil
}

// UpdateOrganization rewrites the embedded organization on every
// document referencing it.
func (r *PostgresEventRepository) UpdateOrganization(ctx context.Context, org domain.Organization) error {
	patch, err := json.Marshal(org)
	if err != nil {
		return fmt.Errorf("failed to marshal organization patch: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		UPDATE event_documents
		SET doc = jsonb_set(doc, '{organization}', $2::jsonb, true), updated_at = now()
		WHERE doc->'organization'->>'id' = $1`,
		org.ID, patch,
	)
	if err != nil {
		return fmt.Errorf("failed to patch organization %s: %w", org.ID, err)
	}
	return nil
}

// AddCoverPhoto appends a photo URL if not already present
func (r *PostgresEventRepository) AddCoverPhoto(ctx context.Context, eventID, url string) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for _, existing := range event.CoverPhotos {
			if existing == url {
				return false
			}
		}
		event.CoverPhotos = append(event.CoverPhotos, url)
		return true
	})
}

// RemoveCoverPhoto pulls a photo URL from the array; no-op if absent
func (r *PostgresEventRepository) RemoveCoverPhoto(ctx context.Context, eventID, url string) error {
	return r.mutateDoc(ctx, eventID, func(event *domain.Event) bool {
		for i, existing := range event.CoverPhotos {
			if existing == url {
				event.CoverPhotos = append(event.CoverPhotos[:i], event.CoverPhotos[i+1:]...)
				return true
			}
		}
		return false
	})
}

// ListIDs returns all event document IDs
func (r *PostgresEventRepository) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM event_documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list event ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetSummaries returns lightweight summaries for the given IDs,
// preserving input order
func (r *PostgresEventRepository) GetSummaries(ctx context.Context, ids []string) ([]*EventSummary, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id, doc FROM event_documents WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load event summaries: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]*EventSummary, len(ids))
	for rows.Next() {
		var id string
		var doc []byte
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		event := &domain.Event{}
		if err := json.Unmarshal(doc, event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event document %s: %w", id, err)
		}
		byID[id] = SummarizeEvent(event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	summaries := make([]*EventSummary, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			summaries = append(summaries, s)
		}
	}
	return summaries, nil
}

// SummarizeEvent builds the lightweight ranking view of a document,
// dropping sessions and their seating layouts.
func SummarizeEvent(event *domain.Event) *EventSummary {
	summary := &EventSummary{
		ID:           event.ID,
		Title:        event.Title,
		Description:  event.Description,
		CoverPhotos:  event.CoverPhotos,
		Organization: event.Organization,
		Category:     event.Category,
		Tiers:        event.Tiers,
		SessionCount: len(event.Sessions),
	}
	for i := range event.Sessions {
		start := event.Sessions[i].StartTime
		if summary.EarliestAt == nil || start.Before(*summary.EarliestAt) {
			t := start
			summary.EarliestAt = &t
		}
	}
	return summary
}

// mutateDoc loads a document under row lock, applies the mutation, and
// writes it back. A false return from mutate means nothing changed and
// the write is skipped. An absent document is a silent no-op.
func (r *PostgresEventRepository) mutateDoc(ctx context.Context, eventID string, mutate func(*domain.Event) bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var doc []byte
	err = tx.QueryRow(ctx,
		`SELECT doc FROM event_documents WHERE id = $1 FOR UPDATE`, eventID).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to lock event document %s: %w", eventID, err)
	}

	event := &domain.Event{}
	if err := json.Unmarshal(doc, event); err != nil {
		return fmt.Errorf("failed to unmarshal event document %s: %w", eventID, err)
	}

	if !mutate(event) {
		return nil
	}
	event.ProjectedAt = time.Now()

	updated, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event document %s: %w", eventID, err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE event_documents SET doc = $2, updated_at = now() WHERE id = $1`,
		eventID, updated); err != nil {
		return fmt.Errorf("failed to update event document %s: %w", eventID, err)
	}

	return tx.Commit(ctx)
}
