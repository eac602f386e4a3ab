package repository

import (
	"context"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// EventSummary is a lightweight view of an event document used by
// ranking responses; it deliberately carries no seating layouts.
type EventSummary struct {
	ID           string              `json:"id"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	CoverPhotos  []string            `json:"coverPhotos"`
	Organization domain.Organization `json:"organization"`
	Category     domain.Category     `json:"category"`
	Tiers        []domain.Tier       `json:"tiers"`
	SessionCount int                 `json:"sessionCount"`
	EarliestAt   *time.Time          `json:"earliestSessionAt,omitempty"`
}

// EventRepository owns the denormalized event documents. Only the
// projector and the CDC handlers mutate through it.
type EventRepository interface {
	// Upsert replaces the whole document by ID
	Upsert(ctx context.Context, event *domain.Event) error
	// Delete removes the document; no error if already absent
	Delete(ctx context.Context, id string) error
	// GetByID returns the document or domain.ErrEventNotFound
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	// Exists reports whether the document is present
	Exists(ctx context.Context, id string) (bool, error)

	// FindSession locates a session by its ID across all documents,
	// returning the session and its parent event ID, or
	// domain.ErrSessionNotFound
	FindSession(ctx context.Context, sessionID string) (*domain.Session, string, error)
	// ReplaceSession replaces the matching session array element by ID.
	// Silent no-op when the parent event or the session is absent.
	ReplaceSession(ctx context.Context, eventID string, session *domain.Session) error
	// ReplaceSessionLayout replaces only the layout of the matching
	// session. Silent no-op when parent or session is absent.
	ReplaceSessionLayout(ctx context.Context, eventID, sessionID string, layout *domain.SeatingLayout) error

	// UpsertDiscount adds or replaces a discount array element by ID
	UpsertDiscount(ctx context.Context, eventID string, discount domain.Discount) error
	// RemoveDiscount pulls a discount from the array; no-op if absent
	RemoveDiscount(ctx context.Context, eventID, discountID string) error

	// UpdateTier replaces the matching tier list entry in place
	UpdateTier(ctx context.Context, eventID string, tier domain.Tier) error
	// UpdateCategory rewrites the embedded category on every document
	// referencing it
	UpdateCategory(ctx context.Context, category domain.Category) error
	// UpdateOrganization rewrites the embedded organization on every
	// document referencing it
	UpdateOrganization(ctx context.Context, org domain.Organization) error

	// AddCoverPhoto appends a photo URL if not already present
	AddCoverPhoto(ctx context.Context, eventID, url string) error
	// RemoveCoverPhoto pulls a photo URL from the array; no-op if absent
	RemoveCoverPhoto(ctx context.Context, eventID, url string) error

	// ListIDs returns all event document IDs
	ListIDs(ctx context.Context) ([]string, error)
	// GetSummaries returns lightweight summaries for the given IDs,
	// preserving input order; unknown IDs are skipped
	GetSummaries(ctx context.Context, ids []string) ([]*EventSummary, error)
}

// TrendingRepository owns per-event trending records
type TrendingRepository interface {
	// Get returns the record or domain.ErrTrendingNotFound
	Get(ctx context.Context, eventID string) (*domain.TrendingRecord, error)
	// Upsert creates or replaces the record
	Upsert(ctx context.Context, record *domain.TrendingRecord) error
	// Delete removes the record; no error if already absent
	Delete(ctx context.Context, eventID string) error
	// ListTop returns records ordered by score descending
	ListTop(ctx context.Context, limit int) ([]*domain.TrendingRecord, error)
}

// PageViewRepository owns date-bucketed page view counters per event
type PageViewRepository interface {
	// IncrementView adds one view to today's bucket
	IncrementView(ctx context.Context, eventID string) error
	// TotalViews sums the retained buckets for the event
	TotalViews(ctx context.Context, eventID string) (int64, error)
	// DeleteViews drops all buckets for the event
	DeleteViews(ctx context.Context, eventID string) error
}

// RankingCache caches the computed top-N ranking between recomputes
type RankingCache interface {
	// Get returns the cached ranking, or ok=false on miss
	Get(ctx context.Context, limit int) ([]*RankedEvent, bool)
	// Set stores the ranking
	Set(ctx context.Context, limit int, ranking []*RankedEvent) error
	// Invalidate drops all cached rankings
	Invalidate(ctx context.Context) error
}

// RankedEvent pairs an event summary with its trending score
type RankedEvent struct {
	Event *EventSummary `json:"event"`
	Score float64       `json:"score"`
}
