package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// MemoryEventRepository implements EventRepository using in-memory storage
// This is useful for testing and development
type MemoryEventRepository struct {
	events map[string]*domain.Event
	mu     sync.RWMutex
}

// NewMemoryEventRepository creates a new in-memory event repository
func NewMemoryEventRepository() *MemoryEventRepository {
	return &MemoryEventRepository{
		events: make(map[string]*domain.Event),
	}
}

// cloneEvent deep-copies a document through a JSON round trip so
// callers can never mutate stored state through aliased slices
func cloneEvent(event *domain.Event) *domain.Event {
	raw, err := json.Marshal(event)
	if err != nil {
		c := *event
		return &c
	}
	clone := &domain.Event{}
	if err := json.Unmarshal(raw, clone); err != nil {
		c := *event
		return &c
	}
	return clone
}

// Upsert replaces the whole document by ID
func (r *MemoryEventRepository) Upsert(ctx context.Context, event *domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[event.ID] = cloneEvent(event)
	return nil
}

// Delete removes the document; no error if already absent
func (r *MemoryEventRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.events, id)
	return nil
}

// GetByID retrieves a document by its ID
func (r *MemoryEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	event, exists := r.events[id]
	if !exists {
		return nil, domain.ErrEventNotFound
	}
	return cloneEvent(event), nil
}

// Exists reports whether the document is present
func (r *MemoryEventRepository) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.events[id]
	return exists, nil
}

// FindSession locates a session by ID across all documents
func (r *MemoryEventRepository) FindSession(ctx context.Context, sessionID string) (*domain.Session, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for eventID, event := range r.events {
		for i := range event.Sessions {
			if event.Sessions[i].ID == sessionID {
				clone := cloneEvent(event)
				for j := range clone.Sessions {
					if clone.Sessions[j].ID == sessionID {
						return &clone.Sessions[j], eventID, nil
					}
				}
			}
		}
	}
	return nil, "", domain.ErrSessionNotFound
}

// ReplaceSession replaces the matching session array element by ID
func (r *MemoryEventRepository) ReplaceSession(ctx context.Context, eventID string, session *domain.Session) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
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
func (r *MemoryEventRepository) ReplaceSessionLayout(ctx context.Context, eventID, sessionID string, layout *domain.SeatingLayout) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
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
func (r *MemoryEventRepository) UpsertDiscount(ctx context.Context, eventID string, discount domain.Discount) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
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
func (r *MemoryEventRepository) RemoveDiscount(ctx context.Context, eventID, discountID string) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
		for i := range event.Discounts {
			if event.Discounts[i].ID == discountID {
				event.Discounts = append(event.Discounts[:i], event.Discounts[i+1:]...)
				return true
			}
		}
		return false
	})
}

// UpdateTier replaces the matching tier list entry in place
func (r *MemoryEventRepository) UpdateTier(ctx context.Context, eventID string, tier domain.Tier) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
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
// referencing it
func (r *MemoryEventRepository) UpdateCategory(ctx context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		if event.Category.ID == category.ID {
			event.Category = category
			event.ProjectedAt = time.Now()
		}
	}
	return nil
}

// UpdateOrganization rewrites the embedded organization on every
// document referencing it
func (r *MemoryEventRepository) UpdateOrganization(ctx context.Context, org domain.Organization) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, event := range r.events {
		if event.Organization.ID == org.ID {
			event.Organization = org
			event.ProjectedAt = time.Now()
		}
	}
	return nil
}

// AddCoverPhoto appends a photo URL if not already present
func (r *MemoryEventRepository) AddCoverPhoto(ctx context.Context, eventID, url string) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
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
func (r *MemoryEventRepository) RemoveCoverPhoto(ctx context.Context, eventID, url string) error {
	return r.mutate(eventID, func(event *domain.Event) bool {
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
func (r *MemoryEventRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.events))
	for id := range r.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// GetSummaries returns lightweight summaries for the given IDs,
// preserving input order
func (r *MemoryEventRepository) GetSummaries(ctx context.Context, ids []string) ([]*EventSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]*EventSummary, 0, len(ids))
	for _, id := range ids {
		if event, exists := r.events[id]; exists {
			summaries = append(summaries, SummarizeEvent(cloneEvent(event)))
		}
	}
	return summaries, nil
}

func (r *MemoryEventRepository) mutate(eventID string, fn func(*domain.Event) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	event, exists := r.events[eventID]
	if !exists {
		return nil
	}
	if fn(event) {
		event.ProjectedAt = time.Now()
	}
	return nil
}
