package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// MemoryTrendingRepository implements TrendingRepository using
// in-memory storage. Useful for testing and development.
type MemoryTrendingRepository struct {
	records map[string]*domain.TrendingRecord
	mu      sync.RWMutex
}

// NewMemoryTrendingRepository creates a new in-memory trending repository
func NewMemoryTrendingRepository() *MemoryTrendingRepository {
	return &MemoryTrendingRepository{
		records: make(map[string]*domain.TrendingRecord),
	}
}

// Get returns the record or domain.ErrTrendingNotFound
func (r *MemoryTrendingRepository) Get(ctx context.Context, eventID string) (*domain.TrendingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[eventID]
	if !exists {
		return nil, domain.ErrTrendingNotFound
	}
	c := *record
	return &c, nil
}

// Upsert creates or replaces the record
func (r *MemoryTrendingRepository) Upsert(ctx context.Context, record *domain.TrendingRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *record
	r.records[record.EventID] = &c
	return nil
}

// Delete removes the record; no error if already absent
func (r *MemoryTrendingRepository) Delete(ctx context.Context, eventID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.records, eventID)
	return nil
}

// ListTop returns records ordered by score descending
func (r *MemoryTrendingRepository) ListTop(ctx context.Context, limit int) ([]*domain.TrendingRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]*domain.TrendingRecord, 0, len(r.records))
	for _, record := range r.records {
		c := *record
		records = append(records, &c)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		return records[i].EventID < records[j].EventID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
