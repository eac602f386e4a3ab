package trending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/seating"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"go.uber.org/zap"
)

// ViewProvider supplies external page view totals. The trending engine
// treats this provider as unreliable: a failure counts as zero views,
// never as a recompute failure.
type ViewProvider interface {
	TotalViews(ctx context.Context, eventID string) (int64, error)
}

// Service computes and serves trending scores. Records move from
// uncomputed to computed lazily on first request, go stale between
// scheduled batch runs, and are refreshed by RecomputeAll.
type Service struct {
	events   repository.EventRepository
	trending repository.TrendingRepository
	views    ViewProvider
	pageView repository.PageViewRepository
	cache    repository.RankingCache
	log      *logger.Logger
}

// NewService creates a new trending Service
func NewService(
	events repository.EventRepository,
	trendingRepo repository.TrendingRepository,
	views ViewProvider,
	pageView repository.PageViewRepository,
	cache repository.RankingCache,
	log *logger.Logger,
) *Service {
	return &Service{
		events:   events,
		trending: trendingRepo,
		views:    views,
		pageView: pageView,
		cache:    cache,
		log:      log,
	}
}

// RecordView counts one page view for the event
func (s *Service) RecordView(ctx context.Context, eventID string) error {
	return s.pageView.IncrementView(ctx, eventID)
}

// GetScore returns the stored trending record, computing it on demand
// the first time an event is asked about.
func (s *Service) GetScore(ctx context.Context, eventID string) (*domain.TrendingRecord, error) {
	record, err := s.trending.Get(ctx, eventID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, domain.ErrTrendingNotFound) {
		return nil, err
	}

	exists, err := s.events.Exists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrEventNotFound
	}
	return s.RecomputeScore(ctx, eventID)
}

// RecomputeScore gathers engagement signals and persists a fresh
// record. The external view provider failing defaults views to 0; the
// analytics terms are skipped if the document cannot be loaded, so a
// recompute degrades rather than fails.
func (s *Service) RecomputeScore(ctx context.Context, eventID string) (*domain.TrendingRecord, error) {
	var views int64
	if v, err := s.views.TotalViews(ctx, eventID); err != nil {
		s.log.Warn("View provider failed, defaulting to 0",
			zap.String("event_id", eventID), zap.Error(err))
	} else {
		views = v
	}

	var purchases, reservations int64
	var sellOut float64
	event, err := s.events.GetByID(ctx, eventID)
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		return nil, domain.ErrEventNotFound
	case err != nil:
		s.log.Warn("Analytics aggregation failed, skipping purchase terms",
			zap.String("event_id", eventID), zap.Error(err))
	default:
		counts := seating.Aggregate(event)
		purchases = int64(counts.Sold())
		reservations = int64(counts.Reserved + counts.Locked)
		sellOut = counts.SellOutPercentage()
	}

	now := time.Now()
	record := &domain.TrendingRecord{
		EventID:          eventID,
		ViewCount:        views,
		PurchaseCount:    purchases,
		ReservationCount: reservations,
		Score:            domain.ComputeTrendingScore(views, purchases, sellOut),
		LastCalculatedAt: now,
		LastUpdatedAt:    now,
	}

	if err := s.trending.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist trending record %s: %w", eventID, err)
	}
	return record, nil
}

// RecomputeAll refreshes every event's score independently. A single
// event failing is logged and skipped; the batch always runs to
// completion.
func (s *Service) RecomputeAll(ctx context.Context) error {
	ids, err := s.events.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list events for recompute: %w", err)
	}

	var failed int
	for _, id := range ids {
		if _, err := s.RecomputeScore(ctx, id); err != nil {
			failed++
			s.log.Warn("Trending recompute failed for event",
				zap.String("event_id", id), zap.Error(err))
		}
	}

	s.log.Info("Trending recompute batch finished",
		zap.Int("events", len(ids)),
		zap.Int("failed", failed),
	)
	return nil
}

// TopN returns the highest-scored events as summaries, without seating
// layouts. Results are served from the ranking cache when warm.
func (s *Service) TopN(ctx context.Context, limit int) ([]*repository.RankedEvent, error) {
	if ranking, ok := s.cache.Get(ctx, limit); ok {
		return ranking, nil
	}

	records, err := s.trending.ListTop(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to rank events: %w", err)
	}

	ids := make([]string, 0, len(records))
	scores := make(map[string]float64, len(records))
	for _, r := range records {
		ids = append(ids, r.EventID)
		scores[r.EventID] = r.Score
	}

	summaries, err := s.events.GetSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranked summaries: %w", err)
	}

	ranking := make([]*repository.RankedEvent, 0, len(summaries))
	for _, summary := range summaries {
		ranking = append(ranking, &repository.RankedEvent{
			Event: summary,
			Score: scores[summary.ID],
		})
	}

	if err := s.cache.Set(ctx, limit, ranking); err != nil {
		s.log.Warn("Failed to cache ranking", zap.Error(err))
	}
	return ranking, nil
}

// InvalidateRanking evicts every cached ranking
func (s *Service) InvalidateRanking(ctx context.Context) error {
	return s.cache.Invalidate(ctx)
}
