package projector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/client"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/dto"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"go.uber.org/zap"
)

// Projector owns all mutations of the event read-model documents. It
// picks between three strategies: full fetch-and-replace, targeted
// session patch, and the enrichment-join seating-map patch.
type Projector struct {
	fetcher  client.ProjectionFetcher
	events   repository.EventRepository
	trending repository.TrendingRepository
	views    repository.PageViewRepository
	resolve  dto.AssetResolver
	log      *logger.Logger
}

// New creates a new Projector
func New(
	fetcher client.ProjectionFetcher,
	events repository.EventRepository,
	trending repository.TrendingRepository,
	views repository.PageViewRepository,
	resolve dto.AssetResolver,
	log *logger.Logger,
) *Projector {
	return &Projector{
		fetcher:  fetcher,
		events:   events,
		trending: trending,
		views:    views,
		resolve:  resolve,
		log:      log,
	}
}

// ProjectFullEvent fetches the authoritative event payload and replaces
// the whole document. An event that is no longer approved, or that the
// source no longer knows, is removed instead: the read model only ever
// holds approved events.
func (p *Projector) ProjectFullEvent(ctx context.Context, eventID string) error {
	payload, err := p.fetcher.FetchEvent(ctx, eventID)
	if errors.Is(err, client.ErrSourceNotFound) {
		p.log.Info("event gone from source, removing document", zap.String("event_id", eventID))
		return p.DeleteEvent(ctx, eventID)
	}
	if err != nil {
		return fmt.Errorf("full projection of event %s failed: %w", eventID, err)
	}

	if domain.EventStatus(payload.Status) != domain.EventStatusApproved {
		p.log.Info("event not approved, removing document",
			zap.String("event_id", eventID),
			zap.String("status", payload.Status),
		)
		return p.DeleteEvent(ctx, eventID)
	}

	event := payload.ToDomain(p.resolve, time.Now())
	if err := p.events.Upsert(ctx, event); err != nil {
		return fmt.Errorf("failed to store event %s: %w", eventID, err)
	}

	p.log.Info("projected full event",
		zap.String("event_id", eventID),
		zap.Int("sessions", len(event.Sessions)),
	)
	return nil
}

// DeleteEvent removes the document and everything hanging off it:
// trending record and view counters. Idempotent.
func (p *Projector) DeleteEvent(ctx context.Context, eventID string) error {
	if err := p.events.Delete(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event %s: %w", eventID, err)
	}
	if err := p.trending.Delete(ctx, eventID); err != nil {
		p.log.Warn("failed to delete trending record",
			zap.String("event_id", eventID), zap.Error(err))
	}
	if err := p.views.DeleteViews(ctx, eventID); err != nil {
		p.log.Warn("failed to delete view counters",
			zap.String("event_id", eventID), zap.Error(err))
	}
	return nil
}

// ProjectSessionUpdate fetches the authoritative single-session payload
// and replaces the matching session in place. A parent or session that
// no longer matches makes this a silent no-op.
func (p *Projector) ProjectSessionUpdate(ctx context.Context, eventID, sessionID string) error {
	payload, err := p.fetcher.FetchSession(ctx, sessionID)
	if errors.Is(err, client.ErrSourceNotFound) {
		p.log.Info("session gone from source, skipping patch",
			zap.String("session_id", sessionID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("session projection %s failed: %w", sessionID, err)
	}

	event, err := p.events.GetByID(ctx, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	session := payload.ToDomain(dto.BuildTierIndex(event.Tiers))
	if err := p.events.ReplaceSession(ctx, eventID, session); err != nil {
		return fmt.Errorf("failed to patch session %s: %w", sessionID, err)
	}

	p.log.Info("patched session",
		zap.String("event_id", eventID),
		zap.String("session_id", sessionID),
	)
	return nil
}

// ProjectSeatingMapPatch applies the enrichment-join strategy: parse
// the raw layout, resolve each seat's tier ID against the event's
// stored tier list, and replace only the session's layout. This is the
// high-frequency path and never calls out to the source service.
func (p *Projector) ProjectSeatingMapPatch(ctx context.Context, eventID, sessionID string, rawLayout []byte) error {
	layout, err := dto.ParseRawLayout(rawLayout)
	if err != nil {
		return fmt.Errorf("failed to parse layout payload: %w", err)
	}

	event, err := p.events.GetByID(ctx, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load event %s: %w", eventID, err)
	}

	enriched := layout.ToDomain(dto.BuildTierIndex(event.Tiers))
	if err := p.events.ReplaceSessionLayout(ctx, eventID, sessionID, enriched); err != nil {
		return fmt.Errorf("failed to patch layout for session %s: %w", sessionID, err)
	}

	p.log.Debug("patched seating map",
		zap.String("event_id", eventID),
		zap.String("session_id", sessionID),
	)
	return nil
}
