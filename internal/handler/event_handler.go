package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/trending"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/response"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/telemetry"
)

// EventHandler serves event documents from the read model
type EventHandler struct {
	events   repository.EventRepository
	trending *trending.Service
}

// NewEventHandler creates a new event handler
func NewEventHandler(events repository.EventRepository, trendingService *trending.Service) *EventHandler {
	return &EventHandler{
		events:   events,
		trending: trendingService,
	}
}

// GetEvent handles GET /api/v1/events/:eventId
func (h *EventHandler) GetEvent(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
	defer span.End()

	eventID := c.Param("eventId")
	span.SetAttributes(attribute.String("event_id", eventID))

	event, err := h.events.GetByID(ctx, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		response.NotFound(c, "event not found")
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load event")
		response.InternalError(c, err)
		return
	}

	response.Success(c, event)
}

// RecordView handles POST /api/v1/events/:eventId/views. The counter
// feeds the trending score; the event must exist in the read model.
func (h *EventHandler) RecordView(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.record_view")
	defer span.End()

	eventID := c.Param("eventId")

	exists, err := h.events.Exists(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		response.InternalError(c, err)
		return
	}
	if !exists {
		response.NotFound(c, "event not found")
		return
	}

	if err := h.trending.RecordView(ctx, eventID); err != nil {
		span.RecordError(err)
		response.InternalError(c, err)
		return
	}
	metrics.RecordEventView(ctx, eventID)

	c.Status(http.StatusAccepted)
}
