package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/broadcast"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/response"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/telemetry"
)

// StreamHandler serves the live seat status stream over SSE. The
// stream carries only deltas from the moment of connection; clients
// fetch current state from the query API first and on every reconnect.
type StreamHandler struct {
	registry *broadcast.Registry
	events   repository.EventRepository
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(registry *broadcast.Registry, events repository.EventRepository) *StreamHandler {
	return &StreamHandler{registry: registry, events: events}
}

// StreamSeatStatus handles GET /api/v1/sessions/:sessionId/seat-status/stream
func (h *StreamHandler) StreamSeatStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seats.stream")
	defer span.End()

	sessionID := c.Param("sessionId")
	span.SetAttributes(attribute.String("session_id", sessionID))

	if _, _, err := h.events.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		span.RecordError(err)
		response.InternalError(c, err)
		return
	}

	sub := h.registry.Register(sessionID)
	defer sub.Close()

	metrics.RecordSubscribe(ctx)
	defer metrics.RecordUnsubscribe(ctx)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-sub.Updates():
			if !ok {
				return false
			}
			c.SSEvent("seat-status", update)
			return true
		case <-clientGone:
			return false
		}
	})
}
