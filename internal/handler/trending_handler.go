package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/trending"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/response"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/telemetry"
)

const maxTrendingLimit = 100

// TrendingHandler serves trending scores and rankings
type TrendingHandler struct {
	service      *trending.Service
	defaultLimit int
}

// NewTrendingHandler creates a new trending handler
func NewTrendingHandler(service *trending.Service, defaultLimit int) *TrendingHandler {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &TrendingHandler{service: service, defaultLimit: defaultLimit}
}

// GetTrending handles GET /api/v1/trending?limit=N. Responses exclude
// seating layouts.
func (h *TrendingHandler) GetTrending(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.trending.top")
	defer span.End()

	limit := h.defaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}
	span.SetAttributes(attribute.Int("limit", limit))

	ranking, err := h.service.TopN(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ranking failed")
		response.InternalError(c, err)
		return
	}

	response.Success(c, ranking)
}

// GetEventScore handles GET /api/v1/events/:eventId/trending
func (h *TrendingHandler) GetEventScore(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.trending.score")
	defer span.End()

	eventID := c.Param("eventId")
	span.SetAttributes(attribute.String("event_id", eventID))

	record, err := h.service.GetScore(ctx, eventID)
	if errors.Is(err, domain.ErrEventNotFound) {
		response.NotFound(c, "event not found")
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "score lookup failed")
		response.InternalError(c, err)
		return
	}

	response.Success(c, record)
}
