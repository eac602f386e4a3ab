package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/seating"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/response"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/telemetry"
)

// SeatHandler answers seat availability and detail queries
type SeatHandler struct {
	seats *seating.Service
}

// NewSeatHandler creates a new seat handler
func NewSeatHandler(seats *seating.Service) *SeatHandler {
	return &SeatHandler{seats: seats}
}

type seatIDsRequest struct {
	SeatIDs []string `json:"seatIds" binding:"required,min=1"`
}

// ValidateSeats handles POST /api/v1/sessions/:sessionId/seats/validate
func (h *SeatHandler) ValidateSeats(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seats.validate")
	defer span.End()

	sessionID := c.Param("sessionId")

	var req seatIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "seatIds is required")
		return
	}

	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.Int("seat_count", len(req.SeatIDs)),
	)

	result, err := h.seats.ValidateAvailability(ctx, sessionID, req.SeatIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seat validation failed")
		response.InternalError(c, err)
		return
	}

	response.Success(c, result)
}

// GetSeatDetails handles POST /api/v1/sessions/:sessionId/seats/details.
// Requested IDs missing from the layout are omitted from the response;
// the caller reconciles counts.
func (h *SeatHandler) GetSeatDetails(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.seats.details")
	defer span.End()

	sessionID := c.Param("sessionId")

	var req seatIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "seatIds is required")
		return
	}

	span.SetAttributes(attribute.String("session_id", sessionID))

	seats, err := h.seats.FetchSeatDetails(ctx, sessionID, req.SeatIDs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "seat details lookup failed")
		response.InternalError(c, err)
		return
	}

	response.Success(c, gin.H{
		"sessionId": sessionID,
		"seats":     seats,
	})
}
