package seating

import (
	"context"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
)

// Flatten walks a layout and returns its seats as one flat slice.
// Block shape is decided per block: a seated block contributes its
// rows' seats, a standing block contributes its direct seats. Blocks
// of an unknown type contribute nothing.
func Flatten(layout *domain.SeatingLayout) []domain.Seat {
	if layout == nil {
		return nil
	}

	var seats []domain.Seat
	for i := range layout.Blocks {
		block := &layout.Blocks[i]
		switch block.Type {
		case domain.BlockTypeRows:
			for j := range block.Rows {
				seats = append(seats, block.Rows[j].Seats...)
			}
		case domain.BlockTypeStanding:
			seats = append(seats, block.Seats...)
		}
	}
	return seats
}

// IndexByID builds a seat lookup from a flattened layout. Later
// occurrences of a duplicated ID win, matching document order.
func IndexByID(seats []domain.Seat) map[string]domain.Seat {
	index := make(map[string]domain.Seat, len(seats))
	for _, seat := range seats {
		index[seat.ID] = seat
	}
	return index
}

// ValidationResult reports the outcome of an availability check
type ValidationResult struct {
	Valid            bool     `json:"valid"`
	UnavailableSeats []string `json:"unavailableSeats"`
}

// Service answers seat-level queries by flattening the stored session
// layout on demand.
type Service struct {
	events repository.EventRepository
}

// NewService creates a new seating Service
func NewService(events repository.EventRepository) *Service {
	return &Service{events: events}
}

// ValidateAvailability reports which of the requested seats are not
// currently AVAILABLE. An unknown session, a session without a layout,
// or a requested seat missing from the layout all count as unavailable:
// the check fails closed.
func (s *Service) ValidateAvailability(ctx context.Context, sessionID string, seatIDs []string) (*ValidationResult, error) {
	session, _, err := s.events.FindSession(ctx, sessionID)
	if err == domain.ErrSessionNotFound {
		return &ValidationResult{Valid: false, UnavailableSeats: seatIDs}, nil
	}
	if err != nil {
		return nil, err
	}
	if session.Layout == nil {
		return &ValidationResult{Valid: false, UnavailableSeats: seatIDs}, nil
	}

	index := IndexByID(Flatten(session.Layout))

	var unavailable []string
	for _, id := range seatIDs {
		seat, found := index[id]
		if !found || seat.Status != domain.SeatStatusAvailable {
			unavailable = append(unavailable, id)
		}
	}

	return &ValidationResult{
		Valid:            len(unavailable) == 0,
		UnavailableSeats: unavailable,
	}, nil
}

// FetchSeatDetails returns the full seat+tier snapshot for every
// requested ID present in the session's layout. IDs not found are
// omitted without error; callers reconcile counts themselves.
func (s *Service) FetchSeatDetails(ctx context.Context, sessionID string, seatIDs []string) ([]domain.Seat, error) {
	session, _, err := s.events.FindSession(ctx, sessionID)
	if err == domain.ErrSessionNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if session.Layout == nil {
		return nil, nil
	}

	index := IndexByID(Flatten(session.Layout))

	seats := make([]domain.Seat, 0, len(seatIDs))
	for _, id := range seatIDs {
		if seat, found := index[id]; found {
			seats = append(seats, seat)
		}
	}
	return seats, nil
}

// SeatCounts aggregates seat statuses across one or more layouts
type SeatCounts struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Reserved  int `json:"reserved"`
	Booked    int `json:"booked"`
	Locked    int `json:"locked"`
}

// Sold counts seats no longer purchasable
func (c SeatCounts) Sold() int {
	return c.Booked
}

// SellOutPercentage is the share of seats booked, 0-100. Zero-capacity
// layouts report 0, not a division error.
func (c SeatCounts) SellOutPercentage() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Booked) / float64(c.Total) * 100
}

// Aggregate tallies seat statuses across every session of an event
func Aggregate(event *domain.Event) SeatCounts {
	var counts SeatCounts
	for i := range event.Sessions {
		for _, seat := range Flatten(event.Sessions[i].Layout) {
			counts.Total++
			switch seat.Status {
			case domain.SeatStatusAvailable:
				counts.Available++
			case domain.SeatStatusReserved:
				counts.Reserved++
			case domain.SeatStatusBooked:
				counts.Booked++
			case domain.SeatStatusLocked:
				counts.Locked++
			}
		}
	}
	return counts
}
