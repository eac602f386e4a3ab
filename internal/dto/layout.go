package dto

import (
	"encoding/json"
	"fmt"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// RawLayoutDTO is the seating layout as it appears on the wire. Seats
// carry only a tier identifier; the read model stores a full tier
// snapshot per seat, so every layout must be enriched against the
// event's current tier list before it is persisted.
type RawLayoutDTO struct {
	Name   string        `json:"name"`
	Blocks []RawBlockDTO `json:"blocks"`
}

// RawBlockDTO is one layout block on the wire, discriminated by type
type RawBlockDTO struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Type  string       `json:"type"`
	Rows  []RawRowDTO  `json:"rows,omitempty"`
	Seats []RawSeatDTO `json:"seats,omitempty"`
}

// RawRowDTO is a row of seats on the wire
type RawRowDTO struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Seats []RawSeatDTO `json:"seats"`
}

// RawSeatDTO references its tier by ID only
type RawSeatDTO struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
	TierID string `json:"tierId"`
}

// ParseRawLayout parses a raw layout payload from a CDC column or
// projection response
func ParseRawLayout(data []byte) (*RawLayoutDTO, error) {
	var layout RawLayoutDTO
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("malformed layout payload: %w", err)
	}
	return &layout, nil
}

// ToDomain converts the wire layout into the read-model layout,
// embedding a tier snapshot into every seat. Seats whose tier ID is
// absent from the index keep a nil snapshot rather than failing the
// whole conversion.
func (l *RawLayoutDTO) ToDomain(tierIndex map[string]domain.Tier) *domain.SeatingLayout {
	layout := &domain.SeatingLayout{
		Name:   l.Name,
		Blocks: make([]domain.Block, 0, len(l.Blocks)),
	}

	for _, b := range l.Blocks {
		block := domain.Block{
			ID:   b.ID,
			Name: b.Name,
			Type: domain.BlockType(b.Type),
		}

		switch block.Type {
		case domain.BlockTypeRows:
			block.Rows = make([]domain.Row, 0, len(b.Rows))
			for _, r := range b.Rows {
				row := domain.Row{
					ID:    r.ID,
					Label: r.Label,
					Seats: enrichSeats(r.Seats, tierIndex),
				}
				block.Rows = append(block.Rows, row)
			}
		case domain.BlockTypeStanding:
			block.Seats = enrichSeats(b.Seats, tierIndex)
		default:
			// Unknown block shape: keep the block identity but drop its
			// contents, the next full projection will reconcile it
			block.Type = domain.BlockType(b.Type)
		}

		layout.Blocks = append(layout.Blocks, block)
	}

	return layout
}

func enrichSeats(seats []RawSeatDTO, tierIndex map[string]domain.Tier) []domain.Seat {
	out := make([]domain.Seat, 0, len(seats))
	for _, s := range seats {
		seat := domain.Seat{
			ID:     s.ID,
			Label:  s.Label,
			Status: domain.SeatStatus(s.Status),
		}
		if tier, ok := tierIndex[s.TierID]; ok {
			snapshot := tier
			seat.Tier = &snapshot
		}
		out = append(out, seat)
	}
	return out
}
