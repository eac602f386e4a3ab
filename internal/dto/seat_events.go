package dto

import (
	"encoding/json"
	"fmt"
)

// SeatStatusEvent is the domain-event payload carried on the
// seats-locked / seats-released / seats-booked topics.
type SeatStatusEvent struct {
	SessionID string   `json:"sessionId"`
	SeatIDs   []string `json:"seatIds"`
}

// ParseSeatStatusEvent parses and validates a seat status message
func ParseSeatStatusEvent(data []byte) (*SeatStatusEvent, error) {
	var event SeatStatusEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("malformed seat status event: %w", err)
	}
	if event.SessionID == "" {
		return nil, fmt.Errorf("seat status event missing sessionId")
	}
	if len(event.SeatIDs) == 0 {
		return nil, fmt.Errorf("seat status event has no seatIds")
	}
	return &event, nil
}
