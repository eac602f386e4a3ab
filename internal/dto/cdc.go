package dto

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// CDC operation tags as emitted by the upstream connector
const (
	OpCreate = "c"
	OpUpdate = "u"
	OpDelete = "d"
)

// ChangeEnvelope is the raw CDC envelope carried on every change topic.
// Field names are snake_case on the wire.
type ChangeEnvelope struct {
	Op     string          `json:"op"`
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// ParseChangeEnvelope parses and validates a raw CDC message
func ParseChangeEnvelope(data []byte) (*ChangeEnvelope, error) {
	var env ChangeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed change envelope: %w", err)
	}

	switch env.Op {
	case OpCreate, OpUpdate:
		if len(env.After) == 0 {
			return nil, fmt.Errorf("change envelope op=%s missing after image", env.Op)
		}
	case OpDelete:
		if len(env.Before) == 0 {
			return nil, fmt.Errorf("change envelope op=d missing before image")
		}
	default:
		return nil, fmt.Errorf("unknown change envelope op %q", env.Op)
	}

	return &env, nil
}

// Image returns the row image relevant to the operation: after for
// create/update, before for delete.
func (e *ChangeEnvelope) Image() json.RawMessage {
	if e.Op == OpDelete {
		return e.Before
	}
	return e.After
}

// EventRow is the CDC row image of the events table
type EventRow struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// SessionRow is the CDC row image of the event_sessions table
type SessionRow struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Status  string `json:"status"`
}

// SeatingMapRow is the CDC row image of the session_seating_maps table.
// LayoutData is the raw layout JSON column.
type SeatingMapRow struct {
	ID         string          `json:"id"`
	SessionID  string          `json:"session_id"`
	LayoutData json.RawMessage `json:"layout_data"`
}

// DiscountRow is the CDC row image of the discounts table
type DiscountRow struct {
	ID         string          `json:"id"`
	EventID    string          `json:"event_id"`
	Code       string          `json:"code"`
	Parameters json.RawMessage `json:"parameters"`
	Active     bool            `json:"active"`
	Public     bool            `json:"public"`
	ActiveFrom *string         `json:"active_from"`
	ExpiresAt  *string         `json:"expires_at"`
	MaxUsage   *int            `json:"max_usage"`
	UsedCount  int             `json:"current_usage"`
	TierIDs    []string        `json:"applicable_tier_ids"`
	SessionIDs []string        `json:"applicable_session_ids"`
}

// TierRow is the CDC row image of the tiers table
type TierRow struct {
	ID      string  `json:"id"`
	EventID string  `json:"event_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Color   string  `json:"color"`
}

// CategoryRow is the CDC row image of the categories table
type CategoryRow struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ParentName *string `json:"parent_name"`
}

// OrganizationRow is the CDC row image of the organizations table
type OrganizationRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

// CoverPhotoRow is the CDC row image of the event_cover_photos table.
// PhotoKey is the storage key, not a public URL.
type CoverPhotoRow struct {
	ID       string `json:"id"`
	EventID  string `json:"event_id"`
	PhotoKey string `json:"photo_key"`
}

// ToDomain converts the row image into the embedded discount shape
func (r *DiscountRow) ToDomain() (domain.Discount, error) {
	discount := domain.Discount{
		ID:         r.ID,
		Code:       r.Code,
		Active:     r.Active,
		Public:     r.Public,
		MaxUsage:   r.MaxUsage,
		UsedCount:  r.UsedCount,
		TierIDs:    r.TierIDs,
		SessionIDs: r.SessionIDs,
	}

	if len(r.Parameters) > 0 {
		if err := json.Unmarshal(r.Parameters, &discount.Params); err != nil {
			return domain.Discount{}, fmt.Errorf("invalid discount parameters: %w", err)
		}
	}

	var err error
	if discount.ActiveFrom, err = parseRowTime(r.ActiveFrom); err != nil {
		return domain.Discount{}, fmt.Errorf("invalid active_from: %w", err)
	}
	if discount.ExpiresAt, err = parseRowTime(r.ExpiresAt); err != nil {
		return domain.Discount{}, fmt.Errorf("invalid expires_at: %w", err)
	}
	return discount, nil
}

func parseRowTime(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
