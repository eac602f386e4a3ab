package domain

import "time"

// EventStatus is the moderation status of an event in the source system
type EventStatus string

const (
	EventStatusApproved EventStatus = "APPROVED"
	EventStatusPending  EventStatus = "PENDING"
	EventStatusRejected EventStatus = "REJECTED"
	EventStatusArchived EventStatus = "ARCHIVED"
)

// SessionStatus is the lifecycle status of a session
type SessionStatus string

const (
	SessionStatusScheduled SessionStatus = "SCHEDULED"
	SessionStatusOnSale    SessionStatus = "ON_SALE"
	SessionStatusSoldOut   SessionStatus = "SOLD_OUT"
	SessionStatusClosed    SessionStatus = "CLOSED"
	SessionStatusCancelled SessionStatus = "CANCELLED"
)

// SeatStatus is the availability status of a single seat
type SeatStatus string

const (
	SeatStatusAvailable SeatStatus = "AVAILABLE"
	SeatStatusReserved  SeatStatus = "RESERVED"
	SeatStatusBooked    SeatStatus = "BOOKED"
	SeatStatusLocked    SeatStatus = "LOCKED"
)

// Event is the root read-model document, one per approved event.
// Only events with status APPROVED exist in the store; everything else
// is removed, not flagged.
type Event struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Status       EventStatus  `json:"status"`
	Description  string       `json:"description"`
	Overview     string       `json:"overview"`
	CoverPhotos  []string     `json:"coverPhotos"`
	Organization Organization `json:"organization"`
	Category     Category     `json:"category"`
	Tiers        []Tier       `json:"tiers"`
	Sessions     []Session    `json:"sessions"`
	Discounts    []Discount   `json:"discounts"`
	ProjectedAt  time.Time    `json:"projectedAt"`
}

// Organization is the denormalized owning organization
type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

// Category is the denormalized event category
type Category struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ParentName string `json:"parentName,omitempty"`
}

// Tier is a pricing tier on the event
type Tier struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Color string  `json:"color"`
}

// Session is a performance occurrence embedded in an event
type Session struct {
	ID             string         `json:"id"`
	StartTime      time.Time      `json:"startTime"`
	EndTime        time.Time      `json:"endTime"`
	SalesStartTime time.Time      `json:"salesStartTime"`
	Status         SessionStatus  `json:"status"`
	SessionType    string         `json:"sessionType"`
	Venue          VenueDetails   `json:"venueDetails"`
	Layout         *SeatingLayout `json:"layoutData,omitempty"`
}

// VenueDetails holds physical or online venue information
type VenueDetails struct {
	Name       string    `json:"name"`
	Address    string    `json:"address,omitempty"`
	OnlineLink string    `json:"onlineLink,omitempty"`
	Location   *GeoPoint `json:"location,omitempty"`
}

// GeoPoint is a geographic coordinate pair
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SeatingLayout is a session's seating map
type SeatingLayout struct {
	Name   string  `json:"name"`
	Blocks []Block `json:"blocks"`
}

// BlockType discriminates the two block shapes
type BlockType string

const (
	// BlockTypeRows holds rows of seats
	BlockTypeRows BlockType = "seated_grid"
	// BlockTypeStanding holds seats directly (standing / GA areas)
	BlockTypeStanding BlockType = "standing_capacity"
)

// Block is one area of a seating layout. The shape is discriminated by
// Type: rows-of-seats or direct seats, never both. Traversal sites must
// switch on Type rather than probing which slice is populated.
type Block struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Type  BlockType `json:"type"`
	Rows  []Row     `json:"rows,omitempty"`
	Seats []Seat    `json:"seats,omitempty"`
}

// Row is a row of seats inside a seated block
type Row struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Seats []Seat `json:"seats"`
}

// Seat carries a denormalized tier snapshot rather than a tier
// reference, so seat pricing is queryable without a join. The snapshot
// reflects the event's tier list as of the last projection, not live.
type Seat struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Status SeatStatus `json:"status"`
	Tier   *Tier      `json:"tier,omitempty"`
}
