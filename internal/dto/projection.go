package dto

import (
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// EventProjectionDTO is the authoritative event payload returned by
// GET /internal/events/{id}/projection-data on the source service.
type EventProjectionDTO struct {
	ID           string                 `json:"id"`
	Title        string                 `json:"title"`
	Status       string                 `json:"status"`
	Description  string                 `json:"description"`
	Overview     string                 `json:"overview"`
	CoverPhotos  []string               `json:"coverPhotos"` // storage keys, not URLs
	Organization OrganizationDTO        `json:"organization"`
	Category     CategoryDTO            `json:"category"`
	Tiers        []TierDTO              `json:"tiers"`
	Sessions     []SessionProjectionDTO `json:"sessions"`
	Discounts    []domain.Discount      `json:"discounts"`
}

// SessionProjectionDTO is the authoritative single-session payload
// returned by GET /internal/sessions/{id}/projection-data.
type SessionProjectionDTO struct {
	ID             string          `json:"id"`
	EventID        string          `json:"eventId"`
	StartTime      time.Time       `json:"startTime"`
	EndTime        time.Time       `json:"endTime"`
	SalesStartTime time.Time       `json:"salesStartTime"`
	Status         string          `json:"status"`
	SessionType    string          `json:"sessionType"`
	VenueDetails   VenueDetailsDTO `json:"venueDetails"`
	LayoutData     *RawLayoutDTO   `json:"layoutData,omitempty"`
}

// OrganizationDTO mirrors the source organization shape
type OrganizationDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

// CategoryDTO mirrors the source category shape
type CategoryDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ParentName string `json:"parentName"`
}

// TierDTO mirrors the source tier shape
type TierDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Color string  `json:"color"`
}

// VenueDetailsDTO mirrors the source venue shape
type VenueDetailsDTO struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	OnlineLink string  `json:"onlineLink"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// AssetResolver turns a storage key into a public URL
type AssetResolver func(key string) string

// ToDomain transforms the projection payload into the read-model
// document, resolving cover photo keys to public URLs and enriching
// every seat with its tier snapshot from the payload's own tier list.
func (p *EventProjectionDTO) ToDomain(resolve AssetResolver, now time.Time) *domain.Event {
	photos := make([]string, 0, len(p.CoverPhotos))
	for _, key := range p.CoverPhotos {
		photos = append(photos, resolve(key))
	}

	tiers := make([]domain.Tier, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		tiers = append(tiers, domain.Tier(t))
	}
	tierIndex := BuildTierIndex(tiers)

	sessions := make([]domain.Session, 0, len(p.Sessions))
	for i := range p.Sessions {
		sessions = append(sessions, *p.Sessions[i].ToDomain(tierIndex))
	}

	return &domain.Event{
		ID:           p.ID,
		Title:        p.Title,
		Status:       domain.EventStatus(p.Status),
		Description:  p.Description,
		Overview:     p.Overview,
		CoverPhotos:  photos,
		Organization: domain.Organization(p.Organization),
		Category:     domain.Category(p.Category),
		Tiers:        tiers,
		Sessions:     sessions,
		Discounts:    p.Discounts,
		ProjectedAt:  now,
	}
}

// ToDomain transforms a session projection, embedding tier snapshots
// into the layout using the given index.
func (s *SessionProjectionDTO) ToDomain(tierIndex map[string]domain.Tier) *domain.Session {
	session := &domain.Session{
		ID:             s.ID,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		SalesStartTime: s.SalesStartTime,
		Status:         domain.SessionStatus(s.Status),
		SessionType:    s.SessionType,
		Venue: domain.VenueDetails{
			Name:       s.VenueDetails.Name,
			Address:    s.VenueDetails.Address,
			OnlineLink: s.VenueDetails.OnlineLink,
		},
	}
	if s.VenueDetails.Latitude != 0 || s.VenueDetails.Longitude != 0 {
		session.Venue.Location = &domain.GeoPoint{
			Lat: s.VenueDetails.Latitude,
			Lng: s.VenueDetails.Longitude,
		}
	}
	if s.LayoutData != nil {
		session.Layout = s.LayoutData.ToDomain(tierIndex)
	}
	return session
}

// BuildTierIndex builds a tier-ID lookup for seat enrichment
func BuildTierIndex(tiers []domain.Tier) map[string]domain.Tier {
	index := make(map[string]domain.Tier, len(tiers))
	for _, t := range tiers {
		index[t.ID] = t
	}
	return index
}
