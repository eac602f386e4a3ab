package dto

import (
	"testing"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

const rawLayoutJSON = `{
	"name": "Main Hall",
	"blocks": [
		{
			"id": "B1",
			"name": "Orchestra",
			"type": "seated_grid",
			"rows": [
				{"id": "R1", "label": "A", "seats": [
					{"id": "seat-1", "label": "A1", "status": "AVAILABLE", "tierId": "T1"},
					{"id": "seat-2", "label": "A2", "status": "BOOKED", "tierId": "T1"}
				]}
			]
		},
		{
			"id": "B2",
			"name": "Standing",
			"type": "standing_capacity",
			"seats": [
				{"id": "seat-3", "label": "GA1", "status": "AVAILABLE", "tierId": "T2"}
			]
		}
	]
}`

func tierIndex() map[string]domain.Tier {
	return BuildTierIndex([]domain.Tier{
		{ID: "T1", Name: "VIP", Price: 100, Color: "#ffd700"},
	})
}

func TestParseRawLayout(t *testing.T) {
	layout, err := ParseRawLayout([]byte(rawLayoutJSON))
	if err != nil {
		t.Fatalf("ParseRawLayout failed: %v", err)
	}
	if layout.Name != "Main Hall" {
		t.Errorf("Name = %s, want Main Hall", layout.Name)
	}
	if len(layout.Blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(layout.Blocks))
	}
	if layout.Blocks[0].Rows[0].Seats[1].TierID != "T1" {
		t.Errorf("seat-2 tierId = %s, want T1", layout.Blocks[0].Rows[0].Seats[1].TierID)
	}
}

func TestParseRawLayout_Malformed(t *testing.T) {
	if _, err := ParseRawLayout([]byte(`{"blocks": "not-an-array"}`)); err == nil {
		t.Error("ParseRawLayout accepted malformed payload")
	}
}

func TestRawLayoutToDomain_EnrichesTierSnapshots(t *testing.T) {
	layout, err := ParseRawLayout([]byte(rawLayoutJSON))
	if err != nil {
		t.Fatalf("ParseRawLayout failed: %v", err)
	}

	dom := layout.ToDomain(tierIndex())

	seat := dom.Blocks[0].Rows[0].Seats[0]
	if seat.Tier == nil {
		t.Fatal("seat-1 tier snapshot not embedded")
	}
	if seat.Tier.Name != "VIP" || seat.Tier.Price != 100 {
		t.Errorf("seat-1 tier = %+v, want VIP/100", seat.Tier)
	}
	if seat.Status != domain.SeatStatusAvailable {
		t.Errorf("seat-1 status = %s, want AVAILABLE", seat.Status)
	}

	// T2 is not in the tier list: seat keeps a nil snapshot, conversion
	// still succeeds.
	standing := dom.Blocks[1].Seats[0]
	if standing.Tier != nil {
		t.Errorf("seat-3 tier = %+v, want nil for unknown tier ID", standing.Tier)
	}
}

func TestRawLayoutToDomain_SnapshotIsACopy(t *testing.T) {
	layout, _ := ParseRawLayout([]byte(rawLayoutJSON))
	index := tierIndex()
	dom := layout.ToDomain(index)

	tier := index["T1"]
	tier.Price = 999
	index["T1"] = tier

	if dom.Blocks[0].Rows[0].Seats[0].Tier.Price != 100 {
		t.Error("seat tier snapshot aliases the index entry")
	}
}

func TestEventProjectionToDomain(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	rawLayout, _ := ParseRawLayout([]byte(rawLayoutJSON))

	payload := &EventProjectionDTO{
		ID:          "E1",
		Title:       "Symphony Night",
		Status:      "APPROVED",
		CoverPhotos: []string{"covers/e1.jpg", "https://cdn.example.com/already.jpg"},
		Organization: OrganizationDTO{
			ID: "O1", Name: "Philharmonic",
		},
		Category: CategoryDTO{ID: "C1", Name: "Music"},
		Tiers: []TierDTO{
			{ID: "T1", Name: "VIP", Price: 100, Color: "#ffd700"},
		},
		Sessions: []SessionProjectionDTO{
			{
				ID:     "S1",
				Status: "ON_SALE",
				VenueDetails: VenueDetailsDTO{
					Name: "Grand Hall", Latitude: 6.9271, Longitude: 79.8612,
				},
				LayoutData: rawLayout,
			},
			{
				ID:     "S2",
				Status: "SCHEDULED",
				VenueDetails: VenueDetailsDTO{
					Name: "Online", OnlineLink: "https://meet.example.com/s2",
				},
			},
		},
	}

	resolve := func(key string) string {
		if key == "covers/e1.jpg" {
			return "https://cdn.example.com/covers/e1.jpg"
		}
		return key
	}

	event := payload.ToDomain(resolve, now)

	if event.Status != domain.EventStatusApproved {
		t.Errorf("Status = %s, want APPROVED", event.Status)
	}
	if event.CoverPhotos[0] != "https://cdn.example.com/covers/e1.jpg" {
		t.Errorf("cover photo not resolved: %s", event.CoverPhotos[0])
	}
	if !event.ProjectedAt.Equal(now) {
		t.Errorf("ProjectedAt = %v, want %v", event.ProjectedAt, now)
	}

	if len(event.Sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(event.Sessions))
	}

	onSale := event.Sessions[0]
	if onSale.Venue.Location == nil || onSale.Venue.Location.Lat != 6.9271 {
		t.Errorf("S1 venue location = %+v, want lat 6.9271", onSale.Venue.Location)
	}
	if onSale.Layout == nil {
		t.Fatal("S1 layout missing")
	}
	if onSale.Layout.Blocks[0].Rows[0].Seats[0].Tier == nil {
		t.Error("S1 seats not enriched from the payload tier list")
	}

	online := event.Sessions[1]
	if online.Venue.Location != nil {
		t.Errorf("online session location = %+v, want nil", online.Venue.Location)
	}
	if online.Layout != nil {
		t.Error("S2 layout = non-nil, want nil")
	}
}
