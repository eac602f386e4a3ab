package consumer

import (
	"context"
	"testing"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/broadcast"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/kafka"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
)

var seatTopics = &config.KafkaConfig{
	SeatsLockedTopic:   "ticketly.seats.locked",
	SeatsReleasedTopic: "ticketly.seats.released",
	SeatsBookedTopic:   "ticketly.seats.booked",
}

func seatConsumer(t *testing.T) (*SeatStatusConsumer, *broadcast.Registry) {
	t.Helper()
	events := repository.NewMemoryEventRepository()
	err := events.Upsert(context.Background(), &domain.Event{
		ID:       "E1",
		Status:   domain.EventStatusApproved,
		Sessions: []domain.Session{{ID: "S1", Status: domain.SessionStatusOnSale}},
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}

	registry := broadcast.NewRegistry(4)
	return &SeatStatusConsumer{
		registry: registry,
		events:   events,
		topics:   seatTopics,
		logger:   logger.Get(),
	}, registry
}

func TestStatusForTopic(t *testing.T) {
	c, _ := seatConsumer(t)

	tests := []struct {
		topic  string
		status domain.SeatStatus
		ok     bool
	}{
		{"ticketly.seats.locked", domain.SeatStatusLocked, true},
		{"ticketly.seats.released", domain.SeatStatusAvailable, true},
		{"ticketly.seats.booked", domain.SeatStatusBooked, true},
		{"ticketly.seats.refunded", "", false},
	}

	for _, tt := range tests {
		status, ok := c.statusForTopic(tt.topic)
		if ok != tt.ok || status != tt.status {
			t.Errorf("statusForTopic(%s) = %s/%v, want %s/%v", tt.topic, status, ok, tt.status, tt.ok)
		}
	}
}

func TestSeatStatusProcessRecord_BroadcastsToSubscribers(t *testing.T) {
	c, registry := seatConsumer(t)

	sub := registry.Register("S1")
	defer sub.Close()

	c.processRecord(context.Background(), &kafka.Record{
		Topic: seatTopics.SeatsLockedTopic,
		Value: []byte(`{"sessionId":"S1","seatIds":["seat-1","seat-2"]}`),
	})

	select {
	case update := <-sub.Updates():
		if update.Status != domain.SeatStatusLocked {
			t.Errorf("status = %s, want LOCKED", update.Status)
		}
		if len(update.SeatIDs) != 2 {
			t.Errorf("seat IDs = %v, want 2 entries", update.SeatIDs)
		}
	default:
		t.Fatal("no update broadcast")
	}
}

func TestSeatStatusProcessRecord_UnknownSessionIsDropped(t *testing.T) {
	c, registry := seatConsumer(t)

	sub := registry.Register("S9")
	defer sub.Close()

	c.processRecord(context.Background(), &kafka.Record{
		Topic: seatTopics.SeatsBookedTopic,
		Value: []byte(`{"sessionId":"S9","seatIds":["seat-1"]}`),
	})

	select {
	case update := <-sub.Updates():
		t.Errorf("update broadcast for unknown session: %+v", update)
	default:
	}
}

func TestSeatStatusProcessRecord_MalformedPayloadIsDropped(t *testing.T) {
	c, registry := seatConsumer(t)

	sub := registry.Register("S1")
	defer sub.Close()

	// must not panic or publish
	c.processRecord(context.Background(), &kafka.Record{
		Topic: seatTopics.SeatsLockedTopic,
		Value: []byte(`{`),
	})
	c.processRecord(context.Background(), &kafka.Record{
		Topic: seatTopics.SeatsLockedTopic,
		Value: []byte(`{"seatIds":["seat-1"]}`),
	})

	select {
	case update := <-sub.Updates():
		t.Errorf("update broadcast from malformed payload: %+v", update)
	default:
	}
}
