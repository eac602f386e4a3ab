package broadcast

import (
	"sync"
	"testing"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

func TestPublish_FanOutScopedToSession(t *testing.T) {
	r := NewRegistry(4)

	subA1 := r.Register("S1")
	subA2 := r.Register("S1")
	subB := r.Register("S2")
	defer subA1.Close()
	defer subA2.Close()
	defer subB.Close()

	r.Publish(SeatStatusUpdate{SessionID: "S1", SeatIDs: []string{"seat-1"}, Status: domain.SeatStatusLocked})

	for _, sub := range []*Subscription{subA1, subA2} {
		select {
		case update := <-sub.Updates():
			if update.SessionID != "S1" || update.Status != domain.SeatStatusLocked {
				t.Errorf("got update %+v, want S1/LOCKED", update)
			}
		default:
			t.Fatal("S1 subscriber did not receive the update")
		}
	}

	select {
	case update := <-subB.Updates():
		t.Errorf("S2 subscriber received S1 update: %+v", update)
	default:
	}
}

func TestPublish_NoSubscribersIsSilent(t *testing.T) {
	r := NewRegistry(4)
	// must not panic or block
	r.Publish(SeatStatusUpdate{SessionID: "nobody", SeatIDs: []string{"seat-1"}})
}

func TestRegistry_ChannelLifecycle(t *testing.T) {
	r := NewRegistry(4)

	if r.SessionCount() != 0 {
		t.Fatalf("SessionCount = %d, want 0 before any Register", r.SessionCount())
	}

	sub1 := r.Register("S1")
	sub2 := r.Register("S1")

	if r.SessionCount() != 1 {
		t.Errorf("SessionCount = %d, want 1", r.SessionCount())
	}
	if r.SubscriberCount("S1") != 2 {
		t.Errorf("SubscriberCount = %d, want 2", r.SubscriberCount("S1"))
	}

	sub1.Close()
	if r.SubscriberCount("S1") != 1 {
		t.Errorf("SubscriberCount after first Close = %d, want 1", r.SubscriberCount("S1"))
	}
	if r.SessionCount() != 1 {
		t.Error("session channel torn down while a subscriber remains")
	}

	sub2.Close()
	if r.SessionCount() != 0 {
		t.Errorf("SessionCount after last Close = %d, want 0", r.SessionCount())
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	r := NewRegistry(4)
	sub := r.Register("S1")

	sub.Close()
	sub.Close() // second Close must not panic on a closed channel

	if _, open := <-sub.Updates(); open {
		t.Error("Updates channel still open after Close")
	}
}

func TestPublish_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	r := NewRegistry(1)

	var mu sync.Mutex
	drops := 0
	r.OnDrop(func(sessionID string) {
		mu.Lock()
		drops++
		mu.Unlock()
		if sessionID != "S1" {
			t.Errorf("OnDrop got session %s, want S1", sessionID)
		}
	})

	sub := r.Register("S1")
	defer sub.Close()

	r.Publish(SeatStatusUpdate{SessionID: "S1", SeatIDs: []string{"seat-1"}})
	r.Publish(SeatStatusUpdate{SessionID: "S1", SeatIDs: []string{"seat-2"}}) // buffer full, dropped

	mu.Lock()
	got := drops
	mu.Unlock()
	if got != 1 {
		t.Errorf("drops = %d, want 1", got)
	}

	update := <-sub.Updates()
	if len(update.SeatIDs) != 1 || update.SeatIDs[0] != "seat-1" {
		t.Errorf("buffered update = %+v, want seat-1", update)
	}
}

func TestRegister_RacingLastCloseStaysReachable(t *testing.T) {
	r := NewRegistry(8)
	r.OnDrop(func(string) {})

	for i := 0; i < 5000; i++ {
		first := r.Register("S1")

		done := make(chan struct{})
		go func() {
			first.Close()
			close(done)
		}()

		second := r.Register("S1")
		r.Publish(SeatStatusUpdate{SessionID: "S1", SeatIDs: []string{"seat-1"}, Status: domain.SeatStatusBooked})

		select {
		case _, ok := <-second.Updates():
			if !ok {
				t.Fatalf("iteration %d: subscription closed before it received anything", i)
			}
		default:
			t.Fatalf("iteration %d: subscriber registered during teardown missed the update", i)
		}

		<-done
		second.Close()
	}

	if r.SessionCount() != 0 {
		t.Errorf("SessionCount after loop = %d, want 0", r.SessionCount())
	}
}

func TestRegistry_ConcurrentRegisterPublishClose(t *testing.T) {
	r := NewRegistry(8)
	r.OnDrop(func(string) {})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				sub := r.Register("S1")
				r.Publish(SeatStatusUpdate{SessionID: "S1", SeatIDs: []string{"seat-1"}})
				sub.Close()
			}
		}()
	}
	wg.Wait()

	if r.SessionCount() != 0 {
		t.Errorf("SessionCount after all subscribers closed = %d, want 0", r.SessionCount())
	}
}
