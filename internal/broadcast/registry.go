package broadcast

import (
	"sync"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
)

// SeatStatusUpdate is the payload fanned out to live subscribers of a
// session's seat stream
type SeatStatusUpdate struct {
	SessionID string            `json:"sessionId"`
	SeatIDs   []string          `json:"seatIds"`
	Status    domain.SeatStatus `json:"status"`
}

// Subscription is one live subscriber's view of a session channel.
// Updates() yields best-effort seat status updates; Close detaches the
// subscriber and, if it was the last one, tears the channel down.
type Subscription struct {
	ch       chan SeatStatusUpdate
	once     sync.Once
	teardown func()
}

// Updates returns the receive side of the subscription
func (s *Subscription) Updates() <-chan SeatStatusUpdate {
	return s.ch
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.teardown)
}

// sessionChannel multicasts updates to every subscriber of one session
type sessionChannel struct {
	mu          sync.RWMutex
	subscribers map[*Subscription]struct{}
}

// Registry holds one lazily created multicast channel per session.
// Channels appear with the first subscriber and disappear with the
// last; per-session channels are fully independent.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionChannel
	buffer   int

	// onDrop, if set, is called when a slow subscriber misses an update
	onDrop func(sessionID string)
}

// NewRegistry creates a new Registry. buffer is the per-subscriber
// channel depth; a subscriber that falls behind loses updates rather
// than blocking the publisher.
func NewRegistry(buffer int) *Registry {
	if buffer <= 0 {
		buffer = 16
	}
	return &Registry{
		sessions: make(map[string]*sessionChannel),
		buffer:   buffer,
	}
}

// OnDrop installs a callback invoked whenever an update is dropped for
// a slow subscriber. Must be set before any Publish.
func (r *Registry) OnDrop(fn func(sessionID string)) {
	r.onDrop = fn
}

// Register subscribes to a session's seat status stream, creating the
// session channel on first use.
func (r *Registry) Register(sessionID string) *Subscription {
	sub := &Subscription{ch: make(chan SeatStatusUpdate, r.buffer)}

	// The subscriber must join the channel while r.mu is held:
	// unregister deletes an emptied channel from r.sessions under r.mu,
	// so attaching after releasing it could land on a channel that
	// Publish can no longer find.
	r.mu.Lock()
	sc, exists := r.sessions[sessionID]
	if !exists {
		sc = &sessionChannel{subscribers: make(map[*Subscription]struct{})}
		r.sessions[sessionID] = sc
	}
	sub.teardown = func() { r.unregister(sessionID, sc, sub) }

	sc.mu.Lock()
	sc.subscribers[sub] = struct{}{}
	sc.mu.Unlock()
	r.mu.Unlock()

	return sub
}

func (r *Registry) unregister(sessionID string, sc *sessionChannel, sub *Subscription) {
	sc.mu.Lock()
	delete(sc.subscribers, sub)
	empty := len(sc.subscribers) == 0
	sc.mu.Unlock()

	close(sub.ch)

	if !empty {
		return
	}

	// Last subscriber gone: remove the session entry unless a new
	// subscriber raced in on a fresh channel.
	r.mu.Lock()
	if current, ok := r.sessions[sessionID]; ok && current == sc {
		sc.mu.RLock()
		stillEmpty := len(sc.subscribers) == 0
		sc.mu.RUnlock()
		if stillEmpty {
			delete(r.sessions, sessionID)
		}
	}
	r.mu.Unlock()
}

// Publish fans an update out to every current subscriber of the
// session. Non-blocking: a full subscriber buffer drops the update for
// that subscriber only. No subscribers means the update is silently
// discarded.
func (r *Registry) Publish(update SeatStatusUpdate) {
	r.mu.RLock()
	sc, exists := r.sessions[update.SessionID]
	r.mu.RUnlock()
	if !exists {
		return
	}

	sc.mu.RLock()
	defer sc.mu.RUnlock()
	for sub := range sc.subscribers {
		select {
		case sub.ch <- update:
		default:
			if r.onDrop != nil {
				r.onDrop(update.SessionID)
			}
		}
	}
}

// SubscriberCount reports the current number of subscribers for a
// session. Intended for health endpoints and tests.
func (r *Registry) SubscriberCount(sessionID string) int {
	r.mu.RLock()
	sc, exists := r.sessions[sessionID]
	r.mu.RUnlock()
	if !exists {
		return 0
	}
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.subscribers)
}

// SessionCount reports how many session channels currently exist
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
