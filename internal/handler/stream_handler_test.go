package handler

import (
	"bufio"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/broadcast"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
)

func newStreamEnv(t *testing.T) (*broadcast.Registry, *repository.MemoryEventRepository, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := broadcast.NewRegistry(8)
	events := repository.NewMemoryEventRepository()

	router := gin.New()
	router.GET("/api/v1/sessions/:sessionId/seat-status/stream",
		NewStreamHandler(registry, events).StreamSeatStatus)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return registry, events, ts
}

func waitForSubscribers(t *testing.T, registry *broadcast.Registry, sessionID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for registry.SubscriberCount(sessionID) != want {
		if time.Now().After(deadline) {
			t.Fatalf("SubscriberCount(%s) = %d, want %d", sessionID, registry.SubscriberCount(sessionID), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// readSSEvent reads one "event:"/"data:" pair off the stream
func readSSEvent(t *testing.T, br *bufio.Reader) (event, data string) {
	t.Helper()
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		case line == "" && data != "":
			return event, data
		}
	}
}

func TestStreamSeatStatus_DeliversUpdatesUntilClientLeaves(t *testing.T) {
	registry, events, ts := newStreamEnv(t)

	require.NoError(t, events.Upsert(context.Background(), &domain.Event{
		ID:       "E1",
		Status:   domain.EventStatusApproved,
		Sessions: []domain.Session{{ID: "session-E1", Status: domain.SessionStatusOnSale}},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		ts.URL+"/api/v1/sessions/session-E1/seat-status/stream", nil)
	require.NoError(t, err)

	// the response headers are not flushed until the first event, so
	// the opening publish has to race the blocking Do from a goroutine
	pubErr := make(chan error, 1)
	go func() {
		deadline := time.Now().Add(2 * time.Second)
		for registry.SubscriberCount("session-E1") != 1 {
			if time.Now().After(deadline) {
				pubErr <- errors.New("subscriber never registered")
				cancel()
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
		registry.Publish(broadcast.SeatStatusUpdate{
			SessionID: "session-E1",
			SeatIDs:   []string{"seat-1", "seat-2"},
			Status:    domain.SeatStatusLocked,
		})
		pubErr <- nil
	}()

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, <-pubErr)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	event, data := readSSEvent(t, br)
	assert.Equal(t, "seat-status", event)
	assert.Contains(t, data, `"sessionId":"session-E1"`)
	assert.Contains(t, data, `"LOCKED"`)

	// the connection stays open between events
	registry.Publish(broadcast.SeatStatusUpdate{
		SessionID: "session-E1",
		SeatIDs:   []string{"seat-1"},
		Status:    domain.SeatStatusBooked,
	})

	_, data = readSSEvent(t, br)
	assert.Contains(t, data, `"BOOKED"`)

	cancel()
	waitForSubscribers(t, registry, "session-E1", 0)
	assert.Equal(t, 0, registry.SessionCount())
}

func TestStreamSeatStatus_UnknownSession(t *testing.T) {
	_, _, ts := newStreamEnv(t)

	resp, err := ts.Client().Get(ts.URL + "/api/v1/sessions/nope/seat-status/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
