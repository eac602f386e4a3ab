package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
)

func newTestClient(baseURL string) *HTTPProjectionClient {
	return NewHTTPProjectionClient(&config.SourceConfig{
		BaseURL:        baseURL,
		RequestTimeout: time.Second,
		MaxRetries:     2,
		RetryInterval:  time.Millisecond,
	}, logger.Get())
}

func TestFetchEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/events/E1/projection-data" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"E1","title":"Concert","status":"APPROVED"}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(srv.URL).FetchEvent(context.Background(), "E1")
	if err != nil {
		t.Fatalf("FetchEvent failed: %v", err)
	}
	if payload.ID != "E1" || payload.Status != "APPROVED" {
		t.Errorf("payload = %+v, want E1/APPROVED", payload)
	}
}

func TestFetchEvent_NotFound(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchEvent(context.Background(), "E1")
	if !errors.Is(err, ErrSourceNotFound) {
		t.Errorf("err = %v, want ErrSourceNotFound", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("404 was retried %d times, want a single attempt", n)
	}
}

func TestFetchEvent_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"E1","status":"APPROVED"}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(srv.URL).FetchEvent(context.Background(), "E1")
	if err != nil {
		t.Fatalf("FetchEvent failed after transient errors: %v", err)
	}
	if payload.ID != "E1" {
		t.Errorf("payload = %+v, want E1", payload)
	}
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestFetchEvent_ExhaustsRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchEvent(context.Background(), "E1")
	if err == nil {
		t.Fatal("FetchEvent succeeded, want error after retries")
	}
	// initial attempt + 2 retries
	if n := atomic.LoadInt32(&hits); n != 3 {
		t.Errorf("server hit %d times, want 3", n)
	}
}

func TestFetchEvent_ClientErrorIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).FetchEvent(context.Background(), "E1")
	if err == nil {
		t.Fatal("FetchEvent succeeded on 403, want error")
	}
	if errors.Is(err, ErrSourceNotFound) {
		t.Error("403 mapped to ErrSourceNotFound, want a distinct permanent error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("403 was retried %d times, want a single attempt", n)
	}
}

func TestFetchSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/sessions/S1/projection-data" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"id":"S1","eventId":"E1","status":"ON_SALE"}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(srv.URL).FetchSession(context.Background(), "S1")
	if err != nil {
		t.Fatalf("FetchSession failed: %v", err)
	}
	if payload.EventID != "E1" || payload.Status != "ON_SALE" {
		t.Errorf("payload = %+v, want E1/ON_SALE", payload)
	}
}

func TestFetchEvent_MalformedBodyIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{not-json`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).FetchEvent(context.Background(), "E1"); err == nil {
		t.Fatal("FetchEvent decoded garbage, want error")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Errorf("malformed body retried %d times, want a single attempt", n)
	}
}
