package trending

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
)

// fakePageViews doubles as PageViewRepository and ViewProvider, like the
// Redis implementation does in production wiring.
type fakePageViews struct {
	counts map[string]int64
	fail   bool
}

func newFakePageViews() *fakePageViews {
	return &fakePageViews{counts: make(map[string]int64)}
}

func (f *fakePageViews) IncrementView(ctx context.Context, eventID string) error {
	f.counts[eventID]++
	return nil
}

func (f *fakePageViews) TotalViews(ctx context.Context, eventID string) (int64, error) {
	if f.fail {
		return 0, errors.New("redis down")
	}
	return f.counts[eventID], nil
}

func (f *fakePageViews) DeleteViews(ctx context.Context, eventID string) error {
	delete(f.counts, eventID)
	return nil
}

type fakeRankingCache struct {
	rankings    map[int][]*repository.RankedEvent
	invalidated int
}

func newFakeRankingCache() *fakeRankingCache {
	return &fakeRankingCache{rankings: make(map[int][]*repository.RankedEvent)}
}

func (f *fakeRankingCache) Get(ctx context.Context, limit int) ([]*repository.RankedEvent, bool) {
	ranking, ok := f.rankings[limit]
	return ranking, ok
}

func (f *fakeRankingCache) Set(ctx context.Context, limit int, ranking []*repository.RankedEvent) error {
	f.rankings[limit] = ranking
	return nil
}

func (f *fakeRankingCache) Invalidate(ctx context.Context) error {
	f.rankings = make(map[int][]*repository.RankedEvent)
	f.invalidated++
	return nil
}

// standingLayout builds one standing block with the given seat mix
func standingLayout(booked, available int) *domain.SeatingLayout {
	block := domain.Block{ID: "B1", Type: domain.BlockTypeStanding}
	for i := 0; i < booked; i++ {
		block.Seats = append(block.Seats, domain.Seat{
			ID: fmt.Sprintf("b-%d", i), Status: domain.SeatStatusBooked,
		})
	}
	for i := 0; i < available; i++ {
		block.Seats = append(block.Seats, domain.Seat{
			ID: fmt.Sprintf("a-%d", i), Status: domain.SeatStatusAvailable,
		})
	}
	return &domain.SeatingLayout{Blocks: []domain.Block{block}}
}

func newFixture() (*Service, *repository.MemoryEventRepository, *fakePageViews, *fakeRankingCache) {
	events := repository.NewMemoryEventRepository()
	views := newFakePageViews()
	cache := newFakeRankingCache()
	svc := NewService(events, repository.NewMemoryTrendingRepository(), views, views, cache, logger.Get())
	return svc, events, views, cache
}

func seedEvent(t *testing.T, events *repository.MemoryEventRepository, id string, booked, available int) {
	t.Helper()
	err := events.Upsert(context.Background(), &domain.Event{
		ID:     id,
		Title:  "Event " + id,
		Status: domain.EventStatusApproved,
		Sessions: []domain.Session{
			{ID: "session-" + id, Layout: standingLayout(booked, available)},
		},
	})
	if err != nil {
		t.Fatalf("seed event %s: %v", id, err)
	}
}

func TestRecomputeScore(t *testing.T) {
	svc, events, views, _ := newFixture()
	ctx := context.Background()

	// 3 of 15 seats booked: 20% sold out
	seedEvent(t, events, "E1", 3, 12)
	views.counts["E1"] = 50

	record, err := svc.RecomputeScore(ctx, "E1")
	if err != nil {
		t.Fatalf("RecomputeScore failed: %v", err)
	}

	// 50*1.0 + 3*10.0 + 20.0*5.0
	if record.Score != 180.0 {
		t.Errorf("Score = %f, want 180", record.Score)
	}
	if record.ViewCount != 50 {
		t.Errorf("ViewCount = %d, want 50", record.ViewCount)
	}
	if record.PurchaseCount != 3 {
		t.Errorf("PurchaseCount = %d, want 3", record.PurchaseCount)
	}
}

func TestRecomputeScore_ViewProviderFailureDefaultsToZero(t *testing.T) {
	svc, events, views, _ := newFixture()
	ctx := context.Background()

	seedEvent(t, events, "E1", 3, 12)
	views.counts["E1"] = 50
	views.fail = true

	record, err := svc.RecomputeScore(ctx, "E1")
	if err != nil {
		t.Fatalf("RecomputeScore failed: %v", err)
	}

	if record.ViewCount != 0 {
		t.Errorf("ViewCount = %d, want 0 when the provider fails", record.ViewCount)
	}
	// purchase terms still counted: 3*10 + 20*5
	if record.Score != 130.0 {
		t.Errorf("Score = %f, want 130", record.Score)
	}
}

func TestRecomputeScore_MissingEvent(t *testing.T) {
	svc, _, _, _ := newFixture()

	if _, err := svc.RecomputeScore(context.Background(), "nope"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}
}

func TestGetScore_LazyCreate(t *testing.T) {
	svc, events, views, _ := newFixture()
	ctx := context.Background()

	seedEvent(t, events, "E1", 0, 10)
	views.counts["E1"] = 7

	record, err := svc.GetScore(ctx, "E1")
	if err != nil {
		t.Fatalf("GetScore failed: %v", err)
	}
	if record.Score != 7.0 {
		t.Errorf("Score = %f, want 7 on first lazy compute", record.Score)
	}

	// Second call must serve the stored record, not recompute
	views.counts["E1"] = 1000
	record, err = svc.GetScore(ctx, "E1")
	if err != nil {
		t.Fatalf("second GetScore failed: %v", err)
	}
	if record.Score != 7.0 {
		t.Errorf("Score = %f, want stale 7 until the next recompute", record.Score)
	}
}

func TestGetScore_UnknownEvent(t *testing.T) {
	svc, _, _, _ := newFixture()

	if _, err := svc.GetScore(context.Background(), "nope"); !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("err = %v, want ErrEventNotFound", err)
	}
}

func TestRecomputeAll_RunsToCompletion(t *testing.T) {
	svc, events, views, _ := newFixture()
	ctx := context.Background()

	seedEvent(t, events, "E1", 0, 10)
	seedEvent(t, events, "E2", 5, 5)
	views.counts["E1"] = 10
	views.counts["E2"] = 20

	if err := svc.RecomputeAll(ctx); err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}

	for _, id := range []string{"E1", "E2"} {
		if _, err := svc.GetScore(ctx, id); err != nil {
			t.Errorf("no record for %s after RecomputeAll: %v", id, err)
		}
	}
}

func TestTopN(t *testing.T) {
	svc, events, views, cache := newFixture()
	ctx := context.Background()

	seedEvent(t, events, "E1", 0, 10)
	seedEvent(t, events, "E2", 5, 5) // higher score
	views.counts["E1"] = 10
	views.counts["E2"] = 10

	if err := svc.RecomputeAll(ctx); err != nil {
		t.Fatalf("RecomputeAll failed: %v", err)
	}

	ranking, err := svc.TopN(ctx, 10)
	if err != nil {
		t.Fatalf("TopN failed: %v", err)
	}

	if len(ranking) != 2 {
		t.Fatalf("got %d ranked events, want 2", len(ranking))
	}
	if ranking[0].Event.ID != "E2" {
		t.Errorf("top event = %s, want E2", ranking[0].Event.ID)
	}
	if ranking[0].Score <= ranking[1].Score {
		t.Errorf("ranking not descending: %f then %f", ranking[0].Score, ranking[1].Score)
	}

	// the summary shape never carries layouts, so this is genuinely a
	// lightweight listing
	if ranking[0].Event.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", ranking[0].Event.SessionCount)
	}

	if _, ok := cache.rankings[10]; !ok {
		t.Error("ranking not cached after computation")
	}

	// a cached result shields the repos from further reads
	if _, err := svc.TopN(ctx, 10); err != nil {
		t.Fatalf("cached TopN failed: %v", err)
	}

	if err := svc.InvalidateRanking(ctx); err != nil {
		t.Fatalf("InvalidateRanking failed: %v", err)
	}
	if cache.invalidated != 1 {
		t.Errorf("invalidated = %d, want 1", cache.invalidated)
	}
}

func TestRecordView(t *testing.T) {
	svc, _, views, _ := newFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.RecordView(ctx, "E1"); err != nil {
			t.Fatalf("RecordView failed: %v", err)
		}
	}
	if views.counts["E1"] != 3 {
		t.Errorf("view count = %d, want 3", views.counts["E1"])
	}
}
