package trending

import (
	"context"
	"sync"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"go.uber.org/zap"
)

// Scheduler runs the trending recompute batch on a fixed interval and
// evicts the ranking cache afterward so top-N reads pick up new scores.
type Scheduler struct {
	service  *Service
	interval time.Duration
	log      *logger.Logger

	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewScheduler creates a new Scheduler
func NewScheduler(service *Service, interval time.Duration, log *logger.Logger) *Scheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Scheduler{
		service:  service,
		interval: interval,
		log:      log,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the recompute loop
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("Starting trending scheduler", zap.Duration("interval", s.interval))

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop stops the loop and waits for an in-flight batch
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("Trending scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()
	if err := s.service.RecomputeAll(ctx); err != nil {
		s.log.Error("Trending recompute batch failed", zap.Error(err))
		return
	}
	if err := s.service.InvalidateRanking(ctx); err != nil {
		s.log.Warn("Failed to evict ranking cache after recompute", zap.Error(err))
	}
	metrics.RecordRecompute(ctx, time.Since(start).Seconds())
	s.log.Info("Trending recompute cycle complete",
		zap.Duration("took", time.Since(start)))
}
