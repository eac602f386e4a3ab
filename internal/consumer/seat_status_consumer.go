package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/broadcast"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/dto"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/kafka"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"go.uber.org/zap"
)

// SeatStatusConsumer consumes the seats-locked / seats-released /
// seats-booked domain events and fans them out through the broadcast
// registry. It never rewrites the seating-map document: real-time seat
// state travels over the broadcast channel only, and the stored layout
// stays as fresh as its last projection patch.
type SeatStatusConsumer struct {
	consumer *kafka.Consumer
	registry *broadcast.Registry
	events   repository.EventRepository
	topics   *config.KafkaConfig
	logger   *logger.Logger

	wg      sync.WaitGroup
	stopCh  chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewSeatStatusConsumer creates a new seat status consumer
func NewSeatStatusConsumer(
	ctx context.Context,
	kafkaCfg *config.KafkaConfig,
	registry *broadcast.Registry,
	events repository.EventRepository,
	log *logger.Logger,
) (*SeatStatusConsumer, error) {
	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:  kafkaCfg.Brokers,
		GroupID:  kafkaCfg.ConsumerGroup + "-seat-status",
		Topics:   kafkaCfg.SeatStatusTopics(),
		ClientID: kafkaCfg.ClientID + "-seat-status",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create seat status consumer: %w", err)
	}

	return &SeatStatusConsumer{
		consumer: consumer,
		registry: registry,
		events:   events,
		topics:   kafkaCfg,
		logger:   log,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start starts the consumer loop
func (c *SeatStatusConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("seat status consumer is already running")
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("Starting seat status consumer...",
		zap.Strings("topics", c.topics.SeatStatusTopics()))

	c.wg.Add(1)
	go c.run(ctx)
	return nil
}

// Stop stops the consumer and waits for the loop to exit
func (c *SeatStatusConsumer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
	c.consumer.Close()
	c.logger.Info("Seat status consumer stopped")
}

func (c *SeatStatusConsumer) run(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		default:
			records, err := c.consumer.Poll(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error(fmt.Sprintf("Failed to poll seat status records: %v", err))
				time.Sleep(time.Second)
				continue
			}

			for _, record := range records {
				c.processRecord(ctx, record)
			}
			if len(records) > 0 {
				if err := c.consumer.CommitRecords(ctx, records); err != nil {
					c.logger.Error(fmt.Sprintf("Failed to commit seat status records: %v", err))
				}
			}
		}
	}
}

// processRecord maps a seat event onto a broadcast update. This path
// is best-effort: malformed payloads, unknown sessions, and store
// errors all drop the update rather than stalling the stream.
func (c *SeatStatusConsumer) processRecord(ctx context.Context, record *kafka.Record) {
	event, err := dto.ParseSeatStatusEvent(record.Value)
	if err != nil {
		c.logger.Warn("Dropping malformed seat status event",
			zap.String("topic", record.Topic),
			zap.Int64("offset", record.Offset),
			zap.Error(err),
		)
		return
	}

	status, ok := c.statusForTopic(record.Topic)
	if !ok {
		c.logger.Warn("Seat status event on unexpected topic",
			zap.String("topic", record.Topic))
		return
	}

	if _, _, err := c.events.FindSession(ctx, event.SessionID); err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			c.logger.Warn("Session lookup failed, dropping seat status update",
				zap.String("session_id", event.SessionID),
				zap.Error(err),
			)
		}
		return
	}

	c.registry.Publish(broadcast.SeatStatusUpdate{
		SessionID: event.SessionID,
		SeatIDs:   event.SeatIDs,
		Status:    status,
	})
	metrics.RecordBroadcast(ctx, string(status))
}

// statusForTopic maps the three domain-event topics onto read-model
// seat statuses: locked, available, booked.
func (c *SeatStatusConsumer) statusForTopic(topic string) (domain.SeatStatus, bool) {
	switch topic {
	case c.topics.SeatsLockedTopic:
		return domain.SeatStatusLocked, true
	case c.topics.SeatsReleasedTopic:
		return domain.SeatStatusAvailable, true
	case c.topics.SeatsBookedTopic:
		return domain.SeatStatusBooked, true
	default:
		return "", false
	}
}
