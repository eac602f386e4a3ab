package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/domain"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/dto"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/metrics"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/projector"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/internal/repository"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/config"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/kafka"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/logger"
	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/retry"
	"go.uber.org/zap"
)

// CDCConsumer is the change dispatcher: it consumes the per-entity CDC
// topics, parses envelopes, and routes each change to the right
// projector strategy. Schema violations are committed and dropped;
// transient failures are retried with backoff, then dead-lettered.
type CDCConsumer struct {
	consumer  *kafka.Consumer
	projector *projector.Projector
	events    repository.EventRepository
	dlq       retry.DLQPublisher
	retryCfg  *retry.Config
	topics    *config.KafkaConfig
	resolve   dto.AssetResolver
	logger    *logger.Logger

	workerCount int
	wg          sync.WaitGroup
	stopCh      chan struct{}
	mu          sync.RWMutex
	running     bool
}

// CDCConsumerConfig contains configuration for the change dispatcher
type CDCConsumerConfig struct {
	Kafka       *config.KafkaConfig
	WorkerCount int
	MaxRetries  int
	RetryWindow time.Duration
}

// NewCDCConsumer creates a new change dispatcher
func NewCDCConsumer(
	ctx context.Context,
	cfg *CDCConsumerConfig,
	proj *projector.Projector,
	events repository.EventRepository,
	dlq retry.DLQPublisher,
	resolve dto.AssetResolver,
	log *logger.Logger,
) (*CDCConsumer, error) {
	consumer, err := kafka.NewConsumer(ctx, &kafka.ConsumerConfig{
		Brokers:  cfg.Kafka.Brokers,
		GroupID:  cfg.Kafka.ConsumerGroup,
		Topics:   cfg.Kafka.CDCTopics(),
		ClientID: cfg.Kafka.ClientID + "-cdc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cdc consumer: %w", err)
	}

	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	retryCfg.MaxElapsedTime = cfg.RetryWindow

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 8
	}

	return &CDCConsumer{
		consumer:    consumer,
		projector:   proj,
		events:      events,
		dlq:         dlq,
		retryCfg:    retryCfg,
		topics:      cfg.Kafka,
		resolve:     resolve,
		logger:      log,
		workerCount: workerCount,
		stopCh:      make(chan struct{}),
	}, nil
}

// Start starts the dispatcher workers and poll loop
func (c *CDCConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("cdc consumer is already running")
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Info("Starting CDC change dispatcher...",
		zap.Strings("topics", c.topics.CDCTopics()),
		zap.Int("workers", c.workerCount),
	)

	recordsCh := make(chan *kafka.Record, c.workerCount*10)

	for i := 0; i < c.workerCount; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i, recordsCh)
	}

	c.wg.Add(1)
	go c.poll(ctx, recordsCh)

	return nil
}

// Stop stops the dispatcher and waits for in-flight work
func (c *CDCConsumer) Stop() {
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
	c.logger.Info("CDC change dispatcher stopped")
}

func (c *CDCConsumer) poll(ctx context.Context, recordsCh chan<- *kafka.Record) {
	defer c.wg.Done()
	defer close(recordsCh)

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
				c.logger.Error(fmt.Sprintf("Failed to poll CDC records: %v", err))
				time.Sleep(time.Second)
				continue
			}

			for _, record := range records {
				select {
				case recordsCh <- record:
				case <-ctx.Done():
					return
				case <-c.stopCh:
					return
				}
			}
		}
	}
}

func (c *CDCConsumer) worker(ctx context.Context, id int, recordsCh <-chan *kafka.Record) {
	defer c.wg.Done()

	for record := range recordsCh {
		if err := c.processRecord(ctx, record); err != nil {
			c.logger.Error(fmt.Sprintf("Worker %d failed to process record: %v", id, err))
		}
	}
}

// processRecord handles one CDC message. Malformed payloads are schema
// violations, not transient failures: they are logged and committed.
// Handler failures are retried with backoff and dead-lettered on
// exhaustion so nothing is silently lost.
func (c *CDCConsumer) processRecord(ctx context.Context, record *kafka.Record) error {
	env, err := dto.ParseChangeEnvelope(record.Value)
	if err != nil {
		c.logger.Warn("Dropping malformed change envelope",
			zap.String("topic", record.Topic),
			zap.Int64("offset", record.Offset),
			zap.Error(err),
		)
		metrics.RecordDroppedChange(ctx, record.Topic)
		return c.consumer.CommitRecords(ctx, []*kafka.Record{record})
	}

	firstAttempt := time.Now()
	result := retry.Do(ctx, c.retryCfg, func(ctx context.Context) error {
		return c.dispatch(ctx, record.Topic, env)
	})

	if result.Err != nil {
		if ctx.Err() != nil {
			// Shutting down: leave the record uncommitted for redelivery
			return result.Err
		}
		c.logger.Error("Change handling exhausted retries, moving to DLQ",
			zap.String("topic", record.Topic),
			zap.Int64("offset", record.Offset),
			zap.Int("attempts", result.Attempts),
			zap.Error(result.LastError),
		)
		metrics.RecordProjectionFailure(ctx, record.Topic)
		c.publishToDLQ(ctx, record, result, firstAttempt)
	} else {
		metrics.RecordProjection(ctx, record.Topic, env.Op, time.Since(firstAttempt).Seconds())
	}

	return c.consumer.CommitRecords(ctx, []*kafka.Record{record})
}

func (c *CDCConsumer) publishToDLQ(ctx context.Context, record *kafka.Record, result *retry.Result, firstAttempt time.Time) {
	errMsg := "unknown error"
	if result.LastError != nil {
		errMsg = result.LastError.Error()
	}

	msg := &retry.DLQMessage{
		ID:             uuid.New().String(),
		OriginalTopic:  record.Topic,
		OriginalKey:    string(record.Key),
		Payload:        record.Value,
		Error:          errMsg,
		Attempts:       result.Attempts,
		FirstAttemptAt: firstAttempt,
		LastAttemptAt:  time.Now(),
	}
	if err := c.dlq.PublishToDLQ(ctx, msg); err != nil {
		c.logger.Error("Failed to publish to DLQ",
			zap.String("topic", record.Topic),
			zap.Int64("offset", record.Offset),
			zap.Error(err),
		)
		return
	}
	metrics.RecordDLQMessage(ctx, record.Topic)
}

// dispatch routes a parsed envelope by topic. Schema errors inside the
// row images are wrapped Permanent so they are not retried.
func (c *CDCConsumer) dispatch(ctx context.Context, topic string, env *dto.ChangeEnvelope) error {
	switch topic {
	case c.topics.EventsTopic:
		return c.handleEventChange(ctx, env)
	case c.topics.SessionsTopic:
		return c.handleSessionChange(ctx, env)
	case c.topics.SeatingMapsTopic:
		return c.handleSeatingMapChange(ctx, env)
	case c.topics.DiscountsTopic:
		return c.handleDiscountChange(ctx, env)
	case c.topics.TiersTopic:
		return c.handleTierChange(ctx, env)
	case c.topics.CategoriesTopic:
		return c.handleCategoryChange(ctx, env)
	case c.topics.OrganizationsTopic:
		return c.handleOrganizationChange(ctx, env)
	case c.topics.CoverPhotosTopic:
		return c.handleCoverPhotoChange(ctx, env)
	default:
		return retry.Permanent(fmt.Errorf("no handler for topic %s", topic))
	}
}

// handleEventChange: approved events get a full fetch-and-replace;
// everything else is removed. Deletes cascade the whole document.
func (c *CDCConsumer) handleEventChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	var row dto.EventRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed event row: %w", err))
	}
	if row.ID == "" {
		return retry.Permanent(errors.New("event row missing id"))
	}

	if env.Op == dto.OpDelete {
		return c.projector.DeleteEvent(ctx, row.ID)
	}
	if domain.EventStatus(row.Status) != domain.EventStatusApproved {
		return c.projector.DeleteEvent(ctx, row.ID)
	}
	return c.projector.ProjectFullEvent(ctx, row.ID)
}

// handleSessionChange: only patches sessions whose parent event is
// already projected. An absent parent drops the change; the later full
// event projection subsumes it.
func (c *CDCConsumer) handleSessionChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	if env.Op == dto.OpDelete {
		return nil
	}

	var row dto.SessionRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed session row: %w", err))
	}
	if row.ID == "" || row.EventID == "" {
		return retry.Permanent(errors.New("session row missing id or event_id"))
	}

	exists, err := c.events.Exists(ctx, row.EventID)
	if err != nil {
		return err
	}
	if !exists {
		c.logger.Debug("Parent event not projected yet, dropping session change",
			zap.String("event_id", row.EventID),
			zap.String("session_id", row.ID),
		)
		return nil
	}
	return c.projector.ProjectSessionUpdate(ctx, row.EventID, row.ID)
}

// handleSeatingMapChange picks between the two patch strategies: the
// cheap enrichment join while the session is on sale, a full session
// refetch otherwise.
func (c *CDCConsumer) handleSeatingMapChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	if env.Op == dto.OpDelete {
		return nil
	}

	var row dto.SeatingMapRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed seating map row: %w", err))
	}
	if row.SessionID == "" {
		return retry.Permanent(errors.New("seating map row missing session_id"))
	}

	session, eventID, err := c.events.FindSession(ctx, row.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		c.logger.Debug("Session not projected yet, dropping seating map change",
			zap.String("session_id", row.SessionID))
		return nil
	}
	if err != nil {
		return err
	}

	if session.Status == domain.SessionStatusOnSale {
		return c.projector.ProjectSeatingMapPatch(ctx, eventID, row.SessionID, row.LayoutData)
	}
	return c.projector.ProjectSessionUpdate(ctx, eventID, row.SessionID)
}

func (c *CDCConsumer) handleDiscountChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	var row dto.DiscountRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed discount row: %w", err))
	}
	if row.ID == "" || row.EventID == "" {
		return retry.Permanent(errors.New("discount row missing id or event_id"))
	}

	if env.Op == dto.OpDelete {
		return c.events.RemoveDiscount(ctx, row.EventID, row.ID)
	}

	discount, err := row.ToDomain()
	if err != nil {
		return retry.Permanent(err)
	}
	return c.events.UpsertDiscount(ctx, row.EventID, discount)
}

func (c *CDCConsumer) handleTierChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	if env.Op == dto.OpDelete {
		return nil
	}

	var row dto.TierRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed tier row: %w", err))
	}
	if row.ID == "" || row.EventID == "" {
		return retry.Permanent(errors.New("tier row missing id or event_id"))
	}

	return c.events.UpdateTier(ctx, row.EventID, domain.Tier{
		ID:    row.ID,
		Name:  row.Name,
		Price: row.Price,
		Color: row.Color,
	})
}

func (c *CDCConsumer) handleCategoryChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	if env.Op == dto.OpDelete {
		return nil
	}

	var row dto.CategoryRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed category row: %w", err))
	}
	if row.ID == "" {
		return retry.Permanent(errors.New("category row missing id"))
	}

	category := domain.Category{ID: row.ID, Name: row.Name}
	if row.ParentName != nil {
		category.ParentName = *row.ParentName
	}
	return c.events.UpdateCategory(ctx, category)
}

func (c *CDCConsumer) handleOrganizationChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	if env.Op == dto.OpDelete {
		return nil
	}

	var row dto.OrganizationRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed organization row: %w", err))
	}
	if row.ID == "" {
		return retry.Permanent(errors.New("organization row missing id"))
	}

	return c.events.UpdateOrganization(ctx, domain.Organization{
		ID:      row.ID,
		Name:    row.Name,
		LogoURL: row.LogoURL,
	})
}

// handleCoverPhotoChange is pure array membership: creates push a
// resolved URL, deletes pull it. Updates swap the old key for the new.
func (c *CDCConsumer) handleCoverPhotoChange(ctx context.Context, env *dto.ChangeEnvelope) error {
	var row dto.CoverPhotoRow
	if err := json.Unmarshal(env.Image(), &row); err != nil {
		return retry.Permanent(fmt.Errorf("malformed cover photo row: %w", err))
	}
	if row.EventID == "" || row.PhotoKey == "" {
		return retry.Permanent(errors.New("cover photo row missing event_id or photo_key"))
	}

	switch env.Op {
	case dto.OpDelete:
		return c.events.RemoveCoverPhoto(ctx, row.EventID, c.resolve(row.PhotoKey))
	case dto.OpUpdate:
		var before dto.CoverPhotoRow
		if len(env.Before) > 0 {
			if err := json.Unmarshal(env.Before, &before); err == nil && before.PhotoKey != "" && before.PhotoKey != row.PhotoKey {
				if err := c.events.RemoveCoverPhoto(ctx, row.EventID, c.resolve(before.PhotoKey)); err != nil {
					return err
				}
			}
		}
		return c.events.AddCoverPhoto(ctx, row.EventID, c.resolve(row.PhotoKey))
	default:
		return c.events.AddCoverPhoto(ctx, row.EventID, c.resolve(row.PhotoKey))
	}
}
