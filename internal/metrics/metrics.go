package metrics

import (
	"context"
	"sync"

	"github.com/Evently-Event-Management/ms-event-seating-projection-sub000/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

var (
	// Projection counters
	ProjectionsApplied *telemetry.Counter
	ProjectionsFailed  *telemetry.Counter
	ChangesDropped     *telemetry.Counter
	DLQMessages        *telemetry.Counter

	// Broadcast counters
	BroadcastPublished *telemetry.Counter
	BroadcastDropped   *telemetry.Counter

	// Trending counters
	TrendingRecomputes *telemetry.Counter
	EventViews         *telemetry.Counter

	// Histograms
	ProjectionDuration *telemetry.Histogram
	RecomputeDuration  *telemetry.Histogram

	// Gauges
	ActiveSubscribers *telemetry.UpDownCounter

	initOnce sync.Once
	initErr  error
)

// Init initializes all projection metrics
func Init() error {
	initOnce.Do(func() {
		initErr = initMetrics()
	})
	return initErr
}

func initMetrics() error {
	var err error

	ProjectionsApplied, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "projection_mutations_total",
		Description: "Total number of read-model mutations applied",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ProjectionsFailed, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "projection_failures_total",
		Description: "Total number of change handlers that exhausted retries",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ChangesDropped, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "projection_changes_dropped_total",
		Description: "Total number of malformed or unroutable changes dropped",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	DLQMessages, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "projection_dlq_messages_total",
		Description: "Total number of messages moved to the dead letter queue",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	BroadcastPublished, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seat_broadcast_published_total",
		Description: "Total number of seat status updates published",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	BroadcastDropped, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "seat_broadcast_dropped_total",
		Description: "Total number of updates dropped for slow subscribers",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	TrendingRecomputes, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "trending_recomputes_total",
		Description: "Total number of trending score recomputes",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	EventViews, err = telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "event_page_views_total",
		Description: "Total number of event page views recorded",
		Unit:        "1",
	})
	if err != nil {
		return err
	}

	ProjectionDuration, err = telemetry.NewHistogramWithBuckets(telemetry.MetricOpts{
		Name:        "projection_duration_seconds",
		Description: "Time to apply one change to the read model",
		Unit:        "s",
	}, []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5})
	if err != nil {
		return err
	}

	RecomputeDuration, err = telemetry.NewHistogram(telemetry.MetricOpts{
		Name:        "trending_recompute_duration_seconds",
		Description: "Time to run one trending recompute batch",
		Unit:        "s",
	})
	if err != nil {
		return err
	}

	ActiveSubscribers, err = telemetry.NewUpDownCounter(telemetry.MetricOpts{
		Name:        "seat_broadcast_subscribers",
		Description: "Current number of live seat stream subscribers",
		Unit:        "1",
	})
	return err
}

// RecordProjection records one applied read-model mutation
func RecordProjection(ctx context.Context, entity, strategy string, durationSeconds float64) {
	if ProjectionsApplied != nil {
		ProjectionsApplied.Inc(ctx,
			attribute.String("entity", entity),
			attribute.String("strategy", strategy),
		)
	}
	if ProjectionDuration != nil {
		ProjectionDuration.Record(ctx, durationSeconds,
			attribute.String("entity", entity),
		)
	}
}

// RecordProjectionFailure records a change that exhausted its retries
func RecordProjectionFailure(ctx context.Context, topic string) {
	if ProjectionsFailed != nil {
		ProjectionsFailed.Inc(ctx, attribute.String("topic", topic))
	}
}

// RecordDroppedChange records a malformed change being discarded
func RecordDroppedChange(ctx context.Context, topic string) {
	if ChangesDropped != nil {
		ChangesDropped.Inc(ctx, attribute.String("topic", topic))
	}
}

// RecordDLQMessage records a message moved to the dead letter queue
func RecordDLQMessage(ctx context.Context, topic string) {
	if DLQMessages != nil {
		DLQMessages.Inc(ctx, attribute.String("topic", topic))
	}
}

// RecordBroadcast records a seat status update fan-out
func RecordBroadcast(ctx context.Context, status string) {
	if BroadcastPublished != nil {
		BroadcastPublished.Inc(ctx, attribute.String("status", status))
	}
}

// RecordBroadcastDrop records an update lost to a slow subscriber
func RecordBroadcastDrop(ctx context.Context, sessionID string) {
	if BroadcastDropped != nil {
		BroadcastDropped.Inc(ctx, attribute.String("session_id", sessionID))
	}
}

// RecordSubscribe tracks a subscriber attaching to a seat stream
func RecordSubscribe(ctx context.Context) {
	if ActiveSubscribers != nil {
		ActiveSubscribers.Add(ctx, 1)
	}
}

// RecordUnsubscribe tracks a subscriber detaching from a seat stream
func RecordUnsubscribe(ctx context.Context) {
	if ActiveSubscribers != nil {
		ActiveSubscribers.Add(ctx, -1)
	}
}

// RecordRecompute records one trending recompute
func RecordRecompute(ctx context.Context, durationSeconds float64) {
	if TrendingRecomputes != nil {
		TrendingRecomputes.Inc(ctx)
	}
	if RecomputeDuration != nil {
		RecomputeDuration.Record(ctx, durationSeconds)
	}
}

// RecordEventView records one event page view
func RecordEventView(ctx context.Context, eventID string) {
	if EventViews != nil {
		EventViews.Inc(ctx, attribute.String("event_id", eventID))
	}
}
