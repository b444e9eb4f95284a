package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/metrics"
	"github.com/iho/gobank/internal/usecase"
)

// EventPublisher drains the outbox table into a Publisher.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	batchSize  int
	interval   time.Duration
	retention  time.Duration

	lastCleanup time.Time
	now         func() time.Time
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
	BatchSize  int           // events fetched per poll
	Interval   time.Duration // polling interval
	// Retention is how long published events are kept. Zero keeps them forever.
	Retention time.Duration
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger.With().Str("component", "outbox").Logger(),
		metrics:    cfg.Metrics,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        time.Now,
	}
}

// Start polls the outbox until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	if _, err := ep.processEvents(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events")
	}

	ep.cleanup(ctx)
}

// processEvents publishes one batch of unpublished events and returns how many
// were delivered. A failed event stays unpublished and is retried next poll.
func (ep *EventPublisher) processEvents(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	published := 0
	for _, event := range events {
		log := ep.logger.With().
			Str("event_id", event.ID).
			Str("event_type", event.EventType).
			Str("aggregate_id", event.AggregateID).
			Logger()

		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.observe(event.EventType, "error")
			log.Error().Err(err).Msg("failed to publish event")
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now().UTC()); err != nil {
			// Delivered but not marked: consumers may see it again.
			ep.observe(event.EventType, "unmarked")
			log.Error().Err(err).Msg("failed to mark event as published")
			continue
		}

		ep.observe(event.EventType, "ok")
		published++
	}

	return published, nil
}

// cleanup purges old published events at most once per retention window.
func (ep *EventPublisher) cleanup(ctx context.Context) {
	if ep.retention <= 0 {
		return
	}

	now := ep.now()
	if !ep.lastCleanup.IsZero() && now.Sub(ep.lastCleanup) < ep.retention/24 {
		return
	}
	ep.lastCleanup = now

	if err := ep.outboxRepo.DeletePublished(ctx, now.Add(-ep.retention)); err != nil {
		ep.logger.Warn().Err(err).Msg("outbox cleanup failed")
	}
}

func (ep *EventPublisher) observe(eventType, result string) {
	if ep.metrics == nil {
		return
	}
	ep.metrics.EventsPublished.WithLabelValues(eventType, result).Inc()
}
