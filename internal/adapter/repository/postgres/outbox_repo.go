package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/postgres/generated"
	"github.com/iho/gobank/internal/usecase"
)

// OutboxRepository stores ledger events next to the balance change that
// produced them so the publisher can deliver them after commit.
type OutboxRepository struct {
	queries *generated.Queries
}

func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{queries: generated.New(pool)}
}

// Create must be called with the same transaction as the mutation.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event.EventType, err)
	}

	params := generated.CreateOutboxEventParams{
		ID:            event.ID,
		AggregateID:   event.AggregateID,
		AggregateType: event.AggregateType,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     timeToPgTimestamptz(event.CreatedAt),
		Published:     event.Published,
	}

	return translateError(generated.New(pgxTx(tx)).CreateOutboxEvent(ctx, params))
}

// GetUnpublished returns the oldest pending events first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.queries.GetUnpublishedEvents(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to load pending events: %w", err)
	}

	events := make([]*domain.OutboxEvent, len(rows))
	for i := range rows {
		events[i] = outboxEventFromRow(rows[i])
	}

	return events, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	err := r.queries.MarkEventPublished(ctx, generated.MarkEventPublishedParams{
		ID:          id,
		PublishedAt: timeToPgTimestamptz(publishedAt),
	})
	if err != nil {
		return fmt.Errorf("failed to mark event %s published: %w", id, err)
	}
	return nil
}

// DeletePublished prunes delivered events created before the cutoff.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if err := r.queries.DeletePublishedEvents(ctx, timeToPgTimestamptz(before)); err != nil {
		return fmt.Errorf("failed to prune published events: %w", err)
	}
	return nil
}

func outboxEventFromRow(row generated.OutboxEvent) *domain.OutboxEvent {
	event := &domain.OutboxEvent{
		ID:            row.ID,
		AggregateID:   row.AggregateID,
		AggregateType: row.AggregateType,
		EventType:     row.EventType,
		CreatedAt:     row.CreatedAt.Time,
		Published:     row.Published,
	}

	// A payload that no longer decodes is still delivered, just without a body.
	if len(row.Payload) > 0 {
		_ = json.Unmarshal(row.Payload, &event.Payload)
	}

	if row.PublishedAt.Valid {
		at := row.PublishedAt.Time
		event.PublishedAt = &at
	}

	return event
}
