package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6
		)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt
	event.Status = model.OutboxStatusPending

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}

// ClaimPending locks a batch with SKIP LOCKED so several workers can share the table.
func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, fn func([]*model.OutboxEvent) []repository.OutboxResult) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var events []*model.OutboxEvent
		err := tx.SelectContext(ctx, &events, `
			SELECT id, event_type, payload, status, error_message, retry_count,
				created_at, processed_at, updated_at
			FROM outbox_events
			WHERE status = $1
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		`, model.OutboxStatusPending, limit)
		if err != nil {
			return fmt.Errorf("failed to get pending events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		for _, res := range fn(events) {
			_, err := tx.ExecContext(ctx, `
				UPDATE outbox_events
				SET status = $1,
					error_message = $2,
					retry_count = retry_count + CASE WHEN $2::text IS NULL THEN 0 ELSE 1 END,
					processed_at = CASE WHEN $1 = 'PROCESSED' THEN NOW() ELSE processed_at END,
					updated_at = NOW()
				WHERE id = $3
			`, res.Status, res.Err, res.ID)
			if err != nil {
				return fmt.Errorf("failed to update event status: %w", err)
			}
		}
		return nil
	})
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1
		AND processed_at < $2
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
