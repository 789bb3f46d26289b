package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, recipient_user_id, entity_kind, entity_id, message, read_status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.RecipientUserID, n.EntityKind, n.EntityID, n.Message, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	query := `
		SELECT id, recipient_user_id, entity_kind, entity_id, message, read_status, read_at, created_at
		FROM notifications
		WHERE id = $1
	`
	var n model.Notification
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, notFound(err)
	}
	return &n, nil
}

// ListByRecipient pages on the (created_at, id) key of the before row.
func (r *notificationRepository) ListByRecipient(ctx context.Context, userID uuid.UUID, before *uuid.UUID, limit int) ([]*model.Notification, error) {
	query := `
		SELECT id, recipient_user_id, entity_kind, entity_id, message, read_status, read_at, created_at
		FROM notifications
		WHERE recipient_user_id = $1
		  AND ($2::uuid IS NULL OR (created_at, id) < (
			SELECT created_at, id FROM notifications WHERE id = $2
		  ))
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID, before, limit); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM notifications WHERE recipient_user_id = $1 AND NOT read_status`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

// MarkRead keeps the first read timestamp when called again.
func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET read_status = TRUE, read_at = COALESCE(read_at, $1)
		WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
