package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/service"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
	"github.com/jwalitptl/citizen-api/pkg/worker"
)

type Config struct {
	RetryAttempts int
	RetryDelay    time.Duration
	ListLimit     int
}

// Service turns lifecycle events into per-user notifications and serves the
// pull interface the UI polls.
type Service struct {
	repo    repository.NotificationRepository
	outbox  repository.OutboxRepository
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService builds the dispatcher. outbox may be nil, in which case no push
// or e-mail events are emitted.
func NewService(
	repo repository.NotificationRepository,
	outbox repository.OutboxRepository,
	config Config,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	if config.ListLimit <= 0 {
		config.ListLimit = 100
	}
	return &Service{
		repo:    repo,
		outbox:  outbox,
		config:  config,
		logger:  log,
		metrics: m,
		now:     time.Now,
	}
}

// OnLifecycleEvent records one unread notification for the recipient.
func (s *Service) OnLifecycleEvent(ctx context.Context, event model.LifecycleEvent) (*model.Notification, error) {
	if event.RecipientUserID == uuid.Nil {
		return nil, apperrors.Validation("recipient is required", nil)
	}
	if strings.TrimSpace(event.Message) == "" {
		return nil, apperrors.Validation("message is required", nil)
	}

	n := &model.Notification{
		ID:              uuid.New(),
		RecipientUserID: event.RecipientUserID,
		EntityKind:      event.EntityKind,
		EntityID:        event.EntityID,
		Message:         event.Message,
		Read:            false,
		CreatedAt:       s.now(),
	}

	// The id is fixed before the first attempt so a retry after an ambiguous
	// failure cannot create a second row.
	err := worker.Retry(ctx, s.config.RetryAttempts, s.config.RetryDelay, func() error {
		err := s.repo.Create(ctx, n)
		if err != nil {
			if _, getErr := s.repo.Get(ctx, n.ID); getErr == nil {
				return nil
			}
		}
		return err
	})
	if err != nil {
		return nil, service.StoreError("notification", err)
	}
	s.metrics.NotificationsCreated.Inc()

	s.emit(ctx, n, event.RecipientEmail)
	return n, nil
}

// Dispatch is the fire-and-forget entry point used after a committed change.
// Failures are logged and counted, never returned to the caller.
func (s *Service) Dispatch(ctx context.Context, event model.LifecycleEvent) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.OnLifecycleEvent(ctx, event); err != nil {
		s.metrics.NotificationsFailed.Inc()
		s.logger.Error(err, "Failed to dispatch notification",
			"entity_kind", string(event.EntityKind),
			"entity_id", event.EntityID.String(),
			"recipient_id", event.RecipientUserID.String())
	}
}

func (s *Service) emit(ctx context.Context, n *model.Notification, email string) {
	if s.outbox == nil {
		return
	}

	payload, err := json.Marshal(model.NotificationEvent{
		NotificationID:  n.ID,
		RecipientUserID: n.RecipientUserID,
		RecipientEmail:  email,
		EntityKind:      n.EntityKind,
		EntityID:        n.EntityID,
		Message:         n.Message,
		CreatedAt:       n.CreatedAt,
	})
	if err != nil {
		s.logger.Error(err, "Failed to marshal notification event", "notification_id", n.ID.String())
		return
	}

	event := &model.OutboxEvent{
		EventType: model.EventNotificationCreated,
		Payload:   payload,
	}
	if err := s.outbox.Create(ctx, event); err != nil {
		s.metrics.DatabaseOperations.WithLabelValues("create_outbox_event", "error").Inc()
		s.logger.Error(err, "Failed to queue notification event", "notification_id", n.ID.String())
		return
	}
	s.metrics.DatabaseOperations.WithLabelValues("create_outbox_event", "success").Inc()
}

func (s *Service) UnreadCount(ctx context.Context, actor model.Actor, userID uuid.UUID) (int, error) {
	if err := canReadInbox(actor, userID); err != nil {
		return 0, err
	}
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, service.StoreError("notification", err)
	}
	return count, nil
}

// List returns one page of the user's notifications, newest first. The page
// size is capped at the configured list limit.
func (s *Service) List(ctx context.Context, actor model.Actor, userID uuid.UUID, page model.NotificationPage) ([]*model.Notification, error) {
	if err := canReadInbox(actor, userID); err != nil {
		return nil, err
	}
	if page.Limit < 0 {
		return nil, apperrors.Validation("limit must not be negative", nil)
	}
	if page.Limit == 0 || page.Limit > s.config.ListLimit {
		page.Limit = s.config.ListLimit
	}
	if page.Before != nil {
		cursor, err := s.repo.Get(ctx, *page.Before)
		if err != nil {
			return nil, service.StoreError("notification", err)
		}
		if cursor.RecipientUserID != userID {
			return nil, apperrors.Validation("before must name a notification in this inbox", nil)
		}
	}

	list, err := s.repo.ListByRecipient(ctx, userID, page.Before, page.Limit)
	if err != nil {
		return nil, service.StoreError("notification", err)
	}
	return list, nil
}

// MarkRead is idempotent. Only the recipient may mark a notification read.
func (s *Service) MarkRead(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("notification", err)
	}
	if n.RecipientUserID != actor.UserID {
		return nil, apperrors.Forbidden("notification belongs to another user")
	}
	if n.Read {
		return n, nil
	}

	if err := s.repo.MarkRead(ctx, id, s.now()); err != nil {
		return nil, service.StoreError("notification", err)
	}
	n, err = s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("notification", err)
	}
	return n, nil
}

func canReadInbox(actor model.Actor, userID uuid.UUID) error {
	if actor.UserID == userID || actor.IsPlatformAdmin() {
		return nil
	}
	return apperrors.Forbidden(fmt.Sprintf("cannot read notifications of user %s", userID))
}
