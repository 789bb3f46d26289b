package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/pkg/email"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/messaging"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	// RetryDelay is multiplied by the retry count to space out attempts.
	RetryDelay time.Duration
	Retention  time.Duration
	Channel    string
}

func (c OutboxProcessorConfig) validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("BatchSize must be greater than 0")
	case c.PollInterval <= 0:
		return fmt.Errorf("PollInterval must be greater than 0")
	case c.RetryAttempts <= 0:
		return fmt.Errorf("RetryAttempts must be greater than 0")
	case c.RetryDelay < 0:
		return fmt.Errorf("RetryDelay must not be negative")
	case c.Channel == "":
		return fmt.Errorf("Channel must be set")
	}
	return nil
}

// OutboxProcessor publishes committed notification events to the broker and
// mails a copy to the citizen when an address is known.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Broker
	mailer  email.Sender
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Broker,
	mailer email.Sender,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if mailer == nil {
		mailer = email.NoopSender{}
	}

	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		mailer:  mailer,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

// Start polls until ctx is cancelled.
func (p *OutboxProcessor) Start(ctx context.Context) error {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "channel", p.config.Channel, "batch_size", p.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return nil
		case <-ticker.C:
			if err := p.ProcessBatch(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessBatch claims one batch of pending events and records the outcome of each.
func (p *OutboxProcessor) ProcessBatch(ctx context.Context) error {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	err := p.repo.ClaimPending(ctx, p.config.BatchSize, func(events []*model.OutboxEvent) []repository.OutboxResult {
		results := make([]repository.OutboxResult, 0, len(events))
		for _, event := range events {
			if p.backingOff(event) {
				continue
			}
			results = append(results, p.processEvent(ctx, event))
		}
		return results
	})
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("claim_outbox_events", "error").Inc()
		return fmt.Errorf("failed to claim pending events: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("claim_outbox_events", "success").Inc()
	return nil
}

func (p *OutboxProcessor) backingOff(event *model.OutboxEvent) bool {
	if event.RetryCount == 0 || p.config.RetryDelay == 0 {
		return false
	}
	next := event.UpdatedAt.Add(time.Duration(event.RetryCount) * p.config.RetryDelay)
	return p.now().Before(next)
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) repository.OutboxResult {
	var payload model.NotificationEvent
	if event.EventType != model.EventNotificationCreated {
		return p.fail(event, fmt.Errorf("unknown event type %q", event.EventType), true)
	}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return p.fail(event, fmt.Errorf("malformed payload: %w", err), true)
	}

	msg := messaging.Message{
		ID:      event.ID.String(),
		Type:    event.EventType,
		Payload: event.Payload,
	}
	if err := p.broker.Publish(ctx, p.config.Channel, msg); err != nil {
		return p.fail(event, err, false)
	}

	// The in-app notification already exists; a lost e-mail copy is logged only.
	if payload.RecipientEmail != "" {
		if err := p.mailer.Send(ctx, payload.RecipientEmail, subjectFor(payload), payload.Message); err != nil {
			p.logger.Error(err, "Failed to send notification email",
				"event_id", event.ID.String(),
				"notification_id", payload.NotificationID.String())
		}
	}

	p.metrics.OutboxEventsProcessed.Inc()
	return repository.OutboxResult{ID: event.ID, Status: model.OutboxStatusProcessed}
}

// fail keeps the event pending until its attempts are spent. Permanent
// failures skip straight to FAILED.
func (p *OutboxProcessor) fail(event *model.OutboxEvent, err error, permanent bool) repository.OutboxResult {
	msg := err.Error()
	status := model.OutboxStatusPending
	if permanent || event.RetryCount+1 >= p.config.RetryAttempts {
		status = model.OutboxStatusFailed
		p.metrics.OutboxEventsFailed.Inc()
	}

	p.logger.Error(err, "Failed to process event",
		"event_id", event.ID.String(),
		"event_type", event.EventType,
		"retry_count", event.RetryCount,
		"status", string(status))

	return repository.OutboxResult{ID: event.ID, Status: status, Err: &msg}
}

// Cleanup removes processed events older than the retention window.
func (p *OutboxProcessor) Cleanup(ctx context.Context) (int64, error) {
	if p.config.Retention <= 0 {
		return 0, nil
	}
	deleted, err := p.repo.DeleteProcessedBefore(ctx, p.now().Add(-p.config.Retention))
	if err != nil {
		p.metrics.DatabaseOperations.WithLabelValues("cleanup_outbox_events", "error").Inc()
		return 0, fmt.Errorf("failed to clean up outbox: %w", err)
	}
	p.metrics.DatabaseOperations.WithLabelValues("cleanup_outbox_events", "success").Inc()
	if deleted > 0 {
		p.logger.Info("Cleaned up processed outbox events", "deleted", deleted)
	}
	return deleted, nil
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (p *OutboxProcessor) RunCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := p.Cleanup(ctx); err != nil {
				p.logger.Error(err, "Outbox cleanup failed")
			}
		}
	}
}

func subjectFor(e model.NotificationEvent) string {
	switch e.EntityKind {
	case model.KindAppointment:
		return "Appointment update"
	case model.KindComplaint:
		return "Complaint update"
	default:
		return "Service request update"
	}
}
