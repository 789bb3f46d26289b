package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/service"
	"github.com/jwalitptl/citizen-api/internal/service/location"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

// Notifier receives committed lifecycle events. It must not fail the caller.
type Notifier interface {
	Dispatch(ctx context.Context, event model.LifecycleEvent)
}

type Service struct {
	requests     repository.ServiceRequestRepository
	complaints   repository.ComplaintRepository
	appointments repository.AppointmentRepository
	serviceTypes repository.ServiceTypeRepository
	locations    *location.Service
	notifier     Notifier
	validate     *validator.Validate
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewService(
	requests repository.ServiceRequestRepository,
	complaints repository.ComplaintRepository,
	appointments repository.AppointmentRepository,
	serviceTypes repository.ServiceTypeRepository,
	locations *location.Service,
	notifier Notifier,
	log *logger.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		requests:     requests,
		complaints:   complaints,
		appointments: appointments,
		serviceTypes: serviceTypes,
		locations:    locations,
		notifier:     notifier,
		validate:     validator.New(),
		logger:       log,
		metrics:      m,
	}
}

func (s *Service) store(kind model.EntityKind) (repository.StatusStore, error) {
	switch kind {
	case model.KindServiceRequest:
		return s.requests, nil
	case model.KindComplaint:
		return s.complaints, nil
	case model.KindAppointment:
		return s.appointments, nil
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unknown entity kind %q", kind), nil)
	}
}

// Transition moves an entity along one edge. Checks run in a fixed order:
// authorization, then the edge table, then required remarks. Nothing is
// written and nobody is notified unless every check passes and the
// compare-and-set wins.
func (s *Service) Transition(ctx context.Context, actor model.Actor, kind model.EntityKind, id uuid.UUID, req model.TransitionRequest) (*model.Subject, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid transition request", err)
	}
	to := model.Status(strings.ToUpper(string(req.Status)))
	if !to.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown status %q", req.Status), nil)
	}

	store, err := s.store(kind)
	if err != nil {
		return nil, err
	}

	subject, err := store.GetSubject(ctx, id)
	if err != nil {
		return nil, service.StoreError(kind.Label(), err)
	}

	if !CanTransition(actor, *subject) {
		s.metrics.TransitionsTotal.WithLabelValues(string(kind), string(to), "forbidden").Inc()
		return nil, apperrors.Forbidden(fmt.Sprintf("not allowed to change the status of this %s", kind.Label()))
	}
	if !Allowed(kind, subject.Status, to) {
		s.metrics.TransitionsTotal.WithLabelValues(string(kind), string(to), "invalid").Inc()
		return nil, apperrors.InvalidTransition(string(subject.Status), string(to))
	}

	remarks := strings.TrimSpace(req.Remarks)
	if RequiresRemarks(to) && remarks == "" {
		s.metrics.TransitionsTotal.WithLabelValues(string(kind), string(to), "invalid").Inc()
		return nil, apperrors.Validation("remarks are required when rejecting", nil)
	}
	var remarksPtr *string
	if remarks != "" {
		remarksPtr = &remarks
	}

	from := subject.Status
	if err := store.CompareAndSetStatus(ctx, id, from, to, remarksPtr); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			// A concurrent transition won; report against what it left behind.
			current, getErr := store.GetSubject(ctx, id)
			if getErr == nil {
				from = current.Status
			}
			s.metrics.TransitionsTotal.WithLabelValues(string(kind), string(to), "stale").Inc()
			return nil, apperrors.InvalidTransition(string(from), string(to))
		}
		s.metrics.TransitionsTotal.WithLabelValues(string(kind), string(to), "error").Inc()
		return nil, service.StoreError(kind.Label(), err)
	}

	s.metrics.TransitionsTotal.WithLabelValues(string(kind), string(to), "success").Inc()
	s.logger.Info("Status changed",
		"entity_kind", string(kind),
		"entity_id", id.String(),
		"from", string(from),
		"to", string(to),
		"actor_id", actor.UserID.String())

	subject.Status = to
	s.notifier.Dispatch(ctx, model.LifecycleEvent{
		EntityKind:      kind,
		EntityID:        id,
		RecipientUserID: subject.CitizenID,
		RecipientEmail:  subject.CitizenEmail,
		Message:         transitionMessage(kind, to, remarks),
	})
	return subject, nil
}

func transitionMessage(kind model.EntityKind, to model.Status, remarks string) string {
	msg := fmt.Sprintf("Your %s is now %s", kind.Label(), strings.ReplaceAll(string(to), "_", " "))
	if remarks != "" {
		msg += ": " + remarks
	}
	return msg
}
