package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
)

// Sentinel errors for store-level facts. Services translate them into
// application errors; anything else coming out of a store is an outage.
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict means a slot booking lost against an overlapping live appointment.
	ErrConflict = errors.New("conflict")
	// ErrStaleStatus means a compare-and-set saw a status other than the expected one.
	ErrStaleStatus = errors.New("stale status")
)

// All repository interfaces in one file
type (
	LocationRepository interface {
		CreateLocation(ctx context.Context, node *model.LocationNode) error
		GetLocation(ctx context.Context, id uuid.UUID) (*model.LocationNode, error)
		// ListChildren returns children of parentID in name order. A nil parent lists provinces.
		ListChildren(ctx context.Context, parentID *uuid.UUID) ([]*model.LocationNode, error)
	}

	OfficerRepository interface {
		Create(ctx context.Context, officer *model.Officer) error
		Get(ctx context.Context, id uuid.UUID) (*model.Officer, error)
		// ListActiveByDivision returns active officers in insertion order.
		ListActiveByDivision(ctx context.Context, divisionID uuid.UUID) ([]*model.Officer, error)
		// List returns every officer, active or not, in insertion order.
		List(ctx context.Context) ([]*model.Officer, error)
		CountActive(ctx context.Context) (int, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	ServiceTypeRepository interface {
		Create(ctx context.Context, st *model.ServiceType) error
		Get(ctx context.Context, id uuid.UUID) (*model.ServiceType, error)
		List(ctx context.Context) ([]*model.ServiceType, error)
		Update(ctx context.Context, st *model.ServiceType) error
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	// StatusStore is the lifecycle's view of one entity kind.
	StatusStore interface {
		GetSubject(ctx context.Context, id uuid.UUID) (*model.Subject, error)
		// CompareAndSetStatus moves id from `from` to `to` only if it is still in `from`.
		// It returns ErrStaleStatus when the row exists in another status.
		CompareAndSetStatus(ctx context.Context, id uuid.UUID, from, to model.Status, remarks *string) error
	}

	AppointmentRepository interface {
		StatusStore
		// Book inserts the appointment unless a live appointment for the same officer
		// and date overlaps it. The check and the insert are one atomic step.
		Book(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListLive(ctx context.Context, officerID uuid.UUID, date string) ([]*model.Appointment, error)
		List(ctx context.Context, filter model.RequestFilter) ([]*model.Appointment, error)
	}

	ServiceRequestRepository interface {
		StatusStore
		Create(ctx context.Context, req *model.ServiceRequest) error
		Get(ctx context.Context, id uuid.UUID) (*model.ServiceRequest, error)
		List(ctx context.Context, filter model.RequestFilter) ([]*model.ServiceRequest, error)
		CountByStatus(ctx context.Context, filter model.RequestFilter) (model.StatusCounts, error)
		// DeleteIfPending removes the request only while it is PENDING.
		DeleteIfPending(ctx context.Context, id uuid.UUID) error
	}

	ComplaintRepository interface {
		StatusStore
		Create(ctx context.Context, complaint *model.Complaint) error
		Get(ctx context.Context, id uuid.UUID) (*model.Complaint, error)
		List(ctx context.Context, filter model.RequestFilter) ([]*model.Complaint, error)
		// CountByStatus ignores DivisionID.
		CountByStatus(ctx context.Context, filter model.RequestFilter) (model.StatusCounts, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		// ListByRecipient returns newest first. A non-nil before starts the page
		// just after that notification in the same order.
		ListByRecipient(ctx context.Context, userID uuid.UUID, before *uuid.UUID, limit int) ([]*model.Notification, error)
		CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// ClaimPending hands up to limit pending events to fn inside one unit of work;
		// the statuses fn records are committed together.
		ClaimPending(ctx context.Context, limit int, fn func(events []*model.OutboxEvent) []OutboxResult) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

// OutboxResult is the outcome the processor records for one claimed event.
type OutboxResult struct {
	ID     uuid.UUID
	Status model.OutboxStatus
	Err    *string
}
