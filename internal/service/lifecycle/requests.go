package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/service"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
)

// CreateServiceRequest files a new request in PENDING. The division defaults
// to the citizen's own.
func (s *Service) CreateServiceRequest(ctx context.Context, actor model.Actor, req model.CreateServiceRequest) (*model.ServiceRequest, error) {
	if !actor.IsCitizen() {
		return nil, apperrors.Forbidden("only citizens can submit service requests")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid service request", err)
	}

	divisionID := req.DivisionID
	if divisionID == nil {
		divisionID = actor.DivisionID
	}
	if divisionID == nil {
		return nil, apperrors.Validation("division is required", nil)
	}
	if _, err := s.locations.Division(ctx, *divisionID); err != nil {
		return nil, err
	}
	st, err := s.serviceTypes.Get(ctx, req.ServiceTypeID)
	if err != nil {
		return nil, service.StoreError("service type", err)
	}
	if !st.Active {
		return nil, apperrors.Validation(fmt.Sprintf("service type %q is no longer offered", st.Name), nil)
	}

	sr := &model.ServiceRequest{
		ID:            uuid.New(),
		CitizenID:     actor.UserID,
		CitizenEmail:  actor.Email,
		DivisionID:    *divisionID,
		ServiceTypeID: req.ServiceTypeID,
		Remarks:       req.Remarks,
		DocumentRef:   req.DocumentRef,
		Status:        model.StatusPending,
	}
	if err := s.requests.Create(ctx, sr); err != nil {
		return nil, service.StoreError("service request", err)
	}

	s.logger.Info("Service request created",
		"request_id", sr.ID.String(),
		"citizen_id", actor.UserID.String(),
		"division_id", sr.DivisionID.String())
	return sr, nil
}

func (s *Service) CreateComplaint(ctx context.Context, actor model.Actor, req model.CreateComplaintRequest) (*model.Complaint, error) {
	if !actor.IsCitizen() {
		return nil, apperrors.Forbidden("only citizens can file complaints")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid complaint", err)
	}

	c := &model.Complaint{
		ID:           uuid.New(),
		CitizenID:    actor.UserID,
		CitizenEmail: actor.Email,
		Title:        req.Title,
		Description:  req.Description,
		Status:       model.StatusPending,
	}
	if err := s.complaints.Create(ctx, c); err != nil {
		return nil, service.StoreError("complaint", err)
	}
	return c, nil
}

// DeleteServiceRequest lets the owning citizen withdraw a request while it is
// still PENDING. Nobody else may delete, and nothing is notified.
func (s *Service) DeleteServiceRequest(ctx context.Context, actor model.Actor, id uuid.UUID) error {
	sr, err := s.requests.Get(ctx, id)
	if err != nil {
		return service.StoreError("service request", err)
	}
	if !actor.IsCitizen() || sr.CitizenID != actor.UserID {
		return apperrors.Forbidden("only the owning citizen can delete a service request")
	}
	if sr.Status != model.StatusPending {
		return apperrors.InvalidTransition(string(sr.Status), "DELETED")
	}

	if err := s.requests.DeleteIfPending(ctx, id); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperrors.InvalidTransition("non-PENDING", "DELETED")
		}
		return service.StoreError("service request", err)
	}
	return nil
}

func (s *Service) GetServiceRequest(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ServiceRequest, error) {
	sr, err := s.requests.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("service request", err)
	}
	if !CanRead(actor, sr.Subject()) {
		return nil, apperrors.Forbidden("not allowed to view this service request")
	}
	return sr, nil
}

func (s *Service) GetComplaint(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Complaint, error) {
	c, err := s.complaints.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("complaint", err)
	}
	if !CanRead(actor, c.Subject()) {
		return nil, apperrors.Forbidden("not allowed to view this complaint")
	}
	return c, nil
}

func (s *Service) GetAppointment(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("appointment", err)
	}
	if !CanRead(actor, apt.Subject()) {
		return nil, apperrors.Forbidden("not allowed to view this appointment")
	}
	return apt, nil
}

// scope builds the listing filter for actor. Citizens only ever see their own
// records; officers see their division; admins see everything unless they
// ask for their own.
func scope(actor model.Actor, kind model.EntityKind, mine bool, status model.Status) (model.RequestFilter, error) {
	filter := model.RequestFilter{Status: status}
	if status != "" && !status.Valid() {
		return filter, apperrors.Validation("unknown status filter", nil)
	}

	switch {
	case actor.IsCitizen():
		filter.CitizenID = &actor.UserID
	case actor.IsOfficer():
		if kind == model.KindComplaint {
			return filter, apperrors.Forbidden("complaints are handled by administrators")
		}
		if actor.DivisionID == nil {
			return filter, apperrors.Forbidden("officer is not assigned to a division")
		}
		filter.DivisionID = actor.DivisionID
	case actor.IsPlatformAdmin():
		if mine {
			filter.CitizenID = &actor.UserID
		}
	default:
		return filter, apperrors.Forbidden("unknown role")
	}
	return filter, nil
}

func (s *Service) ListServiceRequests(ctx context.Context, actor model.Actor, mine bool, status model.Status) ([]*model.ServiceRequest, error) {
	filter, err := scope(actor, model.KindServiceRequest, mine, status)
	if err != nil {
		return nil, err
	}
	list, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, service.StoreError("service request", err)
	}
	return list, nil
}

func (s *Service) ListComplaints(ctx context.Context, actor model.Actor, mine bool, status model.Status) ([]*model.Complaint, error) {
	filter, err := scope(actor, model.KindComplaint, mine, status)
	if err != nil {
		return nil, err
	}
	list, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, service.StoreError("complaint", err)
	}
	return list, nil
}

func (s *Service) ListAppointments(ctx context.Context, actor model.Actor, mine bool, status model.Status) ([]*model.Appointment, error) {
	filter, err := scope(actor, model.KindAppointment, mine, status)
	if err != nil {
		return nil, err
	}
	list, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, service.StoreError("appointment", err)
	}
	return list, nil
}

// Stats tallies the actor's dashboard. Service requests and complaints are
// counted within the actor's read scope; officers cannot see complaints.
func (s *Service) Stats(ctx context.Context, actor model.Actor) (*model.DashboardStats, error) {
	filter, err := scope(actor, model.KindServiceRequest, false, "")
	if err != nil {
		return nil, err
	}
	counts, err := s.requests.CountByStatus(ctx, filter)
	if err != nil {
		return nil, service.StoreError("service request", err)
	}
	stats := &model.DashboardStats{StatusSummary: model.Summarize(counts)}

	if actor.IsOfficer() {
		return stats, nil
	}
	filter, err = scope(actor, model.KindComplaint, false, "")
	if err != nil {
		return nil, err
	}
	complaints, err := s.complaints.CountByStatus(ctx, filter)
	if err != nil {
		return nil, service.StoreError("complaint", err)
	}
	summary := model.Summarize(complaints)
	stats.Complaints = &summary

	if actor.IsPlatformAdmin() {
		active, err := s.locations.ActiveOfficerCount(ctx)
		if err != nil {
			return nil, err
		}
		stats.ActiveOfficers = &active
	}
	return stats, nil
}
