package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/service"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
)

// ServiceTypes lists the catalogue in name order. Administrators also see
// types that are no longer offered.
func (s *Service) ServiceTypes(ctx context.Context, actor model.Actor) ([]*model.ServiceType, error) {
	types, err := s.serviceTypes.List(ctx)
	if err != nil {
		return nil, service.StoreError("service type", err)
	}
	if actor.IsPlatformAdmin() {
		return types, nil
	}

	offered := make([]*model.ServiceType, 0, len(types))
	for _, st := range types {
		if st.Active {
			offered = append(offered, st)
		}
	}
	return offered, nil
}

func (s *Service) CreateServiceType(ctx context.Context, actor model.Actor, input model.ServiceTypeInput) (*model.ServiceType, error) {
	if !actor.IsPlatformAdmin() {
		return nil, apperrors.Forbidden("only administrators can manage the service catalogue")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.Validation("invalid service type", err)
	}

	st := &model.ServiceType{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Active:      input.Active == nil || *input.Active,
	}
	if err := s.serviceTypes.Create(ctx, st); err != nil {
		return nil, service.StoreError("service type", err)
	}

	s.logger.Info("Service type created",
		"service_type_id", st.ID.String(),
		"name", st.Name,
		"actor_id", actor.UserID.String())
	return st, nil
}

// UpdateServiceType replaces name and description. Active is only changed
// when the input sets it.
func (s *Service) UpdateServiceType(ctx context.Context, actor model.Actor, id uuid.UUID, input model.ServiceTypeInput) (*model.ServiceType, error) {
	if !actor.IsPlatformAdmin() {
		return nil, apperrors.Forbidden("only administrators can manage the service catalogue")
	}
	if err := s.validate.Struct(input); err != nil {
		return nil, apperrors.Validation("invalid service type", err)
	}

	st, err := s.serviceTypes.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("service type", err)
	}
	st.Name = input.Name
	st.Description = input.Description
	if input.Active != nil {
		st.Active = *input.Active
	}
	if err := s.serviceTypes.Update(ctx, st); err != nil {
		return nil, service.StoreError("service type", err)
	}
	return st, nil
}

// DeactivateServiceType withdraws a type from the catalogue. Requests already
// filed against it are untouched.
func (s *Service) DeactivateServiceType(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.ServiceType, error) {
	if !actor.IsPlatformAdmin() {
		return nil, apperrors.Forbidden("only administrators can manage the service catalogue")
	}
	if err := s.serviceTypes.SetActive(ctx, id, false); err != nil {
		return nil, service.StoreError("service type", err)
	}
	st, err := s.serviceTypes.Get(ctx, id)
	if err != nil {
		return nil, service.StoreError("service type", err)
	}

	s.logger.Info("Service type deactivated",
		"service_type_id", id.String(),
		"actor_id", actor.UserID.String())
	return st, nil
}
