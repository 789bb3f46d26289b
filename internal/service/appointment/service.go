package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/service/lifecycle"
	"github.com/jwalitptl/citizen-api/internal/service/location"
	"github.com/jwalitptl/citizen-api/internal/service/slot"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/logger"
)

type Config struct {
	MaxAdvanceDays int
	Location       *time.Location
}

// Service books appointments: it resolves the location chain to an officer,
// books the slot and notifies the officer. Nothing is written unless every
// step succeeds.
type Service struct {
	locations *location.Service
	slots     *slot.Allocator
	notifier  lifecycle.Notifier
	validate  *validator.Validate
	config    Config
	logger    *logger.Logger
	now       func() time.Time
}

func NewService(locations *location.Service, slots *slot.Allocator, notifier lifecycle.Notifier, config Config, log *logger.Logger) *Service {
	if config.Location == nil {
		config.Location = time.UTC
	}
	return &Service{
		locations: locations,
		slots:     slots,
		notifier:  notifier,
		validate:  validator.New(),
		config:    config,
		logger:    log,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used for the booking window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Book(ctx context.Context, actor model.Actor, req model.BookAppointmentRequest) (*model.Appointment, error) {
	if !actor.IsCitizen() {
		return nil, apperrors.Forbidden("only citizens can book appointments")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.Validation("invalid appointment request", err)
	}
	if err := s.checkWindow(req.Date); err != nil {
		return nil, err
	}

	division, err := s.locations.ResolveDivision(ctx, req.ProvinceID, req.DistrictID, req.DivisionID)
	if err != nil {
		return nil, err
	}
	officer, err := s.locations.ResolveOfficer(ctx, division.ID, req.OfficerID)
	if err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		ID:              uuid.New(),
		CitizenID:       actor.UserID,
		CitizenEmail:    actor.Email,
		OfficerID:       officer.ID,
		DivisionID:      division.ID,
		Date:            req.Date,
		StartTime:       req.StartTime,
		AppointmentType: req.AppointmentType,
		Reason:          req.Reason,
		Status:          model.StatusPending,
	}
	if err := s.slots.Book(ctx, apt); err != nil {
		return nil, err
	}

	s.logger.Info("Appointment booked",
		"appointment_id", apt.ID.String(),
		"officer_id", officer.ID.String(),
		"date", apt.Date,
		"start_time", apt.StartTime)

	s.notifier.Dispatch(ctx, model.LifecycleEvent{
		EntityKind:      model.KindAppointment,
		EntityID:        apt.ID,
		RecipientUserID: officer.ID,
		Message:         fmt.Sprintf("New %s appointment on %s at %s", apt.AppointmentType, apt.Date, apt.StartTime),
	})
	return apt, nil
}

// BusySlots and Availability expose the allocator's read side.
func (s *Service) BusySlots(ctx context.Context, officerID uuid.UUID, date string) ([]string, error) {
	return s.slots.BusySlots(ctx, officerID, date)
}

func (s *Service) Availability(ctx context.Context, officerID uuid.UUID, date string) (*model.SlotAvailability, error) {
	return s.slots.Availability(ctx, officerID, date)
}

// checkWindow rejects past dates and dates beyond the advance-booking horizon,
// both measured in the scheduling time zone.
func (s *Service) checkWindow(date string) error {
	day, err := time.ParseInLocation(model.DateLayout, date, s.config.Location)
	if err != nil {
		return apperrors.Validation("date must be formatted YYYY-MM-DD", err)
	}

	now := s.now().In(s.config.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.config.Location)
	if day.Before(today) {
		return apperrors.Validation("appointments cannot be booked in the past", nil)
	}
	if s.config.MaxAdvanceDays > 0 && day.After(today.AddDate(0, 0, s.config.MaxAdvanceDays)) {
		return apperrors.Validation(fmt.Sprintf("appointments can be booked at most %d days ahead", s.config.MaxAdvanceDays), nil)
	}
	return nil
}
