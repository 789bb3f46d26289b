package slot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/citizen-api/internal/model"
	"github.com/jwalitptl/citizen-api/internal/repository"
	"github.com/jwalitptl/citizen-api/internal/service"
	apperrors "github.com/jwalitptl/citizen-api/pkg/errors"
	"github.com/jwalitptl/citizen-api/pkg/logger"
	"github.com/jwalitptl/citizen-api/pkg/metrics"
)

// Allocator computes free and busy slots for an officer and books them.
type Allocator struct {
	appointments repository.AppointmentRepository
	officers     repository.OfficerRepository
	grid         *Grid
	logger       *logger.Logger
	metrics      *metrics.Metrics
}

func NewAllocator(
	appointments repository.AppointmentRepository,
	officers repository.OfficerRepository,
	grid *Grid,
	log *logger.Logger,
	m *metrics.Metrics,
) *Allocator {
	return &Allocator{
		appointments: appointments,
		officers:     officers,
		grid:         grid,
		logger:       log,
		metrics:      m,
	}
}

func (a *Allocator) Grid() *Grid {
	return a.grid
}

// BusySlots returns the grid starts whose interval overlaps a live appointment
// of the officer on date. The result is always a subset of the grid.
func (a *Allocator) BusySlots(ctx context.Context, officerID uuid.UUID, date string) ([]string, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if _, err := a.officers.Get(ctx, officerID); err != nil {
		return nil, service.StoreError("officer", err)
	}

	live, err := a.appointments.ListLive(ctx, officerID, date)
	if err != nil {
		return nil, service.StoreError("appointment", err)
	}

	busy := make([]string, 0, len(live))
	for _, start := range a.grid.starts {
		end, _ := a.grid.EndOf(start)
		for _, apt := range live {
			if apt.Overlaps(start, end) {
				busy = append(busy, start)
				break
			}
		}
	}
	return busy, nil
}

// Availability splits the grid into busy and available starts.
func (a *Allocator) Availability(ctx context.Context, officerID uuid.UUID, date string) (*model.SlotAvailability, error) {
	busy, err := a.BusySlots(ctx, officerID, date)
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(busy))
	for _, b := range busy {
		taken[b] = struct{}{}
	}
	available := make([]string, 0, len(a.grid.starts)-len(busy))
	for _, start := range a.grid.starts {
		if _, ok := taken[start]; !ok {
			available = append(available, start)
		}
	}

	return &model.SlotAvailability{
		OfficerID: officerID,
		Date:      date,
		Busy:      busy,
		Available: available,
	}, nil
}

// Book derives the end time and hands the appointment to the store, which
// re-checks overlap atomically at commit. Losing a race yields SLOT_CONFLICT.
func (a *Allocator) Book(ctx context.Context, apt *model.Appointment) error {
	timer := prometheus.NewTimer(a.metrics.BookingLatency)
	defer timer.ObserveDuration()

	if err := validateDate(apt.Date); err != nil {
		return err
	}
	if !a.grid.Contains(apt.StartTime) {
		return apperrors.Validation(fmt.Sprintf("start time %s is not on the daily slot grid", apt.StartTime), nil)
	}
	end, err := a.grid.EndOf(apt.StartTime)
	if err != nil {
		return apperrors.Validation("invalid start time", err)
	}
	apt.EndTime = end

	if err := a.appointments.Book(ctx, apt); err != nil {
		appErr := service.StoreError("appointment", err)
		if apperrors.Is(appErr, apperrors.KindConflict) {
			a.metrics.BookingsTotal.WithLabelValues("conflict").Inc()
			a.logger.Info("Slot already booked",
				"officer_id", apt.OfficerID.String(),
				"date", apt.Date,
				"start_time", apt.StartTime)
		} else {
			a.metrics.BookingsTotal.WithLabelValues("error").Inc()
		}
		return appErr
	}

	a.metrics.BookingsTotal.WithLabelValues("success").Inc()
	return nil
}

func validateDate(date string) error {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return apperrors.Validation(fmt.Sprintf("date %q must be formatted YYYY-MM-DD", date), err)
	}
	return nil
}
