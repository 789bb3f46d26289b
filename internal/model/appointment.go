package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Appointment types a citizen can book.
const (
	AppointmentTypeGeneral       = "GENERAL"
	AppointmentTypeCertificate   = "CERTIFICATE"
	AppointmentTypeDocumentCheck = "DOCUMENT_VERIFICATION"
	AppointmentTypeComplaint     = "COMPLAINT"
	AppointmentTypeOther         = "OTHER"
)

// Appointment is a booked slot with an officer. Date is a calendar day and the
// times are wall-clock "HH:MM" values on the officer's daily grid.
type Appointment struct {
	ID              uuid.UUID `json:"id" db:"id"`
	CitizenID       uuid.UUID `json:"citizen_id" db:"citizen_id"`
	CitizenEmail    string    `json:"-" db:"citizen_email"`
	OfficerID       uuid.UUID `json:"officer_id" db:"officer_id"`
	DivisionID      uuid.UUID `json:"division_id" db:"division_id"`
	Date            string    `json:"date" db:"appointment_date"`
	StartTime       string    `json:"start_time" db:"start_time"`
	EndTime         string    `json:"end_time" db:"end_time"`
	AppointmentType string    `json:"appointment_type" db:"appointment_type"`
	Reason          string    `json:"reason" db:"reason"`
	Status          Status    `json:"status" db:"status"`
	StatusRemarks   *string   `json:"status_remarks,omitempty" db:"status_remarks"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Overlaps reports whether the two half-open [start, end) intervals on the same day intersect.
func (a *Appointment) Overlaps(start, end string) bool {
	return a.StartTime < end && start < a.EndTime
}

func (a *Appointment) Subject() Subject {
	division := a.DivisionID
	return Subject{
		Kind:         KindAppointment,
		ID:           a.ID,
		CitizenID:    a.CitizenID,
		CitizenEmail: a.CitizenEmail,
		DivisionID:   &division,
		Status:       a.Status,
	}
}

// BookAppointmentRequest carries the citizen's cascade selection and slot choice.
// Location ids are optional at the binding layer so an unresolved link is reported
// as an incomplete selection rather than a malformed body.
type BookAppointmentRequest struct {
	ProvinceID      *uuid.UUID `json:"province_id"`
	DistrictID      *uuid.UUID `json:"district_id"`
	DivisionID      *uuid.UUID `json:"division_id"`
	OfficerID       *uuid.UUID `json:"officer_id"`
	Date            string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime       string     `json:"start_time" validate:"required,datetime=15:04"`
	AppointmentType string     `json:"appointment_type" validate:"required,oneof=GENERAL CERTIFICATE DOCUMENT_VERIFICATION COMPLAINT OTHER"`
	Reason          string     `json:"reason" validate:"required,max=1000"`
}

// SlotAvailability is the read model behind the booking form.
type SlotAvailability struct {
	OfficerID uuid.UUID `json:"officer_id"`
	Date      string    `json:"date"`
	Busy      []string  `json:"busy"`
	Available []string  `json:"available"`
}
