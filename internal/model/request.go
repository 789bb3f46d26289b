package model

import (
	"time"

	"github.com/google/uuid"
)

// ServiceRequest is a citizen's request for a catalogued service.
type ServiceRequest struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CitizenID     uuid.UUID `json:"citizen_id" db:"citizen_id"`
	CitizenEmail  string    `json:"-" db:"citizen_email"`
	DivisionID    uuid.UUID `json:"division_id" db:"division_id"`
	ServiceTypeID uuid.UUID `json:"service_type_id" db:"service_type_id"`
	Remarks       string    `json:"remarks" db:"remarks"`
	DocumentRef   string    `json:"document_ref,omitempty" db:"document_ref"`
	Status        Status    `json:"status" db:"status"`
	StatusRemarks *string   `json:"status_remarks,omitempty" db:"status_remarks"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (r *ServiceRequest) Subject() Subject {
	division := r.DivisionID
	return Subject{
		Kind:         KindServiceRequest,
		ID:           r.ID,
		CitizenID:    r.CitizenID,
		CitizenEmail: r.CitizenEmail,
		DivisionID:   &division,
		Status:       r.Status,
	}
}

// Complaint is a free-form grievance handled by administrators.
type Complaint struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CitizenID     uuid.UUID `json:"citizen_id" db:"citizen_id"`
	CitizenEmail  string    `json:"-" db:"citizen_email"`
	Title         string    `json:"title" db:"title"`
	Description   string    `json:"description" db:"description"`
	Status        Status    `json:"status" db:"status"`
	StatusRemarks *string   `json:"status_remarks,omitempty" db:"status_remarks"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

func (c *Complaint) Subject() Subject {
	return Subject{
		Kind:         KindComplaint,
		ID:           c.ID,
		CitizenID:    c.CitizenID,
		CitizenEmail: c.CitizenEmail,
		Status:       c.Status,
	}
}

// Subject is the lifecycle view of any workflow entity. DivisionID is nil for
// entities that are not division-scoped.
type Subject struct {
	Kind         EntityKind `json:"kind"`
	ID           uuid.UUID  `json:"id"`
	CitizenID    uuid.UUID  `json:"citizen_id"`
	CitizenEmail string     `json:"-"`
	DivisionID   *uuid.UUID `json:"division_id,omitempty"`
	Status       Status     `json:"status"`
}

// CreateServiceRequest is the citizen's submission. DivisionID defaults to the
// citizen's own division when omitted.
type CreateServiceRequest struct {
	ServiceTypeID uuid.UUID  `json:"service_type_id" validate:"required"`
	DivisionID    *uuid.UUID `json:"division_id"`
	Remarks       string     `json:"remarks" validate:"max=2000"`
	DocumentRef   string     `json:"document_ref" validate:"max=512"`
}

type CreateComplaintRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=4000"`
}

// TransitionRequest asks for a status change. Remarks are mandatory for rejection.
type TransitionRequest struct {
	Status  Status `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

// RequestFilter scopes a listing. Nil fields are unconstrained.
type RequestFilter struct {
	CitizenID  *uuid.UUID
	DivisionID *uuid.UUID
	Status     Status
}
