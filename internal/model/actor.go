package model

import (
	"github.com/google/uuid"
)

// Role constants
const (
	RoleCitizen = "CITIZEN"
	RoleOfficer = "OFFICER"
	RoleAdmin   = "ADMIN"
)

// Actor is the authenticated caller. It is passed explicitly into every core call.
type Actor struct {
	UserID     uuid.UUID  `json:"user_id"`
	Role       string     `json:"role"`
	DivisionID *uuid.UUID `json:"division_id,omitempty"`
	Email      string     `json:"email,omitempty"`
}

func (a Actor) IsCitizen() bool { return a.Role == RoleCitizen }

func (a Actor) IsOfficer() bool { return a.Role == RoleOfficer }

// IsPlatformAdmin reports an unscoped administrator.
func (a Actor) IsPlatformAdmin() bool { return a.Role == RoleAdmin }

// ServesDivision reports whether a division-scoped staff actor is bound to divisionID.
func (a Actor) ServesDivision(divisionID uuid.UUID) bool {
	return a.IsOfficer() && a.DivisionID != nil && *a.DivisionID == divisionID
}

func ValidRole(role string) bool {
	switch role {
	case RoleCitizen, RoleOfficer, RoleAdmin:
		return true
	}
	return false
}
