package model

import (
	"time"

	"github.com/google/uuid"
)

// LocationLevel is the depth of a node in the administrative hierarchy.
type LocationLevel string

const (
	LevelProvince LocationLevel = "PROVINCE"
	LevelDistrict LocationLevel = "DISTRICT"
	LevelDivision LocationLevel = "DIVISION"
)

// ChildLevel returns the level directly beneath l, or "" for a division.
func (l LocationLevel) ChildLevel() LocationLevel {
	switch l {
	case LevelProvince:
		return LevelDistrict
	case LevelDistrict:
		return LevelDivision
	default:
		return ""
	}
}

// LocationNode is a province, district or division.
type LocationNode struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	Name      string        `json:"name" db:"name"`
	Level     LocationLevel `json:"level" db:"level"`
	ParentID  *uuid.UUID    `json:"parent_id,omitempty" db:"parent_id"`
	CreatedAt time.Time     `json:"-" db:"created_at"`
}

// Officer is a village-level officer responsible for a division.
type Officer struct {
	ID         uuid.UUID `json:"id" db:"id"`
	FullName   string    `json:"full_name" db:"full_name"`
	DivisionID uuid.UUID `json:"division_id" db:"division_id"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ServiceType is an entry in the service catalogue a citizen can request.
type ServiceType struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	// Active types are offered to citizens; inactive ones stay for history.
	Active      bool      `json:"active" db:"active"`
}

// ServiceTypeInput creates or replaces a catalogue entry. A nil Active keeps
// the current flag on update and defaults to true on create.
type ServiceTypeInput struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	Active      *bool  `json:"active"`
}
