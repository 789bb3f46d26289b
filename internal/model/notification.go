package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app message created as a side effect of a lifecycle event.
type Notification struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	RecipientUserID uuid.UUID  `json:"recipient_user_id" db:"recipient_user_id"`
	EntityKind      EntityKind `json:"entity_kind" db:"entity_kind"`
	EntityID        uuid.UUID  `json:"entity_id" db:"entity_id"`
	Message         string     `json:"message" db:"message"`
	Read            bool       `json:"read" db:"read_status"`
	ReadAt          *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

// NotificationPage selects a window of an inbox. Before is the id of the last
// notification already seen; a zero Limit means the server default.
type NotificationPage struct {
	Before *uuid.UUID
	Limit  int
}

// LifecycleEvent is what the core hands to notification dispatch after a commit.
type LifecycleEvent struct {
	EntityKind      EntityKind
	EntityID        uuid.UUID
	RecipientUserID uuid.UUID
	RecipientEmail  string
	Message         string
}

// NotificationEvent is the outbox payload published for push and e-mail delivery.
type NotificationEvent struct {
	NotificationID  uuid.UUID  `json:"notification_id"`
	RecipientUserID uuid.UUID  `json:"recipient_user_id"`
	RecipientEmail  string     `json:"recipient_email,omitempty"`
	EntityKind      EntityKind `json:"entity_kind"`
	EntityID        uuid.UUID  `json:"entity_id"`
	Message         string     `json:"message"`
	CreatedAt       time.Time  `json:"created_at"`
}

const EventNotificationCreated = "notification.created"
