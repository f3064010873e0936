package models

import (
	"time"

	"github.com/lib/pq"
)

// EventStatus tracks the lifecycle of a school event.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "SCHEDULED"
	EventStatusCompleted EventStatus = "COMPLETED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusCompleted, EventStatusCancelled:
		return true
	}
	return false
}

// Event is a calendar entry optionally targeted at roles or a class.
type Event struct {
	ID          string         `db:"id" json:"id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	Location    *string        `db:"location" json:"location,omitempty"`
	StartTime   time.Time      `db:"start_time" json:"start_time"`
	EndTime     time.Time      `db:"end_time" json:"end_time"`
	Status      EventStatus    `db:"status" json:"status"`
	TargetRoles pq.StringArray `db:"target_roles" json:"target_roles"`
	ClassID     *string        `db:"class_id" json:"class_id,omitempty"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows event listings.
type EventFilter struct {
	PageRequest
	Status *EventStatus
	From   *time.Time
	To     *time.Time
}

// EventRequest is the payload for creating or updating an event.
type EventRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Location    *string    `json:"location"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time" validate:"required"`
	TargetRoles []UserRole `json:"target_roles" validate:"dive,oneof=SUPER_ADMIN ADMIN TEACHER PARENT STUDENT"`
	ClassID     *string    `json:"class_id"`
}
