package models

import "time"

// Class represents a homeroom group. SupervisorID is the homeroom teacher.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Grade        string    `db:"grade" json:"grade"`
	SupervisorID *string   `db:"supervisor_id" json:"supervisor_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
