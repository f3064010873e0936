package models

import "time"

// Assignment is homework published by a teacher for a class.
type Assignment struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ClassID     string    `db:"class_id" json:"class_id"`
	DueDate     time.Time `db:"due_date" json:"due_date"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	PageRequest
	ClassID string
}

// CreateAssignmentRequest is the payload for publishing an assignment.
type CreateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	ClassID     string    `json:"class_id" validate:"required"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

// UpdateAssignmentRequest is the payload for editing an assignment.
type UpdateAssignmentRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}
