package models

import "time"

// Grade is a recorded score for a student in a subject.
type Grade struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Subject   string    `db:"subject" json:"subject"`
	Score     float64   `db:"score" json:"score"`
	CreatedBy string    `db:"created_by" json:"created_by"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter narrows grade listings.
type GradeFilter struct {
	PageRequest
	ClassID   string
	StudentID string
	Subject   string
}

// RecordGradeRequest is the payload for recording a grade.
type RecordGradeRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	Subject   string  `json:"subject" validate:"required,max=100"`
	Score     float64 `json:"score" validate:"gte=0,lte=100"`
}
