package repository

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

var attendanceColumns = []string{"id", "student_id", "class_id", "date", "status", "notes", "marked_by", "created_at", "updated_at"}

// AttendanceRepository persists daily attendance.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance inside scope, newest first.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter, scope authz.Scope) ([]models.Attendance, int, error) {
	where := sq.And{}
	if pred := scopePredicate(scope, ""); pred != nil {
		where = append(where, pred)
	}
	if filter.ClassID != "" {
		where = append(where, sq.Eq{"class_id": filter.ClassID})
	}
	if filter.StudentID != "" {
		where = append(where, sq.Eq{"student_id": filter.StudentID})
	}
	if filter.DateFrom != nil {
		where = append(where, sq.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		where = append(where, sq.LtOrEq{"date": *filter.DateTo})
	}

	query := psql.Select(attendanceColumns...).From("attendance").OrderBy("date DESC", "student_id ASC")
	count := psql.Select("COUNT(*)").From("attendance")
	if len(where) > 0 {
		query = query.Where(where)
		count = count.Where(where)
	}

	sqlStr, args, err := paginate(query, filter.PageRequest).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build attendance list query: %w", err)
	}
	var items []models.Attendance
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, sqlStr, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build attendance count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return items, total, nil
}

// Upsert writes the attendance of a student for a day, replacing an existing mark.
func (r *AttendanceRepository) Upsert(ctx context.Context, a *models.Attendance) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.UpdatedAt = now
	const query = `INSERT INTO attendance (id, student_id, class_id, date, status, notes, marked_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
ON CONFLICT (student_id, date) DO UPDATE
SET class_id = EXCLUDED.class_id, status = EXCLUDED.status, notes = EXCLUDED.notes,
    marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	row := executor(ctx, r.db).QueryRowxContext(ctx, query, a.ID, a.StudentID, a.ClassID, a.Date, a.Status, a.Notes, a.MarkedBy, now)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("upsert attendance: %w", err)
	}
	return nil
}
