package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

var assignmentColumns = []string{"id", "title", "description", "class_id", "due_date", "created_by", "created_at", "updated_at"}

// AssignmentRepository persists assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// List returns assignments inside scope, soonest due first.
func (r *AssignmentRepository) List(ctx context.Context, filter models.AssignmentFilter, scope authz.Scope) ([]models.Assignment, int, error) {
	where := sq.And{}
	if pred := scopePredicate(scope, ""); pred != nil {
		where = append(where, pred)
	}
	if filter.ClassID != "" {
		where = append(where, sq.Eq{"class_id": filter.ClassID})
	}

	query := psql.Select(assignmentColumns...).From("assignments").OrderBy("due_date ASC")
	count := psql.Select("COUNT(*)").From("assignments")
	if len(where) > 0 {
		query = query.Where(where)
		count = count.Where(where)
	}

	sqlStr, args, err := paginate(query, filter.PageRequest).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build assignment list query: %w", err)
	}
	var items []models.Assignment
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, sqlStr, args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build assignment count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return items, total, nil
}

// FindByID returns an assignment by id.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	sqlStr, args, err := psql.Select(assignmentColumns...).From("assignments").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build assignment query: %w", err)
	}
	var item models.Assignment
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &item, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find assignment: %w", err)
	}
	return &item, nil
}

// Create inserts an assignment, filling id and timestamps.
func (r *AssignmentRepository) Create(ctx context.Context, a *models.Assignment) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt, a.UpdatedAt = now, now
	const query = `INSERT INTO assignments (id, title, description, class_id, due_date, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, a.ID, a.Title, a.Description, a.ClassID, a.DueDate, a.CreatedBy, a.CreatedAt, a.UpdatedAt); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update saves the editable fields of an assignment.
func (r *AssignmentRepository) Update(ctx context.Context, a *models.Assignment) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = $2, description = $3, due_date = $4, updated_at = $5 WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, a.ID, a.Title, a.Description, a.DueDate, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an assignment.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
