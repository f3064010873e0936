package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

var studentColumns = []string{"id", "nis", "full_name", "class_id", "active", "created_at", "updated_at"}

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students inside scope together with the total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter, scope authz.Scope) ([]models.Student, int, error) {
	where := sq.And{}
	if pred := scopePredicate(scope, ""); pred != nil {
		where = append(where, pred)
	}
	if filter.ClassID != "" {
		where = append(where, sq.Eq{"class_id": filter.ClassID})
	}
	if filter.Search != "" {
		term := "%" + strings.ToLower(filter.Search) + "%"
		where = append(where, sq.Or{sq.Like{"LOWER(full_name)": term}, sq.Like{"nis": term}})
	}

	query := psql.Select(studentColumns...).From("students").OrderBy("full_name ASC")
	count := psql.Select("COUNT(*)").From("students")
	if len(where) > 0 {
		query = query.Where(where)
		count = count.Where(where)
	}

	sqlStr, args, err := paginate(query, filter.PageRequest).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build student list query: %w", err)
	}
	var students []models.Student
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &students, sqlStr, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build student count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID returns a student by id.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	sqlStr, args, err := psql.Select(studentColumns...).From("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build student query: %w", err)
	}
	var student models.Student
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &student, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ListByIDs returns the students with the given ids ordered by name.
func (r *StudentRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}
	sqlStr, args, err := psql.Select(studentColumns...).From("students").Where(sq.Eq{"id": ids}).OrderBy("full_name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build students by ids query: %w", err)
	}
	var students []models.Student
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &students, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list students by ids: %w", err)
	}
	return students, nil
}
