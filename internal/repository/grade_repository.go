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

var gradeColumns = []string{"id", "student_id", "class_id", "subject", "score", "created_by", "created_at", "updated_at"}

// GradeRepository persists grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades inside scope.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter, scope authz.Scope) ([]models.Grade, int, error) {
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
	if filter.Subject != "" {
		where = append(where, sq.Eq{"subject": filter.Subject})
	}

	query := psql.Select(gradeColumns...).From("grades").OrderBy("created_at DESC")
	count := psql.Select("COUNT(*)").From("grades")
	if len(where) > 0 {
		query = query.Where(where)
		count = count.Where(where)
	}

	sqlStr, args, err := paginate(query, filter.PageRequest).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build grade list query: %w", err)
	}
	var items []models.Grade
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, sqlStr, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build grade count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return items, total, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, g *models.Grade) error {
	now := time.Now().UTC()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.CreatedAt, g.UpdatedAt = now, now
	const query = `INSERT INTO grades (id, student_id, class_id, subject, score, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, g.ID, g.StudentID, g.ClassID, g.Subject, g.Score, g.CreatedBy, g.CreatedAt, g.UpdatedAt); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}
