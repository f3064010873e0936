package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

// ClassRepository provides read access to classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns the classes inside scope ordered by grade and name.
func (r *ClassRepository) List(ctx context.Context, scope authz.Scope) ([]models.Class, error) {
	query := applyScope(
		psql.Select("id", "name", "grade", "supervisor_id", "created_at", "updated_at").From("classes"),
		scope, "",
	).OrderBy("grade ASC", "name ASC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build class list query: %w", err)
	}
	var classes []models.Class
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &classes, sqlStr, args...); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
