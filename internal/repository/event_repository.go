package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

var eventColumns = []string{"id", "title", "description", "location", "start_time", "end_time", "status", "target_roles", "class_id", "created_by", "created_at", "updated_at"}

// EventRepository persists calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns the events visible under scope ordered by start time.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter, scope authz.Scope) ([]models.Event, int, error) {
	where := sq.And{}
	if pred := scopePredicate(scope, ""); pred != nil {
		where = append(where, pred)
	}
	if filter.Status != nil {
		where = append(where, sq.Eq{"status": *filter.Status})
	}
	if filter.From != nil {
		where = append(where, sq.GtOrEq{"end_time": *filter.From})
	}
	if filter.To != nil {
		where = append(where, sq.LtOrEq{"start_time": *filter.To})
	}

	query := psql.Select(eventColumns...).From("events").OrderBy("start_time ASC")
	count := psql.Select("COUNT(*)").From("events")
	if len(where) > 0 {
		query = query.Where(where)
		count = count.Where(where)
	}

	sqlStr, args, err := paginate(query, filter.PageRequest).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build event list query: %w", err)
	}
	var items []models.Event
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, sqlStr, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build event count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return items, total, nil
}

// FindByID returns an event by id.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	sqlStr, args, err := psql.Select(eventColumns...).From("events").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event query: %w", err)
	}
	var item models.Event
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &item, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &item, nil
}

// Create inserts an event.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	now := time.Now().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.EventStatusScheduled
	}
	e.CreatedAt, e.UpdatedAt = now, now
	const query = `INSERT INTO events (id, title, description, location, start_time, end_time, status, target_roles, class_id, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.Status, e.TargetRoles, e.ClassID, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update saves the editable fields of an event.
func (r *EventRepository) Update(ctx context.Context, e *models.Event) error {
	e.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = $2, description = $3, location = $4, start_time = $5, end_time = $6,
status = $7, target_roles = $8, class_id = $9, updated_at = $10 WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		e.ID, e.Title, e.Description, e.Location, e.StartTime, e.EndTime, e.Status, e.TargetRoles, e.ClassID, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an event.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return expectAffected(res)
}

// CompleteOverdue moves scheduled events that ended before now to COMPLETED and
// returns the transitioned rows.
func (r *EventRepository) CompleteOverdue(ctx context.Context, now time.Time) ([]models.Event, error) {
	query := `UPDATE events SET status = $1, updated_at = $2
WHERE status = $3 AND end_time < $2
RETURNING ` + strings.Join(eventColumns, ", ")
	var items []models.Event
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, query, models.EventStatusCompleted, now, models.EventStatusScheduled); err != nil {
		return nil, fmt.Errorf("complete overdue events: %w", err)
	}
	return items, nil
}
