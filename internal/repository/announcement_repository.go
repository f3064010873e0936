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

var announcementColumns = []string{"id", "title", "content", "priority", "target_roles", "class_id", "is_archived", "archived_at", "created_by", "created_at", "updated_at"}

// AnnouncementRepository persists announcements and their read receipts.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs an AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements visible under scope, high priority and newest first.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.AnnouncementFilter, scope authz.Scope) ([]models.Announcement, int, error) {
	where := sq.And{}
	if pred := scopePredicate(scope, ""); pred != nil {
		where = append(where, pred)
	}
	if !filter.IncludeArchived {
		where = append(where, sq.Eq{"is_archived": false})
	}

	query := psql.Select(announcementColumns...).From("announcements").
		OrderBy("CASE priority WHEN 'HIGH' THEN 0 WHEN 'NORMAL' THEN 1 ELSE 2 END", "created_at DESC")
	count := psql.Select("COUNT(*)").From("announcements")
	if len(where) > 0 {
		query = query.Where(where)
		count = count.Where(where)
	}

	sqlStr, args, err := paginate(query, filter.PageRequest).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build announcement list query: %w", err)
	}
	var items []models.Announcement
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, sqlStr, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}
	countSQL, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build announcement count query: %w", err)
	}
	var total int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &total, countSQL, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return items, total, nil
}

// FindByID returns an announcement by id.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	sqlStr, args, err := psql.Select(announcementColumns...).From("announcements").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build announcement query: %w", err)
	}
	var item models.Announcement
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &item, sqlStr, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find announcement: %w", err)
	}
	return &item, nil
}

// ExistsActiveTitle reports whether a non-archived announcement other than excludeID
// already uses title.
func (r *AnnouncementRepository) ExistsActiveTitle(ctx context.Context, title, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM announcements WHERE LOWER(title) = LOWER($1) AND is_archived = false AND id <> $2
)`
	var exists bool
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &exists, query, title, excludeID); err != nil {
		return false, fmt.Errorf("check announcement title: %w", err)
	}
	return exists, nil
}

// Create inserts an announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) error {
	now := time.Now().UTC()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Priority == "" {
		a.Priority = models.AnnouncementPriorityNormal
	}
	a.CreatedAt, a.UpdatedAt = now, now
	const query = `INSERT INTO announcements (id, title, content, priority, target_roles, class_id, is_archived, archived_at, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, false, NULL, $7, $8, $9)`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.Title, a.Content, a.Priority, a.TargetRoles, a.ClassID, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update saves the editable fields of an announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, a *models.Announcement) error {
	a.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = $2, content = $3, priority = $4, target_roles = $5, class_id = $6, updated_at = $7
WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, a.ID, a.Title, a.Content, a.Priority, a.TargetRoles, a.ClassID, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return expectAffected(res)
}

// SetArchived flips the archived flag, stamping or clearing archived_at.
func (r *AnnouncementRepository) SetArchived(ctx context.Context, id string, archived bool, at time.Time) error {
	var archivedAt *time.Time
	if archived {
		archivedAt = &at
	}
	const query = `UPDATE announcements SET is_archived = $2, archived_at = $3, updated_at = $4 WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, id, archived, archivedAt, at)
	if err != nil {
		return fmt.Errorf("archive announcement: %w", err)
	}
	return expectAffected(res)
}

// Delete removes an announcement and its read receipts.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	exec := executor(ctx, r.db)
	if _, err := exec.ExecContext(ctx, `DELETE FROM announcement_reads WHERE announcement_id = $1`, id); err != nil {
		return fmt.Errorf("delete announcement reads: %w", err)
	}
	res, err := exec.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	return expectAffected(res)
}

// MarkRead records that userID read an announcement. Repeated reads are ignored.
func (r *AnnouncementRepository) MarkRead(ctx context.Context, announcementID, userID string, at time.Time) error {
	const query = `INSERT INTO announcement_reads (announcement_id, user_id, read_at) VALUES ($1, $2, $3)
ON CONFLICT (announcement_id, user_id) DO NOTHING`
	if _, err := executor(ctx, r.db).ExecContext(ctx, query, announcementID, userID, at); err != nil {
		return fmt.Errorf("mark announcement read: %w", err)
	}
	return nil
}

// UnreadCount counts the active announcements inside scope that userID has not read.
func (r *AnnouncementRepository) UnreadCount(ctx context.Context, userID string, scope authz.Scope) (int, error) {
	query := applyScope(
		psql.Select("COUNT(*)").From("announcements a").
			Where(sq.Eq{"a.is_archived": false}).
			Where(sq.Expr("NOT EXISTS (SELECT 1 FROM announcement_reads r WHERE r.announcement_id = a.id AND r.user_id = ?)", userID)),
		scope, "a",
	)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build unread count query: %w", err)
	}
	var count int
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &count, sqlStr, args...); err != nil {
		return 0, fmt.Errorf("count unread announcements: %w", err)
	}
	return count, nil
}

// ArchiveStale archives active announcements created before createdBefore and
// returns the archived rows.
func (r *AnnouncementRepository) ArchiveStale(ctx context.Context, createdBefore, now time.Time) ([]models.Announcement, error) {
	query := `UPDATE announcements SET is_archived = true, archived_at = $2, updated_at = $2
WHERE is_archived = false AND created_at < $1
RETURNING ` + strings.Join(announcementColumns, ", ")
	var items []models.Announcement
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &items, query, createdBefore, now); err != nil {
		return nil, fmt.Errorf("archive stale announcements: %w", err)
	}
	return items, nil
}

// DeleteExpired hard-deletes archived announcements created before createdBefore
// that were archived before archivedBefore, returning their ids.
func (r *AnnouncementRepository) DeleteExpired(ctx context.Context, createdBefore, archivedBefore time.Time) ([]string, error) {
	const query = `WITH expired AS (
DELETE FROM announcements
WHERE is_archived = true AND created_at < $1 AND archived_at IS NOT NULL AND archived_at < $2
RETURNING id
), receipts AS (
DELETE FROM announcement_reads WHERE announcement_id IN (SELECT id FROM expired)
)
SELECT id FROM expired`
	var ids []string
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &ids, query, createdBefore, archivedBefore); err != nil {
		return nil, fmt.Errorf("delete expired announcements: %w", err)
	}
	return ids, nil
}
