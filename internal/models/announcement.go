package models

import (
	"time"

	"github.com/lib/pq"
)

// AnnouncementPriority defines ordering for announcements.
type AnnouncementPriority string

const (
	AnnouncementPriorityLow    AnnouncementPriority = "LOW"
	AnnouncementPriorityNormal AnnouncementPriority = "NORMAL"
	AnnouncementPriorityHigh   AnnouncementPriority = "HIGH"
)

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID          string               `db:"id" json:"id"`
	Title       string               `db:"title" json:"title"`
	Content     string               `db:"content" json:"content"`
	Priority    AnnouncementPriority `db:"priority" json:"priority"`
	TargetRoles pq.StringArray       `db:"target_roles" json:"target_roles"`
	ClassID     *string              `db:"class_id" json:"class_id,omitempty"`
	IsArchived  bool                 `db:"is_archived" json:"is_archived"`
	ArchivedAt  *time.Time           `db:"archived_at" json:"archived_at,omitempty"`
	CreatedBy   string               `db:"created_by" json:"created_by"`
	CreatedAt   time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `db:"updated_at" json:"updated_at"`
}

// AnnouncementFilter allows listing announcements.
type AnnouncementFilter struct {
	PageRequest
	IncludeArchived bool
}

// AnnouncementRequest is the payload for creating or updating an announcement.
type AnnouncementRequest struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Content     string               `json:"content" validate:"required"`
	Priority    AnnouncementPriority `json:"priority" validate:"omitempty,oneof=LOW NORMAL HIGH"`
	TargetRoles []UserRole           `json:"target_roles" validate:"dive,oneof=SUPER_ADMIN ADMIN TEACHER PARENT STUDENT"`
	ClassID     *string              `json:"class_id"`
}

// ArchiveRequest toggles the archived flag.
type ArchiveRequest struct {
	IsArchived bool `json:"is_archived"`
}

// RoleStrings converts roles into their column representation.
func RoleStrings(roles []UserRole) pq.StringArray {
	out := make(pq.StringArray, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

// ParseRoles converts a stored role array back into roles.
func ParseRoles(values []string) []UserRole {
	out := make([]UserRole, 0, len(values))
	for _, v := range values {
		out = append(out, UserRole(v))
	}
	return out
}
