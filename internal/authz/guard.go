package authz

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

// Target identifies the record an operation acts on. Both fields are optional.
type Target struct {
	StudentID string
	ClassID   string
}

// Empty reports whether no target was supplied.
func (t Target) Empty() bool {
	return t.StudentID == "" && t.ClassID == ""
}

// AccessChecker performs the dynamic per-target checks.
type AccessChecker interface {
	CanAccessStudent(ctx context.Context, p Principal, studentID string) error
	CanAccessClass(ctx context.Context, p Principal, classID string) error
}

// DenialRecorder counts guard denials by reason.
type DenialRecorder interface {
	RecordAuthzDenial(reason string)
}

// Guard enforces role metadata and target checks before an operation runs.
type Guard struct {
	access  AccessChecker
	metrics DenialRecorder
	logger  *zap.Logger
}

// NewGuard constructs a Guard.
func NewGuard(access AccessChecker, metrics DenialRecorder, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{access: access, metrics: metrics, logger: logger}
}

// Authorize admits p when its role is allowed and, for teachers and parents, when the
// target belongs to them. An empty allowed list admits every role.
func (g *Guard) Authorize(ctx context.Context, p *Principal, allowed []models.UserRole, target Target) error {
	if p == nil {
		return g.deny("unauthenticated", nil, appErrors.ErrUnauthenticated)
	}

	if len(allowed) > 0 {
		if p.Role == models.RoleSuperAdmin {
			return nil
		}
		if !roleAllowed(p.Role, allowed) {
			return g.deny("role", p, appErrors.Clone(appErrors.ErrForbidden, "role is not allowed to perform this action"))
		}
	}

	if target.Empty() || (p.Role != models.RoleTeacher && p.Role != models.RoleParent) {
		return nil
	}

	if target.StudentID != "" {
		if err := g.access.CanAccessStudent(ctx, *p, target.StudentID); err != nil {
			return g.targetDenied(p, err)
		}
	}
	if target.ClassID != "" {
		if err := g.access.CanAccessClass(ctx, *p, target.ClassID); err != nil {
			return g.targetDenied(p, err)
		}
	}
	return nil
}

func (g *Guard) targetDenied(p *Principal, err error) error {
	appErr := appErrors.FromError(err)
	if appErr.Status >= http.StatusInternalServerError {
		g.logger.Error("access check failed", zap.String("user_id", p.ID), zap.Error(err))
		return appErr
	}
	if !errors.Is(appErr, appErrors.ErrForbidden) {
		appErr = appErrors.Clone(appErrors.ErrForbidden, appErr.Message)
	}
	return g.deny("target", p, appErr)
}

func (g *Guard) deny(reason string, p *Principal, err error) error {
	if g.metrics != nil {
		g.metrics.RecordAuthzDenial(reason)
	}
	fields := []zap.Field{zap.String("reason", reason)}
	if p != nil {
		fields = append(fields, zap.String("user_id", p.ID), zap.String("role", string(p.Role)))
	}
	g.logger.Debug("access denied", fields...)
	return err
}

func roleAllowed(role models.UserRole, allowed []models.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
