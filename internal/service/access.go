package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
	"github.com/noah-isme/sma-realtime-api/internal/outbox"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

// accessResolver is the slice of authz.Resolver used by the domain services.
type accessResolver interface {
	Resolve(ctx context.Context, p authz.Principal, kind authz.ResourceKind) (authz.Scope, error)
	CanRead(ctx context.Context, p authz.Principal, kind authz.ResourceKind, attrs authz.Attributes) error
	AuthorizeWrite(ctx context.Context, p authz.Principal, kind authz.ResourceKind, attrs authz.Attributes) error
	CanAccessClass(ctx context.Context, p authz.Principal, classID string) error
	ChildIDs(ctx context.Context, p authz.Principal) ([]string, error)
}

// transactor runs fn in a unit of work whose staged broadcasts are released on commit.
type transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func paginationFor(page models.PageRequest, total int) *models.Pagination {
	p, size, _ := page.Normalize()
	return &models.Pagination{Page: p, PageSize: size, TotalCount: total}
}

// lookupError maps a repository read failure onto not found or internal.
func lookupError(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

// txError keeps typed errors raised inside a unit of work and wraps the rest.
func txError(err error, internal string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "resource no longer exists")
	}
	return appErrors.Internal(err, internal)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// audienceTarget picks the rooms for a role- or class-targeted record: the class room
// when class scoped, the role rooms when roles are listed, everyone otherwise.
func audienceTarget(classID *string, roles []string) outbox.Target {
	switch {
	case classID != nil && *classID != "":
		return outbox.ToClass(*classID)
	case len(roles) > 0:
		return outbox.ToRoles(models.ParseRoles(roles)...)
	default:
		return outbox.ToAll()
	}
}
