package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

type denialCounter struct {
	reasons []string
}

func (d *denialCounter) RecordAuthzDenial(reason string) {
	d.reasons = append(d.reasons, reason)
}

func newTestGuard() (*Guard, *relationsStub, *denialCounter) {
	rel := newRelationsStub()
	rel.teacherClasses["t1"] = []string{"c1"}
	rel.children["p1"] = []string{"s1"}
	rel.studentClass["s1"] = "c1"
	rel.studentClass["s2"] = "c2"
	counter := &denialCounter{}
	return NewGuard(NewResolver(rel, nil, nil), counter, nil), rel, counter
}

func TestGuardRequiresPrincipal(t *testing.T) {
	guard, _, counter := newTestGuard()

	err := guard.Authorize(context.Background(), nil, nil, Target{})
	assert.True(t, errors.Is(err, appErrors.ErrUnauthenticated))
	assert.Equal(t, []string{"unauthenticated"}, counter.reasons)
}

func TestGuardSuperAdminNeverDenied(t *testing.T) {
	guard, rel, _ := newTestGuard()
	root := &Principal{ID: "root", Role: models.RoleSuperAdmin}

	targets := []Target{{}, {StudentID: "s2"}, {ClassID: "c9"}, {StudentID: "unknown", ClassID: "c2"}}
	for _, target := range targets {
		assert.NoError(t, guard.Authorize(context.Background(), root, []models.UserRole{models.RoleTeacher}, target))
		assert.NoError(t, guard.Authorize(context.Background(), root, nil, target))
	}
	assert.Zero(t, rel.calls)
}

func TestGuardRejectsRoleOutsideAllowedSet(t *testing.T) {
	guard, _, counter := newTestGuard()

	err := guard.Authorize(context.Background(), &Principal{ID: "s1", Role: models.RoleStudent}, []models.UserRole{models.RoleTeacher, models.RoleAdmin}, Target{})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.Equal(t, []string{"role"}, counter.reasons)
}

func TestGuardTeacherTargetChecks(t *testing.T) {
	guard, _, _ := newTestGuard()
	teacher := &Principal{ID: "t1", Role: models.RoleTeacher}
	allowed := []models.UserRole{models.RoleTeacher}

	assert.NoError(t, guard.Authorize(context.Background(), teacher, allowed, Target{ClassID: "c1"}))
	assert.NoError(t, guard.Authorize(context.Background(), teacher, allowed, Target{StudentID: "s1"}))
	assert.True(t, errors.Is(guard.Authorize(context.Background(), teacher, allowed, Target{ClassID: "c2"}), appErrors.ErrForbidden))
	assert.True(t, errors.Is(guard.Authorize(context.Background(), teacher, allowed, Target{StudentID: "s2"}), appErrors.ErrForbidden))
}

func TestGuardParentTargetChecks(t *testing.T) {
	guard, _, _ := newTestGuard()
	parent := &Principal{ID: "p1", Role: models.RoleParent}

	assert.NoError(t, guard.Authorize(context.Background(), parent, nil, Target{StudentID: "s1"}))
	assert.True(t, errors.Is(guard.Authorize(context.Background(), parent, nil, Target{StudentID: "s2"}), appErrors.ErrForbidden))
}

func TestGuardLookupFailureIsInternal(t *testing.T) {
	guard, rel, counter := newTestGuard()
	rel.err = errors.New("connection reset")

	err := guard.Authorize(context.Background(), &Principal{ID: "t1", Role: models.RoleTeacher}, nil, Target{ClassID: "c1"})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
	assert.Empty(t, counter.reasons)
}

func TestGuardAdminSkipsTargetChecks(t *testing.T) {
	guard, rel, _ := newTestGuard()

	assert.NoError(t, guard.Authorize(context.Background(), &Principal{ID: "a1", Role: models.RoleAdmin}, []models.UserRole{models.RoleAdmin}, Target{ClassID: "c42"}))
	assert.Zero(t, rel.calls)
}
