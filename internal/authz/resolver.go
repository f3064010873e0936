package authz

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-realtime-api/internal/models"
	appErrors "github.com/noah-isme/sma-realtime-api/pkg/errors"
)

// Resolver turns a principal and a resource kind into a visibility scope and answers
// single-record access questions.
type Resolver struct {
	relations RelationReader
	policies  PolicyTable
	logger    *zap.Logger
}

// NewResolver constructs a Resolver. A nil table falls back to Policies.
func NewResolver(relations RelationReader, policies PolicyTable, logger *zap.Logger) *Resolver {
	if policies == nil {
		policies = Policies
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{relations: relations, policies: policies, logger: logger}
}

// Resolve returns the read scope of p over kind. A role without a policy for kind is
// forbidden.
func (r *Resolver) Resolve(ctx context.Context, p Principal, kind ResourceKind) (Scope, error) {
	if p.Role == models.RoleSuperAdmin {
		return Unrestricted(), nil
	}
	policy, ok := r.policies.Lookup(p.Role, kind)
	if !ok {
		return Denied(), appErrors.Clone(appErrors.ErrForbidden, "no access to "+string(kind))
	}
	scope, err := policy.ReadScope(ctx, p, r.relations)
	if err != nil {
		r.logger.Error("resolve scope failed",
			zap.String("user_id", p.ID),
			zap.String("role", string(p.Role)),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return Denied(), appErrors.Internal(err, "failed to resolve access scope")
	}
	return scope, nil
}

// CanRead checks a single record against the read scope.
func (r *Resolver) CanRead(ctx context.Context, p Principal, kind ResourceKind, attrs Attributes) error {
	scope, err := r.Resolve(ctx, p, kind)
	if err != nil {
		return err
	}
	if !scope.Allows(attrs) {
		return appErrors.Clone(appErrors.ErrForbidden, "record is outside your access scope")
	}
	return nil
}

// AuthorizeWrite decides whether p may mutate a record. SUPER_ADMIN always may; then
// the creator when the role's rule accepts owners; then the role's scope; else denial.
func (r *Resolver) AuthorizeWrite(ctx context.Context, p Principal, kind ResourceKind, attrs Attributes) error {
	if p.Role == models.RoleSuperAdmin {
		return nil
	}
	policy, ok := r.policies.Lookup(p.Role, kind)
	if !ok {
		return appErrors.Clone(appErrors.ErrForbidden, "no write access to "+string(kind))
	}

	owner := containsString(attrs[FieldCreatedBy], p.ID)
	switch policy.WriteRule() {
	case WriteAny:
		return nil
	case WriteOwner:
		if owner {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "only the creator may modify this record")
	case WriteScoped:
		if owner {
			return nil
		}
		scope, err := policy.ReadScope(ctx, p, r.relations)
		if err != nil {
			return appErrors.Internal(err, "failed to resolve access scope")
		}
		if scope.Allows(attrs) {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "record is outside your access scope")
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "no write access to "+string(kind))
	}
}

// CanAccessStudent reports whether p may act on behalf of or about a student.
func (r *Resolver) CanAccessStudent(ctx context.Context, p Principal, studentID string) error {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return nil
	case models.RoleStudent:
		if p.ID == studentID {
			return nil
		}
	case models.RoleTeacher:
		classID, err := r.relations.StudentClassID(ctx, studentID)
		if err != nil {
			return appErrors.Internal(err, "failed to load student class")
		}
		if classID == "" {
			break
		}
		classIDs, err := r.relations.TeacherClassIDs(ctx, p.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to load teacher classes")
		}
		if containsString(classIDs, classID) {
			return nil
		}
	case models.RoleParent:
		childIDs, err := r.relations.ParentChildIDs(ctx, p.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to load parent children")
		}
		if containsString(childIDs, studentID) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "no access to this student")
}

// CanAccessClass reports whether p may act on a class.
func (r *Resolver) CanAccessClass(ctx context.Context, p Principal, classID string) error {
	switch p.Role {
	case models.RoleSuperAdmin, models.RoleAdmin:
		return nil
	case models.RoleStudent:
		own, err := r.relations.StudentClassID(ctx, p.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to load student class")
		}
		if own != "" && own == classID {
			return nil
		}
	case models.RoleTeacher:
		classIDs, err := r.relations.TeacherClassIDs(ctx, p.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to load teacher classes")
		}
		if containsString(classIDs, classID) {
			return nil
		}
	case models.RoleParent:
		classIDs, err := r.relations.ParentChildClassIDs(ctx, p.ID)
		if err != nil {
			return appErrors.Internal(err, "failed to load children classes")
		}
		if containsString(classIDs, classID) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, "no access to this class")
}

// ChildIDs returns the parent's current children. Operations that need a child fail
// with not found when there are none.
func (r *Resolver) ChildIDs(ctx context.Context, p Principal) ([]string, error) {
	if p.Role != models.RoleParent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents have linked children")
	}
	ids, err := r.relations.ParentChildIDs(ctx, p.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load parent children")
	}
	if len(ids) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no students linked to this parent")
	}
	return ids, nil
}
