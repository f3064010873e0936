package authz

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-realtime-api/internal/models"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	ID   string
	Role models.UserRole
}

// PrincipalFromClaims converts verified token claims into a principal.
func PrincipalFromClaims(claims *models.JWTClaims) *Principal {
	if claims == nil {
		return nil
	}
	return &Principal{ID: claims.UserID, Role: claims.Role}
}

// ResourceKind names a family of records that visibility rules apply to.
type ResourceKind string

const (
	KindStudents      ResourceKind = "students"
	KindParents       ResourceKind = "parents"
	KindClasses       ResourceKind = "classes"
	KindAssignments   ResourceKind = "assignments"
	KindAttendance    ResourceKind = "attendance"
	KindGrades        ResourceKind = "grades"
	KindEvents        ResourceKind = "events"
	KindAnnouncements ResourceKind = "announcements"
)

// RelationReader answers the relationship lookups visibility rules depend on.
// Results are never cached so membership changes apply to the next call.
type RelationReader interface {
	TeacherClassIDs(ctx context.Context, teacherID string) ([]string, error)
	ParentChildIDs(ctx context.Context, parentID string) ([]string, error)
	ParentChildClassIDs(ctx context.Context, parentID string) ([]string, error)
	StudentClassID(ctx context.Context, studentID string) (string, error)
	ClassParentIDs(ctx context.Context, classIDs []string) ([]string, error)
	StudentParentIDs(ctx context.Context, studentID string) ([]string, error)
}

// WriteRule controls mutation of an existing record.
type WriteRule int

const (
	// WriteDeny forbids writes.
	WriteDeny WriteRule = iota
	// WriteOwner allows writes by the record's creator only.
	WriteOwner
	// WriteScoped allows writes to any record inside the read scope.
	WriteScoped
	// WriteAny allows writes to every record.
	WriteAny
)

// VisibilityPolicy is the rule set of one role for one resource kind.
type VisibilityPolicy interface {
	ReadScope(ctx context.Context, p Principal, rel RelationReader) (Scope, error)
	WriteRule() WriteRule
}

// PolicyKey identifies a policy in a PolicyTable.
type PolicyKey struct {
	Role models.UserRole
	Kind ResourceKind
}

// PolicyTable maps (role, kind) pairs to their policies. A missing entry means the
// role has no access to the kind.
type PolicyTable map[PolicyKey]VisibilityPolicy

// Lookup returns the policy for role and kind.
func (t PolicyTable) Lookup(role models.UserRole, kind ResourceKind) (VisibilityPolicy, bool) {
	p, ok := t[PolicyKey{Role: role, Kind: kind}]
	return p, ok
}

type scopeFunc func(ctx context.Context, p Principal, rel RelationReader) (Scope, error)

type policy struct {
	read  scopeFunc
	write WriteRule
}

func (p policy) ReadScope(ctx context.Context, principal Principal, rel RelationReader) (Scope, error) {
	return p.read(ctx, principal, rel)
}

func (p policy) WriteRule() WriteRule {
	return p.write
}

func allRecords(context.Context, Principal, RelationReader) (Scope, error) {
	return Unrestricted(), nil
}

func self(field string) scopeFunc {
	return func(_ context.Context, p Principal, _ RelationReader) (Scope, error) {
		return Restricted(In(field, p.ID)), nil
	}
}

func teacherClasses(field string) scopeFunc {
	return func(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
		ids, err := rel.TeacherClassIDs(ctx, p.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("teacher classes: %w", err)
		}
		return Restricted(In(field, ids...)), nil
	}
}

func children(field string) scopeFunc {
	return func(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
		ids, err := rel.ParentChildIDs(ctx, p.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("parent children: %w", err)
		}
		return Restricted(In(field, ids...)), nil
	}
}

func childrenClasses(field string) scopeFunc {
	return func(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
		ids, err := rel.ParentChildClassIDs(ctx, p.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("children classes: %w", err)
		}
		return Restricted(In(field, ids...)), nil
	}
}

func ownClass(field string) scopeFunc {
	return func(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
		classID, err := rel.StudentClassID(ctx, p.ID)
		if err != nil {
			return Scope{}, fmt.Errorf("student class: %w", err)
		}
		if classID == "" {
			return Restricted(), nil
		}
		return Restricted(In(field, classID)), nil
	}
}

func teacherClassParents(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
	classIDs, err := rel.TeacherClassIDs(ctx, p.ID)
	if err != nil {
		return Scope{}, fmt.Errorf("teacher classes: %w", err)
	}
	if len(classIDs) == 0 {
		return Restricted(), nil
	}
	parentIDs, err := rel.ClassParentIDs(ctx, classIDs)
	if err != nil {
		return Scope{}, fmt.Errorf("class parents: %w", err)
	}
	return Restricted(In(FieldID, parentIDs...)), nil
}

func teacherClassesOrOwn(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
	scope, err := teacherClasses(FieldClassID)(ctx, p, rel)
	if err != nil {
		return Scope{}, err
	}
	return Restricted(append(scope.Conditions, In(FieldCreatedBy, p.ID))...), nil
}

// audience scopes records addressed by target role or class: records with neither
// roles nor class, records naming the role, and records for one of the classes
// resolved by classes. Authors additionally see what they created.
func audience(classes scopeFunc, includeOwn bool) scopeFunc {
	return func(ctx context.Context, p Principal, rel RelationReader) (Scope, error) {
		classScope, err := classes(ctx, p, rel)
		if err != nil {
			return Scope{}, err
		}
		conds := append([]Condition{
			AllOf(Empty(FieldTargetRoles), Null(FieldClassID)),
			Contains(FieldTargetRoles, string(p.Role)),
		}, classScope.Conditions...)
		if includeOwn {
			conds = append(conds, In(FieldCreatedBy, p.ID))
		}
		return Restricted(conds...), nil
	}
}

var kinds = []ResourceKind{
	KindStudents, KindParents, KindClasses, KindAssignments,
	KindAttendance, KindGrades, KindEvents, KindAnnouncements,
}

// Policies is the default visibility table. SUPER_ADMIN has no entries; the resolver
// never consults policies for it.
var Policies = buildPolicies()

func buildPolicies() PolicyTable {
	t := PolicyTable{}
	set := func(role models.UserRole, kind ResourceKind, read scopeFunc, write WriteRule) {
		t[PolicyKey{Role: role, Kind: kind}] = policy{read: read, write: write}
	}

	for _, kind := range kinds {
		set(models.RoleAdmin, kind, allRecords, WriteAny)
	}

	set(models.RoleTeacher, KindStudents, teacherClasses(FieldClassID), WriteDeny)
	set(models.RoleTeacher, KindParents, teacherClassParents, WriteDeny)
	set(models.RoleTeacher, KindClasses, teacherClasses(FieldID), WriteDeny)
	set(models.RoleTeacher, KindAssignments, teacherClassesOrOwn, WriteOwner)
	set(models.RoleTeacher, KindAttendance, teacherClasses(FieldClassID), WriteScoped)
	set(models.RoleTeacher, KindGrades, teacherClasses(FieldClassID), WriteScoped)
	set(models.RoleTeacher, KindEvents, audience(teacherClasses(FieldClassID), true), WriteOwner)
	set(models.RoleTeacher, KindAnnouncements, audience(teacherClasses(FieldClassID), true), WriteOwner)

	set(models.RoleParent, KindStudents, children(FieldID), WriteDeny)
	set(models.RoleParent, KindParents, self(FieldID), WriteDeny)
	set(models.RoleParent, KindClasses, childrenClasses(FieldID), WriteDeny)
	set(models.RoleParent, KindAssignments, childrenClasses(FieldClassID), WriteDeny)
	set(models.RoleParent, KindAttendance, children(FieldStudentID), WriteDeny)
	set(models.RoleParent, KindGrades, children(FieldStudentID), WriteDeny)
	set(models.RoleParent, KindEvents, audience(childrenClasses(FieldClassID), false), WriteDeny)
	set(models.RoleParent, KindAnnouncements, audience(childrenClasses(FieldClassID), false), WriteDeny)

	set(models.RoleStudent, KindStudents, self(FieldID), WriteDeny)
	set(models.RoleStudent, KindClasses, ownClass(FieldID), WriteDeny)
	set(models.RoleStudent, KindAssignments, ownClass(FieldClassID), WriteDeny)
	set(models.RoleStudent, KindAttendance, self(FieldStudentID), WriteDeny)
	set(models.RoleStudent, KindGrades, self(FieldStudentID), WriteDeny)
	set(models.RoleStudent, KindEvents, audience(ownClass(FieldClassID), false), WriteDeny)
	set(models.RoleStudent, KindAnnouncements, audience(ownClass(FieldClassID), false), WriteDeny)

	return t
}
