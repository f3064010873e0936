package authz

import (
	"sort"
	"strings"
)

// Op is the comparison a Condition applies to a field.
type Op int

const (
	// OpIn matches when the field value is one of Values.
	OpIn Op = iota
	// OpContains matches when an array field shares at least one element with Values.
	OpContains
	// OpEmpty matches when an array field has no elements.
	OpEmpty
	// OpNull matches when a nullable scalar field is unset.
	OpNull
	// OpAll matches when every condition in Group holds.
	OpAll
)

func (o Op) String() string {
	switch o {
	case OpIn:
		return "in"
	case OpContains:
		return "contains"
	case OpEmpty:
		return "empty"
	case OpNull:
		return "null"
	case OpAll:
		return "all"
	default:
		return "unknown"
	}
}

// Record fields referenced by scopes. They double as column names.
const (
	FieldID          = "id"
	FieldClassID     = "class_id"
	FieldStudentID   = "student_id"
	FieldCreatedBy   = "created_by"
	FieldTargetRoles = "target_roles"
)

// Condition is a single predicate over a record field, or a conjunction of
// conditions when Op is OpAll.
type Condition struct {
	Field  string
	Op     Op
	Values []string
	Group  []Condition
}

// In builds an OpIn condition.
func In(field string, values ...string) Condition {
	return Condition{Field: field, Op: OpIn, Values: values}
}

// Contains builds an OpContains condition.
func Contains(field string, values ...string) Condition {
	return Condition{Field: field, Op: OpContains, Values: values}
}

// Empty builds an OpEmpty condition.
func Empty(field string) Condition {
	return Condition{Field: field, Op: OpEmpty}
}

// Null builds an OpNull condition.
func Null(field string) Condition {
	return Condition{Field: field, Op: OpNull}
}

// AllOf builds a conjunction of conditions.
func AllOf(conds ...Condition) Condition {
	return Condition{Op: OpAll, Group: conds}
}

// Matches reports whether the condition holds for attrs. A value-based condition
// without values never matches, nor does an empty conjunction.
func (c Condition) Matches(attrs Attributes) bool {
	got := attrs[c.Field]
	switch c.Op {
	case OpEmpty, OpNull:
		return len(got) == 0
	case OpAll:
		if len(c.Group) == 0 {
			return false
		}
		for _, sub := range c.Group {
			if !sub.Matches(attrs) {
				return false
			}
		}
		return true
	case OpIn, OpContains:
		for _, v := range got {
			if containsString(c.Values, v) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Mode classifies a Scope.
type Mode int

const (
	ModeDenied Mode = iota
	ModeUnrestricted
	ModeRestricted
)

// Scope describes which records of a kind a principal may see. A restricted scope is a
// disjunction of conditions; an empty disjunction matches nothing.
type Scope struct {
	Mode       Mode
	Conditions []Condition
}

// Unrestricted returns a scope without filters.
func Unrestricted() Scope {
	return Scope{Mode: ModeUnrestricted}
}

// Denied returns a scope that admits nothing.
func Denied() Scope {
	return Scope{Mode: ModeDenied}
}

// Restricted returns a normalised disjunction of conditions. Values are sorted and
// de-duplicated, and so are the conditions themselves.
func Restricted(conds ...Condition) Scope {
	normalised := make([]Condition, 0, len(conds))
	seen := make(map[string]struct{}, len(conds))
	for _, c := range conds {
		c = c.normalise()
		key := c.key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		normalised = append(normalised, c)
	}
	sort.Slice(normalised, func(i, j int) bool {
		return normalised[i].key() < normalised[j].key()
	})
	return Scope{Mode: ModeRestricted, Conditions: normalised}
}

// IsUnrestricted reports whether the scope applies no filter.
func (s Scope) IsUnrestricted() bool {
	return s.Mode == ModeUnrestricted
}

// MatchesNothing reports whether no record can satisfy the scope.
func (s Scope) MatchesNothing() bool {
	switch s.Mode {
	case ModeDenied:
		return true
	case ModeUnrestricted:
		return false
	}
	for _, c := range s.Conditions {
		if c.Satisfiable() {
			return false
		}
	}
	return true
}

// Allows reports whether a single record with attrs is inside the scope.
func (s Scope) Allows(attrs Attributes) bool {
	switch s.Mode {
	case ModeUnrestricted:
		return true
	case ModeRestricted:
		for _, c := range s.Conditions {
			if c.Matches(attrs) {
				return true
			}
		}
	}
	return false
}

// Attributes carries the scoped fields of one record. Scalar fields hold one value,
// array fields hold every element.
type Attributes map[string][]string

// Set assigns a scalar field, skipping empty values.
func (a Attributes) Set(field, value string) Attributes {
	if value != "" {
		a[field] = []string{value}
	}
	return a
}

// SetPtr assigns a nullable scalar field.
func (a Attributes) SetPtr(field string, value *string) Attributes {
	if value != nil {
		return a.Set(field, *value)
	}
	return a
}

// SetAll assigns an array field.
func (a Attributes) SetAll(field string, values []string) Attributes {
	a[field] = append([]string(nil), values...)
	return a
}

// Satisfiable reports whether some record could match c.
func (c Condition) Satisfiable() bool {
	switch c.Op {
	case OpEmpty, OpNull:
		return true
	case OpAll:
		if len(c.Group) == 0 {
			return false
		}
		for _, sub := range c.Group {
			if !sub.Satisfiable() {
				return false
			}
		}
		return true
	default:
		return len(c.Values) > 0
	}
}

func (c Condition) normalise() Condition {
	switch c.Op {
	case OpEmpty, OpNull:
		c.Values = nil
	case OpAll:
		group := make([]Condition, 0, len(c.Group))
		for _, sub := range c.Group {
			group = append(group, sub.normalise())
		}
		sort.Slice(group, func(i, j int) bool { return group[i].key() < group[j].key() })
		c.Field, c.Values, c.Group = "", nil, group
	default:
		c.Values = uniqueSorted(c.Values)
	}
	return c
}

func (c Condition) key() string {
	if c.Op == OpAll {
		keys := make([]string, 0, len(c.Group))
		for _, sub := range c.Group {
			keys = append(keys, sub.key())
		}
		return "all(" + strings.Join(keys, ";") + ")"
	}
	return c.Field + "|" + c.Op.String() + "|" + strings.Join(c.Values, ",")
}

func uniqueSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
