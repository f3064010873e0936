package repository

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-realtime-api/internal/authz"
	"github.com/noah-isme/sma-realtime-api/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// scopePredicate translates a visibility scope into a WHERE predicate. It returns nil
// for an unrestricted scope.
func scopePredicate(scope authz.Scope, alias string) sq.Sqlizer {
	switch scope.Mode {
	case authz.ModeUnrestricted:
		return nil
	case authz.ModeDenied:
		return sq.Expr("1=0")
	}

	var or sq.Or
	for _, c := range scope.Conditions {
		if pred := conditionPredicate(c, alias); pred != nil {
			or = append(or, pred)
		}
	}
	if len(or) == 0 {
		return sq.Expr("1=0")
	}
	return or
}

// conditionPredicate returns nil for a condition no row can satisfy.
func conditionPredicate(c authz.Condition, alias string) sq.Sqlizer {
	if !c.Satisfiable() {
		return nil
	}
	col := column(alias, c.Field)
	switch c.Op {
	case authz.OpIn:
		return sq.Eq{col: c.Values}
	case authz.OpContains:
		return sq.Expr(col+" && ?::text[]", pq.Array(c.Values))
	case authz.OpEmpty:
		return sq.Expr(fmt.Sprintf("cardinality(%s) = 0", col))
	case authz.OpNull:
		return sq.Eq{col: nil}
	case authz.OpAll:
		and := make(sq.And, 0, len(c.Group))
		for _, sub := range c.Group {
			and = append(and, conditionPredicate(sub, alias))
		}
		return and
	}
	return nil
}

func applyScope(b sq.SelectBuilder, scope authz.Scope, alias string) sq.SelectBuilder {
	if pred := scopePredicate(scope, alias); pred != nil {
		b = b.Where(pred)
	}
	return b
}

func paginate(b sq.SelectBuilder, page models.PageRequest) sq.SelectBuilder {
	_, size, offset := page.Normalize()
	return b.Limit(uint64(size)).Offset(uint64(offset))
}

func column(alias, field string) string {
	if alias == "" {
		return field
	}
	return alias + "." + field
}
