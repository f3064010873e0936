package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRestrictedNormalisesConditions(t *testing.T) {
	scope := Restricted(
		In(FieldClassID, "b", "a", "b", ""),
		Empty(FieldTargetRoles),
		In(FieldClassID, "a", "b"),
	)

	assert.Equal(t, []Condition{
		In(FieldClassID, "a", "b"),
		Empty(FieldTargetRoles),
	}, scope.Conditions)
}

func TestMatchesNothing(t *testing.T) {
	assert.True(t, Denied().MatchesNothing())
	assert.False(t, Unrestricted().MatchesNothing())
	assert.True(t, Restricted().MatchesNothing())
	assert.True(t, Restricted(In(FieldID)).MatchesNothing())
	assert.False(t, Restricted(In(FieldID), Empty(FieldTargetRoles)).MatchesNothing())
}

func TestAllows(t *testing.T) {
	scope := Restricted(Contains(FieldTargetRoles, "PARENT"), In(FieldCreatedBy, "u1"))

	assert.True(t, scope.Allows(Attributes{}.SetAll(FieldTargetRoles, []string{"TEACHER", "PARENT"})))
	assert.True(t, scope.Allows(Attributes{}.Set(FieldCreatedBy, "u1")))
	assert.False(t, scope.Allows(Attributes{}.Set(FieldCreatedBy, "u2")))
	assert.False(t, Denied().Allows(Attributes{}))
	assert.True(t, Unrestricted().Allows(Attributes{}))
}

func TestAllOfRequiresEveryCondition(t *testing.T) {
	untargeted := AllOf(Empty(FieldTargetRoles), Null(FieldClassID))
	scope := Restricted(untargeted)

	assert.True(t, scope.Allows(Attributes{}))
	assert.True(t, scope.Allows(Attributes{}.SetAll(FieldTargetRoles, nil)))
	assert.False(t, scope.Allows(Attributes{}.Set(FieldClassID, "c1")))
	assert.False(t, scope.Allows(Attributes{}.SetAll(FieldTargetRoles, []string{"PARENT"})))

	assert.False(t, scope.MatchesNothing())
	assert.True(t, Restricted(AllOf(In(FieldClassID), Null(FieldStudentID))).MatchesNothing())
	assert.True(t, Restricted(AllOf()).MatchesNothing())
	assert.Equal(t, scope, Restricted(AllOf(Null(FieldClassID), Empty(FieldTargetRoles)), untargeted))
}
