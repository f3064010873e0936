package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneMatchesTemplate(t *testing.T) {
	err := Clone(ErrForbidden, "not the creator")
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "not the creator", err.Message)
	assert.Equal(t, "forbidden", ErrForbidden.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	wrapped := fmt.Errorf("ctx: %w", ErrConflict)
	assert.Equal(t, ErrConflict.Code, FromError(wrapped).Code)
	assert.Nil(t, FromError(nil))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Internal(cause, "failed to load")
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to load: db down", err.Error())
}
