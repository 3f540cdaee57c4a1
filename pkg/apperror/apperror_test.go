package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   Code
		status int
	}{
		{Validation("bad"), CodeValidation, http.StatusBadRequest},
		{Unauthorized("no"), CodeUnauthorized, http.StatusUnauthorized},
		{Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{NotFound("event"), CodeNotFound, http.StatusNotFound},
		{Conflict("dup"), CodeConflict, http.StatusBadRequest},
		{Internal(errors.New("boom")), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.HTTPStatus)
	}
	assert.Equal(t, "event not found", NotFound("event").Message)
}

func TestFromUnwrapsChain(t *testing.T) {
	cause := errors.New("store down")
	wrapped := fmt.Errorf("create: %w", Internal(cause))

	ae := From(wrapped)
	if assert.NotNil(t, ae) {
		assert.Equal(t, CodeInternal, ae.Code)
		assert.ErrorIs(t, wrapped, cause)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(wrapped))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	assert.Nil(t, From(errors.New("plain")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "FORBIDDEN: nope", Forbidden("nope").Error())
	assert.Contains(t, Internal(errors.New("boom")).Error(), "caused by: boom")
}
