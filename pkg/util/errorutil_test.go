package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad input", nil), CodeValidationFailed, http.StatusBadRequest},
		{NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{NewForbidden("not authorized"), CodeForbidden, http.StatusForbidden},
		{NewNotFound("ticket"), CodeNotFound, http.StatusNotFound},
		{NewConflict("duplicate", nil), CodeConflict, http.StatusConflict},
		{NewPersistenceError(errors.New("boom")), CodePersistenceFailed, http.StatusInternalServerError},
		{NewInternalError(errors.New("boom")), CodeInternalError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		var domainErr *DomainError
		require.True(t, errors.As(tc.err, &domainErr))
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
	}
}

func TestNotFoundMessageNamesResource(t *testing.T) {
	err := NewNotFound("ticket")
	assert.Equal(t, "ticket not found", err.Error())
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	wrapped := fmt.Errorf("query ticket: %w", pgx.ErrNoRows)
	assert.Equal(t, CodeNotFound, ToDomainError(wrapped).Code)

	plain := ToDomainError(errors.New("something broke"))
	assert.Equal(t, CodeInternalError, plain.Code)

	original := NewForbidden("not authorized")
	assert.Same(t, original.(*DomainError), ToDomainError(original))
	assert.Same(t, original.(*DomainError), ToDomainError(fmt.Errorf("outer: %w", original)))
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPersistenceError(cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("x", nil)))
	assert.True(t, IsForbidden(NewForbidden("x")))
	assert.True(t, IsNotFound(NewNotFound("x")))
	assert.False(t, IsNotFound(NewForbidden("x")))
	assert.False(t, IsValidation(errors.New("plain")))
	assert.False(t, HasCode(nil, CodeNotFound))
}
