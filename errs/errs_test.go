package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestApiErrMatchesSentinelsByStatus(t *testing.T) {
	err := NewNotFoundError("project was not found")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.Equal(t, "project was not found", err.Error())

	wrapped := fmt.Errorf("handler: %w", NewForbiddenError("you are not a supervisor"))
	assert.True(t, IsForbidden(wrapped))

	assert.True(t, IsConflict(NewConflictError("already joined")))
	assert.True(t, IsBadRequest(NewBadRequestError("project is full")))
	assert.True(t, IsUnauthorized(NewMissingTokenError()))
	assert.True(t, IsMissingTokenError(NewMissingTokenError()))
}

func TestAuthorizationErrors(t *testing.T) {
	role := NewInsufficientRoleError("supervisor")
	assert.True(t, IsInsufficientRoleError(role))
	assert.True(t, IsForbidden(role))
	assert.False(t, IsNotOwnerError(role))

	owner := NewNotOwnerError("project")
	assert.True(t, IsNotOwnerError(owner))
	assert.True(t, IsForbidden(owner))

	claim := NewMissingClaimError("oid")
	assert.True(t, IsBadRequest(claim))
	assert.Equal(t, "oid", claim.Field)

	assert.True(t, IsUnauthorized(NewNotRegisteredError()))
	assert.Equal(t, "You are not logged in", NewNotRegisteredError().Details)
}

func TestGetFullError(t *testing.T) {
	inner := NewInternalErrorWithCause("inner", errors.New("boom"))
	outer := NewInternalErrorWithCause("outer", inner)

	assert.Equal(t, "outer -> inner -> boom", outer.GetFullError())
	assert.Equal(t, "Invalid field min: must not exceed max", NewInvalidFieldError("min", "must not exceed max").Details)
}

func TestNewDatabaseError(t *testing.T) {
	tests := []struct {
		name   string
		cause  error
		status int
		check  func(error) bool
	}{
		{"duplicate key", fmt.Errorf("insert: %w", gorm.ErrDuplicatedKey), http.StatusConflict, IsAlreadyExistsError},
		{"foreign key", gorm.ErrForeignKeyViolated, http.StatusBadRequest, IsForeignKeyConstraintError},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, IsNotFound},
		{"connection", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, IsDatabaseConnectionError},
		{"other", errors.New("syntax error"), http.StatusInternalServerError, IsInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewDatabaseError("create", "user", tt.cause)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.True(t, tt.check(err))
			assert.Equal(t, tt.cause, err.Cause)
		})
	}
}
