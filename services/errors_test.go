package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "drink not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: drink not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name:   "same error type",
			err:    NewDomainError(ErrorTypeNotFound, "not found", nil),
			target: ErrDrinkNotFound,
			want:   true,
		},
		{
			name:   "different error type",
			err:    NewDomainError(ErrorTypeValidation, "validation", nil),
			target: ErrDrinkNotFound,
			want:   false,
		},
		{
			name:   "not a domain error",
			err:    NewDomainError(ErrorTypeNotFound, "not found", nil),
			target: errors.New("regular error"),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetail(t *testing.T) {
	base := NewDomainError(ErrorTypeValidation, "validation error", nil)

	err := base.WithDetail("title", "title is required").WithDetail("recipe", "recipe is required")

	assert.Equal(t, "title is required", err.Details["title"])
	assert.Equal(t, "recipe is required", err.Details["recipe"])
	assert.Empty(t, base.Details)
	assert.True(t, errors.Is(err, base))
}

func TestDomainError_WithDetailLeavesSentinelUntouched(t *testing.T) {
	err := ErrEmptyTitle.WithDetail("title", "too long")

	assert.Equal(t, "too long", err.Details["title"])
	assert.Equal(t, ErrEmptyTitle.Message, err.Message)
	assert.Empty(t, ErrEmptyTitle.Details)
	assert.ErrorIs(t, err, ErrEmptyTitle)

	again := err.WithDetail("recipe", "missing")
	assert.Len(t, again.Details, 2)
	assert.Len(t, err.Details, 1)
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrDrinkNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrDrinkNotFound), IsNotFoundError, true},
		{"nil is not not found", nil, IsNotFoundError, false},
		{"validation", ErrEmptyTitle, IsValidationError, true},
		{"not found is not validation", ErrDrinkNotFound, IsValidationError, false},
		{"unprocessable", ErrMalformedBody, IsUnprocessableError, true},
		{"validation is not unprocessable", ErrInvalidInput, IsUnprocessableError, false},
		{"conflict", ErrDuplicateTitle, IsConflictError, true},
		{"internal", ErrDatabaseError, IsInternalError, true},
		{"wrapped internal", WrapInternal("boom", errors.New("io")), IsInternalError, true},
		{"regular error is not internal", errors.New("regular"), IsInternalError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"not found", ErrDrinkNotFound, ErrorTypeNotFound},
		{"validation", ErrInvalidInput, ErrorTypeValidation},
		{"conflict", ErrDuplicateTitle, ErrorTypeConflict},
		{"regular error", errors.New("regular"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestGetErrorDetails(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "validation error", nil).
		WithDetail("field", "title").
		WithDetail("reason", "too long")

	details := GetErrorDetails(err)
	require.NotNil(t, details)
	assert.Equal(t, "title", details["field"])
	assert.Equal(t, "too long", details["reason"])

	assert.Nil(t, GetErrorDetails(errors.New("regular error")))
}

func TestWrapError(t *testing.T) {
	baseErr := errors.New("base error")
	wrapped := WrapError(ErrorTypeConflict, "wrapped message", baseErr)

	var domainErr *DomainError
	require.True(t, errors.As(wrapped, &domainErr))
	assert.Equal(t, ErrorTypeConflict, domainErr.Type)
	assert.Equal(t, "wrapped message", domainErr.Message)
	assert.Equal(t, baseErr, errors.Unwrap(wrapped))
}
