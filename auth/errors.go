package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in AuthError bodies
const (
	CodeInvalidHeader = "invalid_header"
	CodeTokenExpired  = "token_expired"
	CodeInvalidClaims = "invalid_claims"
	CodeUnauthorized  = "unauthorized"
)

// ErrorBody is the machine-readable part of an AuthError
type ErrorBody struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// AuthError is raised by the claims validator and the permission enforcer.
// It is never retried and is written to the client verbatim.
type AuthError struct {
	StatusCode int       `json:"-"`
	Body       ErrorBody `json:"error"`
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Body.Code, e.Body.Description)
}

// Is matches another AuthError with the same status and code
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return e.StatusCode == t.StatusCode && e.Body.Code == t.Body.Code
}

// NewAuthError creates an AuthError
func NewAuthError(status int, code, description string) *AuthError {
	return &AuthError{
		StatusCode: status,
		Body: ErrorBody{
			Code:        code,
			Description: description,
		},
	}
}

func invalidHeader(description string) *AuthError {
	return NewAuthError(http.StatusUnauthorized, CodeInvalidHeader, description)
}

var (
	ErrHeaderMissing      = invalidHeader("Authorization header is expected.")
	ErrHeaderNotBearer    = invalidHeader(`Authorization header must start with "Bearer".`)
	ErrTokenNotFound      = invalidHeader("Token not found.")
	ErrHeaderTooManyParts = invalidHeader("Authorization header must be bearer token.")
	ErrTokenMalformed     = invalidHeader("Authorization malformed.")
	ErrKeyNotFound        = invalidHeader("Unable to find the appropriate key.")
	ErrTokenUnparsable    = invalidHeader("Unable to parse authentication token.")

	ErrTokenExpired = NewAuthError(http.StatusUnauthorized, CodeTokenExpired, "Token expired.")

	ErrPermissionsMissing = NewAuthError(http.StatusBadRequest, CodeInvalidClaims, "Permissions not included in JWT.")
	ErrPermissionDenied   = NewAuthError(http.StatusForbidden, CodeUnauthorized, "Permission not found.")
)

// AsAuthError extracts an AuthError from an error chain
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
