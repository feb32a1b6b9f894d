package middleware

import (
	"context"
	"net/http"

	"github.com/upb/coffee-shop/auth"
	"github.com/upb/coffee-shop/utils"
	"go.uber.org/zap"
)

// HeaderValidator turns a raw Authorization header into verified claims
type HeaderValidator interface {
	ValidateHeader(ctx context.Context, header string) (*auth.Claims, error)
}

// ClaimsHandlerFunc is a handler that receives the caller's verified claims
type ClaimsHandlerFunc func(w http.ResponseWriter, r *http.Request, claims *auth.Claims)

// Guard protects endpoints with a required permission
type Guard struct {
	validator HeaderValidator
	logger    *zap.Logger
}

// NewGuard creates a new Guard
func NewGuard(validator HeaderValidator, logger *zap.Logger) *Guard {
	return &Guard{
		validator: validator,
		logger:    logger,
	}
}

// Require wraps op so it only runs when the request carries a valid token
// granting permission. On failure the AuthError is written and op is not called.
func (g *Guard) Require(permission string, op ClaimsHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		claims, err := g.validator.ValidateHeader(ctx, r.Header.Get("Authorization"))
		if err != nil {
			authErr, ok := auth.AsAuthError(err)
			if !ok {
				g.logger.Error("unexpected token validation error",
					zap.String("request_id", requestID),
					zap.String("permission", permission),
					zap.Error(err))
				authErr = auth.ErrTokenUnparsable
			} else {
				g.logger.Warn("token rejected",
					zap.String("request_id", requestID),
					zap.String("permission", permission),
					zap.String("code", authErr.Body.Code),
					zap.Error(err))
			}
			g.writeAuthError(w, requestID, authErr)
			return
		}

		if err := auth.Authorize(permission, claims); err != nil {
			authErr, _ := auth.AsAuthError(err)
			var granted []string
			if claims != nil {
				granted = claims.Permissions
			}
			g.logger.Warn("permission check failed",
				zap.String("request_id", requestID),
				zap.String("sub", subject(claims)),
				zap.String("permission", permission),
				zap.Strings("granted", granted))
			g.writeAuthError(w, requestID, authErr)
			return
		}

		g.logger.Debug("request authorized",
			zap.String("request_id", requestID),
			zap.String("sub", subject(claims)),
			zap.String("permission", permission))

		op(w, r.WithContext(WithClaims(ctx, claims)), claims)
	}
}

// Public adapts a claims handler for routes without a required permission
func Public(op ClaimsHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op(w, r, nil)
	}
}

func (g *Guard) writeAuthError(w http.ResponseWriter, requestID string, authErr *auth.AuthError) {
	if err := utils.WriteAuthError(w, authErr); err != nil {
		g.logger.Error("failed to write auth error response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

func subject(claims *auth.Claims) string {
	if claims == nil {
		return ""
	}
	return claims.Subject
}
