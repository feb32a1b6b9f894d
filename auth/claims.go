package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the JWT payload as issued by the identity provider
type tokenClaims struct {
	jwt.RegisteredClaims
	Permissions []string `json:"permissions,omitempty"`
}

// Claims represents the verified, decoded payload of a bearer token.
// Permissions is nil when the token carried no permissions claim at all,
// and empty when the claim was present but granted nothing.
type Claims struct {
	Subject     string    `json:"sub"`
	Issuer      string    `json:"iss"`
	Audience    []string  `json:"aud"`
	IssuedAt    time.Time `json:"iat"`
	ExpiresAt   time.Time `json:"exp"`
	Permissions []string  `json:"permissions"`
}

// HasPermission reports whether the permission set contains permission
func (c *Claims) HasPermission(permission string) bool {
	if c == nil {
		return false
	}
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// parseClaims converts the raw token payload to Claims
func parseClaims(tc *tokenClaims) *Claims {
	claims := &Claims{
		Subject:  tc.Subject,
		Issuer:   tc.Issuer,
		Audience: []string(tc.Audience),
	}

	if tc.IssuedAt != nil {
		claims.IssuedAt = tc.IssuedAt.Time
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}

	// Deduplicate while keeping nil distinguishable from empty
	if tc.Permissions != nil {
		seen := make(map[string]struct{}, len(tc.Permissions))
		claims.Permissions = make([]string, 0, len(tc.Permissions))
		for _, p := range tc.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			claims.Permissions = append(claims.Permissions, p)
		}
	}

	return claims
}
