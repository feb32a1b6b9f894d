package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// KeyProvider resolves a signing key by its key identifier
type KeyProvider interface {
	Key(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Config holds configuration for Validator
type Config struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Validator decodes bearer tokens and verifies them against a trusted key set.
// It keeps no per-request state; the key provider is the only shared piece.
type Validator struct {
	keys   KeyProvider
	parser *jwt.Parser
}

// NewValidator creates a new RS256 token validator
func NewValidator(config Config, keys KeyProvider) *Validator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	if config.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(config.Leeway))
	}

	return &Validator{
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}
}

// ValidateHeader validates a raw Authorization header value and returns the claims
func (v *Validator) ValidateHeader(ctx context.Context, header string) (*Claims, error) {
	token, err := ExtractBearerToken(header)
	if err != nil {
		return nil, err
	}
	return v.ValidateToken(ctx, token)
}

// ValidateToken verifies a JWT and returns its claims.
// All failures are *AuthError values, possibly wrapping the underlying cause.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	// Read the header first so a missing kid is reported as malformed
	token, _, err := v.parser.ParseUnverified(tokenString, &tokenClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w %v", ErrTokenMalformed, err)
	}

	kid, ok := token.Header["kid"].(string)
	if !ok || kid == "" {
		return nil, ErrTokenMalformed
	}

	publicKey, err := v.keys.Key(ctx, kid)
	if err != nil {
		return nil, fmt.Errorf("%w %v", ErrKeyNotFound, err)
	}

	tc := &tokenClaims{}
	_, err = v.parser.ParseWithClaims(tokenString, tc, func(*jwt.Token) (interface{}, error) {
		return publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w %v", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w %v", ErrTokenUnparsable, err)
	}

	return parseClaims(tc), nil
}

// ExtractBearerToken splits "Bearer <token>" and returns the token part
func ExtractBearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrHeaderMissing
	}

	parts := strings.Fields(header)
	switch {
	case strings.ToLower(parts[0]) != "bearer":
		return "", ErrHeaderNotBearer
	case len(parts) == 1:
		return "", ErrTokenNotFound
	case len(parts) > 2:
		return "", ErrHeaderTooManyParts
	}

	return parts[1], nil
}
