package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

var (
	// ErrJWKSFetchFailed is returned when JWKS fetching fails
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")

	// ErrUnknownKey is returned when no key in the JWKS matches the kid
	ErrUnknownKey = errors.New("key not found in JWKS")
)

// JWKS represents the JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySetConfig holds configuration for KeySet
type KeySetConfig struct {
	URL                string
	CacheTTL           time.Duration
	MinRefreshInterval time.Duration
	HTTPTimeout        time.Duration
}

// KeySet is a process-wide cache of the issuer's signing keys.
// Lookups for a known kid are served from memory until the TTL expires;
// an unknown kid triggers at most one refetch per MinRefreshInterval.
// A failed refetch holds off further attempts for MinRefreshInterval,
// during which any cached key is served stale.
type KeySet struct {
	url                string
	httpClient         *http.Client
	cacheTTL           time.Duration
	minRefreshInterval time.Duration
	now                func() time.Time

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
	// last refetch attempt, successful or not
	attemptedAt time.Time
	lastErr     error

	// serialises refetches
	refreshMu sync.Mutex
}

// NewKeySet creates a new KeySet for the given JWKS URL
func NewKeySet(config KeySetConfig) *KeySet {
	if config.CacheTTL == 0 {
		config.CacheTTL = 1 * time.Hour
	}
	if config.MinRefreshInterval == 0 {
		config.MinRefreshInterval = 30 * time.Second
	}
	if config.HTTPTimeout == 0 {
		config.HTTPTimeout = 10 * time.Second
	}

	return &KeySet{
		url:                config.URL,
		cacheTTL:           config.CacheTTL,
		minRefreshInterval: config.MinRefreshInterval,
		httpClient: &http.Client{
			Timeout: config.HTTPTimeout,
		},
		now:  time.Now,
		keys: make(map[string]*rsa.PublicKey),
	}
}

// Key returns the public key for kid, refetching the key set on a miss
func (k *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, fresh := k.lookup(kid)
	if key != nil && fresh {
		return key, nil
	}

	// Holders of a stale key never queue behind an in-flight refetch
	if err := k.refresh(ctx, kid, key == nil); err != nil {
		// A stale key is still better than failing while the issuer is unreachable
		if key, _ := k.lookup(kid); key != nil {
			return key, nil
		}
		return nil, err
	}

	key, _ = k.lookup(kid)
	if key == nil {
		return nil, fmt.Errorf("%w: kid %s", ErrUnknownKey, kid)
	}
	return key, nil
}

func (k *KeySet) lookup(kid string) (*rsa.PublicKey, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.keys[kid], k.now().Before(k.expiresAt)
}

func (k *KeySet) refresh(ctx context.Context, kid string, wait bool) error {
	if wait {
		k.refreshMu.Lock()
	} else if !k.refreshMu.TryLock() {
		return fmt.Errorf("%w: refresh in progress", ErrJWKSFetchFailed)
	}
	defer k.refreshMu.Unlock()

	now := k.now()
	k.mu.RLock()
	_, known := k.keys[kid]
	fresh := now.Before(k.expiresAt)
	recent := !k.attemptedAt.IsZero() && now.Sub(k.attemptedAt) < k.minRefreshInterval
	lastErr := k.lastErr
	k.mu.RUnlock()

	// Another caller refreshed while we waited for the lock
	if known && fresh {
		return nil
	}
	if recent && lastErr != nil {
		return lastErr
	}
	if fresh && recent {
		return nil
	}

	jwks, err := k.FetchJWKS(ctx)
	if err != nil {
		k.mu.Lock()
		k.attemptedAt = now
		k.lastErr = err
		k.mu.Unlock()
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(jwks.Keys))
	for i := range jwks.Keys {
		jwk := &jwks.Keys[i]
		if jwk.Kty != "RSA" || (jwk.Use != "" && jwk.Use != "sig") || jwk.Kid == "" {
			continue
		}
		publicKey, err := jwkToRSAPublicKey(jwk)
		if err != nil {
			continue
		}
		keys[jwk.Kid] = publicKey
	}

	k.mu.Lock()
	k.keys = keys
	k.fetchedAt = now
	k.attemptedAt = now
	k.lastErr = nil
	k.expiresAt = now.Add(k.cacheTTL)
	k.mu.Unlock()

	return nil
}

// FetchJWKS fetches the key set from the issuer without touching the cache
func (k *KeySet) FetchJWKS(ctx context.Context) (*JWKS, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, k.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrJWKSFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status code %d", ErrJWKSFetchFailed, resp.StatusCode)
	}

	var jwks JWKS
	if err := json.NewDecoder(resp.Body).Decode(&jwks); err != nil {
		return nil, fmt.Errorf("failed to decode JWKS: %w", err)
	}

	return &jwks, nil
}

// Invalidate drops all cached keys so the next lookup refetches
func (k *KeySet) Invalidate() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys = make(map[string]*rsa.PublicKey)
	k.expiresAt = time.Time{}
	k.fetchedAt = time.Time{}
	k.attemptedAt = time.Time{}
	k.lastErr = nil
}

// Stats returns cache statistics
func (k *KeySet) Stats() map[string]interface{} {
	k.mu.RLock()
	defer k.mu.RUnlock()

	return map[string]interface{}{
		"cached_keys_count": len(k.keys),
		"jwks_fetched_at":   k.fetchedAt,
		"jwks_expires_at":   k.expiresAt,
	}
}

// jwkToRSAPublicKey converts a JWK to an RSA public key
func jwkToRSAPublicKey(jwk *JWK) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode modulus: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exponent: %w", err)
	}

	var e int
	for _, b := range eBytes {
		e = e*256 + int(b)
	}
	if len(nBytes) == 0 || e == 0 {
		return nil, errors.New("empty modulus or exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
