package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rotatingJWKSServer serves whatever key set is currently installed
type rotatingJWKSServer struct {
	mu     sync.Mutex
	jwks   JWKS
	status int
	hits   int32
}

func (s *rotatingJWKSServer) set(jwks JWKS) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jwks = jwks
}

func (s *rotatingJWKSServer) fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

func (s *rotatingJWKSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.hits, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.jwks)
}

func newTestKeySet(t *testing.T, backend *rotatingJWKSServer) (*KeySet, *time.Time) {
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	now := time.Now()
	keys := NewKeySet(KeySetConfig{
		URL:                server.URL,
		CacheTTL:           10 * time.Minute,
		MinRefreshInterval: 30 * time.Second,
	})
	keys.now = func() time.Time { return now }
	return keys, &now
}

func TestNewKeySet_Defaults(t *testing.T) {
	keys := NewKeySet(KeySetConfig{URL: "https://issuer.test/.well-known/jwks.json"})

	assert.Equal(t, time.Hour, keys.cacheTTL)
	assert.Equal(t, 30*time.Second, keys.minRefreshInterval)
	assert.Equal(t, 10*time.Second, keys.httpClient.Timeout)
	assert.NotNil(t, keys.keys)
}

func TestKeySet_RefetchesOnUnknownKid(t *testing.T) {
	_, oldKey := generateTestKeyPair(t)
	_, newKey := generateTestKeyPair(t)

	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(oldKey, "old")}}}
	keys, now := newTestKeySet(t, backend)
	ctx := context.Background()

	key, err := keys.Key(ctx, "old")
	require.NoError(t, err)
	assert.Equal(t, oldKey.N, key.N)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.hits))

	// Issuer rotates; the new kid is unknown until the next refetch window
	backend.set(JWKS{Keys: []JWK{toJWK(newKey, "new")}})
	*now = now.Add(31 * time.Second)

	key, err = keys.Key(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, newKey.N, key.N)
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.hits))
}

func TestKeySet_UnknownKidRefetchIsRateLimited(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(publicKey, "known")}}}
	keys, _ := newTestKeySet(t, backend)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := keys.Key(ctx, "bogus")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownKey)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.hits))
}

func TestKeySet_RefetchesAfterTTL(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(publicKey, "known")}}}
	keys, now := newTestKeySet(t, backend)
	ctx := context.Background()

	_, err := keys.Key(ctx, "known")
	require.NoError(t, err)
	_, err = keys.Key(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&backend.hits))

	*now = now.Add(11 * time.Minute)
	_, err = keys.Key(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.hits))
}

func TestKeySet_ServesStaleKeyWhenIssuerDown(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(publicKey, "known")}}}
	keys, now := newTestKeySet(t, backend)
	ctx := context.Background()

	_, err := keys.Key(ctx, "known")
	require.NoError(t, err)

	backend.fail(http.StatusServiceUnavailable)
	*now = now.Add(11 * time.Minute)

	key, err := keys.Key(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, publicKey.N, key.N)

	_, err = keys.Key(ctx, "other")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJWKSFetchFailed)
}

func TestKeySet_FailedRefetchHoldsOff(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(publicKey, "known")}}}
	keys, now := newTestKeySet(t, backend)
	ctx := context.Background()

	_, err := keys.Key(ctx, "known")
	require.NoError(t, err)

	backend.fail(http.StatusInternalServerError)
	*now = now.Add(11 * time.Minute)

	for i := 0; i < 20; i++ {
		key, err := keys.Key(ctx, "known")
		require.NoError(t, err)
		assert.Equal(t, publicKey.N, key.N)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.hits))

	for i := 0; i < 20; i++ {
		_, err := keys.Key(ctx, "bogus")
		assert.ErrorIs(t, err, ErrJWKSFetchFailed)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.hits))

	// Next attempt is allowed once the hold-off elapses
	*now = now.Add(31 * time.Second)
	_, err = keys.Key(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&backend.hits))

	// Recovery clears the failure
	backend.fail(0)
	*now = now.Add(31 * time.Second)
	_, err = keys.Key(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&backend.hits))

	_, err = keys.Key(ctx, "bogus")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Equal(t, int32(4), atomic.LoadInt32(&backend.hits))
}

func TestKeySet_StaleLookupsDoNotQueueBehindHungIssuer(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	jwks := JWKS{Keys: []JWK{toJWK(publicKey, "known")}}

	var hits int32
	var hang atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if hang.Load() {
			<-r.Context().Done()
			return
		}
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(server.Close)

	now := time.Now()
	keys := NewKeySet(KeySetConfig{
		URL:                server.URL,
		CacheTTL:           10 * time.Minute,
		MinRefreshInterval: 30 * time.Second,
		HTTPTimeout:        200 * time.Millisecond,
	})
	keys.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := keys.Key(ctx, "known")
	require.NoError(t, err)

	hang.Store(true)
	now = now.Add(11 * time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	start := time.Now()
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := keys.Key(ctx, "known")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	elapsed := time.Since(start)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.Less(t, elapsed, time.Second)
}

func TestKeySet_SkipsUnusableKeys(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	encKey := toJWK(publicKey, "enc")
	encKey.Use = "enc"
	ecKey := JWK{Kid: "ec", Kty: "EC"}
	badKey := JWK{Kid: "bad", Kty: "RSA", N: "!!", E: "AQAB"}

	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(publicKey, "sig"), encKey, ecKey, badKey}}}
	keys, _ := newTestKeySet(t, backend)
	ctx := context.Background()

	_, err := keys.Key(ctx, "sig")
	require.NoError(t, err)

	for _, kid := range []string{"enc", "ec", "bad"} {
		_, err := keys.Key(ctx, kid)
		assert.ErrorIs(t, err, ErrUnknownKey, kid)
	}

	stats := keys.Stats()
	assert.Equal(t, 1, stats["cached_keys_count"])
}

func TestKeySet_Invalidate(t *testing.T) {
	_, publicKey := generateTestKeyPair(t)
	backend := &rotatingJWKSServer{jwks: JWKS{Keys: []JWK{toJWK(publicKey, "known")}}}
	keys, _ := newTestKeySet(t, backend)
	ctx := context.Background()

	_, err := keys.Key(ctx, "known")
	require.NoError(t, err)

	keys.Invalidate()
	assert.Equal(t, 0, keys.Stats()["cached_keys_count"])

	_, err = keys.Key(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&backend.hits))
}

func TestFetchJWKS_BadResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	keys := NewKeySet(KeySetConfig{URL: server.URL})
	_, err := keys.FetchJWKS(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode JWKS")
}
