package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/erp-sessions/internal/model"
)

func newRedisRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	backend := NewRedisBackend(RedisOptions{Addr: mr.Addr()})
	t.Cleanup(func() { _ = backend.Close() })
	return NewRegistry(backend), mr
}

func TestRegistry_BlacklistExpires(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)

	require.NoError(t, reg.Blacklist(ctx, "tok-1", 10*time.Minute))
	assert.Equal(t, 10*time.Minute, mr.TTL(BlacklistPrefix+"tok-1"))

	ok, err := reg.IsBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(11 * time.Minute)

	ok, err = reg.IsBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRegistry_BlacklistSkipsExpiredTokens(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)

	require.NoError(t, reg.Blacklist(ctx, "tok-1", 0))
	require.NoError(t, reg.Blacklist(ctx, "tok-2", -time.Second))
	require.NoError(t, reg.Blacklist(ctx, "", time.Minute))

	assert.Empty(t, mr.Keys())
}

func TestRegistry_MirrorSession(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)

	s := model.Session{ID: "s1", PrincipalID: "p1", AccessTokenID: "a1", RefreshTokenID: "r1", IsActive: true}
	require.NoError(t, reg.MirrorSession(ctx, s, time.Hour))

	assert.Equal(t, "p1", mr.HGet(SessionPrefix+"s1", "principal_id"))
	assert.Equal(t, "true", mr.HGet(SessionPrefix+"s1", "is_active"))
	assert.Equal(t, time.Hour, mr.TTL(SessionPrefix+"s1"))

	s.AccessTokenID = "a2"
	require.NoError(t, reg.MirrorSession(ctx, s, 30*time.Minute))
	assert.Equal(t, "a2", mr.HGet(SessionPrefix+"s1", "access_token_id"))
	assert.Equal(t, "r1", mr.HGet(SessionPrefix+"s1", "refresh_token_id"))
	assert.Equal(t, 30*time.Minute, mr.TTL(SessionPrefix+"s1"))

	require.NoError(t, reg.DropSession(ctx, "s1"))
	assert.False(t, mr.Exists(SessionPrefix+"s1"))
}

func TestRegistry_MirrorInactiveDrops(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)

	s := model.Session{ID: "s1", PrincipalID: "p1", AccessTokenID: "a1", RefreshTokenID: "r1", IsActive: true}
	require.NoError(t, reg.MirrorSession(ctx, s, time.Hour))

	s.IsActive = false
	require.NoError(t, reg.MirrorSession(ctx, s, time.Hour))
	assert.False(t, mr.Exists(SessionPrefix+"s1"))
}

func TestRegistry_Location(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)

	_, found, err := reg.CachedLocation(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, reg.CacheLocation(ctx, "1.2.3.4", "Paris, FR", time.Hour))
	loc, found, err := reg.CachedLocation(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Paris, FR", loc)
	assert.True(t, mr.Exists(GeoPrefix+"1.2.3.4"))
}

func TestRegistry_BackendFailureIsCacheError(t *testing.T) {
	ctx := context.Background()
	reg, mr := newRedisRegistry(t)
	mr.SetError("LOADING redis is loading the dataset")

	_, err := reg.IsBlacklisted(ctx, "tok")
	require.Error(t, err)
	assert.True(t, model.IsCacheError(err))

	err = reg.Blacklist(ctx, "tok", time.Minute)
	assert.True(t, model.IsCacheError(err))

	err = reg.MirrorSession(ctx, model.Session{ID: "s1", IsActive: true}, time.Minute)
	assert.True(t, model.IsCacheError(err))

	err = reg.DropSession(ctx, "s1")
	assert.True(t, model.IsCacheError(err))
}

func TestRegistry_WithoutBackend(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	assert.False(t, reg.Enabled())
	require.NoError(t, reg.Blacklist(ctx, "tok", time.Minute))
	ok, err := reg.IsBlacklisted(ctx, "tok")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, reg.MirrorSession(ctx, model.Session{ID: "s1", IsActive: true}, time.Minute))
	require.NoError(t, reg.DropSession(ctx, "s1"))
	_, found, err := reg.CachedLocation(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, reg.Close())
}

func TestRegistry_Bunt(t *testing.T) {
	ctx := context.Background()
	backend, err := NewBuntBackend(":memory:")
	require.NoError(t, err)
	reg := NewRegistry(backend)
	t.Cleanup(func() { _ = reg.Close() })

	require.NoError(t, reg.Blacklist(ctx, "tok-1", 50*time.Millisecond))
	ok, err := reg.IsBlacklisted(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.Eventually(t, func() bool {
		ok, err := reg.IsBlacklisted(ctx, "tok-1")
		return err == nil && !ok
	}, 2*time.Second, 20*time.Millisecond)

	s := model.Session{ID: "s1", PrincipalID: "p1", AccessTokenID: "a1", RefreshTokenID: "r1", IsActive: true}
	require.NoError(t, reg.MirrorSession(ctx, s, time.Hour))
	raw, found, err := backend.Get(ctx, SessionPrefix+"s1")
	require.NoError(t, err)
	require.True(t, found)
	var fields map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &fields))
	assert.Equal(t, "p1", fields["principal_id"])

	require.NoError(t, reg.DropSession(ctx, "s1"))
	found, err = backend.Exists(ctx, SessionPrefix+"s1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, reg.DropSession(ctx, "never-existed"))
}
