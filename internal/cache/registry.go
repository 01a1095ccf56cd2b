package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/dtroode/erp-sessions/internal/model"
)

const (
	SessionPrefix   = "session:"
	BlacklistPrefix = "blacklist:"
	GeoPrefix       = "geo:"
)

const blacklistMarker = "1"

// Registry namespaces the session mirror, the token blacklist and the geo cache
// over one Backend. Every failure is returned as *model.CacheError.
// A Registry without a backend does nothing and reports nothing as blacklisted.
type Registry struct {
	backend Backend
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{backend: backend}
}

// Enabled reports whether a backend is attached.
func (r *Registry) Enabled() bool {
	return r != nil && r.backend != nil
}

// Blacklist marks tokenID as revoked for ttl. Non-positive ttl is skipped since the token is already expired.
func (r *Registry) Blacklist(ctx context.Context, tokenID string, ttl time.Duration) error {
	if !r.Enabled() || tokenID == "" || ttl <= 0 {
		return nil
	}
	key := BlacklistPrefix + tokenID
	if err := r.backend.Set(ctx, key, blacklistMarker, ttl); err != nil {
		return &model.CacheError{Op: "blacklist", Key: key, Err: err}
	}
	return nil
}

func (r *Registry) IsBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	if !r.Enabled() || tokenID == "" {
		return false, nil
	}
	key := BlacklistPrefix + tokenID
	ok, err := r.backend.Exists(ctx, key)
	if err != nil {
		return false, &model.CacheError{Op: "is_blacklisted", Key: key, Err: err}
	}
	return ok, nil
}

// MirrorSession writes the cache-side view of s. Inactive sessions and non-positive ttl drop the mirror instead.
func (r *Registry) MirrorSession(ctx context.Context, s model.Session, ttl time.Duration) error {
	if !r.Enabled() {
		return nil
	}
	if !s.IsActive || ttl <= 0 {
		return r.DropSession(ctx, s.ID)
	}
	key := SessionPrefix + s.ID
	fields := map[string]string{
		"principal_id":     s.PrincipalID,
		"is_active":        strconv.FormatBool(s.IsActive),
		"access_token_id":  s.AccessTokenID,
		"refresh_token_id": s.RefreshTokenID,
	}
	if err := r.backend.HSet(ctx, key, fields, ttl); err != nil {
		return &model.CacheError{Op: "mirror_session", Key: key, Err: err}
	}
	return nil
}

func (r *Registry) DropSession(ctx context.Context, sessionID string) error {
	if !r.Enabled() {
		return nil
	}
	key := SessionPrefix + sessionID
	if err := r.backend.Delete(ctx, key); err != nil {
		return &model.CacheError{Op: "drop_session", Key: key, Err: err}
	}
	return nil
}

func (r *Registry) CachedLocation(ctx context.Context, ip string) (string, bool, error) {
	if !r.Enabled() || ip == "" {
		return "", false, nil
	}
	key := GeoPrefix + ip
	loc, found, err := r.backend.Get(ctx, key)
	if err != nil {
		return "", false, &model.CacheError{Op: "get_location", Key: key, Err: err}
	}
	return loc, found, nil
}

func (r *Registry) CacheLocation(ctx context.Context, ip, location string, ttl time.Duration) error {
	if !r.Enabled() || ip == "" {
		return nil
	}
	key := GeoPrefix + ip
	if err := r.backend.Set(ctx, key, location, ttl); err != nil {
		return &model.CacheError{Op: "set_location", Key: key, Err: err}
	}
	return nil
}

func (r *Registry) Close() error {
	if !r.Enabled() {
		return nil
	}
	return r.backend.Close()
}
