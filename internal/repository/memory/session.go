// Package memory holds an in-process session store for single-node deployments and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dtroode/erp-sessions/internal/model"
)

var _ model.SessionStore = (*SessionRepository)(nil)

type SessionRepository struct {
	mu        sync.RWMutex
	sessions  map[string]model.Session
	byAccess  map[string]string
	byRefresh map[string]string
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions:  make(map[string]model.Session),
		byAccess:  make(map[string]string),
		byRefresh: make(map[string]string),
	}
}

func (r *SessionRepository) Create(_ context.Context, s model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return model.ErrDuplicateTokenID
	}
	if s.AccessTokenID == s.RefreshTokenID {
		return model.ErrDuplicateTokenID
	}
	// Ids are unique per column, matching the sessions table's unique indexes.
	if _, ok := r.byAccess[s.AccessTokenID]; ok {
		return model.ErrDuplicateTokenID
	}
	if _, ok := r.byRefresh[s.RefreshTokenID]; ok {
		return model.ErrDuplicateTokenID
	}

	s.IsCurrent = false
	r.sessions[s.ID] = s
	r.byAccess[s.AccessTokenID] = s.ID
	r.byRefresh[s.RefreshTokenID] = s.ID
	return nil
}

func (r *SessionRepository) GetByID(_ context.Context, id string) (model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return s, nil
}

func (r *SessionRepository) GetByAccessTokenID(ctx context.Context, tokenID string) (model.Session, error) {
	r.mu.RLock()
	id, ok := r.byAccess[tokenID]
	r.mu.RUnlock()
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SessionRepository) GetByRefreshTokenID(ctx context.Context, tokenID string) (model.Session, error) {
	r.mu.RLock()
	id, ok := r.byRefresh[tokenID]
	r.mu.RUnlock()
	if !ok {
		return model.Session{}, model.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SessionRepository) ListByPrincipal(_ context.Context, principalID string, activeOnly bool) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Session
	for _, s := range r.sessions {
		if s.PrincipalID != principalID || (activeOnly && !s.IsActive) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

func (r *SessionRepository) ListRecent(_ context.Context, principalID string, since time.Time, limit int) ([]model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Session
	for _, s := range r.sessions {
		if s.PrincipalID == principalID && !s.LoginAt.Before(since) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LoginAt.After(out[j].LoginAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *SessionRepository) Touch(_ context.Context, id string, at time.Time, newAccessTokenID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return model.ErrNotFound
	}
	if newAccessTokenID != "" && newAccessTokenID != s.AccessTokenID {
		if _, ok := r.byAccess[newAccessTokenID]; ok {
			return model.ErrDuplicateTokenID
		}
		if newAccessTokenID == s.RefreshTokenID {
			return model.ErrDuplicateTokenID
		}
		delete(r.byAccess, s.AccessTokenID)
		s.AccessTokenID = newAccessTokenID
		r.byAccess[newAccessTokenID] = id
	}
	s.LastActivityAt = at
	r.sessions[id] = s
	return nil
}

func (r *SessionRepository) Deactivate(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || !s.IsActive {
		return false, nil
	}
	r.retire(&s, at)
	return true, nil
}

func (r *SessionRepository) ExpireBefore(_ context.Context, now time.Time, limit int) ([]model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []model.Session
	for _, s := range r.sessions {
		if s.IsActive && s.ExpiresAt.Before(now) {
			expired = append(expired, s)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	for i := range expired {
		r.retire(&expired[i], now)
	}
	return expired, nil
}

func (r *SessionRepository) retire(s *model.Session, at time.Time) {
	logoutAt := at
	s.IsActive = false
	s.LogoutAt = &logoutAt
	r.sessions[s.ID] = *s
}
