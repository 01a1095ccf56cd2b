package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dtroode/erp-sessions/internal/cache"
	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/metrics"
	"github.com/dtroode/erp-sessions/internal/model"
)

// SessionPolicy holds the lifetimes and limits the lifecycle manager enforces.
type SessionPolicy struct {
	TTL             time.Duration
	MaxPerPrincipal int
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	SweepBatch      int
}

// SessionManager orchestrates the session lifecycle over the durable store and the cache registry.
// Only store failures are returned as errors; cache and enrichment failures are logged and skipped.
type SessionManager struct {
	store    model.SessionStore
	registry *cache.Registry
	risk     *RiskAssessor
	ua       model.UserAgentParser
	geo      model.GeoResolver
	clock    model.Clock
	policy   SessionPolicy
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewSessionManager(
	store model.SessionStore,
	registry *cache.Registry,
	risk *RiskAssessor,
	ua model.UserAgentParser,
	geo model.GeoResolver,
	clock model.Clock,
	policy SessionPolicy,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *SessionManager {
	return &SessionManager{
		store:    store,
		registry: registry,
		risk:     risk,
		ua:       ua,
		geo:      geo,
		clock:    clock,
		policy:   policy,
		metrics:  metrics,
		logger:   logger,
	}
}

// Create records a new login, scores it and enforces the per-principal cap.
func (m *SessionManager) Create(ctx context.Context, params model.CreateSessionParams) (model.Session, error) {
	if params.PrincipalID == "" || params.AccessTokenID == "" || params.RefreshTokenID == "" {
		return model.Session{}, fmt.Errorf("%w: principal and token ids are required", model.ErrInvalidArgument)
	}
	if params.AccessTokenID == params.RefreshTokenID {
		return model.Session{}, fmt.Errorf("%w: access and refresh token ids must differ", model.ErrInvalidArgument)
	}

	m.logger.Debug("Session manager: creating session",
		"principal_id", params.PrincipalID,
		"ip", params.IPAddress)

	now := m.clock.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return model.Session{}, fmt.Errorf("failed to generate session id: %w", err)
	}

	agent := m.ua.Parse(params.UserAgent)
	location := m.resolveLocation(ctx, params.IPAddress)

	risk, err := m.risk.Assess(ctx, params.PrincipalID, params.IPAddress, params.Device, location)
	if err != nil {
		return model.Session{}, err
	}

	session := model.Session{
		ID:             id.String(),
		PrincipalID:    params.PrincipalID,
		AccessTokenID:  params.AccessTokenID,
		RefreshTokenID: params.RefreshTokenID,
		DeviceType:     agent.Device,
		IPAddress:      params.IPAddress,
		Location:       location,
		UserAgent:      params.UserAgent,
		Browser:        agent.Browser,
		OS:             agent.OS,
		IsActive:       true,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(m.policy.TTL),
		IsSuspicious:   risk.Suspicious,
		RiskScore:      risk.Score,
	}
	if d := params.Device; d != nil {
		session.DeviceID = d.ID
		session.DeviceName = d.Name
		if d.Type != "" {
			session.DeviceType = d.Type
		}
	}
	if session.DeviceName == "" && agent.Browser != "" && agent.OS != "" {
		session.DeviceName = agent.Browser + " on " + agent.OS
	}

	if err := m.store.Create(ctx, session); err != nil {
		m.logger.Error("Session manager: failed to persist session",
			"principal_id", params.PrincipalID,
			"error", err.Error())
		return model.Session{}, &model.StorageError{Op: "create", Err: err}
	}

	if err := m.enforceCap(ctx, session); err != nil {
		m.rollbackCreate(ctx, session, now)
		return model.Session{}, err
	}
	m.metrics.SessionCreated(session.IsSuspicious)

	if session.IsSuspicious {
		m.logger.Warn("Session manager: suspicious login",
			"principal_id", session.PrincipalID,
			"session_id", session.ID,
			"risk_score", session.RiskScore,
			"ip", session.IPAddress,
			"location", session.Location)
	}

	m.mirror(ctx, session, now)

	m.logger.Info("Session manager: session created",
		"principal_id", session.PrincipalID,
		"session_id", session.ID,
		"risk_score", session.RiskScore)

	return session, nil
}

// Lookup finds the session owning tokenID regardless of its state. A missing session is nil.
func (m *SessionManager) Lookup(ctx context.Context, tokenID string, kind model.TokenKind) (*model.Session, error) {
	return m.getByToken(ctx, tokenID, kind)
}

// List returns the principal's sessions, most recently active first, flagging the one owning currentTokenID.
func (m *SessionManager) List(ctx context.Context, principalID string, activeOnly bool, currentTokenID string) ([]model.Session, error) {
	sessions, err := m.store.ListByPrincipal(ctx, principalID, activeOnly)
	if err != nil {
		m.logger.Error("Session manager: failed to list sessions",
			"principal_id", principalID,
			"error", err.Error())
		return nil, &model.StorageError{Op: "list", Err: err}
	}
	for i := range sessions {
		sessions[i].IsCurrent = sessions[i].OwnsToken(currentTokenID)
	}
	return sessions, nil
}

// Renew bumps activity on the session owning tokenID (refresh id first, then access id)
// and rotates its access token id when newAccessID is set. Inactive, expired or missing sessions yield nil.
func (m *SessionManager) Renew(ctx context.Context, tokenID, newAccessID string) (*model.Session, error) {
	s, err := m.getByToken(ctx, tokenID, model.TokenRefresh)
	if err != nil {
		return nil, err
	}
	if s == nil {
		if s, err = m.getByToken(ctx, tokenID, model.TokenAccess); err != nil {
			return nil, err
		}
	}

	now := m.clock.Now()
	if s == nil || !s.IsActive || !now.Before(s.ExpiresAt) {
		return nil, nil
	}

	if err := m.store.Touch(ctx, s.ID, now, newAccessID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		m.logger.Error("Session manager: failed to renew session",
			"session_id", s.ID,
			"error", err.Error())
		return nil, &model.StorageError{Op: "touch", Err: err}
	}

	s.LastActivityAt = now
	if newAccessID != "" {
		s.AccessTokenID = newAccessID
	}
	m.mirror(ctx, *s, now)

	m.logger.Debug("Session manager: session renewed",
		"session_id", s.ID,
		"rotated", newAccessID != "")

	return s, nil
}

// Revoke retires sessionID if it is active and owned by principalID.
// Missing, foreign and already retired sessions all report false.
func (m *SessionManager) Revoke(ctx context.Context, sessionID, principalID string) (bool, error) {
	s, err := m.store.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, &model.StorageError{Op: "get", Err: err}
	}
	if s.PrincipalID != principalID {
		m.logger.Debug("Session manager: revoke ownership mismatch",
			"session_id", sessionID,
			"principal_id", principalID)
		return false, nil
	}
	if !s.IsActive {
		return false, nil
	}
	return m.retire(ctx, s, model.RevokeReasonLogout)
}

// RevokeAll retires every active session of principalID except the one owning exceptTokenID.
func (m *SessionManager) RevokeAll(ctx context.Context, principalID, exceptTokenID string) (int, error) {
	active, err := m.store.ListByPrincipal(ctx, principalID, true)
	if err != nil {
		return 0, &model.StorageError{Op: "list", Err: err}
	}

	count := 0
	for _, s := range active {
		if s.OwnsToken(exceptTokenID) {
			continue
		}
		changed, err := m.retire(ctx, s, model.RevokeReasonRevokeAll)
		if err != nil {
			return count, err
		}
		if changed {
			count++
		}
	}

	m.logger.Info("Session manager: sessions revoked",
		"principal_id", principalID,
		"count", count,
		"kept_current", exceptTokenID != "")

	return count, nil
}

// SweepExpired retires active sessions past expires_at in bounded batches and drops their mirrors.
// Tokens are not blacklisted since they are expired already. onBatch, when set, sees every retired batch.
func (m *SessionManager) SweepExpired(ctx context.Context, onBatch func([]model.Session)) (int, error) {
	batchSize := m.policy.SweepBatch
	if batchSize <= 0 {
		batchSize = 500
	}

	total := 0
	for {
		batch, err := m.store.ExpireBefore(ctx, m.clock.Now(), batchSize)
		if err != nil {
			m.logger.Error("Session manager: sweep failed",
				"swept", total,
				"error", err.Error())
			m.metrics.SessionsSwept(total)
			return total, &model.StorageError{Op: "expire", Err: err}
		}

		for _, s := range batch {
			m.dropMirror(ctx, s.ID)
		}
		total += len(batch)
		if onBatch != nil && len(batch) > 0 {
			onBatch(batch)
		}

		if len(batch) < batchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			m.metrics.SessionsSwept(total)
			return total, err
		}
	}

	m.metrics.SessionsSwept(total)
	if total > 0 {
		m.logger.Info("Session manager: expired sessions swept", "count", total)
	}
	return total, nil
}

// IsTokenRevoked checks the blacklist. A failing cache reports false.
func (m *SessionManager) IsTokenRevoked(ctx context.Context, tokenID string) bool {
	revoked, err := m.registry.IsBlacklisted(ctx, tokenID)
	if err != nil {
		m.cacheFailed(err)
		return false
	}
	return revoked
}

func (m *SessionManager) enforceCap(ctx context.Context, created model.Session) error {
	if m.policy.MaxPerPrincipal <= 0 {
		return nil
	}

	active, err := m.store.ListByPrincipal(ctx, created.PrincipalID, true)
	if err != nil {
		return &model.StorageError{Op: "list", Err: err}
	}
	excess := len(active) - m.policy.MaxPerPrincipal
	if excess <= 0 {
		return nil
	}

	// active is ordered by last activity, newest first; evict from the tail.
	for i := len(active) - 1; i >= 0 && excess > 0; i-- {
		if active[i].ID == created.ID {
			continue
		}
		changed, err := m.retire(ctx, active[i], model.RevokeReasonEvicted)
		if err != nil {
			return err
		}
		// Already retired by a concurrent call; it no longer counts against the cap.
		if !changed {
			continue
		}
		m.logger.Info("Session manager: session evicted by cap",
			"principal_id", created.PrincipalID,
			"session_id", active[i].ID)
		excess--
	}
	return nil
}

// rollbackCreate retires a session whose creation failed after the insert. Its tokens were never
// handed out, so nothing is blacklisted.
func (m *SessionManager) rollbackCreate(ctx context.Context, s model.Session, now time.Time) {
	if _, err := m.store.Deactivate(ctx, s.ID, now); err != nil {
		m.logger.Error("Session manager: failed to roll back session",
			"session_id", s.ID,
			"principal_id", s.PrincipalID,
			"error", err.Error())
		return
	}
	m.logger.Warn("Session manager: session rolled back after cap enforcement failed",
		"session_id", s.ID,
		"principal_id", s.PrincipalID)
}

// retire deactivates s, blacklists both token ids for their remaining lifetime and drops the mirror.
func (m *SessionManager) retire(ctx context.Context, s model.Session, reason model.RevokeReason) (bool, error) {
	now := m.clock.Now()

	changed, err := m.store.Deactivate(ctx, s.ID, now)
	if err != nil {
		m.logger.Error("Session manager: failed to deactivate session",
			"session_id", s.ID,
			"error", err.Error())
		return false, &model.StorageError{Op: "deactivate", Err: err}
	}
	if !changed {
		return false, nil
	}

	accessTTL := s.LastActivityAt.Add(m.policy.AccessTTL).Sub(now)
	if err := m.registry.Blacklist(ctx, s.AccessTokenID, accessTTL); err != nil {
		m.cacheFailed(err)
	}
	refreshTTL := s.LoginAt.Add(m.policy.RefreshTTL).Sub(now)
	if err := m.registry.Blacklist(ctx, s.RefreshTokenID, refreshTTL); err != nil {
		m.cacheFailed(err)
	}
	m.dropMirror(ctx, s.ID)
	m.metrics.SessionRevoked(reason)

	m.logger.Info("Session manager: session revoked",
		"session_id", s.ID,
		"principal_id", s.PrincipalID,
		"reason", string(reason))

	return true, nil
}

func (m *SessionManager) getByToken(ctx context.Context, tokenID string, kind model.TokenKind) (*model.Session, error) {
	if tokenID == "" {
		return nil, nil
	}

	var (
		s   model.Session
		err error
	)
	switch kind {
	case model.TokenAccess:
		s, err = m.store.GetByAccessTokenID(ctx, tokenID)
	case model.TokenRefresh:
		s, err = m.store.GetByRefreshTokenID(ctx, tokenID)
	default:
		return nil, fmt.Errorf("%w: unknown token kind %q", model.ErrInvalidArgument, kind)
	}
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil
		}
		return nil, &model.StorageError{Op: "get_by_" + string(kind), Err: err}
	}
	return &s, nil
}

func (m *SessionManager) resolveLocation(ctx context.Context, ip string) string {
	if ip == "" {
		return ""
	}
	loc, err := m.geo.Resolve(ctx, ip)
	if err != nil {
		m.logger.Warn("Session manager: geo lookup failed",
			"ip", ip,
			"error", err.Error())
		return ""
	}
	return strings.TrimSpace(loc)
}

func (m *SessionManager) mirror(ctx context.Context, s model.Session, now time.Time) {
	if err := m.registry.MirrorSession(ctx, s, s.ExpiresAt.Sub(now)); err != nil {
		m.cacheFailed(err)
	}
}

func (m *SessionManager) dropMirror(ctx context.Context, sessionID string) {
	if err := m.registry.DropSession(ctx, sessionID); err != nil {
		m.cacheFailed(err)
	}
}

func (m *SessionManager) cacheFailed(err error) {
	op := "unknown"
	var ce *model.CacheError
	if errors.As(err, &ce) {
		op = ce.Op
	}
	m.metrics.CacheFailure(op)
	m.logger.Warn("Session manager: cache operation failed",
		"op", op,
		"error", err.Error())
}
