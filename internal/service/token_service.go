package service

import (
	"context"
	"fmt"

	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

// SessionLifecycle is the session manager surface the token service orchestrates.
type SessionLifecycle interface {
	Create(ctx context.Context, params model.CreateSessionParams) (model.Session, error)
	Lookup(ctx context.Context, tokenID string, kind model.TokenKind) (*model.Session, error)
	Renew(ctx context.Context, tokenID, newAccessID string) (*model.Session, error)
	Revoke(ctx context.Context, sessionID, principalID string) (bool, error)
	RevokeAll(ctx context.Context, principalID, exceptTokenID string) (int, error)
	IsTokenRevoked(ctx context.Context, tokenID string) bool
}

var _ SessionLifecycle = (*SessionManager)(nil)

// TokenService ties token issuing and verification to session state.
type TokenService struct {
	codec    model.TokenCodec
	sessions SessionLifecycle
	logger   *logger.Logger
}

func NewTokenService(codec model.TokenCodec, sessions SessionLifecycle, logger *logger.Logger) *TokenService {
	return &TokenService{codec: codec, sessions: sessions, logger: logger}
}

// Login issues a token pair for an already authenticated principal and opens a session for it.
func (s *TokenService) Login(ctx context.Context, principalID string, lc model.LoginContext) (model.LoginResult, error) {
	pair, err := s.codec.IssuePair(principalID)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("issue token pair: %w", err)
	}

	session, err := s.sessions.Create(ctx, model.CreateSessionParams{
		PrincipalID:    principalID,
		AccessTokenID:  pair.AccessID,
		RefreshTokenID: pair.RefreshID,
		IPAddress:      lc.IPAddress,
		UserAgent:      lc.UserAgent,
		Device:         lc.Device,
	})
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("create session: %w", err)
	}

	return model.LoginResult{Tokens: pair, Session: session}, nil
}

// Refresh verifies a refresh token and rotates the session's access token.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (string, model.Session, error) {
	claims, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		if id, idErr := s.codec.ExtractID(refreshToken); idErr == nil {
			s.logger.Info("Token service: refresh token rejected",
				"token_id", id,
				"error", err.Error())
		}
		return "", model.Session{}, err
	}
	if s.sessions.IsTokenRevoked(ctx, claims.TokenID) {
		s.logger.Info("Token service: revoked refresh token presented",
			"principal_id", claims.PrincipalID)
		return "", model.Session{}, model.ErrTokenRevoked
	}

	access, accessID, err := s.codec.IssueAccess(claims.PrincipalID)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("issue access token: %w", err)
	}

	session, err := s.sessions.Renew(ctx, claims.TokenID, accessID)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("renew session: %w", err)
	}
	if session == nil || session.PrincipalID != claims.PrincipalID {
		return "", model.Session{}, model.ErrTokenRevoked
	}

	return access, *session, nil
}

// Authenticate resolves an access token to the caller's identity.
// The blacklist is checked first; the store then confirms the owning session is still active.
func (s *TokenService) Authenticate(ctx context.Context, accessToken string) (model.Identity, error) {
	claims, err := s.codec.VerifyAccess(accessToken)
	if err != nil {
		return model.Identity{}, err
	}
	if s.sessions.IsTokenRevoked(ctx, claims.TokenID) {
		return model.Identity{}, model.ErrTokenRevoked
	}

	session, err := s.sessions.Lookup(ctx, claims.TokenID, model.TokenAccess)
	if err != nil {
		return model.Identity{}, fmt.Errorf("lookup session: %w", err)
	}
	if session == nil || !session.IsActive || session.PrincipalID != claims.PrincipalID {
		return model.Identity{}, model.ErrTokenRevoked
	}

	return model.Identity{
		PrincipalID: claims.PrincipalID,
		SessionID:   session.ID,
		TokenID:     claims.TokenID,
	}, nil
}

// Logout retires the caller's own session.
func (s *TokenService) Logout(ctx context.Context, identity model.Identity) (bool, error) {
	return s.sessions.Revoke(ctx, identity.SessionID, identity.PrincipalID)
}

// LogoutOthers retires every other session of the caller.
func (s *TokenService) LogoutOthers(ctx context.Context, identity model.Identity) (int, error) {
	return s.sessions.RevokeAll(ctx, identity.PrincipalID, identity.TokenID)
}
