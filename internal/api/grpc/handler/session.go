package handler

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dtroode/erp-sessions/internal/api/grpc/sessionpb"
	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

// SessionService lists and revokes sessions of a principal.
type SessionService interface {
	List(ctx context.Context, principalID string, activeOnly bool, currentTokenID string) ([]model.Session, error)
	Revoke(ctx context.Context, sessionID, principalID string) (bool, error)
}

// TokenService covers the token-bound session operations.
type TokenService interface {
	Login(ctx context.Context, principalID string, lc model.LoginContext) (model.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, model.Session, error)
	Logout(ctx context.Context, identity model.Identity) (bool, error)
	LogoutOthers(ctx context.Context, identity model.Identity) (int, error)
}

var _ sessionpb.SessionsServer = (*Session)(nil)

// Session handles the session.v1.Sessions gRPC endpoints.
type Session struct {
	sessionpb.UnimplementedSessionsServer
	sessionService SessionService
	tokenService   TokenService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewSession creates a new Session handler.
func NewSession(sessionService SessionService, tokenService TokenService, contextManager model.ContextManager, logger *logger.Logger) *Session {
	return &Session{
		sessionService: sessionService,
		tokenService:   tokenService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// Login opens a session for a principal the upstream authentication service has already verified.
// It is gated by the service key, not by an access token.
func (h *Session) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	principalID, err := stringField(fields, "principal_id")
	if err != nil {
		return nil, err
	}
	if principalID == "" {
		return nil, status.Error(codes.InvalidArgument, "principal_id is required")
	}
	ip, err := stringField(fields, "ip_address")
	if err != nil {
		return nil, err
	}
	ua, err := stringField(fields, "user_agent")
	if err != nil {
		return nil, err
	}
	device, err := deviceField(fields)
	if err != nil {
		return nil, err
	}

	res, err := h.tokenService.Login(ctx, principalID, model.LoginContext{
		IPAddress: ip,
		UserAgent: ua,
		Device:    device,
	})
	if err != nil {
		h.logger.Error("Session handler: login failed",
			"principal_id", principalID,
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Session handler: login completed",
		"principal_id", principalID,
		"session_id", res.Session.ID,
		"suspicious", res.Session.IsSuspicious)

	out, err := structpb.NewStruct(map[string]interface{}{
		"access_token":       res.Tokens.AccessToken,
		"refresh_token":      res.Tokens.RefreshToken,
		"session_id":         res.Session.ID,
		"access_expires_at":  res.Tokens.AccessExpiresAt.UTC().Format(time.RFC3339),
		"refresh_expires_at": res.Tokens.RefreshExpiresAt.UTC().Format(time.RFC3339),
		"is_suspicious":      res.Session.IsSuspicious,
		"risk_score":         res.Session.RiskScore,
	})
	if err != nil {
		return nil, handleError(fmt.Errorf("encode login response: %w", err))
	}
	return out, nil
}

// ListSessions returns the caller's sessions, most recently active first.
func (h *Session) ListSessions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	identity, err := h.identity(ctx)
	if err != nil {
		return nil, err
	}

	activeOnly := true
	if v, ok := req.GetFields()["active_only"]; ok {
		if _, isBool := v.GetKind().(*structpb.Value_BoolValue); !isBool {
			return nil, status.Error(codes.InvalidArgument, "active_only must be a boolean")
		}
		activeOnly = v.GetBoolValue()
	}

	sessions, err := h.sessionService.List(ctx, identity.PrincipalID, activeOnly, identity.TokenID)
	if err != nil {
		h.logger.Error("Session handler: list failed",
			"principal_id", identity.PrincipalID,
			"error", err.Error())
		return nil, handleError(err)
	}

	items := make([]interface{}, 0, len(sessions))
	for _, s := range sessions {
		items = append(items, sessionToMap(s))
	}

	out, err := structpb.NewStruct(map[string]interface{}{"sessions": items})
	if err != nil {
		return nil, handleError(fmt.Errorf("encode sessions: %w", err))
	}
	return out, nil
}

// RevokeSession retires one of the caller's sessions.
func (h *Session) RevokeSession(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	identity, err := h.identity(ctx)
	if err != nil {
		return nil, err
	}
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "session id is required")
	}

	revoked, err := h.sessionService.Revoke(ctx, req.GetValue(), identity.PrincipalID)
	if err != nil {
		h.logger.Error("Session handler: revoke failed",
			"session_id", req.GetValue(),
			"error", err.Error())
		return nil, handleError(err)
	}

	h.logger.Info("Session handler: revoke completed",
		"session_id", req.GetValue(),
		"revoked", revoked)

	return wrapperspb.Bool(revoked), nil
}

// RevokeOtherSessions retires every session of the caller except the current one.
func (h *Session) RevokeOtherSessions(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	identity, err := h.identity(ctx)
	if err != nil {
		return nil, err
	}

	n, err := h.tokenService.LogoutOthers(ctx, identity)
	if err != nil {
		h.logger.Error("Session handler: revoke others failed",
			"principal_id", identity.PrincipalID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return wrapperspb.Int64(int64(n)), nil
}

// Logout retires the caller's current session.
func (h *Session) Logout(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	identity, err := h.identity(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := h.tokenService.Logout(ctx, identity)
	if err != nil {
		h.logger.Error("Session handler: logout failed",
			"session_id", identity.SessionID,
			"error", err.Error())
		return nil, handleError(err)
	}

	return wrapperspb.Bool(ok), nil
}

// RefreshSession exchanges a refresh token for a new access token. It is called without an access token.
func (h *Session) RefreshSession(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "refresh token is required")
	}

	access, session, err := h.tokenService.Refresh(ctx, req.GetValue())
	if err != nil {
		h.logger.Info("Session handler: refresh rejected", "error", err.Error())
		return nil, handleError(err)
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"access_token": access,
		"session_id":   session.ID,
	})
	if err != nil {
		return nil, handleError(fmt.Errorf("encode refresh response: %w", err))
	}
	return out, nil
}

func (h *Session) identity(ctx context.Context) (model.Identity, error) {
	identity, ok := h.contextManager.GetIdentityFromContext(ctx)
	if !ok {
		return model.Identity{}, status.Error(codes.Unauthenticated, "missing identity")
	}
	return identity, nil
}

// stringField reads an optional string field; absent fields read as empty.
func stringField(fields map[string]*structpb.Value, name string) (string, error) {
	v, ok := fields[name]
	if !ok {
		return "", nil
	}
	if _, isString := v.GetKind().(*structpb.Value_StringValue); !isString {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return v.GetStringValue(), nil
}

func deviceField(fields map[string]*structpb.Value) (*model.DeviceInfo, error) {
	v, ok := fields["device"]
	if !ok {
		return nil, nil
	}
	if _, isStruct := v.GetKind().(*structpb.Value_StructValue); !isStruct {
		return nil, status.Error(codes.InvalidArgument, "device must be an object")
	}
	df := v.GetStructValue().GetFields()

	var d model.DeviceInfo
	var err error
	if d.ID, err = stringField(df, "id"); err != nil {
		return nil, err
	}
	if d.Name, err = stringField(df, "name"); err != nil {
		return nil, err
	}
	if d.Type, err = stringField(df, "type"); err != nil {
		return nil, err
	}
	return &d, nil
}

func sessionToMap(s model.Session) map[string]interface{} {
	m := map[string]interface{}{
		"id":               s.ID,
		"device_id":        s.DeviceID,
		"device_name":      s.DeviceName,
		"device_type":      s.DeviceType,
		"ip_address":       s.IPAddress,
		"location":         s.Location,
		"browser":          s.Browser,
		"os":               s.OS,
		"is_active":        s.IsActive,
		"is_current":       s.IsCurrent,
		"is_suspicious":    s.IsSuspicious,
		"risk_score":       s.RiskScore,
		"login_at":         s.LoginAt.UTC().Format(time.RFC3339),
		"last_activity_at": s.LastActivityAt.UTC().Format(time.RFC3339),
		"expires_at":       s.ExpiresAt.UTC().Format(time.RFC3339),
	}
	if s.LogoutAt != nil {
		m["logout_at"] = s.LogoutAt.UTC().Format(time.RFC3339)
	}
	return m
}
