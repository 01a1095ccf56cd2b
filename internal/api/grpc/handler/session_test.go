package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dtroode/erp-sessions/internal/mocks"
	"github.com/dtroode/erp-sessions/internal/model"
	"github.com/dtroode/erp-sessions/internal/testutil"
)

var caller = model.Identity{PrincipalID: "p1", SessionID: "s1", TokenID: "a1"}

func newHandler(t *testing.T, authenticated bool) (*Session, *mocks.SessionService, *mocks.TokenService) {
	t.Helper()

	sessions := mocks.NewSessionService(t)
	tokens := mocks.NewTokenService(t)
	cm := mocks.NewContextManager(t)
	if authenticated {
		cm.On("GetIdentityFromContext", mock.Anything).Return(caller, true).Maybe()
	} else {
		cm.On("GetIdentityFromContext", mock.Anything).Return(model.Identity{}, false).Maybe()
	}

	return NewSession(sessions, tokens, cm, testutil.MakeNoopLogger()), sessions, tokens
}

func grpcCode(t *testing.T, err error) codes.Code {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok)
	return st.Code()
}

func TestSession_ListSessions(t *testing.T) {
	t.Parallel()

	h, sessions, _ := newHandler(t, true)
	login := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	logout := login.Add(time.Hour)
	sessions.On("List", mock.Anything, "p1", false, "a1").Return([]model.Session{
		{ID: "s1", DeviceName: "Chrome on Linux", IsActive: true, IsCurrent: true, LoginAt: login, LastActivityAt: login, ExpiresAt: login.Add(time.Hour), RiskScore: 30},
		{ID: "s0", IsActive: false, LoginAt: login, LastActivityAt: login, ExpiresAt: login, LogoutAt: &logout},
	}, nil).Once()

	req, err := structpb.NewStruct(map[string]interface{}{"active_only": false})
	require.NoError(t, err)

	out, err := h.ListSessions(context.Background(), req)
	require.NoError(t, err)

	items := out.GetFields()["sessions"].GetListValue().GetValues()
	require.Len(t, items, 2)

	first := items[0].GetStructValue().GetFields()
	assert.Equal(t, "s1", first["id"].GetStringValue())
	assert.Equal(t, "Chrome on Linux", first["device_name"].GetStringValue())
	assert.True(t, first["is_current"].GetBoolValue())
	assert.Equal(t, float64(30), first["risk_score"].GetNumberValue())
	assert.Equal(t, "2026-05-04T12:00:00Z", first["login_at"].GetStringValue())
	_, hasLogout := first["logout_at"]
	assert.False(t, hasLogout)

	second := items[1].GetStructValue().GetFields()
	assert.Equal(t, "2026-05-04T13:00:00Z", second["logout_at"].GetStringValue())
}

func TestSession_ListSessions_DefaultsToActive(t *testing.T) {
	t.Parallel()

	h, sessions, _ := newHandler(t, true)
	sessions.On("List", mock.Anything, "p1", true, "a1").Return(nil, nil).Once()

	out, err := h.ListSessions(context.Background(), &structpb.Struct{})
	require.NoError(t, err)
	assert.Empty(t, out.GetFields()["sessions"].GetListValue().GetValues())
}

func TestSession_ListSessions_BadFlag(t *testing.T) {
	t.Parallel()

	h, _, _ := newHandler(t, true)
	req, err := structpb.NewStruct(map[string]interface{}{"active_only": "yes"})
	require.NoError(t, err)

	_, err = h.ListSessions(context.Background(), req)
	assert.Equal(t, codes.InvalidArgument, grpcCode(t, err))
}

func TestSession_ListSessions_StorageError(t *testing.T) {
	t.Parallel()

	h, sessions, _ := newHandler(t, true)
	sessions.On("List", mock.Anything, "p1", true, "a1").Return(nil, &model.StorageError{Op: "list", Err: assert.AnError}).Once()

	_, err := h.ListSessions(context.Background(), &structpb.Struct{})
	assert.Equal(t, codes.Internal, grpcCode(t, err))
}

func TestSession_RequiresIdentity(t *testing.T) {
	t.Parallel()

	h, _, _ := newHandler(t, false)
	ctx := context.Background()

	_, err := h.ListSessions(ctx, &structpb.Struct{})
	assert.Equal(t, codes.Unauthenticated, grpcCode(t, err))
	_, err = h.RevokeSession(ctx, wrapperspb.String("s2"))
	assert.Equal(t, codes.Unauthenticated, grpcCode(t, err))
	_, err = h.RevokeOtherSessions(ctx, &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, grpcCode(t, err))
	_, err = h.Logout(ctx, &emptypb.Empty{})
	assert.Equal(t, codes.Unauthenticated, grpcCode(t, err))
}

func TestSession_RevokeSession(t *testing.T) {
	t.Parallel()

	h, sessions, _ := newHandler(t, true)
	sessions.On("Revoke", mock.Anything, "s2", "p1").Return(true, nil).Once()
	sessions.On("Revoke", mock.Anything, "s3", "p1").Return(false, nil).Once()

	out, err := h.RevokeSession(context.Background(), wrapperspb.String("s2"))
	require.NoError(t, err)
	assert.True(t, out.GetValue())

	out, err = h.RevokeSession(context.Background(), wrapperspb.String("s3"))
	require.NoError(t, err)
	assert.False(t, out.GetValue())

	_, err = h.RevokeSession(context.Background(), wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, grpcCode(t, err))
}

func TestSession_RevokeOtherSessions(t *testing.T) {
	t.Parallel()

	h, _, tokens := newHandler(t, true)
	tokens.On("LogoutOthers", mock.Anything, caller).Return(3, nil).Once()

	out, err := h.RevokeOtherSessions(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.GetValue())
}

func TestSession_Logout(t *testing.T) {
	t.Parallel()

	h, _, tokens := newHandler(t, true)
	tokens.On("Logout", mock.Anything, caller).Return(true, nil).Once()
	tokens.On("Logout", mock.Anything, caller).Return(false, &model.StorageError{Op: "deactivate", Err: assert.AnError}).Once()

	out, err := h.Logout(context.Background(), &emptypb.Empty{})
	require.NoError(t, err)
	assert.True(t, out.GetValue())

	_, err = h.Logout(context.Background(), &emptypb.Empty{})
	assert.Equal(t, codes.Internal, grpcCode(t, err))
}

func TestSession_RefreshSession(t *testing.T) {
	t.Parallel()

	h, _, tokens := newHandler(t, false)
	tokens.On("Refresh", mock.Anything, "refresh-token").Return("access-token", model.Session{ID: "s1"}, nil).Once()
	tokens.On("Refresh", mock.Anything, "revoked").Return("", model.Session{}, model.ErrTokenRevoked).Once()

	out, err := h.RefreshSession(context.Background(), wrapperspb.String("refresh-token"))
	require.NoError(t, err)
	assert.Equal(t, "access-token", out.GetFields()["access_token"].GetStringValue())
	assert.Equal(t, "s1", out.GetFields()["session_id"].GetStringValue())

	_, err = h.RefreshSession(context.Background(), wrapperspb.String("revoked"))
	assert.Equal(t, codes.Unauthenticated, grpcCode(t, err))

	_, err = h.RefreshSession(context.Background(), wrapperspb.String(""))
	assert.Equal(t, codes.InvalidArgument, grpcCode(t, err))
}

func TestSession_Login(t *testing.T) {
	t.Parallel()

	h, _, tokens := newHandler(t, false)
	issued := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	tokens.On("Login", mock.Anything, "p1", model.LoginContext{
		IPAddress: "10.0.0.1",
		UserAgent: "Mozilla/5.0",
		Device:    &model.DeviceInfo{ID: "d1", Name: "Work laptop", Type: "desktop"},
	}).Return(model.LoginResult{
		Tokens: model.TokenPair{
			AccessToken:      "access",
			RefreshToken:     "refresh",
			AccessExpiresAt:  issued.Add(30 * time.Minute),
			RefreshExpiresAt: issued.Add(time.Hour),
		},
		Session: model.Session{ID: "s9", IsSuspicious: true, RiskScore: 60},
	}, nil).Once()

	req, err := structpb.NewStruct(map[string]interface{}{
		"principal_id": "p1",
		"ip_address":   "10.0.0.1",
		"user_agent":   "Mozilla/5.0",
		"device":       map[string]interface{}{"id": "d1", "name": "Work laptop", "type": "desktop"},
	})
	require.NoError(t, err)

	out, err := h.Login(context.Background(), req)
	require.NoError(t, err)

	fields := out.GetFields()
	assert.Equal(t, "access", fields["access_token"].GetStringValue())
	assert.Equal(t, "refresh", fields["refresh_token"].GetStringValue())
	assert.Equal(t, "s9", fields["session_id"].GetStringValue())
	assert.Equal(t, "2026-05-04T12:30:00Z", fields["access_expires_at"].GetStringValue())
	assert.Equal(t, "2026-05-04T13:00:00Z", fields["refresh_expires_at"].GetStringValue())
	assert.True(t, fields["is_suspicious"].GetBoolValue())
	assert.Equal(t, float64(60), fields["risk_score"].GetNumberValue())
}

func TestSession_Login_WithoutDevice(t *testing.T) {
	t.Parallel()

	h, _, tokens := newHandler(t, false)
	tokens.On("Login", mock.Anything, "p1", model.LoginContext{IPAddress: "10.0.0.1"}).
		Return(model.LoginResult{Session: model.Session{ID: "s9"}}, nil).Once()

	req, err := structpb.NewStruct(map[string]interface{}{"principal_id": "p1", "ip_address": "10.0.0.1"})
	require.NoError(t, err)

	out, err := h.Login(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "s9", out.GetFields()["session_id"].GetStringValue())
}

func TestSession_Login_InvalidRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{name: "missing principal", fields: map[string]interface{}{"ip_address": "10.0.0.1"}},
		{name: "empty principal", fields: map[string]interface{}{"principal_id": ""}},
		{name: "principal not a string", fields: map[string]interface{}{"principal_id": 7}},
		{name: "ip not a string", fields: map[string]interface{}{"principal_id": "p1", "ip_address": true}},
		{name: "device not an object", fields: map[string]interface{}{"principal_id": "p1", "device": "laptop"}},
		{name: "device id not a string", fields: map[string]interface{}{"principal_id": "p1", "device": map[string]interface{}{"id": 1}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h, _, _ := newHandler(t, false)
			req, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			_, err = h.Login(context.Background(), req)
			assert.Equal(t, codes.InvalidArgument, grpcCode(t, err))
		})
	}
}

func TestSession_Login_ServiceError(t *testing.T) {
	t.Parallel()

	h, _, tokens := newHandler(t, false)
	tokens.On("Login", mock.Anything, "p1", model.LoginContext{}).
		Return(model.LoginResult{}, &model.StorageError{Op: "create", Err: assert.AnError}).Once()

	req, err := structpb.NewStruct(map[string]interface{}{"principal_id": "p1"})
	require.NoError(t, err)

	_, err = h.Login(context.Background(), req)
	assert.Equal(t, codes.Internal, grpcCode(t, err))
}
