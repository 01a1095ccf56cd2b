// Package sessionpb declares the session.v1.Sessions gRPC service described by
// proto/session/v1/sessions.proto. Messages are protobuf well-known types, so the
// package carries only the service descriptor, server registration and client.
package sessionpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "session.v1.Sessions"

const (
	LoginFullMethod               = "/session.v1.Sessions/Login"
	ListSessionsFullMethod        = "/session.v1.Sessions/ListSessions"
	RevokeSessionFullMethod       = "/session.v1.Sessions/RevokeSession"
	RevokeOtherSessionsFullMethod = "/session.v1.Sessions/RevokeOtherSessions"
	LogoutFullMethod              = "/session.v1.Sessions/Logout"
	RefreshSessionFullMethod      = "/session.v1.Sessions/RefreshSession"
)

// SessionsServer is the server API for the Sessions service.
type SessionsServer interface {
	// Login opens a session for a principal already authenticated upstream.
	// It takes {"principal_id", "ip_address", "user_agent", "device": {"id", "name", "type"}} and returns
	// {"access_token", "refresh_token", "session_id", "access_expires_at", "refresh_expires_at", "is_suspicious", "risk_score"}.
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// ListSessions takes {"active_only": bool} and returns {"sessions": [...]}.
	ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// RevokeSession takes a session id and reports whether anything was revoked.
	RevokeSession(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	// RevokeOtherSessions revokes every session but the caller's and returns the count.
	RevokeOtherSessions(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	// Logout revokes the caller's own session.
	Logout(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error)
	// RefreshSession takes a refresh token and returns {"access_token", "session_id"}.
	RefreshSession(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// UnimplementedSessionsServer can be embedded to have forward compatible implementations.
type UnimplementedSessionsServer struct{}

func (UnimplementedSessionsServer) Login(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Login not implemented")
}

func (UnimplementedSessionsServer) ListSessions(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListSessions not implemented")
}

func (UnimplementedSessionsServer) RevokeSession(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RevokeSession not implemented")
}

func (UnimplementedSessionsServer) RevokeOtherSessions(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RevokeOtherSessions not implemented")
}

func (UnimplementedSessionsServer) Logout(context.Context, *emptypb.Empty) (*wrapperspb.BoolValue, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Logout not implemented")
}

func (UnimplementedSessionsServer) RefreshSession(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RefreshSession not implemented")
}

func RegisterSessionsServer(s grpc.ServiceRegistrar, srv SessionsServer) {
	s.RegisterService(&Sessions_ServiceDesc, srv)
}

func _Sessions_Login_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LoginFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionsServer).Login(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Sessions_ListSessions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).ListSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListSessionsFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionsServer).ListSessions(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _Sessions_RevokeSession_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).RevokeSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RevokeSessionFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionsServer).RevokeSession(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Sessions_RevokeOtherSessions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).RevokeOtherSessions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RevokeOtherSessionsFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionsServer).RevokeOtherSessions(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Sessions_Logout_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LogoutFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionsServer).Logout(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Sessions_RefreshSession_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionsServer).RefreshSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RefreshSessionFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(SessionsServer).RefreshSession(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Sessions_ServiceDesc is the grpc.ServiceDesc for the Sessions service.
var Sessions_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Login", Handler: _Sessions_Login_Handler},
		{MethodName: "ListSessions", Handler: _Sessions_ListSessions_Handler},
		{MethodName: "RevokeSession", Handler: _Sessions_RevokeSession_Handler},
		{MethodName: "RevokeOtherSessions", Handler: _Sessions_RevokeOtherSessions_Handler},
		{MethodName: "Logout", Handler: _Sessions_Logout_Handler},
		{MethodName: "RefreshSession", Handler: _Sessions_RefreshSession_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "session/v1/sessions.proto",
}

// SessionsClient is the client API for the Sessions service.
type SessionsClient interface {
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListSessions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RevokeSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	RevokeOtherSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error)
	Logout(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	RefreshSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type sessionsClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionsClient(cc grpc.ClientConnInterface) SessionsClient {
	return &sessionsClient{cc}
}

func (c *sessionsClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LoginFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionsClient) ListSessions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListSessionsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionsClient) RevokeSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, RevokeSessionFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionsClient) RevokeOtherSessions(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, RevokeOtherSessionsFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionsClient) Logout(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, LogoutFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionsClient) RefreshSession(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RefreshSessionFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
