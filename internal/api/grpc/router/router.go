package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/erp-sessions/internal/api/grpc/handler"
	"github.com/dtroode/erp-sessions/internal/api/grpc/middleware"
	"github.com/dtroode/erp-sessions/internal/api/grpc/sessionpb"
	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

// TokenService is what the router needs from the token service: authentication for the
// interceptor and the token-bound operations for the handler.
type TokenService interface {
	middleware.Authenticator
	handler.TokenService
}

// Router wires the session handler, health service and interceptors into a gRPC server.
type Router struct {
	sessionService handler.SessionService
	tokenService   TokenService
	contextManager model.ContextManager
	serviceKey     string
	logger         *logger.Logger
}

// New creates new gRPC Router instance.
// It initializes a gRPC router with the session and token services.
//
// Parameters:
//   - sessionService: The session listing and revocation service
//   - tokenService: The service that authenticates callers and runs token-bound operations
//   - contextManager: The manager carrying the caller identity from interceptor to handler
//   - serviceKey: The shared secret the upstream authentication service presents on Login
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(
	sessionService handler.SessionService,
	tokenService TokenService,
	contextManager model.ContextManager,
	serviceKey string,
	logger *logger.Logger,
) *Router {
	return &Router{
		sessionService: sessionService,
		tokenService:   tokenService,
		contextManager: contextManager,
		serviceKey:     serviceKey,
		logger:         logger,
	}
}

// requiresAuth reports whether a call must carry a valid access token.
// Refresh is authenticated by the refresh token in its body, Login by the service key.
func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	switch c.FullMethod() {
	case sessionpb.RefreshSessionFullMethod, sessionpb.LoginFullMethod:
		return false
	}
	return !strings.HasPrefix(c.FullMethod(), "/grpc.health.v1.Health/")
}

func requiresServiceKey(_ context.Context, c interceptors.CallMeta) bool {
	return c.FullMethod() == sessionpb.LoginFullMethod
}

// Register builds the gRPC server with request logging and authentication interceptors.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	serviceKey := middleware.NewServiceKey(r.serviceKey, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(serviceKey.AuthFunc),
				selector.MatchFunc(requiresServiceKey),
			),
		),
		grpc.ChainStreamInterceptor(
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
	)
	r.registerSessionRoutes(s)
	r.registerHealth(s)

	return s
}

func (r *Router) registerSessionRoutes(server *grpc.Server) {
	sessionHandler := handler.NewSession(r.sessionService, r.tokenService, r.contextManager, r.logger)
	sessionpb.RegisterSessionsServer(server, sessionHandler)
}

func (r *Router) registerHealth(server *grpc.Server) {
	hs := health.NewServer()
	hs.SetServingStatus(sessionpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
}
