package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/erp-sessions/internal/logger"
	"github.com/dtroode/erp-sessions/internal/model"
)

// Authenticator resolves the caller identity from a bearer access token.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (model.Identity, error)
}

// Authenticate validates bearer tokens and injects the caller identity into context.
type Authenticate struct {
	authenticator  Authenticator
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(authenticator Authenticator, contextManager model.ContextManager, logger *logger.Logger) *Authenticate {
	return &Authenticate{authenticator: authenticator, contextManager: contextManager, logger: logger}
}

// AuthFunc parses the authorization header, validates the token and returns a context with the identity.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	tokenString := bearerToken(ctx)
	if tokenString == "" {
		return nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}

	identity, err := m.authenticator.Authenticate(ctx, tokenString)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTokenInvalid):
			return nil, status.Error(codes.Unauthenticated, "invalid authorization token")
		case errors.Is(err, model.ErrTokenRevoked):
			return nil, status.Error(codes.Unauthenticated, "session revoked")
		default:
			m.logger.Error("Authenticate: failed to resolve identity", "error", err.Error())
			return nil, status.Error(codes.Internal, "internal server error")
		}
	}

	return m.contextManager.SetIdentityToContext(ctx, identity), nil
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeaders[0], "Bearer "))
}
