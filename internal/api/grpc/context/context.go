package context

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/dtroode/erp-sessions/internal/model"
)

// Metadata keys used to carry the authenticated identity through the request context.
const (
	principalIDKey string = "x-principal-id"
	sessionIDKey   string = "x-session-id"
	tokenIDKey     string = "x-token-id"
)

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the caller identity in incoming gRPC metadata.
type Manager struct{}

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetIdentityToContext returns a context whose incoming metadata carries identity.
// Values already present under the identity keys are replaced, so a client cannot spoof them.
//
// Parameters:
//   - ctx: The gRPC context
//   - identity: The authenticated caller
//
// Returns a new context with the identity in incoming metadata.
func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	} else {
		md = md.Copy()
	}

	md.Set(principalIDKey, identity.PrincipalID)
	md.Set(sessionIDKey, identity.SessionID)
	md.Set(tokenIDKey, identity.TokenID)

	return metadata.NewIncomingContext(ctx, md)
}

// GetIdentityFromContext reads the identity set by SetIdentityToContext.
// It reports false when the principal id is missing.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return model.Identity{}, false
	}

	identity := model.Identity{
		PrincipalID: first(md, principalIDKey),
		SessionID:   first(md, sessionIDKey),
		TokenID:     first(md, tokenIDKey),
	}
	if identity.PrincipalID == "" {
		return model.Identity{}, false
	}

	return identity, true
}

func first(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
