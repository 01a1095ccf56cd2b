package context

import (
	stdctx "context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/erp-sessions/internal/model"
)

func TestManager_SetAndGetIdentity(t *testing.T) {
	m := NewManager()
	identity := model.Identity{PrincipalID: "p1", SessionID: "s1", TokenID: "a1"}
	ctx := m.SetIdentityToContext(stdctx.Background(), identity)

	got, ok := m.GetIdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, identity, got)
}

func TestManager_GetIdentity_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetIdentityFromContext(stdctx.Background())
	assert.False(t, ok)
}

func TestManager_GetIdentity_MissingPrincipal(t *testing.T) {
	m := NewManager()
	md := metadata.New(map[string]string{sessionIDKey: "s1"})
	ctx := metadata.NewIncomingContext(stdctx.Background(), md)

	_, ok := m.GetIdentityFromContext(ctx)
	assert.False(t, ok)
}

func TestManager_SetIdentity_OverridesClientMetadata(t *testing.T) {
	m := NewManager()
	baseMD := metadata.New(map[string]string{
		"x-trace-id":   "t",
		principalIDKey: "spoofed",
	})
	ctxWithMD := metadata.NewIncomingContext(stdctx.Background(), baseMD)

	ctx := m.SetIdentityToContext(ctxWithMD, model.Identity{PrincipalID: "p1", SessionID: "s1", TokenID: "a1"})
	got, ok := m.GetIdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "p1", got.PrincipalID)

	md, _ := metadata.FromIncomingContext(ctx)
	assert.Equal(t, []string{"t"}, md.Get("x-trace-id"))
	assert.Equal(t, []string{"spoofed"}, baseMD.Get(principalIDKey))
}
