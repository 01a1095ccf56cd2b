package model

import (
	"context"
	"net"
)

type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// ContextManager carries the authenticated identity through request contexts.
type ContextManager interface {
	SetIdentityToContext(ctx context.Context, identity Identity) context.Context
	GetIdentityFromContext(ctx context.Context) (Identity, bool)
}
