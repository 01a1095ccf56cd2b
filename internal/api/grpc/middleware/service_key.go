package middleware

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/erp-sessions/internal/logger"
)

const serviceKeyHeader = "x-service-key"

// ServiceKey admits calls from the upstream authentication service.
type ServiceKey struct {
	key    []byte
	logger *logger.Logger
}

// NewServiceKey creates a ServiceKey middleware. An empty key rejects every call.
func NewServiceKey(key string, logger *logger.Logger) *ServiceKey {
	return &ServiceKey{key: []byte(key), logger: logger}
}

// AuthFunc checks the x-service-key header against the configured key.
func (m *ServiceKey) AuthFunc(ctx context.Context) (context.Context, error) {
	if len(m.key) == 0 {
		return nil, status.Error(codes.PermissionDenied, "login disabled")
	}

	var presented string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(serviceKeyHeader); len(values) > 0 {
			presented = values[0]
		}
	}
	if presented == "" {
		return nil, status.Error(codes.Unauthenticated, "missing service key")
	}
	if subtle.ConstantTimeCompare([]byte(presented), m.key) != 1 {
		m.logger.Warn("ServiceKey: rejected call with wrong service key")
		return nil, status.Error(codes.PermissionDenied, "invalid service key")
	}

	return ctx, nil
}
