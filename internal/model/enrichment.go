package model

import (
	"context"
	"io"
)

// UserAgentInfo is the best-effort breakdown of a user-agent string.
type UserAgentInfo struct {
	Browser string
	OS      string
	Device  string
}

// UserAgentParser never fails; unparseable input yields an empty UserAgentInfo.
type UserAgentParser interface {
	Parse(userAgent string) UserAgentInfo
}

// GeoResolver maps an IP address to a human readable location.
// An empty location with a nil error means the address is not resolvable.
type GeoResolver interface {
	Resolve(ctx context.Context, ip string) (string, error)
}

// Archive stores retired-session audit batches.
type Archive interface {
	Upload(ctx context.Context, key string, reader io.Reader) error
}
