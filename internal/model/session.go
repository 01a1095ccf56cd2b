package model

import (
	"context"
	"time"
)

// UnknownLocation is what geo resolvers report when an address has no usable match.
const UnknownLocation = "Unknown"

// TokenKind selects which token id column a lookup targets.
type TokenKind string

const (
	// TokenAccess is a short-lived access token.
	TokenAccess TokenKind = "access"
	// TokenRefresh is a long-lived refresh token.
	TokenRefresh TokenKind = "refresh"
)

// RevokeReason records why a session was retired.
type RevokeReason string

const (
	RevokeReasonLogout    RevokeReason = "logout"
	RevokeReasonRevokeAll RevokeReason = "revoke_all"
	RevokeReasonEvicted   RevokeReason = "evicted"
	RevokeReasonExpired   RevokeReason = "expired"
)

// Session represents one authenticated device login of a principal.
// Rows are never physically deleted; retired sessions keep IsActive=false and LogoutAt.
type Session struct {
	ID             string
	PrincipalID    string
	AccessTokenID  string
	RefreshTokenID string
	DeviceID       string
	DeviceName     string
	DeviceType     string
	IPAddress      string
	Location       string
	UserAgent      string
	Browser        string
	OS             string
	IsActive       bool
	LoginAt        time.Time
	LastActivityAt time.Time
	ExpiresAt      time.Time
	LogoutAt       *time.Time
	IsSuspicious   bool
	RiskScore      int

	// IsCurrent is set by listings for the session owning the caller's token. Not persisted.
	IsCurrent bool
}

// OwnsToken reports whether tokenID is either of the session's token ids.
func (s Session) OwnsToken(tokenID string) bool {
	return tokenID != "" && (s.AccessTokenID == tokenID || s.RefreshTokenID == tokenID)
}

// DeviceInfo is optional client-supplied device identification.
type DeviceInfo struct {
	ID   string
	Name string
	Type string
}

// CreateSessionParams carries everything known about a login at creation time.
type CreateSessionParams struct {
	PrincipalID    string
	AccessTokenID  string
	RefreshTokenID string
	IPAddress      string
	UserAgent      string
	Device         *DeviceInfo
}

// SessionStore is the durable ledger of session records.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	GetByAccessTokenID(ctx context.Context, tokenID string) (Session, error)
	GetByRefreshTokenID(ctx context.Context, tokenID string) (Session, error)
	// ListByPrincipal returns sessions ordered by last activity, most recent first.
	ListByPrincipal(ctx context.Context, principalID string, activeOnly bool) ([]Session, error)
	// ListRecent returns at most limit sessions logged in at or after since, newest first.
	ListRecent(ctx context.Context, principalID string, since time.Time, limit int) ([]Session, error)
	// Touch bumps last activity and, when newAccessTokenID is not empty, rotates the access token id.
	Touch(ctx context.Context, id string, at time.Time, newAccessTokenID string) error
	// Deactivate retires an active session. It reports false when the session was already inactive.
	Deactivate(ctx context.Context, id string, at time.Time) (bool, error)
	// ExpireBefore retires up to limit active sessions whose expires_at is before now and returns them.
	ExpireBefore(ctx context.Context, now time.Time, limit int) ([]Session, error)
}

// Clock abstracts time for the lifecycle components.
type Clock interface {
	Now() time.Time
}
