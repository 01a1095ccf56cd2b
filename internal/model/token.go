package model

import "time"

// TokenPair is an issued access/refresh pair with their unique ids.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessID         string
	RefreshID        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	PrincipalID string
	TokenID     string
	Kind        TokenKind
	ExpiresAt   time.Time
}

// TokenCodec issues and verifies signed tokens.
type TokenCodec interface {
	IssuePair(principalID string) (TokenPair, error)
	IssueAccess(principalID string) (token string, tokenID string, err error)
	VerifyAccess(token string) (TokenClaims, error)
	VerifyRefresh(token string) (TokenClaims, error)
	// ExtractID returns the token id without verifying the signature.
	ExtractID(token string) (string, error)
}

// Identity is the authenticated caller resolved from an access token.
type Identity struct {
	PrincipalID string
	SessionID   string
	TokenID     string
}

// LoginContext is what the transport knows about the client at login.
type LoginContext struct {
	IPAddress string
	UserAgent string
	Device    *DeviceInfo
}

// LoginResult is an issued token pair and the session that owns it.
type LoginResult struct {
	Tokens  TokenPair
	Session Session
}
