package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/erp-sessions/internal/model"
)

// Claims represents JWT claims with token type and principal id.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"typ"`
}

var _ model.TokenCodec = (*JWT)(nil)

// JWT implements model.TokenCodec backed by symmetric HMAC.
type JWT struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWT creates a token codec with the provided secret and lifetimes.
// Tokens are signed with HS256.
//
// Parameters:
//   - secretKey: The HMAC signing secret
//   - accessTTL: The lifetime of access tokens
//   - refreshTTL: The lifetime of refresh tokens
//
// Returns a pointer to the newly created JWT instance.
func NewJWT(secretKey string, accessTTL, refreshTTL time.Duration) *JWT {
	return &JWT{
		secretKey:  []byte(secretKey),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// NewTokenID returns a 64 character random hex id.
func NewTokenID() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// IssuePair creates an access and a refresh token with two distinct ids.
// Both tokens share one issue time.
//
// Parameters:
//   - principalID: The principal the tokens are issued to
//
// Returns the signed pair with ids and expiry times, or an error if signing fails.
func (j *JWT) IssuePair(principalID string) (model.TokenPair, error) {
	now := j.now()

	accessID := NewTokenID()
	access, err := j.sign(principalID, accessID, model.TokenAccess, now, j.accessTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshID := NewTokenID()
	refresh, err := j.sign(principalID, refreshID, model.TokenRefresh, now, j.refreshTTL)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessID:         accessID,
		RefreshID:        refreshID,
		AccessExpiresAt:  now.Add(j.accessTTL),
		RefreshExpiresAt: now.Add(j.refreshTTL),
	}, nil
}

// IssueAccess creates a fresh access token for an existing session.
func (j *JWT) IssueAccess(principalID string) (string, string, error) {
	id := NewTokenID()
	token, err := j.sign(principalID, id, model.TokenAccess, j.now(), j.accessTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, id, nil
}

// VerifyAccess validates an access token and returns its claims.
//
// Parameters:
//   - tokenString: The signed access token
//
// Returns the token claims, or model.ErrTokenInvalid when the token is malformed,
// expired, badly signed or a refresh token.
func (j *JWT) VerifyAccess(tokenString string) (model.TokenClaims, error) {
	return j.verify(tokenString, model.TokenAccess)
}

// VerifyRefresh validates a refresh token and returns its claims.
func (j *JWT) VerifyRefresh(tokenString string) (model.TokenClaims, error) {
	return j.verify(tokenString, model.TokenRefresh)
}

// ExtractID reads the jti claim without checking the signature.
func (j *JWT) ExtractID(tokenString string) (string, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if claims.ID == "" {
		return "", fmt.Errorf("%w: missing token id", model.ErrTokenInvalid)
	}
	return claims.ID, nil
}

func (j *JWT) sign(principalID, id string, kind model.TokenKind, now time.Time, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType: string(kind),
	})
	return token.SignedString(j.secretKey)
}

func (j *JWT) verify(tokenString string, kind model.TokenKind) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return model.TokenClaims{}, fmt.Errorf("%w: %v", model.ErrTokenInvalid, err)
	}
	if !token.Valid {
		return model.TokenClaims{}, model.ErrTokenInvalid
	}
	if claims.TokenType != string(kind) {
		return model.TokenClaims{}, fmt.Errorf("%w: token type mismatch: %s", model.ErrTokenInvalid, claims.TokenType)
	}
	if claims.ID == "" || claims.Subject == "" {
		return model.TokenClaims{}, errors.Join(model.ErrTokenInvalid, errors.New("missing subject or token id"))
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return model.TokenClaims{
		PrincipalID: claims.Subject,
		TokenID:     claims.ID,
		Kind:        kind,
		ExpiresAt:   expiresAt,
	}, nil
}
