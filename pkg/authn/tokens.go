package authn

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes the token types the issuer mints.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindID      TokenKind = "id"
	TokenKindRefresh TokenKind = "refresh"
)

// Claims carries the registered and application claims minted into
// access/ID tokens.
type Claims struct {
	jwt.RegisteredClaims
	Scope    string `json:"scope,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
	TenantID string `json:"instance_id"`
}

// RefreshToken is an opaque, server-tracked token: absolute expiry
// bounds its total lifetime, idle expiry bounds the gap between
// refreshes, and each refresh call bumps idle expiry without
// extending the absolute one.
type RefreshToken struct {
	Token          string
	SessionID      string
	UserID         string
	IssuedAt       time.Time
	AbsoluteExpiry time.Time
	IdleExpiresAt  time.Time
	idleTTL        time.Duration
}

// Issuer mints and validates the token surface's JWTs and opaque
// refresh tokens.
type Issuer struct {
	signingKey           []byte
	issuer               string
	accessTokenTTL       time.Duration
	idTokenTTL           time.Duration
	refreshTokenTTL      time.Duration
	refreshTokenIdleTTL  time.Duration
	authorizationCodeTTL time.Duration
}

// NewIssuer builds an Issuer. signingKey must be at least 32 bytes.
func NewIssuer(signingKey []byte, issuer string, accessTTL, idTTL, refreshTTL, refreshIdleTTL, codeTTL time.Duration) (*Issuer, error) {
	if len(signingKey) < 32 {
		return nil, fmt.Errorf("signing key must be at least 32 bytes, got %d", len(signingKey))
	}
	return &Issuer{
		signingKey:           signingKey,
		issuer:               issuer,
		accessTokenTTL:       accessTTL,
		idTokenTTL:           idTTL,
		refreshTokenTTL:      refreshTTL,
		refreshTokenIdleTTL:  refreshIdleTTL,
		authorizationCodeTTL: codeTTL,
	}, nil
}

// IssueAccessToken mints a signed access token bound to the given
// subject, audience, and scope.
func (iss *Issuer) IssueAccessToken(subject, audience, scope, instanceID string) (string, time.Time, error) {
	return iss.sign(subject, audience, scope, "", instanceID, iss.accessTokenTTL)
}

// IssueIDToken mints a signed ID token carrying the auth request's
// nonce, as OIDC requires it to be echoed back unmodified.
func (iss *Issuer) IssueIDToken(subject, audience, nonce, instanceID string) (string, time.Time, error) {
	return iss.sign(subject, audience, "", nonce, instanceID, iss.idTokenTTL)
}

func (iss *Issuer) sign(subject, audience, scope, nonce, instanceID string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    iss.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope:    scope,
		Nonce:    nonce,
		TenantID: instanceID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(iss.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken verifies signature, expiry and issuer on an
// access/ID token.
func (iss *Issuer) ValidateToken(raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return iss.signingKey, nil
	}, jwt.WithIssuer(iss.issuer))
	if err != nil {
		return nil, fmt.Errorf("validating token: %w", err)
	}
	return &claims, nil
}

// RevocationStore tracks revoked token IDs (jti) until their natural
// expiry. Both a Redis-backed and an in-process implementation exist
// (revocation.go), mirroring the dual in-memory/production backend
// split the event store and cache already follow.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// ValidateTokenWithRevocation validates raw as ValidateToken does,
// then additionally rejects it if its jti has been revoked.
func (iss *Issuer) ValidateTokenWithRevocation(ctx context.Context, raw string, store RevocationStore) (*Claims, error) {
	claims, err := iss.ValidateToken(raw)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return claims, nil
	}
	revoked, err := store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("token has been revoked")
	}
	return claims, nil
}

// IssueAuthorizationCode mints a single-use opaque authorization code;
// the auth_request aggregate itself enforces single-use (see
// pkg/aggregate/auth_request.go's IssueCode).
func (iss *Issuer) IssueAuthorizationCode() (code string, expiresAt time.Time, err error) {
	code, err = randomOpaqueToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, time.Now().Add(iss.authorizationCodeTTL), nil
}

// IssueRefreshToken mints a new opaque refresh token with both an
// absolute and an idle expiry.
func (iss *Issuer) IssueRefreshToken(sessionID, userID string) (*RefreshToken, error) {
	token, err := randomOpaqueToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &RefreshToken{
		Token:          token,
		SessionID:      sessionID,
		UserID:         userID,
		IssuedAt:       now,
		AbsoluteExpiry: now.Add(iss.refreshTokenTTL),
		IdleExpiresAt:  now.Add(iss.refreshTokenIdleTTL),
		idleTTL:        iss.refreshTokenIdleTTL,
	}, nil
}

// Refresh bumps the idle expiry without extending the absolute one.
// Returns an error if either bound has already passed.
func (rt *RefreshToken) Refresh(now time.Time) error {
	if now.After(rt.AbsoluteExpiry) {
		return fmt.Errorf("refresh token has passed its absolute expiry")
	}
	if now.After(rt.IdleExpiresAt) {
		return fmt.Errorf("refresh token has been idle past its idle expiry")
	}
	candidate := now.Add(rt.idleTTL)
	if candidate.After(rt.AbsoluteExpiry) {
		candidate = rt.AbsoluteExpiry
	}
	rt.IdleExpiresAt = candidate
	return nil
}

// Valid reports whether rt is still usable at now.
func (rt *RefreshToken) Valid(now time.Time) bool {
	return now.Before(rt.AbsoluteExpiry) && now.Before(rt.IdleExpiresAt)
}

func randomOpaqueToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
