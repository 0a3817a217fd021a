// Package token issues, verifies, rotates and revokes the signed
// access/refresh credentials.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

// Type distinguishes access from refresh tokens.
type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

const (
	DefaultAccessTTL  = 120 * time.Minute
	DefaultRefreshTTL = 24 * time.Hour
)

// Config is the signing configuration handed to the Issuer at construction.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims carries the user id and the token type next to the registered claims.
// The registered ID (jti) is the identifier stored in the blacklist.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	TokenType Type   `json:"token_type"`
}

// Issuer signs tokens with HS256 and consults the blacklist on verification.
type Issuer struct {
	cfg       Config
	blacklist ports.BlacklistRepository
	now       func() time.Time
}

// NewIssuer returns an Issuer. Zero TTLs fall back to the defaults.
func NewIssuer(cfg Config, blacklist ports.BlacklistRepository) *Issuer {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	return &Issuer{cfg: cfg, blacklist: blacklist, now: time.Now}
}

// Issue returns a fresh access/refresh pair for userID.
func (i *Issuer) Issue(userID string) (*ports.TokenPair, error) {
	access, err := i.sign(userID, TypeAccess, i.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := i.sign(userID, TypeRefresh, i.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	return &ports.TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify parses raw, checks signature, expiry, type and the blacklist.
// Every token-level failure is reported as domain.ErrTokenInvalid.
func (i *Issuer) Verify(ctx context.Context, raw string, typ Type) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.cfg.Secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return nil, domain.ErrTokenInvalid
	}
	if claims.TokenType != typ || claims.ID == "" || claims.UserID == "" {
		return nil, domain.ErrTokenInvalid
	}

	revoked, err := i.blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// Rotate consumes a refresh token and returns a new pair for the same user.
// The consumed token is blacklisted, so reusing it fails.
func (i *Issuer) Rotate(ctx context.Context, refresh string) (*ports.TokenPair, error) {
	claims, err := i.revoke(ctx, refresh)
	if err != nil {
		return nil, err
	}
	return i.Issue(claims.UserID)
}

// Revoke blacklists a refresh token. The write is durable when Revoke returns.
func (i *Issuer) Revoke(ctx context.Context, refresh string) error {
	_, err := i.revoke(ctx, refresh)
	return err
}

func (i *Issuer) revoke(ctx context.Context, refresh string) (*Claims, error) {
	claims, err := i.Verify(ctx, refresh, TypeRefresh)
	if err != nil {
		return nil, err
	}
	entry := ports.BlacklistEntry{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
		RevokedAt: i.now().UTC(),
	}
	if err := i.blacklist.Add(ctx, entry); err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			return nil, err
		}
		return nil, fmt.Errorf("blacklist add: %w", err)
	}
	return claims, nil
}

func (i *Issuer) sign(userID string, typ Type, ttl time.Duration) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:    userID,
		TokenType: typ,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(i.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}
