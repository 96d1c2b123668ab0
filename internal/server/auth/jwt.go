// Package auth implements password hashing, JWT issuance and verification,
// bearer-token identity resolution and the ownership checks applied before
// any owned resource is touched.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind tells access and refresh tokens apart.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Claims is the JWT payload: standard claims plus the token kind.
// Subject carries the user id and ID (jti) the revocation key.
type Claims struct {
	jwt.RegisteredClaims
	Kind TokenKind `json:"kind"`
}

// Token is a signed token together with the metadata callers need to
// revoke it later.
type Token struct {
	Value     string
	ID        string
	Kind      TokenKind
	ExpiresAt time.Time
}

// Pair is what a successful login or refresh hands out.
type Pair struct {
	Access  Token
	Refresh Token
}

// RevocationStore is the deny-list consulted on every verification.
// It must be shared between server instances.
type RevocationStore interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// TokenConfig holds signing keys and lifetimes. An empty RefreshSecret
// falls back to AccessSecret.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Option customises an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) { i.now = now }
}

// Issuer mints and verifies HS256 tokens.
type Issuer struct {
	cfg         TokenConfig
	revocations RevocationStore
	now         func() time.Time
}

// NewIssuer returns an Issuer. revocations may be nil, in which case no
// deny-list lookup is performed.
func NewIssuer(cfg TokenConfig, revocations RevocationStore, opts ...Option) (*Issuer, error) {
	if len(cfg.AccessSecret) == 0 {
		return nil, errors.New("access token secret is empty")
	}
	if len(cfg.RefreshSecret) == 0 {
		cfg.RefreshSecret = cfg.AccessSecret
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	i := &Issuer{cfg: cfg, revocations: revocations, now: time.Now}
	for _, o := range opts {
		o(i)
	}
	return i, nil
}

func (i *Issuer) secret(kind TokenKind) ([]byte, error) {
	switch kind {
	case KindAccess:
		return i.cfg.AccessSecret, nil
	case KindRefresh:
		return i.cfg.RefreshSecret, nil
	}
	return nil, fmt.Errorf("unknown token kind %q", kind)
}

func (i *Issuer) issue(userID string, kind TokenKind, ttl time.Duration) (Token, error) {
	secret, err := i.secret(kind)
	if err != nil {
		return Token{}, err
	}

	now := i.now()
	exp := now.Add(ttl)
	jti := uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			Issuer:    i.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Kind: kind,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return Token{}, err
	}

	// NumericDate has second precision; report what the token actually says.
	return Token{Value: signed, ID: jti, Kind: kind, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// IssueAccess mints a short-lived access token for userID.
func (i *Issuer) IssueAccess(userID string) (Token, error) {
	return i.issue(userID, KindAccess, i.cfg.AccessTTL)
}

// IssueRefresh mints a long-lived refresh token for userID.
func (i *Issuer) IssueRefresh(userID string) (Token, error) {
	return i.issue(userID, KindRefresh, i.cfg.RefreshTTL)
}

// IssuePair mints both tokens.
func (i *Issuer) IssuePair(userID string) (Pair, error) {
	access, err := i.IssueAccess(userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.IssueRefresh(userID)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

// Verify checks signature, algorithm, kind and expiry, then the
// revocation store. Failures wrap common.ErrTokenMalformed,
// common.ErrTokenExpired or common.ErrTokenRevoked; a failing revocation
// store yields common.ErrorInternal.
func (i *Issuer) Verify(ctx context.Context, tokenString string, kind TokenKind) (*Claims, error) {
	secret, err := i.secret(kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	}
	if i.cfg.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(i.cfg.Issuer))
	}

	claims := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTokenMalformed, err)
	}

	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: expected %s token, got %q", common.ErrTokenMalformed, kind, claims.Kind)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing sub or jti", common.ErrTokenMalformed)
	}

	if i.revocations != nil {
		revoked, err := i.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: revocation lookup: %v", common.ErrorInternal, err)
		}
		if revoked {
			return nil, common.ErrTokenRevoked
		}
	}

	return claims, nil
}

// FailureClass names the kind of verification failure for logs.
func FailureClass(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "expired"
	case errors.Is(err, common.ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, common.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, common.ErrorInternal):
		return "internal"
	}
	return "unknown"
}
