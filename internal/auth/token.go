package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"heartbridge/internal/cache"
	"heartbridge/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Bearer token parameters.
const (
	TokenIssuerName = "heartbridge-api"
	TokenAudience   = "heartbridge-client"
	TokenTTL        = 7 * 24 * time.Hour
)

// Claims are the API bearer token claims.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider,omitempty"`
}

// TokenIssuer issues and verifies API bearer tokens. Revoked token ids live
// in Redis until the token would have expired, or in process memory when no
// Redis client is configured.
type TokenIssuer struct {
	secret []byte
	rdb    *redis.Client
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewTokenIssuer returns an issuer signing with secret. rdb may be nil.
func NewTokenIssuer(secret string, rdb *redis.Client) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		rdb:     rdb,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// Issue signs a token for id.
func (t *TokenIssuer) Issue(id Identity) (string, error) {
	if len(t.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UID,
			Issuer:    TokenIssuerName,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Email:    id.Email,
		Provider: id.Provider,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse validates token and returns its claims.
func (t *TokenIssuer) Parse(ctx context.Context, token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	},
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	if claims.ID == "" {
		return nil, errors.New("token has no id")
	}

	if t.isRevoked(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// VerifyToken returns the uid a valid token was issued for.
func (t *TokenIssuer) VerifyToken(ctx context.Context, token string) (string, error) {
	claims, err := t.Parse(ctx, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Revoke invalidates the token with the given claims until it expires.
func (t *TokenIssuer) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(t.now())
	}
	if ttl <= 0 {
		return nil
	}

	if t.rdb != nil {
		if err := t.rdb.Set(ctx, cache.RevokedTokenKey(claims.ID), claims.Subject, ttl).Err(); err != nil {
			return models.NewInternalError(fmt.Errorf("revoke token: %w", err))
		}
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[claims.ID] = t.now().Add(ttl)
	return nil
}

// isRevoked treats a Redis failure as not revoked so an outage does not
// lock every member out.
func (t *TokenIssuer) isRevoked(ctx context.Context, jti string) bool {
	if t.rdb != nil {
		n, err := t.rdb.Exists(ctx, cache.RevokedTokenKey(jti)).Result()
		return err == nil && n > 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	until, ok := t.revoked[jti]
	if !ok {
		return false
	}
	if t.now().After(until) {
		delete(t.revoked, jti)
		return false
	}
	return true
}
