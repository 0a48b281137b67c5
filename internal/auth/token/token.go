// Package token signs and verifies HS256 access tokens in the claim layout the
// hosted auth provider uses, so both providers can share verification.
package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tavoloai/tavolo-web/internal/domain"
)

// Claims is the access-token payload.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email"`
	Role         string         `json:"role,omitempty"`
	SessionID    string         `json:"session_id,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// User builds a domain user from the token claims.
func (c *Claims) User() *domain.User {
	u := &domain.User{ID: c.Subject, Email: c.Email, EmailConfirmed: true}
	if name, ok := c.UserMetadata["name"].(string); ok {
		u.Name = name
	}
	if business, ok := c.UserMetadata["business"].(string); ok {
		u.Business = business
	}
	return u
}

// Codec signs and verifies tokens with one shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// NewCodec creates a Codec for secret.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

// Sign issues a token for user valid for ttl, bound to sessionID.
func (c *Codec) Sign(user *domain.User, sessionID string, ttl time.Duration) (string, time.Time, error) {
	now := c.now()
	expires := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:     user.Email,
		Role:      "authenticated",
		SessionID: sessionID,
		UserMetadata: map[string]any{
			"name":     user.Name,
			"business": user.Business,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses tokenString and checks its signature and expiry. Any failure
// is reported as domain.ErrUnauthorized.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
