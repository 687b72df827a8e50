package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the fields of an access token the client can inspect.
type TokenClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token expiry has passed at now.
func (c TokenClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Claims decodes an access token without verifying its signature.
// The server remains the only authority on validity.
func Claims(token string) (TokenClaims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return TokenClaims{}, fmt.Errorf("trackpro/session: parse token: %w", err)
	}

	var c TokenClaims
	if v, err := mc.GetSubject(); err == nil {
		c.Subject = v
	}
	if v, ok := mc["role"].(string); ok {
		c.Role = v
	}
	if v, err := mc.GetExpirationTime(); err == nil && v != nil {
		c.ExpiresAt = v.Time
	}
	if v, err := mc.GetIssuedAt(); err == nil && v != nil {
		c.IssuedAt = v.Time
	}
	return c, nil
}
