package authrouter

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the signed claims structure carried by bearer tokens:
// audience is the collection namespace, subject the username, and the
// context claim embeds the credentials the token was issued for.
type TokenClaims struct {
	jwt.RegisteredClaims
	Context Credentials `json:"context"`
}

// Username returns the token's subject.
func (c *TokenClaims) Username() string {
	return c.RegisteredClaims.Subject
}

// Namespace returns the first audience entry, the collection namespace
// the token was signed for.
func (c *TokenClaims) Namespace() string {
	if len(c.RegisteredClaims.Audience) == 0 {
		return ""
	}
	return c.RegisteredClaims.Audience[0]
}

// Expires returns the expiration time, zero when the token never expires.
func (c *TokenClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
