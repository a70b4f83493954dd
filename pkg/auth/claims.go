package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AdminTokenPayload captures the data available when minting an admin JWT.
// SessionID becomes the token jti and keys the Redis-backed session record.
type AdminTokenPayload struct {
	Username  string
	SessionID string
}

// AdminTokenClaims represents the typed JWT issued to back-office clients.
type AdminTokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// SessionID returns the session identifier carried in the jti claim.
func (c *AdminTokenClaims) SessionID() string {
	return c.ID
}
