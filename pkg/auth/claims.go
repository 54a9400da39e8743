package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	PrincipalID uuid.UUID
	Email       string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients. The role is
// deliberately absent: it is read from the profile on every request.
type AccessTokenClaims struct {
	PrincipalID uuid.UUID `json:"principal_id"`
	Email       string    `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// AccessID returns the jti, which keys the refresh session in redis.
func (c *AccessTokenClaims) AccessID() string {
	if c == nil {
		return ""
	}
	return c.ID
}
