package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/mallrent-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// clockSkew tolerated between the API replicas that mint and verify tokens.
const clockSkew = 30 * time.Second

var (
	ErrNoSecret    = errors.New("jwt secret is required")
	ErrNoPrincipal = errors.New("token carries no principal")
)

var signingMethod = jwt.SigningMethodHS256

func checkConfig(cfg config.JWTConfig) error {
	switch {
	case cfg.Secret == "":
		return ErrNoSecret
	case cfg.Issuer == "":
		return errors.New("jwt issuer is required")
	case cfg.ExpirationMinutes <= 0:
		return errors.New("jwt expiration minutes must be positive")
	}
	return nil
}

// MintAccessToken signs an HS256 token for payload, valid from now for the
// configured number of minutes. A blank JTI gets a random one.
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkConfig(cfg); err != nil {
		return "", err
	}
	if payload.PrincipalID == uuid.Nil {
		return "", ErrNoPrincipal
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}
	ttl := time.Duration(cfg.ExpirationMinutes) * time.Minute

	signed, err := jwt.NewWithClaims(signingMethod, AccessTokenClaims{
		PrincipalID: payload.PrincipalID,
		Email:       strings.ToLower(strings.TrimSpace(payload.Email)),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			Subject:   payload.PrincipalID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies the token and its time claims, allowing clockSkew.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	return ParseAccessTokenAt(cfg, raw, time.Now())
}

// ParseAccessTokenAt is ParseAccessToken with the time claims judged at now.
func ParseAccessTokenAt(cfg config.JWTConfig, raw string, now time.Time) (*AccessTokenClaims, error) {
	return parse(cfg, raw,
		jwt.WithLeeway(clockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
}

// ParseAccessTokenAllowExpired checks only the signature, so a refresh can
// find the session behind an expired token.
func ParseAccessTokenAllowExpired(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	return parse(cfg, raw, jwt.WithoutClaimsValidation())
}

func parse(cfg config.JWTConfig, raw string, opts ...jwt.ParserOption) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	secret := []byte(cfg.Secret)
	parser := jwt.NewParser(append(opts,
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)...)

	var claims AccessTokenClaims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}); err != nil {
		return nil, err
	}
	if claims.PrincipalID == uuid.Nil {
		return nil, ErrNoPrincipal
	}
	return &claims, nil
}
