// Package session keeps the server side of a sign-in: one redis entry per
// access token id holding the principal and a digest of its refresh token.
package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/mallrent-backend/pkg/config"
	redisclient "github.com/angelmondragon/mallrent-backend/pkg/redis"
	"github.com/google/uuid"
)

const refreshTokenBytes = 32

// ErrInvalidRefreshToken covers unknown, revoked and mismatched sessions alike.
var ErrInvalidRefreshToken = errors.New("invalid refresh token")

var errNoAccessID = errors.New("access id is required")

// Store is the redis surface the manager needs.
type Store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	AccessSessionKey(accessID string) string
}

// entry never holds the refresh token itself.
type entry struct {
	PrincipalID uuid.UUID `json:"principal_id"`
	RefreshHash string    `json:"refresh_sha256"`
	IssuedAt    time.Time `json:"issued_at"`
}

type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager requires the refresh window to outlive the access token.
func NewManager(client *redisclient.Client, cfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.RefreshTokenTTL()
	access := time.Duration(cfg.ExpirationMinutes) * time.Minute
	switch {
	case ttl <= 0:
		return nil, errors.New("refresh token ttl must be positive")
	case ttl <= access:
		return nil, fmt.Errorf("refresh token ttl (%s) must exceed access token ttl (%s)", ttl, access)
	}
	return &Manager{store: client, ttl: ttl, now: time.Now}, nil
}

// NewAccessID mints the JWT jti that keys a session.
func NewAccessID() string {
	return uuid.NewString()
}

// Generate opens a session for principalID under accessID and returns the
// refresh token the client must present to rotate it.
func (m *Manager) Generate(ctx context.Context, principalID uuid.UUID, accessID string) (string, error) {
	if blank(accessID) {
		return "", errNoAccessID
	}
	if principalID == uuid.Nil {
		return "", errors.New("principal id is required")
	}
	return m.open(ctx, principalID, accessID)
}

// Rotate trades a valid refresh token for a new access id and refresh token.
// The old session is closed either way once the token matched.
func (m *Manager) Rotate(ctx context.Context, oldAccessID, refreshToken string) (principalID uuid.UUID, accessID, token string, err error) {
	if blank(oldAccessID) || blank(refreshToken) {
		return uuid.Nil, "", "", ErrInvalidRefreshToken
	}
	e, err := m.load(ctx, oldAccessID)
	if err != nil {
		return uuid.Nil, "", "", err
	}
	if subtle.ConstantTimeCompare([]byte(e.RefreshHash), []byte(digest(refreshToken))) != 1 {
		return uuid.Nil, "", "", ErrInvalidRefreshToken
	}
	if err := m.store.Del(ctx, m.store.AccessSessionKey(oldAccessID)); err != nil {
		return uuid.Nil, "", "", err
	}

	accessID = NewAccessID()
	token, err = m.open(ctx, e.PrincipalID, accessID)
	if err != nil {
		return uuid.Nil, "", "", err
	}
	return e.PrincipalID, accessID, token, nil
}

func (m *Manager) Revoke(ctx context.Context, accessID string) error {
	if blank(accessID) {
		return errNoAccessID
	}
	return m.store.Del(ctx, m.store.AccessSessionKey(accessID))
}

// HasSession is false, without error, for unknown or revoked ids.
func (m *Manager) HasSession(ctx context.Context, accessID string) (bool, error) {
	if blank(accessID) {
		return false, errNoAccessID
	}
	_, err := m.load(ctx, accessID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrInvalidRefreshToken):
		return false, nil
	default:
		return false, err
	}
}

func (m *Manager) Principal(ctx context.Context, accessID string) (uuid.UUID, error) {
	e, err := m.load(ctx, accessID)
	if err != nil {
		return uuid.Nil, err
	}
	return e.PrincipalID, nil
}

func (m *Manager) open(ctx context.Context, principalID uuid.UUID, accessID string) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	raw, err := json.Marshal(entry{PrincipalID: principalID, RefreshHash: digest(token), IssuedAt: m.clock()})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := m.store.Set(ctx, m.store.AccessSessionKey(accessID), string(raw), m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

func (m *Manager) load(ctx context.Context, accessID string) (entry, error) {
	raw, err := m.store.Get(ctx, m.store.AccessSessionKey(accessID))
	if errors.Is(err, redisclient.Nil) {
		return entry{}, ErrInvalidRefreshToken
	}
	if err != nil {
		return entry{}, err
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil || e.PrincipalID == uuid.Nil {
		return entry{}, ErrInvalidRefreshToken
	}
	return e, nil
}

func (m *Manager) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
