// Package pagination implements keyset paging over (created_at, id) ordered
// listings. Cursors are opaque, URL safe tokens.
package pagination

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100

	sep = "~"
)

var errMalformed = errors.New("malformed cursor")

// Params is the paging request accepted by list operations.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps limit into [1, MaxLimit], using DefaultLimit for zero.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer asks for one extra row so Trim can tell whether a next page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

func (c Cursor) String() string {
	raw := c.CreatedAt.UTC().Format(time.RFC3339Nano) + sep + c.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor returns nil for a blank token.
func ParseCursor(token string) (*Cursor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}
	at, id, ok := strings.Cut(string(raw), sep)
	if !ok {
		return nil, errMalformed
	}
	createdAt, err := time.Parse(time.RFC3339Nano, at)
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %v", errMalformed, err)
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %v", errMalformed, err)
	}
	return &Cursor{CreatedAt: createdAt, ID: parsedID}, nil
}

// Keyset returns a gorm scope that orders newest first, skips past the
// cursor and fetches one row beyond the page.
func Keyset(p Params) (func(*gorm.DB) *gorm.DB, error) {
	cursor, err := ParseCursor(p.Cursor)
	if err != nil {
		return nil, err
	}
	return func(q *gorm.DB) *gorm.DB {
		if cursor != nil {
			q = q.Where("(created_at < ? OR (created_at = ? AND id < ?))", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return q.Order("created_at DESC").Order("id DESC").Limit(LimitWithBuffer(p.Limit))
	}, nil
}

// Trim drops the lookahead row and returns the cursor for the next page,
// or "" on the last page.
func Trim[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, string) {
	limit = NormalizeLimit(limit)
	if len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, cursorOf(rows[limit-1]).String()
}
