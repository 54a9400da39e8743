package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
)

// Principal is the authenticated identity behind a session.
type Principal struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is the credential pair handed to a signed-in client.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	AccessID     string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	Principal    Principal `json:"user"`
}

// Event is a session-change notification. Session is nil on sign-out.
type Event struct {
	Type        enums.SessionEventType `json:"type"`
	Session     *Session               `json:"session,omitempty"`
	PrincipalID uuid.UUID              `json:"principal_id"`
	AccessID    string                 `json:"access_id"`
	Origin      string                 `json:"origin,omitempty"`
	At          time.Time              `json:"at"`
}
