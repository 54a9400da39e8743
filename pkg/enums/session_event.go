package enums

import "fmt"

// SessionEventType names an identity provider session notification.
type SessionEventType string

const (
	SessionEventInitial        SessionEventType = "INITIAL_SESSION"
	SessionEventSignedIn       SessionEventType = "SIGNED_IN"
	SessionEventSignedOut      SessionEventType = "SIGNED_OUT"
	SessionEventTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
)

var validSessionEventTypes = []SessionEventType{
	SessionEventInitial,
	SessionEventSignedIn,
	SessionEventSignedOut,
	SessionEventTokenRefreshed,
}

// String implements fmt.Stringer.
func (e SessionEventType) String() string {
	return string(e)
}

// IsValid reports whether the value is a known SessionEventType.
func (e SessionEventType) IsValid() bool {
	for _, candidate := range validSessionEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseSessionEventType converts raw input into a SessionEventType.
func ParseSessionEventType(value string) (SessionEventType, error) {
	for _, candidate := range validSessionEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid session event %q", value)
}
