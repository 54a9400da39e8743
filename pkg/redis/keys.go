package redis

import "strings"

// Every key and channel lives under the "mr" namespace, e.g.
// mr:idempotency:<scope>:<key> or mr:events:session.
const (
	keyNamespace = "mr"

	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	lockPrefix        = "lock"
	sessionPrefix     = "session"
	channelPrefix     = "events"
)

func namespaced(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey stores the replayable response for one request key.
func (c *Client) IdempotencyKey(scope, id string) string {
	return namespaced(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return namespaced(rateLimitPrefix, scope)
}

// LockKey names the lease a cron worker holds while running a cycle.
func (c *Client) LockKey(name string) string {
	return namespaced(lockPrefix, name)
}

// AccessSessionKey maps an access token id to its refresh session.
func (c *Client) AccessSessionKey(accessID string) string {
	return namespaced(sessionPrefix, "access", accessID)
}

func (c *Client) ChannelName(topic string) string {
	return namespaced(channelPrefix, topic)
}
