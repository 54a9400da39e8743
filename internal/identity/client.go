package identity

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
)

// Provider is the identity capability a Client talks to.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignOut(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, accessToken, refreshToken string) (*Session, error)
}

// EventSource is where remote session events come from.
type EventSource interface {
	Subscribe(fn func(Event)) func()
}

// Client holds one application session against the identity provider and
// notifies its subscribers of every change, synchronously and in order.
type Client struct {
	provider Provider
	now      func() time.Time

	mu      sync.RWMutex
	session *Session

	emitMu sync.Mutex

	subsMu sync.Mutex
	subs   map[uint64]func(Event)
	next   uint64

	stopRemote func()
}

// NewClient builds a client. initial may be nil (signed out). When source is
// non-nil the client watches it for remote sign-out of its own session.
func NewClient(provider Provider, source EventSource, initial *Session) *Client {
	c := &Client{
		provider: provider,
		now:      time.Now,
		session:  initial,
		subs:     make(map[uint64]func(Event)),
	}
	if source != nil {
		c.stopRemote = source.Subscribe(c.handleRemote)
	}
	return c
}

// GetSession returns the current session or nil.
func (c *Client) GetSession(context.Context) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil, nil
	}
	cp := *c.session
	return &cp, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.replace(sess)
	c.emit(Event{Type: enums.SessionEventSignedIn, Session: sess, PrincipalID: sess.Principal.ID, AccessID: sess.AccessID})
	return sess, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	sess, err := c.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.replace(sess)
	c.emit(Event{Type: enums.SessionEventSignedIn, Session: sess, PrincipalID: sess.Principal.ID, AccessID: sess.AccessID})
	return sess, nil
}

// Adopt makes sess the current session, as when sign-up happened elsewhere.
func (c *Client) Adopt(sess *Session) {
	if sess == nil {
		return
	}
	c.replace(sess)
	c.emit(Event{Type: enums.SessionEventSignedIn, Session: sess, PrincipalID: sess.Principal.ID, AccessID: sess.AccessID})
}

// SignOut drops the local session first so it is gone even when the provider
// call fails. Signing out while signed out is a no-op.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	prev := c.session
	c.session = nil
	c.mu.Unlock()
	if prev == nil {
		return nil
	}

	err := c.provider.SignOut(ctx, prev.AccessID)
	c.emit(Event{Type: enums.SessionEventSignedOut, PrincipalID: prev.Principal.ID, AccessID: prev.AccessID})
	return err
}

// Refresh exchanges the refresh token of the current session.
func (c *Client) Refresh(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	cur := c.session
	c.mu.RUnlock()
	if cur == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not signed in")
	}
	sess, err := c.provider.Refresh(ctx, cur.AccessToken, cur.RefreshToken)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session == nil || c.session.AccessID != cur.AccessID {
		// signed out or replaced while refreshing
		c.mu.Unlock()
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session changed during refresh")
	}
	c.session = sess
	c.mu.Unlock()

	c.emit(Event{Type: enums.SessionEventTokenRefreshed, Session: sess, PrincipalID: sess.Principal.ID, AccessID: cur.AccessID})
	return sess, nil
}

// Subscribe registers fn for session events and returns its unsubscribe func.
func (c *Client) Subscribe(fn func(Event)) func() {
	c.subsMu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

// Close stops watching remote events.
func (c *Client) Close() {
	if c.stopRemote != nil {
		c.stopRemote()
	}
}

func (c *Client) handleRemote(ev Event) {
	if ev.Type != enums.SessionEventSignedOut || ev.AccessID == "" {
		return
	}
	c.mu.Lock()
	if c.session == nil || c.session.AccessID != ev.AccessID {
		c.mu.Unlock()
		return
	}
	prev := c.session
	c.session = nil
	c.mu.Unlock()

	c.emit(Event{Type: enums.SessionEventSignedOut, PrincipalID: prev.Principal.ID, AccessID: prev.AccessID, Origin: ev.Origin})
}

func (c *Client) replace(sess *Session) {
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
}

func (c *Client) emit(ev Event) {
	if ev.At.IsZero() {
		ev.At = c.now().UTC()
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.subsMu.Lock()
	ids := make([]uint64, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	handlers := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		handlers = append(handlers, c.subs[id])
	}
	c.subsMu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
