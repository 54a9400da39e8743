// Package session keeps the signed-in principal, its profile and the view it
// resolves to, following identity events in the order they were delivered.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/mallrent-backend/internal/auth"
	"github.com/angelmondragon/mallrent-backend/internal/authz"
	"github.com/angelmondragon/mallrent-backend/internal/identity"
	"github.com/angelmondragon/mallrent-backend/internal/profiles"
	"github.com/angelmondragon/mallrent-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/mallrent-backend/pkg/errors"
	"github.com/angelmondragon/mallrent-backend/pkg/logger"
)

// State is a snapshot of the store. View is empty while signed out.
type State struct {
	Principal *identity.Principal
	Profile   *profiles.Profile
	View      authz.View
	Loading   bool
	Err       error
}

// SignedIn reports whether a principal with a profile is present.
func (s State) SignedIn() bool {
	return s.Principal != nil && s.Profile != nil
}

type identityClient interface {
	GetSession(ctx context.Context) (*identity.Session, error)
	Subscribe(fn func(identity.Event)) func()
	SignIn(ctx context.Context, email, password string) (*identity.Session, error)
	SignOut(ctx context.Context) error
	Adopt(sess *identity.Session)
}

type profileLoader interface {
	Load(ctx context.Context, principalID uuid.UUID) (*profiles.Profile, error)
}

type registrar interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*identity.Session, error)
}

type notification struct {
	gen uint64
	ev  identity.Event
}

// StoreParams bundles the store dependencies.
type StoreParams struct {
	Client    identityClient
	Loader    profileLoader
	Registrar registrar
	Logger    *logger.Logger
}

// Store follows one identity client. A single worker resolves notifications;
// a newer notification cancels the resolution in flight and only the result
// of the latest notification is ever applied.
type Store struct {
	client    identityClient
	loader    profileLoader
	registrar registrar
	logg      *logger.Logger

	mu       sync.Mutex
	state    State
	gen      uint64
	pending  *notification
	inflight context.CancelFunc

	listenersMu sync.Mutex
	listeners   map[uint64]func(State)
	nextID      uint64

	wake        chan struct{}
	unsubscribe func()
	stop        context.CancelFunc
	done        chan struct{}
	startOnce   sync.Once
	closeOnce   sync.Once
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Client == nil {
		return nil, fmt.Errorf("identity client is required")
	}
	if params.Loader == nil {
		return nil, fmt.Errorf("profile loader is required")
	}
	return &Store{
		client:    params.Client,
		loader:    params.Loader,
		registrar: params.Registrar,
		logg:      params.Logger,
		state:     State{Loading: true},
		listeners: make(map[uint64]func(State)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start subscribes to the client and resolves its current session.
func (s *Store) Start(ctx context.Context) error {
	var err error
	s.startOnce.Do(func() {
		workerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		s.stop = cancel
		s.unsubscribe = s.client.Subscribe(s.enqueue)
		go s.run(workerCtx)

		var current *identity.Session
		current, err = s.client.GetSession(ctx)
		if err != nil {
			return
		}
		s.mu.Lock()
		seen := s.gen > 0
		s.mu.Unlock()
		if seen {
			return
		}
		ev := identity.Event{Type: enums.SessionEventInitial, Session: current}
		if current != nil {
			ev.PrincipalID = current.Principal.ID
			ev.AccessID = current.AccessID
		}
		s.enqueue(ev)
	})
	return err
}

// Close unsubscribes and stops the worker. It is safe to call more than once.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		if s.stop == nil {
			close(s.done)
			return
		}
		s.stop()
		<-s.done
	})
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn for every applied state and returns its unsubscribe func.
func (s *Store) OnChange(fn func(State)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

func (s *Store) SignIn(ctx context.Context, email, password string) error {
	_, err := s.client.SignIn(ctx, email, password)
	return err
}

// SignUp registers the account and adopts the resulting session.
func (s *Store) SignUp(ctx context.Context, req auth.RegisterRequest) error {
	if s.registrar == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "sign-up is not configured")
	}
	sess, err := s.registrar.Register(ctx, req)
	if err != nil {
		return err
	}
	s.client.Adopt(sess)
	return nil
}

func (s *Store) SignOut(ctx context.Context) error {
	return s.client.SignOut(ctx)
}

func (s *Store) enqueue(ev identity.Event) {
	s.mu.Lock()
	s.gen++
	s.pending = &notification{gen: s.gen, ev: ev}
	s.state.Loading = true
	if s.inflight != nil {
		s.inflight()
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		n := s.pending
		s.pending = nil
		if n == nil {
			s.mu.Unlock()
			continue
		}
		resolveCtx, cancel := context.WithCancel(ctx)
		s.inflight = cancel
		s.mu.Unlock()

		next, ok := s.resolve(resolveCtx, n.ev)
		cancel()
		if s.apply(n.gen, next, ok) && pkgerrors.IsCode(next.Err, pkgerrors.CodeProfileMissing) {
			s.forceSignOut(ctx)
		}
	}
}

func (s *Store) resolve(ctx context.Context, ev identity.Event) (State, bool) {
	if ev.Session == nil {
		return State{}, true
	}
	principal := ev.Session.Principal
	profile, err := s.loader.Load(ctx, principal.ID)
	if ctx.Err() != nil {
		return State{}, false
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(s.logg.WithUserID(ctx, principal.ID.String()), "session.profile_unavailable")
		}
		if pkgerrors.IsCode(err, pkgerrors.CodeProfileMissing) {
			return State{Err: err}, true
		}
		return State{Principal: &principal, Err: err}, true
	}
	return State{
		Principal: &principal,
		Profile:   profile,
		View:      authz.Resolve(profile.RoleName),
	}, true
}

// apply publishes next unless a newer notification arrived meanwhile.
func (s *Store) apply(gen uint64, next State, ok bool) bool {
	s.mu.Lock()
	s.inflight = nil
	if !ok || gen != s.gen {
		s.mu.Unlock()
		return false
	}
	next.Loading = false
	s.state = next
	s.mu.Unlock()

	s.listenersMu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
	return true
}

// forceSignOut ends the identity session of a principal without a profile.
// The resulting SIGNED_OUT notification moves the store to signed out.
func (s *Store) forceSignOut(ctx context.Context) {
	if err := s.client.SignOut(ctx); err != nil && s.logg != nil {
		s.logg.Error(ctx, "session.forced_sign_out_failed", err)
	}
}
