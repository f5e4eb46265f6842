package session

import (
	"context"
	"strconv"
	"sync"

	"github.com/finmar/clientshell/api"
	"github.com/finmar/clientshell/logging"
	"github.com/finmar/clientshell/storage"
	"golang.org/x/sync/singleflight"
)

// Session is the customer authentication state machine. It starts in the
// Unknown state (Loading), resolves to Authenticated or Anonymous via
// verification against the backend, and moves between states through Login,
// Register, ExchangeTicket, Logout and Verify.
//
// Verification treats any failure as invalidation: a verify that errors, for
// whatever reason, clears the persisted credential and lands in Anonymous.
// There is no "temporarily unreachable" state.
type Session struct {
	client *api.Client
	tokens *TokenStore
	log    logging.Logger

	mu          sync.Mutex
	user        *api.User
	token       string
	loading     bool
	credVersion uint64
	listeners   map[int]func(State)
	nextID      int

	verifies singleflight.Group
}

// Option configures a Session or an AdminSession.
type Option func(*options)

type options struct {
	log logging.Logger
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(log logging.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New returns a customer session backed by the given store. The session is in
// the Unknown state until Init runs.
func New(client *api.Client, store storage.Store, opts ...Option) *Session {
	o := &options{log: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return &Session{
		client:    client,
		tokens:    NewTokenStore(store, NamespaceCustomer),
		log:       o.log.Named("session"),
		loading:   true,
		listeners: map[int]func(State){},
	}
}

// Init loads the persisted credential and kicks off verification. It blocks
// until verification resolves; callers that want a non-blocking start run it
// in a goroutine. Only storage failures are returned — an invalid or expired
// credential is not an error, it resolves to Anonymous.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.tokens.Get()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.Verify(ctx)
	return nil
}

// Verify resolves the current credential to an identity. At most one
// verification runs per credential version: concurrent callers piggyback on
// the in-flight call instead of stacking requests, but a later credential
// change (login, logout) starts a fresh one.
//
// With a bearer token the token is presented; without one the call falls back
// to the ambient cookie session. Any failure clears the credential and leaves
// the session Anonymous.
func (s *Session) Verify(ctx context.Context) {
	s.mu.Lock()
	version := s.credVersion
	token := s.token
	s.mu.Unlock()

	s.verifies.Do(strconv.FormatUint(version, 10), func() (any, error) {
		user, err := s.client.Me(ctx, token)

		s.mu.Lock()
		if s.credVersion != version {
			// The credential changed while we were in flight. Whoever changed
			// it already set the state; this result is stale.
			s.mu.Unlock()
			return nil, nil
		}
		if err != nil {
			s.user = nil
			s.token = ""
			s.loading = false
			s.credVersion++
			s.mu.Unlock()

			s.log.Infow("session verification failed, signing out", "error", err)
			if clearErr := s.tokens.Clear(); clearErr != nil {
				s.log.Errorw("failed to clear credential", "error", clearErr)
			}
		} else {
			s.user = user
			s.loading = false
			s.mu.Unlock()
		}

		s.notify()
		return nil, nil
	})
}

// Login exchanges credentials for a bearer token and identity. On failure the
// session state is untouched. The credential is persisted before the state
// transition so a restart lands in the same place.
func (s *Session) Login(ctx context.Context, email, password string) (*api.User, error) {
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(res.AccessToken, &res.User); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Register creates an account and signs the session in, with the same
// persistence contract as Login.
func (s *Session) Register(ctx context.Context, email, password, name, businessName string) (*api.User, error) {
	res, err := s.client.Register(ctx, email, password, name, businessName)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(res.AccessToken, &res.User); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// ExchangeTicket trades a one-time identity-provider ticket for a cookie
// session and signs the session in. The resulting credential is the cookie in
// the API client's jar; no bearer token is persisted.
func (s *Session) ExchangeTicket(ctx context.Context, ticket string) (*api.User, error) {
	user, err := s.client.ExchangeSession(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if err := s.adopt("", user); err != nil {
		return nil, err
	}
	return user, nil
}

// adopt installs a new credential and identity and bumps the credential
// version so any in-flight verify result is discarded.
func (s *Session) adopt(token string, user *api.User) error {
	if token != "" {
		if err := s.tokens.Set(token); err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.loading = false
	s.credVersion++
	s.mu.Unlock()

	s.notify()
	return nil
}

// Logout signs the session out. The server-side revocation is best effort:
// whether or not the backend is reachable, the local credential is cleared
// and the session transitions to Anonymous. Logout never returns an error.
func (s *Session) Logout(ctx context.Context) {
	if err := s.client.Logout(ctx); err != nil {
		s.log.Warnw("server logout failed, clearing local state anyway", "error", err)
	}
	if err := s.tokens.Clear(); err != nil {
		s.log.Errorw("failed to clear credential", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.loading = false
	s.credVersion++
	s.mu.Unlock()

	s.notify()
}

// UpdateIdentity replaces the in-memory identity after a local mutation (for
// example a profile edit already persisted via the API). It does not touch
// the credential and performs no network call.
func (s *Session) UpdateIdentity(user *api.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.notify()
}

// Token returns the current bearer token, or the empty string for cookie or
// anonymous sessions.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	return State{
		User:          s.user,
		Loading:       s.loading,
		Authenticated: s.user != nil,
	}
}

// Snapshot implements Source for route guards.
func (s *Session) Snapshot() Snapshot {
	st := s.State()
	return Snapshot{Loading: st.Loading, Authenticated: st.Authenticated}
}

// Subscribe registers fn to run after every state transition. The returned
// function cancels the subscription.
func (s *Session) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// notify delivers the current state to all subscribers. Listeners run outside
// the lock so they can call back into the session.
func (s *Session) notify() {
	s.mu.Lock()
	st := s.stateLocked()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
