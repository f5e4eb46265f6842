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

// AdminSession is the back-office authentication state machine. It is
// narrower than the customer Session on purpose: admin auth is bearer-only
// with no cookie fallback, there is no registration or ticket exchange, and
// logout is purely local.
type AdminSession struct {
	client *api.Client
	tokens *TokenStore
	log    logging.Logger

	mu          sync.Mutex
	admin       *api.Admin
	token       string
	loading     bool
	credVersion uint64
	listeners   map[int]func(AdminState)
	nextID      int

	verifies singleflight.Group
}

// NewAdmin returns an admin session backed by the given store.
func NewAdmin(client *api.Client, store storage.Store, opts ...Option) *AdminSession {
	o := &options{log: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(o)
	}
	return &AdminSession{
		client:    client,
		tokens:    NewTokenStore(store, NamespaceAdmin),
		log:       o.log.Named("session.admin"),
		loading:   true,
		listeners: map[int]func(AdminState){},
	}
}

// Init loads the persisted credential and verifies it. With no persisted
// credential the session resolves to Anonymous immediately, without touching
// the network: unlike the customer session there is no ambient cookie to
// fall back on.
func (s *AdminSession) Init(ctx context.Context) error {
	token, err := s.tokens.Get()
	if err != nil {
		return err
	}

	if token == "" {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.notify()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.Verify(ctx)
	return nil
}

// Verify resolves the bearer token to an admin identity, deduplicating
// concurrent calls per credential version. Any failure, including a missing
// token, clears the credential and leaves the session Anonymous.
func (s *AdminSession) Verify(ctx context.Context) {
	s.mu.Lock()
	version := s.credVersion
	token := s.token
	s.mu.Unlock()

	s.verifies.Do(strconv.FormatUint(version, 10), func() (any, error) {
		admin, err := s.client.AdminMe(ctx, token)

		s.mu.Lock()
		if s.credVersion != version {
			s.mu.Unlock()
			return nil, nil
		}
		if err != nil {
			s.admin = nil
			s.token = ""
			s.loading = false
			s.credVersion++
			s.mu.Unlock()

			s.log.Infow("admin verification failed, signing out", "error", err)
			if clearErr := s.tokens.Clear(); clearErr != nil {
				s.log.Errorw("failed to clear admin credential", "error", clearErr)
			}
		} else {
			s.admin = admin
			s.loading = false
			s.mu.Unlock()
		}

		s.notify()
		return nil, nil
	})
}

// Login exchanges admin credentials for a bearer token and identity. On
// failure the session state is untouched.
func (s *AdminSession) Login(ctx context.Context, email, password string) (*api.Admin, error) {
	res, err := s.client.AdminLogin(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.Set(res.AccessToken); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token = res.AccessToken
	s.admin = &res.Admin
	s.loading = false
	s.credVersion++
	s.mu.Unlock()

	s.notify()
	return &res.Admin, nil
}

// Logout clears the local credential and transitions to Anonymous. There is
// no server-side admin revocation endpoint; the bearer token simply stops
// being presented.
func (s *AdminSession) Logout() {
	if err := s.tokens.Clear(); err != nil {
		s.log.Errorw("failed to clear admin credential", "error", err)
	}

	s.mu.Lock()
	s.token = ""
	s.admin = nil
	s.loading = false
	s.credVersion++
	s.mu.Unlock()

	s.notify()
}

// Token returns the current bearer token, or the empty string when signed
// out.
func (s *AdminSession) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// State returns the current admin session state.
func (s *AdminSession) State() AdminState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *AdminSession) stateLocked() AdminState {
	return AdminState{
		Admin:         s.admin,
		Loading:       s.loading,
		Authenticated: s.admin != nil,
	}
}

// Snapshot implements Source for route guards.
func (s *AdminSession) Snapshot() Snapshot {
	st := s.State()
	return Snapshot{Loading: st.Loading, Authenticated: st.Authenticated}
}

// Subscribe registers fn to run after every state transition. The returned
// function cancels the subscription.
func (s *AdminSession) Subscribe(fn func(AdminState)) func() {
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

func (s *AdminSession) notify() {
	s.mu.Lock()
	st := s.stateLocked()
	fns := make([]func(AdminState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}
