package authflow

import (
	"context"
	"sync"
	"testing"

	"github.com/finmar/clientshell/api"
	"github.com/finmar/clientshell/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

type fakeExchanger struct {
	mu      sync.Mutex
	tickets []string
	err     error
}

func (f *fakeExchanger) ExchangeTicket(ctx context.Context, ticket string) (*api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets = append(f.tickets, ticket)
	if f.err != nil {
		return nil, f.err
	}
	return &api.User{ID: "1", Email: "a@b.com"}, nil
}

type fakeNavigator struct {
	mu     sync.Mutex
	routes []string
	states []any
}

func (f *fakeNavigator) Replace(route string, state any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes = append(f.routes, route)
	f.states = append(f.states, state)
}

func TestHandleRedirectSuccess(t *testing.T) {
	ex := &fakeExchanger{}
	nav := &fakeNavigator{}
	h := NewCallbackHandler(ex, nav)

	h.HandleRedirect(context.Background(), "session_id=abc123&state=xyz")

	require.Equal(t, []string{"abc123"}, ex.tickets)
	require.Equal(t, []string{"/dashboard"}, nav.routes)
	user, ok := nav.states[0].(*api.User)
	require.True(t, ok)
	assert.Equal(t, "1", user.ID)
}

func TestHandleRedirectIsOneShot(t *testing.T) {
	ex := &fakeExchanger{}
	nav := &fakeNavigator{}
	h := NewCallbackHandler(ex, nav)

	// Re-renders invoke the handler repeatedly with the same fragment.
	for i := 0; i < 5; i++ {
		h.HandleRedirect(context.Background(), "session_id=abc123")
	}

	assert.Len(t, ex.tickets, 1, "the ticket must be exchanged exactly once")
	assert.Len(t, nav.routes, 1)
}

func TestHandleRedirectNoTicket(t *testing.T) {
	ex := &fakeExchanger{}
	nav := &fakeNavigator{}
	h := NewCallbackHandler(ex, nav)

	h.HandleRedirect(context.Background(), "error=access_denied")

	assert.Empty(t, ex.tickets)
	require.Equal(t, []string{"/login"}, nav.routes)
	assert.Nil(t, nav.states[0])
}

func TestHandleRedirectExchangeFailure(t *testing.T) {
	ex := &fakeExchanger{err: errors.NewC("ticket expired", codes.Unauthenticated)}
	nav := &fakeNavigator{}
	h := NewCallbackHandler(ex, nav)

	h.HandleRedirect(context.Background(), "session_id=expired")

	require.Equal(t, []string{"/login"}, nav.routes)
}

func TestHandleRedirectCustomRoutes(t *testing.T) {
	ex := &fakeExchanger{}
	nav := &fakeNavigator{}
	h := NewCallbackHandler(ex, nav, WithRoutes("/home", "/signin"))

	h.HandleRedirect(context.Background(), "session_id=abc")
	require.Equal(t, []string{"/home"}, nav.routes)
}

func TestHasTicket(t *testing.T) {
	assert.True(t, HasTicket("session_id=abc"))
	assert.True(t, HasTicket("foo=bar&session_id=abc&baz=1"))
	assert.False(t, HasTicket("session_id="))
	assert.False(t, HasTicket("error=denied"))
	assert.False(t, HasTicket(""))
}
