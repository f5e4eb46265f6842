// Package authflow handles the return leg of the hosted-login handshake: the
// identity provider redirects back with a one-time ticket in the URL
// fragment, and the handler trades it for a durable session.
//
// The fragment is used deliberately — fragments are never sent in HTTP
// requests, so the ticket stays out of server logs and proxies.
package authflow

import (
	"context"
	"regexp"
	"sync"

	"github.com/finmar/clientshell/api"
	"github.com/finmar/clientshell/logging"
)

// ticketPattern extracts the one-time ticket from the redirect fragment. The
// fragment may carry other provider parameters after the ticket.
var ticketPattern = regexp.MustCompile(`session_id=([^&]+)`)

// Navigator moves the UI to a route. Replace replaces the current history
// entry so the callback URL, ticket included, can never be revisited via the
// back button. The state value rides along for the destination to consume.
type Navigator interface {
	Replace(route string, state any)
}

// Exchanger trades a one-time ticket for a signed-in identity.
// *session.Session satisfies this.
type Exchanger interface {
	ExchangeTicket(ctx context.Context, ticket string) (*api.User, error)
}

type phase int

const (
	phaseNotStarted phase = iota
	phaseInProgress
	phaseDone
)

// CallbackHandler consumes one provider redirect. Each handler instance
// performs at most one exchange, no matter how many times HandleRedirect is
// invoked — UI frameworks re-render freely, and a ticket is only good once.
type CallbackHandler struct {
	exchanger Exchanger
	nav       Navigator
	log       logging.Logger

	dashboardRoute string
	loginRoute     string

	mu    sync.Mutex
	phase phase
}

// Option configures a CallbackHandler.
type Option func(*CallbackHandler)

// WithRoutes overrides the post-exchange destinations.
func WithRoutes(dashboard, login string) Option {
	return func(h *CallbackHandler) {
		h.dashboardRoute = dashboard
		h.loginRoute = login
	}
}

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(log logging.Logger) Option {
	return func(h *CallbackHandler) {
		h.log = log
	}
}

// NewCallbackHandler returns a handler that exchanges via ex and navigates
// via nav.
func NewCallbackHandler(ex Exchanger, nav Navigator, opts ...Option) *CallbackHandler {
	h := &CallbackHandler{
		exchanger:      ex,
		nav:            nav,
		log:            logging.NewNopLogger(),
		dashboardRoute: "/dashboard",
		loginRoute:     "/login",
	}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.Named("authflow")
	return h
}

// HasTicket reports whether a fragment carries a ticket. Routers use it to
// decide synchronously whether a URL is a provider callback at all.
func HasTicket(fragment string) bool {
	return ticketPattern.MatchString(fragment)
}

// HandleRedirect processes the provider redirect carried in fragment. On a
// successful exchange it replaces the current route with the dashboard,
// passing the identity along; on a missing ticket or a failed exchange it
// replaces with the login route. Calls after the first are no-ops.
func (h *CallbackHandler) HandleRedirect(ctx context.Context, fragment string) {
	h.mu.Lock()
	if h.phase != phaseNotStarted {
		h.mu.Unlock()
		return
	}
	h.phase = phaseInProgress
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		h.phase = phaseDone
		h.mu.Unlock()
	}()

	m := ticketPattern.FindStringSubmatch(fragment)
	if m == nil {
		h.log.Warnw("callback fragment carried no ticket")
		h.nav.Replace(h.loginRoute, nil)
		return
	}

	user, err := h.exchanger.ExchangeTicket(ctx, m[1])
	if err != nil {
		h.log.Warnw("ticket exchange failed", "error", err)
		h.nav.Replace(h.loginRoute, nil)
		return
	}

	h.nav.Replace(h.dashboardRoute, user)
}
