// Package guard decides whether a protected route may render. It never makes
// its own network calls and never consults stored credentials directly: the
// session's resolved state is the single source of truth, so a stale token on
// disk cannot flash a protected page before verification finishes.
package guard

import "github.com/finmar/clientshell/session"

// Decision is the outcome of a guard check.
type Decision int

const (
	// Wait means the session has not resolved yet. Render a neutral
	// placeholder and check again on the next state transition.
	Wait Decision = iota

	// Allow means the session is authenticated and the route may render.
	Allow

	// Redirect means the session is anonymous. Navigate to Result.Target,
	// replacing the current history entry.
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Result carries the decision and, for redirects, where to go.
type Result struct {
	Decision Decision
	Target   string
}

// Guard protects routes behind one session source. The same implementation
// serves both customer and admin routes; only the source and the sign-in
// route differ.
type Guard struct {
	source     session.Source
	loginRoute string
}

// New returns a guard over source that redirects anonymous visitors to
// loginRoute.
func New(source session.Source, loginRoute string) *Guard {
	return &Guard{source: source, loginRoute: loginRoute}
}

// Check evaluates the session and returns the decision for a protected
// route. The mapping is strict: Loading always wins over everything else, so
// an unresolved session never redirects and never renders.
func (g *Guard) Check() Result {
	snap := g.source.Snapshot()
	switch {
	case snap.Loading:
		return Result{Decision: Wait}
	case snap.Authenticated:
		return Result{Decision: Allow}
	default:
		return Result{Decision: Redirect, Target: g.loginRoute}
	}
}
