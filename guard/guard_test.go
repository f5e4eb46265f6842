package guard

import (
	"testing"

	"github.com/finmar/clientshell/session"
	"github.com/stretchr/testify/assert"
)

type staticSource session.Snapshot

func (s staticSource) Snapshot() session.Snapshot {
	return session.Snapshot(s)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		snap session.Snapshot
		want Result
	}{
		{
			name: "unresolved session waits",
			snap: session.Snapshot{Loading: true},
			want: Result{Decision: Wait},
		},
		{
			name: "loading wins even if a stale identity is present",
			snap: session.Snapshot{Loading: true, Authenticated: true},
			want: Result{Decision: Wait},
		},
		{
			name: "authenticated allows",
			snap: session.Snapshot{Authenticated: true},
			want: Result{Decision: Allow},
		},
		{
			name: "anonymous redirects",
			snap: session.Snapshot{},
			want: Result{Decision: Redirect, Target: "/login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(staticSource(tt.snap), "/login")
			assert.Equal(t, tt.want, g.Check())
		})
	}
}

func TestAdminGuardRedirectsToAdminLogin(t *testing.T) {
	g := New(staticSource{}, "/admin/login")
	res := g.Check()
	assert.Equal(t, Redirect, res.Decision)
	assert.Equal(t, "/admin/login", res.Target)
}
