package session

import "github.com/finmar/clientshell/api"

// State is a point-in-time view of the customer session, delivered to
// subscribers and returned from State(). Loading is true from construction
// until the first verification resolves; route guards wait on it rather than
// guessing.
type State struct {
	User          *api.User
	Loading       bool
	Authenticated bool
}

// AdminState is the admin counterpart of State.
type AdminState struct {
	Admin         *api.Admin
	Loading       bool
	Authenticated bool
}

// Snapshot is the minimal view route guards need. Both session types produce
// one, so a single guard implementation serves both contexts.
type Snapshot struct {
	Loading       bool
	Authenticated bool
}

// Source is anything that can report a Snapshot. *Session and *AdminSession
// both qualify.
type Source interface {
	Snapshot() Snapshot
}
