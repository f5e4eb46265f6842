// Package plugin defines the plugin interface and registry used to assemble
// the client shell. Components such as storage, the session managers, and the
// offline queue are registered by name and initialized in dependency order,
// which gives the shell explicit construction and teardown instead of
// module-level singletons.
package plugin

import "context"

// The base plugin interface.
type Plugin interface {
	// Name of the plugin, used for querying and dependency resolution.
	Name() string
}

// Implemented if a plugin depends on other plugins.
type DependentPlugin interface {
	// Deps returns the names for plugins which this plugin depends on.
	Deps() []string
}

// Implemented if the plugin needs to be initialized outside construction.
type InitializablePlugin interface {
	// Init the plugin. Will be called in dependency order.
	Init(ctx context.Context, r *Registry) error
}

// Implemented if the plugin holds resources that need releasing. Shutdown is
// called in reverse registration order. Long-lived hosts never call it, tests
// do.
type ShutdownPlugin interface {
	Shutdown(ctx context.Context) error
}
