// Package storage contains an extensible interface for the durable,
// per-origin state the client shell keeps between launches: credential slots,
// queued offline actions, and TTL-tagged cached data.
//
// Stores provide simple create, read, update, delete, and list operations.
// Models are represented as structs and should have a `PK() string` method.
//
// Examples:
//
//	registry.Register(storage.Plugin(memorystore.New()))
//
//	func (m *MyPlugin) Init(ctx context.Context, r *plugin.Registry) error {
//	  m.store = r.Get(storage.PluginName).(storage.StorePlugin).Store()
//	  return nil
//	}
package storage

import "github.com/finmar/clientshell/plugin"

// PluginName can be used to query the storage plugin.
const PluginName = "storage"

// StorePlugin is implemented by the registered storage plugin.
type StorePlugin interface {
	plugin.Plugin
	Store() Store
}

// Plugin wraps a storage implementation for registration.
func Plugin(impl Store) plugin.Plugin {
	return &wrapper{store: impl}
}

type wrapper struct {
	store Store
}

func (p *wrapper) Name() string {
	return PluginName
}

func (p *wrapper) Store() Store {
	return p.store
}
