package offline

import (
	"context"
	"sync"

	"github.com/finmar/clientshell/logging"
	"github.com/finmar/clientshell/native"
)

// Monitor merges connectivity signals into one online/offline state and fires
// callbacks on the offline-to-online edge — the only event that triggers a
// queue drain. Signals can come from a native bridge watch, from
// browser-style SetOnline calls, or both; duplicate reports of the same state
// never re-fire.
type Monitor struct {
	log logging.Logger

	mu        sync.Mutex
	online    bool
	connType  string
	onOnline  map[int]func()
	onChange  map[int]func(bool)
	nextID    int
	stop      context.CancelFunc
	stoppedWG sync.WaitGroup
}

// MonitorOption configures a Monitor.
type MonitorOption func(*Monitor)

// WithMonitorLogger sets the logger. Defaults to a nop logger.
func WithMonitorLogger(log logging.Logger) MonitorOption {
	return func(m *Monitor) {
		m.log = log
	}
}

// NewMonitor returns a monitor that assumes the app starts online, matching
// the optimistic default of every browser. The first real signal corrects it
// if needed without firing callbacks.
func NewMonitor(opts ...MonitorOption) *Monitor {
	m := &Monitor{
		log:      logging.NewNopLogger(),
		online:   true,
		connType: "unknown",
		onOnline: map[int]func(){},
		onChange: map[int]func(bool){},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.Named("offline.monitor")
	return m
}

// Start seeds state from the bridge and follows its watch stream until Stop
// or ctx cancellation. Start is optional: a web shell can drive the monitor
// with SetOnline alone.
func (m *Monitor) Start(ctx context.Context, bridge native.NetworkBridge) error {
	status, err := bridge.Status(ctx)
	if err != nil {
		return err
	}
	m.seed(status)

	ctx, cancel := context.WithCancel(ctx)
	ch, err := bridge.Watch(ctx)
	if err != nil {
		cancel()
		return err
	}

	m.mu.Lock()
	m.stop = cancel
	m.mu.Unlock()

	m.stoppedWG.Add(1)
	go func() {
		defer m.stoppedWG.Done()
		for status := range ch {
			m.apply(status.Connected, status.ConnectionType)
		}
	}()
	return nil
}

// Stop ends the bridge watch, if one is running, and waits for it to wind
// down.
func (m *Monitor) Stop() {
	m.mu.Lock()
	stop := m.stop
	m.stop = nil
	m.mu.Unlock()

	if stop != nil {
		stop()
	}
	m.stoppedWG.Wait()
}

// seed records the initial status without treating it as a transition.
func (m *Monitor) seed(status native.NetworkStatus) {
	m.mu.Lock()
	m.online = status.Connected
	m.connType = status.ConnectionType
	m.mu.Unlock()
}

// SetOnline feeds a browser-style online/offline signal. Browser signals
// carry no connection type, so the last bridge-reported type is kept.
func (m *Monitor) SetOnline(online bool) {
	m.apply(online, "")
}

func (m *Monitor) apply(online bool, connType string) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	if connType != "" {
		m.connType = connType
	}
	connType = m.connType

	if online == wasOnline {
		m.mu.Unlock()
		return
	}

	changeFns := make([]func(bool), 0, len(m.onChange))
	for _, fn := range m.onChange {
		changeFns = append(changeFns, fn)
	}
	var onlineFns []func()
	if online {
		onlineFns = make([]func(), 0, len(m.onOnline))
		for _, fn := range m.onOnline {
			onlineFns = append(onlineFns, fn)
		}
	}
	m.mu.Unlock()

	m.log.Infow("connectivity changed", "online", online, "connectionType", connType)

	for _, fn := range changeFns {
		fn(online)
	}
	for _, fn := range onlineFns {
		fn()
	}
}

// Online reports the current merged state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// ConnectionType reports the last known connection type.
func (m *Monitor) ConnectionType() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connType
}

// OnOnline registers fn to run on every offline-to-online transition. The
// returned function cancels the registration.
func (m *Monitor) OnOnline(fn func()) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.onOnline[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.onOnline, id)
		m.mu.Unlock()
	}
}

// OnChange registers fn to run on every state change, in either direction.
// The returned function cancels the registration.
func (m *Monitor) OnChange(fn func(online bool)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.onChange[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.onChange, id)
		m.mu.Unlock()
	}
}
