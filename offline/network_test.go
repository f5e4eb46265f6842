package offline

import (
	"context"
	"testing"
	"time"

	"github.com/finmar/clientshell/native/nativetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorStartsOnline(t *testing.T) {
	m := NewMonitor()
	assert.True(t, m.Online())
}

func TestOnOnlineFiresOnEdgeOnly(t *testing.T) {
	m := NewMonitor()
	fired := 0
	m.OnOnline(func() { fired++ })

	m.SetOnline(true) // already online, no edge
	assert.Zero(t, fired)

	m.SetOnline(false)
	m.SetOnline(false) // duplicate offline report
	assert.Zero(t, fired)

	m.SetOnline(true)
	assert.Equal(t, 1, fired)

	m.SetOnline(true) // duplicate online report
	assert.Equal(t, 1, fired)

	m.SetOnline(false)
	m.SetOnline(true)
	assert.Equal(t, 2, fired)
}

func TestOnChangeFiresBothDirections(t *testing.T) {
	m := NewMonitor()
	var changes []bool
	cancel := m.OnChange(func(online bool) { changes = append(changes, online) })

	m.SetOnline(false)
	m.SetOnline(true)
	assert.Equal(t, []bool{false, true}, changes)

	cancel()
	m.SetOnline(false)
	assert.Len(t, changes, 2)
}

func TestMonitorFollowsBridge(t *testing.T) {
	bridge := nativetest.New()
	m := NewMonitor()

	ctx := context.Background()
	require.NoError(t, m.Start(ctx, bridge.Network()))
	defer m.Stop()

	onOnline := make(chan struct{}, 4)
	m.OnOnline(func() { onOnline <- struct{}{} })

	bridge.SetConnected(false)
	waitFor(t, func() bool { return !m.Online() })

	bridge.SetConnected(true)
	select {
	case <-onOnline:
	case <-time.After(2 * time.Second):
		t.Fatal("online edge never fired")
	}
	assert.True(t, m.Online())
	assert.Equal(t, "wifi", m.ConnectionType())
}

func TestSetOnlineKeepsBridgeConnectionType(t *testing.T) {
	bridge := nativetest.New()
	m := NewMonitor()

	require.NoError(t, m.Start(context.Background(), bridge.Network()))
	defer m.Stop()
	assert.Equal(t, "wifi", m.ConnectionType())

	// Browser signals carry no type and must not erase the bridge's.
	m.SetOnline(false)
	m.SetOnline(true)
	assert.Equal(t, "wifi", m.ConnectionType())

	bridge.SetConnected(false)
	waitFor(t, func() bool { return m.ConnectionType() == "none" })
}

func TestMonitorSeedDoesNotFire(t *testing.T) {
	bridge := nativetest.New()
	bridge.SetConnected(false)

	m := NewMonitor()
	fired := false
	m.OnOnline(func() { fired = true })

	// Seeding from an offline bridge corrects state without an edge.
	require.NoError(t, m.Start(context.Background(), bridge.Network()))
	defer m.Stop()

	assert.False(t, m.Online())
	assert.False(t, fired)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never met")
}
