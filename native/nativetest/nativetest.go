// Package nativetest provides a scriptable Bridge for tests of code that
// reacts to platform signals.
package nativetest

import (
	"context"
	"sync"

	"github.com/finmar/clientshell/native"
)

// Bridge is a fake native.Bridge. Zero value reports a connected native
// device on the "test" platform; tests push connectivity changes with
// SetConnected.
type Bridge struct {
	IsNative bool
	Name     string

	mu       sync.Mutex
	status   native.NetworkStatus
	watchers []chan native.NetworkStatus

	SplashHidden   bool
	StatusBarStyle native.StatusBarStyle
	PushTokens     chan string
	PushMessages   chan native.Notification
}

// New returns a native bridge that starts connected.
func New() *Bridge {
	return &Bridge{
		IsNative:     true,
		Name:         "test",
		status:       native.NetworkStatus{Connected: true, ConnectionType: "wifi"},
		PushTokens:   make(chan string, 1),
		PushMessages: make(chan native.Notification, 1),
	}
}

func (b *Bridge) Native() bool     { return b.IsNative }
func (b *Bridge) Platform() string { return b.Name }

func (b *Bridge) Network() native.NetworkBridge { return (*fakeNetwork)(b) }
func (b *Bridge) Push() native.PushBridge       { return (*fakePush)(b) }
func (b *Bridge) App() native.AppBridge         { return (*fakeApp)(b) }
func (b *Bridge) Display() native.DisplayBridge { return (*fakeDisplay)(b) }

// SetConnected pushes a connectivity change to all watchers.
func (b *Bridge) SetConnected(connected bool) {
	b.mu.Lock()
	connType := "wifi"
	if !connected {
		connType = "none"
	}
	b.status = native.NetworkStatus{Connected: connected, ConnectionType: connType}
	status := b.status
	for _, w := range b.watchers {
		w <- status
	}
	b.mu.Unlock()
}

type fakeNetwork Bridge

func (f *fakeNetwork) Status(ctx context.Context) (native.NetworkStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeNetwork) Watch(ctx context.Context) (<-chan native.NetworkStatus, error) {
	ch := make(chan native.NetworkStatus, 8)
	f.mu.Lock()
	f.watchers = append(f.watchers, ch)
	f.mu.Unlock()
	go func() {
		<-ctx.Done()
		f.mu.Lock()
		for i, w := range f.watchers {
			if w == ch {
				f.watchers = append(f.watchers[:i], f.watchers[i+1:]...)
				break
			}
		}
		f.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

type fakePush Bridge

func (f *fakePush) RequestPermissions(ctx context.Context) (bool, error) {
	return true, nil
}

func (f *fakePush) Register(ctx context.Context) (<-chan string, <-chan native.Notification, error) {
	return f.PushTokens, f.PushMessages, nil
}

type fakeApp Bridge

func (f *fakeApp) States(ctx context.Context) (<-chan native.AppState, error) {
	ch := make(chan native.AppState)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type fakeDisplay Bridge

func (f *fakeDisplay) SetStatusBarStyle(ctx context.Context, style native.StatusBarStyle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusBarStyle = style
	return nil
}

func (f *fakeDisplay) HideSplashScreen(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SplashHidden = true
	return nil
}
