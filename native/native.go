// Package native abstracts the host platform. On a mobile build the shell is
// handed a Bridge backed by the platform runtime; on the web (and in tests)
// the no-op Web bridge serves instead. Components never ask "are we on iOS" —
// they ask the bridge and degrade gracefully when a capability is missing.
package native

import (
	"context"

	"github.com/finmar/clientshell/errors"
	"google.golang.org/grpc/codes"
)

// NetworkStatus describes the device's connectivity.
type NetworkStatus struct {
	Connected      bool
	ConnectionType string // "wifi", "cellular", "none", "unknown"
}

// AppState reports whether the app is in the foreground.
type AppState struct {
	Active bool
}

// Notification is a push notification, either received in the foreground or
// tapped from the system tray.
type Notification struct {
	Title  string
	Body   string
	Data   map[string]string
	Tapped bool
}

// StatusBarStyle selects the system status bar appearance.
type StatusBarStyle string

const (
	StatusBarLight StatusBarStyle = "light"
	StatusBarDark  StatusBarStyle = "dark"
)

// NetworkBridge exposes the platform's connectivity signal.
type NetworkBridge interface {
	// Status returns the current connectivity.
	Status(ctx context.Context) (NetworkStatus, error)

	// Watch streams connectivity changes until ctx is cancelled. The channel
	// is closed when the watch ends.
	Watch(ctx context.Context) (<-chan NetworkStatus, error)
}

// PushBridge exposes push notification registration.
type PushBridge interface {
	// RequestPermissions prompts the user if needed and reports whether push
	// is permitted.
	RequestPermissions(ctx context.Context) (bool, error)

	// Register registers with the platform push service. Tokens and incoming
	// notifications arrive on the returned channels, which close when ctx is
	// cancelled.
	Register(ctx context.Context) (<-chan string, <-chan Notification, error)
}

// AppBridge exposes app lifecycle events.
type AppBridge interface {
	// States streams foreground/background transitions until ctx is
	// cancelled.
	States(ctx context.Context) (<-chan AppState, error)
}

// DisplayBridge exposes cosmetic platform chrome.
type DisplayBridge interface {
	SetStatusBarStyle(ctx context.Context, style StatusBarStyle) error
	HideSplashScreen(ctx context.Context) error
}

// Bridge is the full platform surface handed to the shell.
type Bridge interface {
	// Native reports whether a real platform runtime is present. When false,
	// the shell skips the mobile bootstrap entirely.
	Native() bool

	// Platform names the host: "ios", "android" or "web".
	Platform() string

	Network() NetworkBridge
	Push() PushBridge
	App() AppBridge
	Display() DisplayBridge
}

// ErrNotNative is returned by Web bridge capabilities that only exist on a
// device.
var ErrNotNative = errors.NewC("capability requires a native platform", codes.Unimplemented)
