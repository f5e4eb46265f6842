package native

import "context"

// Web returns the bridge used when no platform runtime is present. Network
// reports permanently connected and never changes on its own — browser-style
// online/offline signals are fed to the network monitor directly, not through
// the bridge. Push and display capabilities are absent.
func Web() Bridge {
	return webBridge{}
}

type webBridge struct{}

func (webBridge) Native() bool           { return false }
func (webBridge) Platform() string       { return "web" }
func (webBridge) Network() NetworkBridge { return webNetwork{} }
func (webBridge) Push() PushBridge       { return webPush{} }
func (webBridge) App() AppBridge         { return webApp{} }
func (webBridge) Display() DisplayBridge { return webDisplay{} }

type webNetwork struct{}

func (webNetwork) Status(ctx context.Context) (NetworkStatus, error) {
	return NetworkStatus{Connected: true, ConnectionType: "unknown"}, nil
}

func (webNetwork) Watch(ctx context.Context) (<-chan NetworkStatus, error) {
	ch := make(chan NetworkStatus)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type webPush struct{}

func (webPush) RequestPermissions(ctx context.Context) (bool, error) {
	return false, nil
}

func (webPush) Register(ctx context.Context) (<-chan string, <-chan Notification, error) {
	return nil, nil, ErrNotNative
}

type webApp struct{}

func (webApp) States(ctx context.Context) (<-chan AppState, error) {
	ch := make(chan AppState)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

type webDisplay struct{}

func (webDisplay) SetStatusBarStyle(ctx context.Context, style StatusBarStyle) error {
	return nil
}

func (webDisplay) HideSplashScreen(ctx context.Context) error {
	return nil
}
