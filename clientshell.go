// Package clientshell assembles the FINMAR client runtime: configuration,
// durable storage, the customer and admin sessions, the OAuth callback
// handler, route guards, the offline queue and cache, and the native platform
// bootstrap. Host applications construct a Shell, initialize it once at
// launch, and hang their UI off the pieces it exposes.
package clientshell

import (
	"context"

	"github.com/finmar/clientshell/api"
	"github.com/finmar/clientshell/authflow"
	"github.com/finmar/clientshell/errors"
	"github.com/finmar/clientshell/guard"
	"github.com/finmar/clientshell/internal/config"
	"github.com/finmar/clientshell/logging"
	"github.com/finmar/clientshell/native"
	"github.com/finmar/clientshell/offline"
	"github.com/finmar/clientshell/plugin"
	"github.com/finmar/clientshell/session"
	"github.com/finmar/clientshell/storage"
	"github.com/finmar/clientshell/storage/memorystore"
	"github.com/finmar/clientshell/storage/sqlitestore"
	"google.golang.org/grpc/codes"
)

// QueueProcessor replays one queued offline action against the backend.
type QueueProcessor func(ctx context.Context, a offline.Action) error

// PushHandler receives push notifications on native platforms.
type PushHandler func(n native.Notification)

// Option configures the shell.
type Option func(*Shell)

// WithLogger sets the logger for the shell and everything it constructs.
// Defaults to a development logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Shell) {
		s.log = log
	}
}

// WithStore overrides the storage backend. Without it, native shells open the
// sqlite store at storage.path and web shells use the in-memory store.
func WithStore(store storage.Store) Option {
	return func(s *Shell) {
		s.store = store
	}
}

// WithBridge supplies the platform bridge. Defaults to the web bridge.
func WithBridge(bridge native.Bridge) Option {
	return func(s *Shell) {
		s.bridge = bridge
	}
}

// WithQueueProcessor sets the function that replays offline actions when
// connectivity returns. Without one, the queue accepts actions but drains
// are skipped.
func WithQueueProcessor(fn QueueProcessor) Option {
	return func(s *Shell) {
		s.processor = fn
	}
}

// WithPushHandler sets the receiver for push notifications. Registration only
// happens on native platforms and only when a handler is present.
func WithPushHandler(fn PushHandler) Option {
	return func(s *Shell) {
		s.pushHandler = fn
	}
}

// WithPlugin registers an additional host plugin. It is initialized after the
// shell's own plugins and may depend on them by name.
func WithPlugin(p plugin.Plugin) Option {
	return func(s *Shell) {
		s.extraPlugins = append(s.extraPlugins, p)
	}
}

// Shell is the assembled client runtime.
type Shell struct {
	log    logging.Logger
	bridge native.Bridge
	store  storage.Store
	client *api.Client

	customer *session.Session
	admin    *session.AdminSession
	queue    *offline.Queue
	cache    *offline.Cache
	monitor  *offline.Monitor

	registry     *plugin.Registry
	extraPlugins []plugin.Plugin
	processor    QueueProcessor
	pushHandler  PushHandler

	cancelBackground context.CancelFunc
}

// New builds a shell from the global Config. It fails when required
// configuration is missing; there are no baked-in endpoints to fall back on.
func New(opts ...Option) (*Shell, error) {
	config.EnsureDefaultsLoaded(Config)

	s := &Shell{
		log:      logging.NewDevLogger(),
		bridge:   native.Web(),
		registry: &plugin.Registry{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("shell")

	if warnings := config.ValidateConfigKeys(Config); len(warnings) > 0 {
		s.log.Warn(config.FormatValidationWarnings(warnings))
	}
	if missing := config.ValidateRequiredKeys(Config); len(missing) > 0 {
		return nil, errors.Errorf("missing required config: %v", missing).
			WithCode(codes.FailedPrecondition)
	}

	client, err := api.New(
		Config.String("api.baseUrl"),
		api.WithTimeout(Config.Duration("api.timeout")),
	)
	if err != nil {
		return nil, err
	}
	s.client = client

	if s.store == nil {
		if s.bridge.Native() {
			s.store = sqlitestore.New(Config.String("storage.path"))
		} else {
			s.store = memorystore.New()
		}
	}

	s.customer = session.New(client, s.store, session.WithLogger(s.log))
	s.admin = session.NewAdmin(client, s.store, session.WithLogger(s.log))
	s.queue = offline.NewQueue(s.store, offline.WithQueueLogger(s.log))
	s.cache = offline.NewCache(s.store,
		offline.WithMaxAge(Config.Duration("offline.cacheMaxAge")))
	s.monitor = offline.NewMonitor(offline.WithMonitorLogger(s.log))

	s.registry.Register(storage.Plugin(s.store))
	s.registry.Register(&sessionPlugin{session: s.customer})
	s.registry.Register(&adminPlugin{session: s.admin})
	for _, p := range s.extraPlugins {
		s.registry.Register(p)
	}

	return s, nil
}

// Init brings the shell up: plugins are initialized in dependency order
// (which resolves both sessions), the network monitor starts following the
// platform bridge, and on native platforms the mobile bootstrap runs. Init
// blocks until the sessions resolve, so by the time it returns the route
// guards have a real answer.
func (s *Shell) Init(ctx context.Context) error {
	ctx = logging.With(ctx, s.log)

	if err := s.registry.Init(ctx); err != nil {
		return err
	}

	// Background work outlives Init's ctx and stops at Shutdown.
	bg, cancel := context.WithCancel(logging.With(context.Background(), s.log))
	s.cancelBackground = cancel

	s.monitor.OnOnline(func() {
		go s.drain(bg)
	})
	if err := s.monitor.Start(bg, s.bridge.Network()); err != nil {
		return err
	}

	if s.bridge.Native() {
		if err := s.bootstrapNative(bg); err != nil {
			// Cosmetic platform chrome must not block launch.
			s.log.Warnw("native bootstrap incomplete", "error", err)
		}
	}

	// Catch up on anything queued during the previous run.
	go s.drain(bg)

	s.log.Infow("shell initialized",
		"platform", s.bridge.Platform(),
		"name", Config.String("name"))
	return nil
}

// Shutdown stops background work and tears plugins down in reverse order.
func (s *Shell) Shutdown(ctx context.Context) error {
	if s.cancelBackground != nil {
		s.cancelBackground()
	}
	s.monitor.Stop()
	return s.registry.Shutdown(ctx)
}

// bootstrapNative applies platform chrome and registers for push. Mirrors
// what a mobile host does on its first frame: style the status bar, register
// notification channels, then drop the splash screen.
func (s *Shell) bootstrapNative(ctx context.Context) error {
	display := s.bridge.Display()
	if err := display.SetStatusBarStyle(ctx, native.StatusBarDark); err != nil {
		return err
	}

	if s.pushHandler != nil {
		if err := s.registerPush(ctx); err != nil {
			s.log.Warnw("push registration failed", "error", err)
		}
	}

	if err := display.HideSplashScreen(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Shell) registerPush(ctx context.Context) error {
	granted, err := s.bridge.Push().RequestPermissions(ctx)
	if err != nil {
		return err
	}
	if !granted {
		s.log.Infow("push permission denied")
		return nil
	}

	tokens, notifications, err := s.bridge.Push().Register(ctx)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case token, ok := <-tokens:
				if !ok {
					return
				}
				s.log.Infow("push token received", "token", token)
			case n, ok := <-notifications:
				if !ok {
					return
				}
				s.pushHandler(n)
			}
		}
	}()
	return nil
}

// drain replays the offline queue. It runs on every offline-to-online edge
// and once at startup; the queue itself ignores overlapping calls.
func (s *Shell) drain(ctx context.Context) {
	if s.processor == nil || !s.monitor.Online() {
		return
	}
	if _, err := s.queue.Drain(ctx, func(ctx context.Context, a offline.Action) error {
		return s.processor(ctx, a)
	}); err != nil {
		s.log.Warnw("offline queue drain halted", "error", err)
	}
}

// Session returns the customer session.
func (s *Shell) Session() *session.Session {
	return s.customer
}

// Admin returns the admin session.
func (s *Shell) Admin() *session.AdminSession {
	return s.admin
}

// Queue returns the offline action queue.
func (s *Shell) Queue() *offline.Queue {
	return s.queue
}

// Cache returns the offline data cache.
func (s *Shell) Cache() *offline.Cache {
	return s.cache
}

// Monitor returns the network monitor. Web hosts feed browser online/offline
// events into it via SetOnline.
func (s *Shell) Monitor() *offline.Monitor {
	return s.monitor
}

// Store returns the shell's storage backend, for host plugins that persist
// their own state.
func (s *Shell) Store() storage.Store {
	return s.store
}

// API returns the backend client.
func (s *Shell) API() *api.Client {
	return s.client
}

// Registry returns the plugin registry.
func (s *Shell) Registry() *plugin.Registry {
	return s.registry
}

// Bridge returns the platform bridge.
func (s *Shell) Bridge() native.Bridge {
	return s.bridge
}

// CustomerGuard returns a guard for customer routes, redirecting to the
// configured login route.
func (s *Shell) CustomerGuard() *guard.Guard {
	return guard.New(s.customer, Config.String("auth.routes.login"))
}

// AdminGuard returns a guard for admin routes, redirecting to the configured
// admin login route.
func (s *Shell) AdminGuard() *guard.Guard {
	return guard.New(s.admin, Config.String("auth.routes.adminLogin"))
}

// CallbackHandler returns a fresh OAuth callback handler bound to the
// customer session and the configured routes. Each provider redirect gets its
// own handler; the one-exchange latch is per instance.
func (s *Shell) CallbackHandler(nav authflow.Navigator) *authflow.CallbackHandler {
	return authflow.NewCallbackHandler(s.customer, nav,
		authflow.WithRoutes(
			Config.String("auth.routes.dashboard"),
			Config.String("auth.routes.login"),
		),
		authflow.WithLogger(s.log),
	)
}

// ProviderLoginURL returns the externally configured identity-provider login
// URL. There is no default: an unset value is an error, never a guess.
func (s *Shell) ProviderLoginURL() (string, error) {
	u := Config.String("auth.providerRedirectUrl")
	if u == "" {
		return "", errors.NewC(
			"auth.providerRedirectUrl is not configured; hosted login is unavailable",
			codes.FailedPrecondition)
	}
	return u, nil
}

// sessionPlugin resolves the customer session during registry init.
type sessionPlugin struct {
	session *session.Session
}

func (p *sessionPlugin) Name() string {
	return "session"
}

func (p *sessionPlugin) Deps() []string {
	return []string{storage.PluginName}
}

func (p *sessionPlugin) Init(ctx context.Context, r *plugin.Registry) error {
	return p.session.Init(ctx)
}

// adminPlugin resolves the admin session during registry init.
type adminPlugin struct {
	session *session.AdminSession
}

func (p *adminPlugin) Name() string {
	return "session.admin"
}

func (p *adminPlugin) Deps() []string {
	return []string{storage.PluginName}
}

func (p *adminPlugin) Init(ctx context.Context, r *plugin.Registry) error {
	return p.session.Init(ctx)
}
