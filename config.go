package clientshell

import (
	"time"

	"github.com/finmar/clientshell/internal/config"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Filename of the standard configuration file.
const ConfigFile = "finmar.yaml"

// ConfigKeyInfo contains metadata about a known configuration key.
// This is re-exported from internal/config for public API use.
type ConfigKeyInfo = config.ConfigKeyInfo

// Config is a global koanf instance used to access application level
// configuration options.
//
// Config is loaded in the following order (later sources override earlier):
// 1. Built-in defaults (in init())
// 2. Auto-discovered finmar.yaml (in init())
// 3. Environment variables with FINMAR__ prefix (in init())
// 4. Additional sources loaded via LoadConfigFile() or LoadConfigDefaults()
//
// Environment variable transformation:
//   - FINMAR__API__BASE_URL → api.baseUrl
//   - FINMAR__AUTH__PROVIDER_REDIRECT_URL → auth.providerRedirectUrl
//   - FINMAR__FOO_BAR__BAZ → fooBar.baz
//
// There are deliberately no defaults for api.baseUrl or
// auth.providerRedirectUrl. Both identify the only sanctioned backend and
// identity-provider entry points; a baked-in fallback would create a second,
// unaudited authentication path.
var Config = koanf.New(".")

func init() {
	// Register all core configuration keys with their defaults (loaded lazily).
	registerCoreConfigKeys()

	// Look for a finmar.yaml file in the current directory or any parent.
	if cfg := config.SearchForConfig(ConfigFile, "."); cfg != "" {
		if err := Config.Load(file.Provider(cfg), yaml.Parser()); err != nil {
			panic("error loading config: " + err.Error())
		}
	}

	// Load environment variables with the prefix FINMAR__.
	if err := Config.Load(env.Provider("FINMAR__", ".", config.TransformEnv), nil); err != nil {
		panic("error loading env config: " + err.Error())
	}
}

// RegisterConfigKey registers a known configuration key with metadata.
// This should be called by core code and plugins to document expected config
// keys.
//
// Example:
//
//	clientshell.RegisterConfigKey(clientshell.ConfigKeyInfo{
//	    Key:         "myapp.telemetryUrl",
//	    Description: "Where the host app ships its telemetry",
//	    Type:        "string",
//	})
func RegisterConfigKey(info ConfigKeyInfo) {
	config.RegisterConfigKey(info)
}

// RegisterConfigKeys registers multiple configuration keys at once.
func RegisterConfigKeys(infos ...ConfigKeyInfo) {
	config.RegisterConfigKeys(infos...)
}

// RegisterDeprecatedKey registers a deprecated configuration key and its
// replacement.
func RegisterDeprecatedKey(oldKey, newKey string) {
	config.RegisterDeprecatedKey(oldKey, newKey)
}

// LoadConfigFile loads additional configuration from a YAML file into the
// global Config instance. Call this before creating the shell.
func LoadConfigFile(path string) {
	if err := Config.Load(file.Provider(path), yaml.Parser()); err != nil {
		panic("error loading config file '" + path + "': " + err.Error())
	}
}

// LoadConfigDefaults loads default configuration values into the global
// Config instance. Call this before creating the shell to provide
// application-specific defaults that can be overridden by files or env vars.
func LoadConfigDefaults(defaults map[string]interface{}) {
	if err := Config.Load(confmap.Provider(defaults, "."), nil); err != nil {
		panic("error loading config defaults: " + err.Error())
	}
}

// Configuration Access Functions
//
// These functions provide a clean API for accessing configuration values.
// They delegate to the underlying Config instance.

// ConfigString returns the string value for the given key.
func ConfigString(key string) string {
	return Config.String(key)
}

// ConfigInt returns the int value for the given key.
func ConfigInt(key string) int {
	return Config.Int(key)
}

// ConfigBool returns the bool value for the given key.
func ConfigBool(key string) bool {
	return Config.Bool(key)
}

// ConfigDuration returns the duration value for the given key.
// Duration strings like "5m", "1h", "30s" are parsed automatically.
func ConfigDuration(key string) time.Duration {
	return Config.Duration(key)
}

// ConfigStrings returns the string slice value for the given key.
func ConfigStrings(key string) []string {
	return Config.Strings(key)
}

// ConfigExists checks if the given key exists in the configuration.
func ConfigExists(key string) bool {
	return Config.Exists(key)
}

// ConfigAll returns all configuration as a map.
func ConfigAll() map[string]interface{} {
	return Config.All()
}

// registerCoreConfigKeys registers all core shell configuration keys with
// their defaults. This is called from init() before any config loading
// happens.
func registerCoreConfigKeys() {
	config.RegisterConfigKeys(
		ConfigKeyInfo{
			Key:         "name",
			Description: "User-facing name that identifies the host application",
			Type:        "string",
			Default:     "FINMAR Client Shell",
		},

		// Backend API configuration
		ConfigKeyInfo{
			Key:         "api.baseUrl",
			Description: "Base URL of the FINMAR backend (the /api prefix is appended)",
			Type:        "string",
			Required:    true,
		},
		ConfigKeyInfo{
			Key:         "api.timeout",
			Description: "Per-request timeout for backend calls, including session verification",
			Type:        "duration",
			Default:     "15s",
		},

		// Auth configuration
		ConfigKeyInfo{
			Key:         "auth.providerRedirectUrl",
			Description: "Externally supplied identity-provider login URL; never defaulted",
			Type:        "string",
		},
		ConfigKeyInfo{
			Key:         "auth.routes.dashboard",
			Description: "Route navigated to after a successful OAuth callback",
			Type:        "string",
			Default:     "/dashboard",
		},
		ConfigKeyInfo{
			Key:         "auth.routes.login",
			Description: "Route customers are sent to when unauthenticated",
			Type:        "string",
			Default:     "/login",
		},
		ConfigKeyInfo{
			Key:         "auth.routes.adminLogin",
			Description: "Route admins are sent to when unauthenticated",
			Type:        "string",
			Default:     "/admin/login",
		},

		// Storage configuration
		ConfigKeyInfo{
			Key:         "storage.path",
			Description: "Path of the on-device sqlite store used by native shells",
			Type:        "string",
			Default:     "finmar.db",
		},

		// Offline configuration
		ConfigKeyInfo{
			Key:         "offline.cacheMaxAge",
			Description: "Default maximum age before cached data reads as a miss",
			Type:        "duration",
			Default:     "1h",
		},
	)
}
