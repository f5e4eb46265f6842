package config

import (
	"testing"
)

func registerTestKeys(t *testing.T) {
	t.Helper()
	RegisterConfigKeys(
		ConfigKeyInfo{Key: "api.baseUrl", Type: "string", Required: true},
		ConfigKeyInfo{Key: "api.timeout", Type: "duration", Default: "15s"},
		ConfigKeyInfo{Key: "auth.routes.dashboard", Type: "string", Default: "/dashboard"},
		ConfigKeyInfo{Key: "auth.routes.login", Type: "string", Default: "/login"},
	)
}

func TestRegisterAndLookup(t *testing.T) {
	registerTestKeys(t)

	if !IsRegisteredKey("api.baseUrl") {
		t.Error("expected api.baseUrl to be registered")
	}

	info, ok := LookupConfigKey("api.timeout")
	if !ok {
		t.Fatal("expected api.timeout to be registered")
	}
	if info.Default != "15s" {
		t.Errorf("Default = %v, want 15s", info.Default)
	}
}

func TestRequiredKeys(t *testing.T) {
	registerTestKeys(t)

	found := false
	for _, k := range RequiredKeys() {
		if k == "api.baseUrl" {
			found = true
		}
	}
	if !found {
		t.Error("expected api.baseUrl in RequiredKeys()")
	}
}

func TestDefaultConfigs(t *testing.T) {
	registerTestKeys(t)

	defaults := DefaultConfigs()
	if defaults["api.timeout"] != "15s" {
		t.Errorf("defaults[api.timeout] = %v, want 15s", defaults["api.timeout"])
	}
	if _, ok := defaults["api.baseUrl"]; ok {
		t.Error("api.baseUrl must not have a default")
	}
}

func TestFindSimilarKeys(t *testing.T) {
	registerTestKeys(t)

	suggestions := FindSimilarKeys("api.timout", 3)
	found := false
	for _, s := range suggestions {
		if s == "api.timeout" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected api.timeout in suggestions, got %v", suggestions)
	}
}

func TestDeprecatedKey(t *testing.T) {
	RegisterDeprecatedKey("api.url", "api.baseUrl")

	info, ok := LookupConfigKey("api.url")
	if !ok || !info.Deprecated {
		t.Fatal("expected api.url to be registered as deprecated")
	}
	if info.ReplacedBy != "api.baseUrl" {
		t.Errorf("ReplacedBy = %v, want api.baseUrl", info.ReplacedBy)
	}
}
