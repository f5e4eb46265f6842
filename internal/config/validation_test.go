package config

import (
	"strings"
	"testing"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
)

func TestValidateConfigKeys(t *testing.T) {
	registerTestKeys(t)
	RegisterConfigKey(ConfigKeyInfo{Key: "myapp", Type: "namespace"})

	testConfig := koanf.New(".")
	err := testConfig.Load(confmap.Provider(map[string]interface{}{
		"api.baseUrl":         "https://api.finmar.test",
		"api.timout":          "10s", // Typo: should be timeout
		"unknownKey":          "value",
		"myapp.customSetting": "value", // Covered by registered namespace
	}, "."), nil)
	if err != nil {
		t.Fatalf("Failed to load test config: %v", err)
	}

	warnings := ValidateConfigKeys(testConfig)

	var keys []string
	for _, w := range warnings {
		keys = append(keys, w.Key)
	}

	if !contains(keys, "api.timout") {
		t.Errorf("expected warning for api.timout, got %v", keys)
	}
	if !contains(keys, "unknownKey") {
		t.Errorf("expected warning for unknownKey, got %v", keys)
	}
	if contains(keys, "myapp.customSetting") {
		t.Errorf("namespaced key should not warn, got %v", keys)
	}
	if contains(keys, "api.baseUrl") {
		t.Errorf("registered key should not warn, got %v", keys)
	}

	// The typo warning should suggest the correct key.
	for _, w := range warnings {
		if w.Key == "api.timout" && !contains(w.Suggestions, "api.timeout") {
			t.Errorf("expected api.timeout suggested for api.timout, got %v", w.Suggestions)
		}
	}
}

func TestValidateRequiredKeys(t *testing.T) {
	registerTestKeys(t)

	empty := koanf.New(".")
	missing := ValidateRequiredKeys(empty)
	if !contains(missing, "api.baseUrl") {
		t.Errorf("expected api.baseUrl reported missing, got %v", missing)
	}

	loaded := koanf.New(".")
	loaded.Load(confmap.Provider(map[string]interface{}{
		"api.baseUrl": "https://api.finmar.test",
	}, "."), nil)
	for _, k := range ValidateRequiredKeys(loaded) {
		if k == "api.baseUrl" {
			t.Error("api.baseUrl should not be reported missing once set")
		}
	}
}

func TestFormatValidationWarnings(t *testing.T) {
	warnings := []ValidationWarning{
		{Key: "api.timout", Suggestions: []string{"api.timeout"}},
	}
	out := FormatValidationWarnings(warnings)
	if !strings.Contains(out, "api.timout") || !strings.Contains(out, "api.timeout") {
		t.Errorf("unexpected format output: %s", out)
	}

	if FormatValidationWarnings(nil) != "" {
		t.Error("no warnings should format to empty string")
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
