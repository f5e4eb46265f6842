package clientshell

import (
	"testing"

	"github.com/finmar/clientshell/internal/config"
)

func TestTransformEnv(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "FINMAR__API__BASE_URL", want: "api.baseUrl"},
		{input: "FINMAR__NAME", want: "name"},
		{input: "FINMAR__AUTH__PROVIDER_REDIRECT_URL", want: "auth.providerRedirectUrl"},
		{input: "FINMAR__A__B_C", want: "a.bC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := config.TransformEnv(tt.input); got != tt.want {
				t.Errorf("TransformEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCoreDefaults(t *testing.T) {
	defaults := config.DefaultConfigs()

	if defaults["auth.routes.login"] != "/login" {
		t.Errorf("auth.routes.login default = %v", defaults["auth.routes.login"])
	}
	if defaults["api.timeout"] != "15s" {
		t.Errorf("api.timeout default = %v", defaults["api.timeout"])
	}

	// The security contract: no baked-in backend or provider URLs.
	if _, ok := defaults["api.baseUrl"]; ok {
		t.Error("api.baseUrl must not have a default")
	}
	if _, ok := defaults["auth.providerRedirectUrl"]; ok {
		t.Error("auth.providerRedirectUrl must not have a default")
	}
}
