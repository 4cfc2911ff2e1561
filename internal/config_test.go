package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if rules := cfg.Engine.Rules(); rules.RequireActorTags || rules.RequireUISurfaceTags {
		t.Errorf("policies should default off: %+v", rules)
	}
}

func TestEngineConfig_Limits(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Engine.MaxDocumentSize = 10
	if err := cfg.Validate(); err == nil {
		t.Error("tiny document limit should fail")
	}

	cfg = NewDefaultConfig()
	cfg.Engine.ChecklistThrottle = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("throttle below 100ms should fail")
	}
}

func TestEngineConfig_Rules(t *testing.T) {
	cfg := EngineConfig{RequireActorTags: true}
	if got := cfg.Rules(); !got.RequireActorTags || got.RequireUISurfaceTags {
		t.Errorf("rules = %+v", got)
	}
}

func TestEngineConfig_Strict(t *testing.T) {
	cfg := NewDefaultConfig().Engine
	cfg.Strict()
	if got := cfg.Rules(); !got.RequireActorTags || !got.RequireUISurfaceTags {
		t.Errorf("rules = %+v", got)
	}
}
