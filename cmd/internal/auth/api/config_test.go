package authapi

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"AUTHD_ENV", "AUTHD_AUTH_REQUIRE_EMAIL_VERIFIED", "AUTHD_AUTH_MAX_BODY_BYTES", "AUTHD_AUTH_STORE_TIMEOUT"} {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if !cfg.RequireEmailVerified {
		t.Fatalf("email verification should be required by default")
	}
	if cfg.StoreTimeout != 3*time.Second || cfg.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Production() {
		t.Fatalf("default env must not be production")
	}
}

func TestLoadConfigFromEnv_ProductionAndClamp(t *testing.T) {
	t.Setenv("AUTHD_ENV", "Production")
	t.Setenv("AUTHD_AUTH_MAX_BODY_BYTES", "-1")
	t.Setenv("AUTHD_AUTH_STORE_TIMEOUT", "0s")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv: %v", err)
	}
	if !cfg.Production() {
		t.Fatalf("expected production")
	}
	if cfg.MaxBodyBytes != defaultMaxBodyBytes || cfg.StoreTimeout != defaultStoreTimeout {
		t.Fatalf("expected clamped values, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_Invalid(t *testing.T) {
	t.Setenv("AUTHD_AUTH_REQUIRE_EMAIL_VERIFIED", "maybe")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatalf("expected parse error")
	}
}
