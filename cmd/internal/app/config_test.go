package app

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t, "AUTHD_HTTP_ADDR", "AUTHD_LOG_LEVEL", "AUTHD_LOG_FORMAT", "AUTHD_DATABASE_URL",
		"AUTHD_DB_MAX_CONNS", "AUTHD_DB_MIN_CONNS", "AUTHD_DB_AUTO_MIGRATE", "AUTHD_HTTP_READ_TIMEOUT")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:8032" || cfg.LogLevel != "info" || cfg.LogFormat != "json" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.DatabaseURL != "" || cfg.AutoMigrate || cfg.DBMaxConns != 10 {
		t.Fatalf("unexpected db defaults: %+v", cfg)
	}
	if cfg.ReadTimeout != 15*time.Second {
		t.Fatalf("read timeout=%v", cfg.ReadTimeout)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad_duration", env: map[string]string{"AUTHD_HTTP_READ_TIMEOUT": "fast"}},
		{name: "bad_bool", env: map[string]string{"AUTHD_DB_AUTO_MIGRATE": "sure"}},
		{name: "min_over_max", env: map[string]string{"AUTHD_DB_MAX_CONNS": "2", "AUTHD_DB_MIN_CONNS": "5"}},
		{name: "negative", env: map[string]string{"AUTHD_DB_MIN_CONNS": "-1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t, "AUTHD_HTTP_READ_TIMEOUT", "AUTHD_DB_AUTO_MIGRATE", "AUTHD_DB_MAX_CONNS", "AUTHD_DB_MIN_CONNS")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
