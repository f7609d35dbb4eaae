package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Fatalf("unexpected path %q", resolved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	def := Default()
	if cfg.Host != def.Host || cfg.Port != def.Port {
		t.Fatalf("unexpected listen settings: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.ReportsLimit != 3 || cfg.BanDuration != 30 || cfg.TimeFormat != "HH:MM:SS" {
		t.Fatalf("unexpected moderation defaults: %+v", cfg)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Fatalf("unexpected write timeout: %v", cfg.WriteTimeout)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("port: 9000\nreports_limit: 5\ntime_format: \"15:04\"\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LINECHAT_REPORTS_LIMIT", "7")
	t.Setenv("SERVER_HOST", "0.0.0.0")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected port from file, got %d", cfg.Port)
	}
	if cfg.ReportsLimit != 7 {
		t.Fatalf("expected reports limit from env, got %d", cfg.ReportsLimit)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("expected host from legacy env, got %q", cfg.Host)
	}
	if cfg.TimeFormat != "15:04" {
		t.Fatalf("unexpected time format %q", cfg.TimeFormat)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	cfg.Port = 0
	cfg.HistoryDriver = "redis"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAddrAndUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Host: "::1", Port: 9999})

	if got := cfg.Addr(); got != "[::1]:9999" {
		t.Fatalf("unexpected addr %q", got)
	}
	if cfg.BanDurationTime() != 30*time.Second {
		t.Fatalf("unexpected ban duration %v", cfg.BanDurationTime())
	}
}
