package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/archonlabs/provgate/config"
)

const testKey = "dGVzdC1rZXktdGVzdC1rZXktdGVzdC1rZXktdGVzdCE=" // 32 bytes, base64

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "provgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
database:
  driver: sqlite
  dsn: /tmp/test.db
encryption:
  key: `+testKey+`
health:
  probe_timeout: 5s
  interval: 1m
logging:
  level: debug
  format: console
metrics:
  enabled: true
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/test.db" {
		t.Errorf("DSN = %s", cfg.Database.DSN)
	}
	if cfg.Health.ProbeTimeout != 5*time.Second {
		t.Errorf("ProbeTimeout = %v", cfg.Health.ProbeTimeout)
	}
	if cfg.Health.Interval != time.Minute {
		t.Errorf("Interval = %v", cfg.Health.Interval)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %s", cfg.Logging.Level)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled")
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "encryption:\n  key: "+testKey+"\n")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8181 {
		t.Errorf("Port = %d, want 8181", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "provgate.db" {
		t.Errorf("DSN = %s, want provgate.db", cfg.Database.DSN)
	}
	if cfg.Health.ProbeTimeout != 15*time.Second {
		t.Errorf("ProbeTimeout = %v, want 15s", cfg.Health.ProbeTimeout)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %s/%s, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadRequiresEncryptionKey(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	_, err := config.Load(path)
	if err == nil {
		t.Fatal("expected error for missing encryption key")
	}
	if !strings.Contains(err.Error(), "encryption.key") {
		t.Errorf("err = %v, should mention encryption.key", err)
	}
}

func TestLoadRejectsBadLevel(t *testing.T) {
	path := writeConfig(t, `
encryption:
  key: `+testKey+`
logging:
  level: verbose
`)

	if _, err := config.Load(path); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
encryption:
  key: `+testKey+`
`)

	t.Setenv("PROVGATE_SERVER_PORT", "7070")
	t.Setenv("PROVGATE_LOG_LEVEL", "warn")
	t.Setenv("PROVGATE_HEALTH_INTERVAL", "30s")
	t.Setenv("PROVGATE_METRICS_ENABLED", "yes")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, env should win over file", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %s, want warn", cfg.Logging.Level)
	}
	if cfg.Health.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Health.Interval)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Metrics should be enabled via env")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PROVGATE_ENCRYPTION_KEY", testKey)
	t.Setenv("PROVGATE_DATABASE_DSN", "/data/provgate.db")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if cfg.Encryption.Key != testKey {
		t.Errorf("Key = %s", cfg.Encryption.Key)
	}
	if cfg.Database.DSN != "/data/provgate.db" {
		t.Errorf("DSN = %s", cfg.Database.DSN)
	}
}

func TestLoadWithFallback(t *testing.T) {
	t.Setenv("PROVGATE_ENCRYPTION_KEY", testKey)

	// Missing file falls back to env.
	cfg, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if cfg.Encryption.Key != testKey {
		t.Error("fallback should read env key")
	}
}

func TestLoadWithFallbackNoConfig(t *testing.T) {
	t.Setenv("PROVGATE_ENCRYPTION_KEY", "")

	if _, err := config.LoadWithFallback(""); err == nil {
		t.Fatal("expected error when nothing is configured")
	}
}
