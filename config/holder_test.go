package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/archonlabs/provgate/config"
)

func TestHolderGet(t *testing.T) {
	path := writeConfig(t, "encryption:\n  key: "+testKey+"\n")

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	if h.Get().Server.Port != 8181 {
		t.Errorf("Port = %d, want default", h.Get().Server.Port)
	}
}

func TestHolderReload(t *testing.T) {
	path := writeConfig(t, "encryption:\n  key: "+testKey+"\n")

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	var notified *config.Config
	h.OnChange(func(cfg *config.Config) { notified = cfg })

	content := "encryption:\n  key: " + testKey + "\nhealth:\n  interval: 5m\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	if h.Get().Health.Interval != 5*time.Minute {
		t.Errorf("Interval = %v, want 5m", h.Get().Health.Interval)
	}
	if notified == nil {
		t.Fatal("OnChange callback not invoked")
	}
	if notified.Health.Interval != 5*time.Minute {
		t.Errorf("callback Interval = %v, want 5m", notified.Health.Interval)
	}
}

func TestHolderReloadKeepsOldConfigOnError(t *testing.T) {
	path := writeConfig(t, "encryption:\n  key: "+testKey+"\nserver:\n  port: 9090\n")

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	// Break the file: missing encryption key fails validation.
	if err := os.WriteFile(path, []byte("server:\n  port: 1\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	var reloadErr error
	h.OnError(func(err error) { reloadErr = err })

	if err := h.Reload(); err == nil {
		t.Fatal("expected reload error")
	}
	if h.Get().Server.Port != 9090 {
		t.Errorf("Port = %d, old config should be kept", h.Get().Server.Port)
	}
	if reloadErr == nil {
		t.Error("OnError callback not invoked")
	}
}

func TestHolderWatchFile(t *testing.T) {
	path := writeConfig(t, "encryption:\n  key: "+testKey+"\n")

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("new holder: %v", err)
	}
	defer h.Stop()

	changed := make(chan struct{}, 1)
	h.OnChange(func(*config.Config) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("watch file: %v", err)
	}

	content := "encryption:\n  key: " + testKey + "\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("file change not picked up")
	}

	if h.Get().Logging.Level != "debug" {
		t.Errorf("Level = %s, want debug", h.Get().Logging.Level)
	}
}

func TestFieldReloadability(t *testing.T) {
	reloadable := map[string]bool{}
	for _, f := range config.ReloadableFields() {
		reloadable[f] = true
	}
	for _, f := range config.NonReloadableFields() {
		if reloadable[f] {
			t.Errorf("%s listed as both reloadable and restart-only", f)
		}
		reloadable[f] = true
	}

	// The probe client and logger format are fixed at startup; only the
	// health cadence and log level re-apply live.
	for field, want := range map[string]bool{
		"health.interval":      true,
		"logging.level":        true,
		"health.probe_timeout": false,
		"logging.format":       false,
	} {
		got := false
		for _, f := range config.ReloadableFields() {
			if f == field {
				got = true
			}
		}
		if got != want {
			t.Errorf("%s reloadable = %t, want %t", field, got, want)
		}
	}
}
