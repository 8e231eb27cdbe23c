package config

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

func resetGlobal() {
	SetConfig(nil)
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	if err := Initialize(writeConfig(t, minimalConfig)); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Looker.ClientID != "id" {
		t.Errorf("expected client id %q, got %q", "id", cfg.Looker.ClientID)
	}

	// Second call is ignored.
	other := strings.Replace(minimalConfig, `client_id: "id"`, `client_id: "other"`, 1)
	if err := Initialize(writeConfig(t, other)); err != nil {
		t.Fatalf("second Initialize returned error: %v", err)
	}
	if GetConfig().Looker.ClientID != "id" {
		t.Error("expected second Initialize to be ignored")
	}
}

func TestReloadConfig_KeepsPreviousOnFailure(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, minimalConfig)
	if err := ReloadConfig(path); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}
	before := GetConfig()

	if err := os.WriteFile(path, []byte("looker: {}\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}
	if err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload of invalid file to fail")
	}
	if GetConfig() != before {
		t.Error("expected previous configuration to stay active")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	defer func() {
		if recover() == nil {
			t.Error("expected panic when config is not initialized")
		}
	}()
	MustGetConfig()
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	resetGlobal()
	t.Cleanup(resetGlobal)

	path := writeConfig(t, minimalConfig)
	if err := ReloadConfig(path); err != nil {
		t.Fatalf("ReloadConfig failed: %v", err)
	}

	w, err := NewWatcher(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	reloaded := make(chan *Config, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(minimalConfig, `client_id: "id"`, `client_id: "rotated"`, 1)
	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Looker.ClientID != "rotated" {
			t.Errorf("expected rotated client id, got %q", cfg.Looker.ClientID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}
