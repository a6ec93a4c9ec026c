package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPollIntervals(t *testing.T) {
	cfg := Default()
	if cfg.InventoryPollIntervalSeconds != 5 || cfg.UpdatePollIntervalSeconds != 5 || cfg.RetryPollIntervalSeconds != 5 {
		t.Fatalf("expected default poll intervals of 5s, got %+v", cfg)
	}
}

func TestLoadMergesLocalOverGlobal(t *testing.T) {
	dir := t.TempDir()
	global := filepath.Join(dir, "global.conf")
	local := filepath.Join(dir, "local.conf")

	os.WriteFile(global, []byte("ServerURL: https://global.example.com\nTenantToken: global-token\n"), 0644)
	os.WriteFile(local, []byte("ServerURL: https://local.example.com\n"), 0644)

	cfg, err := Load(global, local)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "https://local.example.com" {
		t.Fatalf("local value should override global, got %q", cfg.ServerURL)
	}
	if cfg.TenantToken != "global-token" {
		t.Fatalf("key missing from local should keep the global value, got %q", cfg.TenantToken)
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.conf")
	os.WriteFile(path, []byte("ServerURL: https://example.com\nSomeFutureKey: 42\n"), 0644)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != "https://example.com" {
		t.Fatalf("unexpected ServerURL: %q", cfg.ServerURL)
	}
}

func TestLoadMissingFilesFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/global.conf", "/nonexistent/local.conf")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InventoryPollIntervalSeconds != 5 {
		t.Fatalf("expected default to survive missing files, got %+v", cfg)
	}
}

func TestLoadRejectsNegativeInterval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "global.conf")
	os.WriteFile(path, []byte("RetryPollIntervalSeconds: -1\n"), 0644)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.RetryPollIntervalSeconds != 5 {
		t.Fatalf("negative interval should be rejected in favor of the default, got %d", cfg.RetryPollIntervalSeconds)
	}
}
