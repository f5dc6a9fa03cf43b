package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != 38585 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.ListenAddr() != "127.0.0.1:38585" {
		t.Errorf("listen addr = %q", cfg.ListenAddr())
	}
	if cfg.Dedupe.HighThreshold != 0.85 {
		t.Errorf("high threshold = %v", cfg.Dedupe.HighThreshold)
	}
	if cfg.Layout.CacheSize != 128 {
		t.Errorf("cache size = %d", cfg.Layout.CacheSize)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/arbor.toml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != Default().Server.Port {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.toml")
	content := `
[server]
port = 9999

[dedupe]
high_threshold = 0.9

[layout]
cache_size = 16
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind = %q, want untouched default", cfg.Server.Bind)
	}
	if cfg.Dedupe.HighThreshold != 0.9 {
		t.Errorf("high threshold = %v, want 0.9", cfg.Dedupe.HighThreshold)
	}
	if cfg.Dedupe.MaxCandidates != 5 {
		t.Errorf("max candidates = %d, want untouched default", cfg.Dedupe.MaxCandidates)
	}
	if cfg.Layout.CacheSize != 16 {
		t.Errorf("cache size = %d, want 16", cfg.Layout.CacheSize)
	}
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arbor.toml")
	if err := os.WriteFile(path, []byte("[[[not toml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}
