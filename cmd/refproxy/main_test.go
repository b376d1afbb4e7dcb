package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"paxos"}, "paxos"},
		{"multiple words", []string{"distributed", "consensus"}, "distributed consensus"},
		{"single quoted phrase", []string{"distributed consensus"}, "distributed consensus"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigDefaultsWhenAbsent(t *testing.T) {
	// Run from an empty directory so no development config.yaml is found.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, loadedPath, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("expected built-in defaults, got error: %v", err)
	}
	if loadedPath != "" {
		t.Errorf("expected empty loaded path for defaults, got %q", loadedPath)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Scan.PageSize != 100 {
		t.Errorf("expected default page size 100, got %d", cfg.Scan.PageSize)
	}
}

func TestLoadConfigDevFallback(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(cwd) })
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("debug: true\nserver:\n  port: 9999\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, loadedPath, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loading dev config: %v", err)
	}
	if loadedPath != filepath.Join(dir, "config.yaml") {
		t.Errorf("expected dev config path, got %q", loadedPath)
	}
	if !cfg.Debug || cfg.Server.Port != 9999 {
		t.Errorf("dev config not applied: debug=%v port=%d", cfg.Debug, cfg.Server.Port)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("cache:\n  ttl_seconds: 60\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, loadedPath, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loading explicit config: %v", err)
	}
	if loadedPath != path {
		t.Errorf("expected %q, got %q", path, loadedPath)
	}
	if cfg.Cache.TTLSeconds != 60 {
		t.Errorf("expected ttl 60, got %d", cfg.Cache.TTLSeconds)
	}
}
