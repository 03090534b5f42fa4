package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_Layering(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	project := t.TempDir()
	nested := filepath.Join(project, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	writeFile(t, filepath.Join(home, UserConfigDir, UserConfigFile), "server:\n  addr: \":1111\"\nlabels:\n  language: en\n")
	writeFile(t, filepath.Join(project, ProjectConfigFile), "server:\n  addr: \":2222\"\n")
	explicit := filepath.Join(t.TempDir(), "explicit.yaml")
	writeFile(t, explicit, "view:\n  max_nodes: 10\n")

	cfg, err := NewLoader(nil).Load(explicit)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":2222" {
		t.Errorf("project config should override user config, got %s", cfg.Server.Addr)
	}
	if cfg.Labels.Language != "en" {
		t.Errorf("user config should apply, got %s", cfg.Labels.Language)
	}
	if cfg.View.MaxNodes != 10 {
		t.Errorf("explicit config should apply, got %d", cfg.View.MaxNodes)
	}
}

func TestLoader_Errors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if _, err := NewLoader(nil).Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing explicit config should fail")
	}

	invalid := filepath.Join(t.TempDir(), "invalid.yaml")
	writeFile(t, invalid, "cache:\n  size: 0\n")
	if _, err := NewLoader(nil).Load(invalid); err == nil {
		t.Error("invalid config should fail validation")
	}

	cfg, err := NewLoader(nil).Load("")
	if err != nil {
		t.Fatalf("defaults should load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("expected default addr, got %s", cfg.Server.Addr)
	}
}

func TestLoader_EnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path, err := NewLoader(nil).EnsureUserConfig()
	if err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	if want := filepath.Join(home, UserConfigDir, UserConfigFile); path != want {
		t.Errorf("path = %s, want %s", path, want)
	}
	if _, err := LoadFromFile(path); err != nil {
		t.Errorf("created config should load: %v", err)
	}
}

func TestLoader_Environment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	env := map[string]string{
		EnvAddr:         ":9999",
		EnvLanguage:     "en",
		EnvMaxNodes:     "50",
		EnvAllowPrivate: "true",
	}
	l := NewLoader(nil)
	l.getenv = func(key string) string { return env[key] }

	cfg, err := l.Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":9999" || cfg.Labels.Language != "en" || cfg.View.MaxNodes != 50 {
		t.Errorf("environment not applied: %+v", cfg)
	}
	if !cfg.Source.AllowPrivate {
		t.Error("SEMVIEW_ALLOW_PRIVATE should enable private sources")
	}
	if cfg.Cache.Size != 16 {
		t.Errorf("unset variables must keep defaults, cache size = %d", cfg.Cache.Size)
	}

	env[EnvMaxNodes] = "many"
	if _, err := l.Load(""); err == nil {
		t.Error("non-numeric SEMVIEW_MAX_NODES should fail")
	}
}
