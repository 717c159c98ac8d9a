package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Listen != defaultListen || cfg.Dataset != defaultDataset {
		t.Errorf("Load() on missing file = %+v, want defaults", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config was not written: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != 0o600 {
		t.Errorf("config perms = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "dataset: sqlite:///srv/cities.db\nlog_level: loud\ncalendar:\n  name: Team clocks\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Dataset != "sqlite:///srv/cities.db" {
		t.Errorf("Dataset = %q", cfg.Dataset)
	}
	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, defaultLogLevel)
	}
	if cfg.Calendar.Name != "Team clocks" || cfg.Calendar.ProductID != defaultProductID {
		t.Errorf("Calendar = %+v", cfg.Calendar)
	}
	if cfg.ResultCacheSeconds != defaultResultCacheSeconds {
		t.Errorf("ResultCacheSeconds = %d, want %d", cfg.ResultCacheSeconds, defaultResultCacheSeconds)
	}
}

func TestLoadRejectsBadReloadSchedule(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("reload: every tuesday\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("Load() with invalid cron spec succeeded, want error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Reload = "0 3 * * *"
	cfg.BasicAuth = &BasicAuthConfig{Username: "ops", Password: "secret"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Reload != cfg.Reload || got.BasicAuth == nil || got.BasicAuth.Username != "ops" {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TZDIFF_DATASET", "https://example.com/cities.json")
	t.Setenv("TZDIFF_LISTEN", ":9090")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	if cfg.Dataset != "https://example.com/cities.json" || cfg.Listen != ":9090" {
		t.Errorf("ApplyEnv() = %+v", cfg)
	}
}
