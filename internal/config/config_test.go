package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want %q", s.Server.Addr, ":8080")
	}
	if s.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want %q", s.Database.Driver, "sqlite")
	}
	if s.Server.ShutdownTimeout != 15*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 15s", s.Server.ShutdownTimeout)
	}
	if s.Cache.Addr != "" {
		t.Errorf("Cache.Addr = %q, want empty", s.Cache.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 5s
database:
  driver: postgres
  dsn: postgres://panel@localhost/panel
cache:
  addr: localhost:6379
  db: 2
log:
  level: debug
  format: console
extensions:
  assets_dir: /srv/panel/extensions
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", s.Server.Addr)
	}
	if s.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 5s", s.Server.ShutdownTimeout)
	}
	if s.Database.Driver != "postgres" {
		t.Errorf("Database.Driver = %q", s.Database.Driver)
	}
	if s.Cache.DB != 2 {
		t.Errorf("Cache.DB = %d, want 2", s.Cache.DB)
	}
	if s.Log.Format != "console" {
		t.Errorf("Log.Format = %q", s.Log.Format)
	}
	if s.Extensions.AssetsDir != "/srv/panel/extensions" {
		t.Errorf("Extensions.AssetsDir = %q", s.Extensions.AssetsDir)
	}
	// Unset keys keep their defaults.
	if s.Server.ReadTimeout != 30*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 30s", s.Server.ReadTimeout)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PANEL_SERVER_ADDR", ":7000")
	t.Setenv("PANEL_DATABASE_DRIVER", "mysql")

	s, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want %q", s.Server.Addr, ":7000")
	}
	if s.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want %q", s.Database.Driver, "mysql")
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config, got nil")
	}
}

func TestSetThenGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if _, err := Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := Set("cache.addr", "redis:6379"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := Get("cache.addr"); got != "redis:6379" {
		t.Errorf("Get() = %q, want %q", got, "redis:6379")
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if s.Cache.Addr != "redis:6379" {
		t.Errorf("persisted Cache.Addr = %q, want %q", s.Cache.Addr, "redis:6379")
	}
}

func TestFilePath_EnvOverride(t *testing.T) {
	t.Setenv("PANEL_CONFIG", "/etc/panel/config.yaml")
	if got := FilePath(); got != "/etc/panel/config.yaml" {
		t.Errorf("FilePath() = %q", got)
	}
}
