package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("TICKETS_CONCEAL_INACCESSIBLE", "")
	t.Setenv("APP_ENV", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.InMemory() {
		t.Fatal("empty DSN should select the in-memory store")
	}
	if cfg.Tickets.ConcealInaccessible {
		t.Fatal("conceal should default to false")
	}
	if cfg.Redis.AuditStream == "" || cfg.Redis.AuditStreamMaxLen <= 0 {
		t.Fatalf("audit stream defaults = %+v", cfg.Redis)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %s", cfg.App.Addr())
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "POSTGRES_DSN=postgres://localhost/desk\nTICKETS_CONCEAL_INACCESSIBLE=true\nAUDIT_STREAM_MAX_LEN=50\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"POSTGRES_DSN", "TICKETS_CONCEAL_INACCESSIBLE", "AUDIT_STREAM_MAX_LEN"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InMemory() || !cfg.Tickets.ConcealInaccessible || cfg.Redis.AuditStreamMaxLen != 50 {
		t.Fatalf("env file not applied: %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.env")); err == nil {
		t.Fatal("missing env file should fail")
	}
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("production must not run with the development secret")
	}
}
