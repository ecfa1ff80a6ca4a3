package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.Database.Driver != "postgres" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Delegation.OTPTTL != 30*time.Minute || cfg.Delegation.MaxOTPAttempts != 5 {
		t.Fatalf("unexpected delegation defaults: %+v", cfg.Delegation)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assembly.yaml")
	content := []byte(`
httpPort: "9090"
database:
  driver: sqlite
  dsn: "file::memory:"
delegation:
  otpTtl: 10m
  maxOtpAttempts: 3
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("ASSEMBLY_HTTP_PORT", "7070")
	t.Setenv("ASSEMBLY_DELEGATION_MAX_OTP_ATTEMPTS", "7")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "7070" {
		t.Fatalf("expected env to override port, got %q", cfg.HTTPPort)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file::memory:" {
		t.Fatalf("expected file database settings, got %+v", cfg.Database)
	}
	if cfg.Delegation.OTPTTL != 10*time.Minute {
		t.Fatalf("expected file otp ttl, got %s", cfg.Delegation.OTPTTL)
	}
	if cfg.Delegation.MaxOTPAttempts != 7 {
		t.Fatalf("expected env max attempts, got %d", cfg.Delegation.MaxOTPAttempts)
	}
}

func TestLoadRejectsBucketlessObjectStore(t *testing.T) {
	t.Setenv("ASSEMBLY_ARTIFACTS_BACKEND", "s3")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected validation error")
	}
}
