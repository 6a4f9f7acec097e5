package config

import (
	"strings"
	"testing"
)

const testHexKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://idsync:pw@localhost:5432/idsync")
	t.Setenv("ENCRYPTION_KEY", testHexKey)
}

func TestLoadDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "3080" {
		t.Errorf("got port %q, want 3080", cfg.Port)
	}
	if cfg.Addr() != "127.0.0.1:3080" {
		t.Errorf("got addr %q", cfg.Addr())
	}
	if cfg.ProvisioningPageSize != 100 {
		t.Errorf("got page size %d, want 100", cfg.ProvisioningPageSize)
	}
	if cfg.RetryMaxDelay < cfg.RetryBaseDelay {
		t.Error("max delay below base delay")
	}
}

func TestLoadRejectsMissingDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENCRYPTION_KEY", testHexKey)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing DATABASE_URL")
	}
}

func TestLoadRejectsRemoteSSLDisable(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db.example.com:5432/idsync?sslmode=disable")
	t.Setenv("ENCRYPTION_KEY", testHexKey)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "sslmode") {
		t.Fatalf("expected sslmode error, got %v", err)
	}
}

func TestLoadRejectsBadEncryptionKey(t *testing.T) {
	setValidEnv(t)
	t.Setenv("ENCRYPTION_KEY", "deadbeef")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for short key")
	}
}

func TestLoadRejectsWildcardCORS(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CORS_ORIGINS", "*")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard origin")
	}
}

func TestLoadRejectsBadRetryTuning(t *testing.T) {
	setValidEnv(t)
	t.Setenv("RETRY_BASE_DELAY", "1h")
	t.Setenv("RETRY_MAX_DELAY", "1m")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for max < base")
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")

	if s.String() != "[REDACTED]" {
		t.Errorf("String() leaked secret: %q", s.String())
	}
	if s.Value() != "hunter2" {
		t.Errorf("Value() = %q", s.Value())
	}

	b, err := s.MarshalText()
	if err != nil || string(b) != "[REDACTED]" {
		t.Errorf("MarshalText() = %q, %v", b, err)
	}
}
