package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":18080")
	t.Setenv("GRPC_ADDR", ":19090")
	t.Setenv("DATABASE_URL", "sqlite::memory:")
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("SESSION_ISSUER", "test-issuer")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SESSION_COOKIE_SECURE", "true")
	t.Setenv("VERIFICATION_TTL_SECONDS", "3600")
	t.Setenv("PUBLIC_BASE_URL", "https://archive.example.edu/")
	t.Setenv("BCRYPT_COST", "12")

	cfg := Load()
	if cfg.HTTPAddr != ":18080" {
		t.Fatalf("expected HTTP_ADDR override, got %s", cfg.HTTPAddr)
	}
	if cfg.GRPCAddr != ":19090" {
		t.Fatalf("expected GRPC_ADDR override, got %s", cfg.GRPCAddr)
	}
	if cfg.DatabaseURL != "sqlite::memory:" {
		t.Fatalf("expected DATABASE_URL override, got %s", cfg.DatabaseURL)
	}
	if cfg.SessionSecret != "test-secret" {
		t.Fatalf("expected SESSION_SECRET override, got %s", cfg.SessionSecret)
	}
	if cfg.SessionIssuer != "test-issuer" {
		t.Fatalf("expected SESSION_ISSUER override, got %s", cfg.SessionIssuer)
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("expected SESSION_TTL 2h, got %s", cfg.SessionTTL)
	}
	if !cfg.CookieSecure {
		t.Fatalf("expected SESSION_COOKIE_SECURE true")
	}
	if cfg.VerificationTTL != time.Hour {
		t.Fatalf("expected VERIFICATION_TTL 1h, got %s", cfg.VerificationTTL)
	}
	if cfg.PublicBaseURL != "https://archive.example.edu" {
		t.Fatalf("expected trailing slash trimmed, got %s", cfg.PublicBaseURL)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("expected BCRYPT_COST 12, got %d", cfg.BcryptCost)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("SESSION_TTL", "not-a-duration")

	cfg := Load()
	if cfg.SessionSecret != "" {
		t.Fatalf("expected no default secret, got %q", cfg.SessionSecret)
	}
	if cfg.SessionTTL != 30*24*time.Hour {
		t.Fatalf("expected 30 day default, got %s", cfg.SessionTTL)
	}
	if cfg.CookieName != "thesis_session" {
		t.Fatalf("expected default cookie name, got %s", cfg.CookieName)
	}
}

func TestSessionSecretFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatalf("write error: %v", err)
	}
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("SESSION_SECRET_FILE", path)

	if got := Load().SessionSecret; got != "from-file" {
		t.Fatalf("expected file secret, got %q", got)
	}
}
