package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
	if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com/v1beta" || cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Fatalf("gemini = %+v", cfg.Gemini)
	}
	r := cfg.Gemini.Retry
	if r.MaxRetries != 3 || r.InitialBackoff != 2*time.Second || r.Multiplier != 2 {
		t.Fatalf("retry = %+v", r)
	}
	if cfg.Auth.CookieName != "diet_session" || cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("auth = %+v", cfg.Auth)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DIET_GEMINI_API_KEY", " k-123 ")
	t.Setenv("DIET_GEMINI_RETRY_MAX_RETRIES", "5")
	t.Setenv("DIET_GEMINI_RETRY_INITIAL_BACKOFF", "500ms")
	t.Setenv("DIET_SERVER_ADDR", ":9090")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gemini.APIKey != "k-123" {
		t.Fatalf("api key = %q", cfg.Gemini.APIKey)
	}
	if cfg.Gemini.Retry.MaxRetries != 5 || cfg.Gemini.Retry.InitialBackoff != 500*time.Millisecond {
		t.Fatalf("retry = %+v", cfg.Gemini.Retry)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("addr = %q", cfg.Server.Addr)
	}
}

func TestReadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diet.yaml")
	content := "db:\n  dsn: other.sqlite\ngemini:\n  api:\n    model: gemini-pro\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	v := New()
	if err := ReadFile(v, path); err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DB.DSN != "other.sqlite" || cfg.Gemini.Model != "gemini-pro" {
		t.Fatalf("cfg = %+v / %+v", cfg.DB, cfg.Gemini)
	}
}

func TestLoadRejectsBadRetry(t *testing.T) {
	t.Setenv("DIET_GEMINI_RETRY_MULTIPLIER", "0.5")
	if _, err := Load(New()); err == nil {
		t.Fatalf("expected error for multiplier < 1")
	}
}

func TestRequireServe(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = cfg.RequireServe()
	if err == nil {
		t.Fatalf("expected missing settings error")
	}
	for _, key := range []string{"gemini.api.key", "auth.jwt_secret", "db.encryption_key"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("error %q does not name %s", err, key)
		}
	}

	cfg.Gemini.APIKey, cfg.Auth.JWTSecret, cfg.DB.EncryptionKey = "k", "s", "e"
	if err := cfg.RequireServe(); err != nil {
		t.Fatalf("RequireServe: %v", err)
	}
}
