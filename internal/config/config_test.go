package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"AIGA_ENV", "AIGA_ADDR", "AIGA_DB_PATH", "AIGA_API_URL", "AIGA_AUTH_URL", "AIGA_PUBLIC_URL",
	"AIGA_HTTP_TIMEOUT", "AIGA_STORE_KEY", "AIGA_CSRF_KEY", "AIGA_RESEND_KEY", "AIGA_RESEND_FROM",
	"AIGA_SLOW_REQUEST_MS", "AIGA_SLOW_QUERY_MS",
}

// clearEnv blanks every portal variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

var validKey = strings.Repeat("ab", 32)

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != DefaultAddr || cfg.DBPath != DefaultDBPath || cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Production() {
		t.Error("default env must not be production")
	}
	if cfg.SlowRequestMs != DefaultSlowRequestMs || cfg.SlowQueryMs != DefaultSlowQueryMs {
		t.Errorf("thresholds = %v/%v", cfg.SlowRequestMs, cfg.SlowQueryMs)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("AIGA_API_URL", "https://api.aiga.kz/")
	t.Setenv("AIGA_HTTP_TIMEOUT", "30")
	t.Setenv("AIGA_STORE_KEY", validKey)
	t.Setenv("AIGA_SLOW_REQUEST_MS", "1500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://api.aiga.kz" {
		t.Errorf("APIURL = %q, trailing slash should be trimmed", cfg.APIURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.SlowRequestMs != 1500 {
		t.Errorf("SlowRequestMs = %v", cfg.SlowRequestMs)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad timeout", map[string]string{"AIGA_HTTP_TIMEOUT": "soon"}, "AIGA_HTTP_TIMEOUT"},
		{"zero timeout", map[string]string{"AIGA_HTTP_TIMEOUT": "0s"}, "must be positive"},
		{"short store key", map[string]string{"AIGA_STORE_KEY": "abcd"}, "AIGA_STORE_KEY"},
		{"non-hex csrf key", map[string]string{"AIGA_CSRF_KEY": strings.Repeat("zz", 32)}, "AIGA_CSRF_KEY"},
		{"production without csrf", map[string]string{"AIGA_ENV": "production"}, "required in production"},
		{"relative api url", map[string]string{"AIGA_API_URL": "api.aiga.kz"}, "AIGA_API_URL"},
		{"bad slow ms", map[string]string{"AIGA_SLOW_QUERY_MS": "fast"}, "AIGA_SLOW_QUERY_MS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestCSRFKey(t *testing.T) {
	key, err := Config{CSRFKeyHex: validKey}.CSRFKey()
	if err != nil || len(key) != 32 || key[0] != 0xab {
		t.Errorf("configured key = %x, %v", key, err)
	}

	k1, err := Config{}.CSRFKey()
	if err != nil || len(k1) != 32 {
		t.Fatalf("generated key = %x, %v", k1, err)
	}
	k2, _ := Config{}.CSRFKey()
	if string(k1) == string(k2) {
		t.Error("generated keys should differ")
	}

	if _, err := (Config{Env: EnvProduction}).CSRFKey(); err == nil {
		t.Error("production without a key must fail")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("AIGA_ADDR=:9090\nAIGA_DB_PATH=from-file.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AIGA_DB_PATH", "from-env.db")
	t.Setenv("AIGA_ADDR", "")
	os.Unsetenv("AIGA_ADDR")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("AIGA_ADDR"); got != ":9090" {
		t.Errorf("AIGA_ADDR = %q, want value from file", got)
	}
	if got := os.Getenv("AIGA_DB_PATH"); got != "from-env.db" {
		t.Errorf("AIGA_DB_PATH = %q, environment should win", got)
	}
}
