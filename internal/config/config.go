// Package config reads portal settings from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultAddr          = ":8080"
	DefaultDBPath        = "aiga.db"
	DefaultAPIURL        = "http://localhost:8001"
	DefaultPublicURL     = "http://localhost:8080"
	DefaultHTTPTimeout   = 15 * time.Second
	DefaultResendFrom    = "AIGA Academy <noreply@aiga.kz>"
	DefaultSlowRequestMs = 800
	DefaultSlowQueryMs   = 25
)

// EnvProduction is the AIGA_ENV value that enables production checks.
const EnvProduction = "production"

// ErrInvalid wraps every configuration problem reported by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every portal setting.
type Config struct {
	Env         string
	Addr        string
	DBPath      string
	APIURL      string // academy backend base URL
	AuthURL     string // identity provider; empty means ask the academy
	PublicURL   string // where browsers reach the portal
	HTTPTimeout time.Duration

	StoreKeyHex string // optional; seals the stored token at rest
	CSRFKeyHex  string // required in production

	ResendKey  string
	ResendFrom string

	SlowRequestMs float64
	SlowQueryMs   float64
}

// LoadDotEnv loads variables from path when the file exists. Variables
// already set in the environment win.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads the configuration from the environment and validates it.
// POST: Returns a Config with defaults applied, or an error wrapping ErrInvalid
func Load() (Config, error) {
	var problems []error

	cfg := Config{
		Env:         envOrDefault("AIGA_ENV", "development"),
		Addr:        envOrDefault("AIGA_ADDR", DefaultAddr),
		DBPath:      envOrDefault("AIGA_DB_PATH", DefaultDBPath),
		APIURL:      strings.TrimRight(envOrDefault("AIGA_API_URL", DefaultAPIURL), "/"),
		AuthURL:     os.Getenv("AIGA_AUTH_URL"),
		PublicURL:   strings.TrimRight(envOrDefault("AIGA_PUBLIC_URL", DefaultPublicURL), "/"),
		StoreKeyHex: os.Getenv("AIGA_STORE_KEY"),
		CSRFKeyHex:  os.Getenv("AIGA_CSRF_KEY"),
		ResendKey:   os.Getenv("AIGA_RESEND_KEY"),
		ResendFrom:  envOrDefault("AIGA_RESEND_FROM", DefaultResendFrom),
	}

	timeout, err := parseDuration(envOrDefault("AIGA_HTTP_TIMEOUT", DefaultHTTPTimeout.String()))
	if err != nil {
		problems = append(problems, fmt.Errorf("AIGA_HTTP_TIMEOUT: %w", err))
	}
	cfg.HTTPTimeout = timeout

	if cfg.SlowRequestMs, err = parseMillis("AIGA_SLOW_REQUEST_MS", DefaultSlowRequestMs); err != nil {
		problems = append(problems, err)
	}
	if cfg.SlowQueryMs, err = parseMillis("AIGA_SLOW_QUERY_MS", DefaultSlowQueryMs); err != nil {
		problems = append(problems, err)
	}

	if err := cfg.Validate(); err != nil {
		problems = append(problems, err)
	}
	if len(problems) > 0 {
		return cfg, fmt.Errorf("%w: %w", ErrInvalid, errors.Join(problems...))
	}
	return cfg, nil
}

// Validate reports every inconsistent setting at once.
func (c Config) Validate() error {
	var problems []error
	if c.HTTPTimeout <= 0 {
		problems = append(problems, errors.New("AIGA_HTTP_TIMEOUT must be positive"))
	}
	if c.SlowRequestMs <= 0 || c.SlowQueryMs <= 0 {
		problems = append(problems, errors.New("slow thresholds must be positive"))
	}
	for key, raw := range map[string]string{"AIGA_API_URL": c.APIURL, "AIGA_PUBLIC_URL": c.PublicURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Errorf("%s must be an absolute URL", key))
		}
	}
	if c.AuthURL != "" {
		if u, err := url.Parse(c.AuthURL); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, errors.New("AIGA_AUTH_URL must be an absolute URL"))
		}
	}
	if c.StoreKeyHex != "" && !isHexKey(c.StoreKeyHex) {
		problems = append(problems, errors.New("AIGA_STORE_KEY must be 64 hex characters (32 bytes)"))
	}
	if c.CSRFKeyHex != "" && !isHexKey(c.CSRFKeyHex) {
		problems = append(problems, errors.New("AIGA_CSRF_KEY must be 64 hex characters (32 bytes)"))
	}
	if c.Production() && c.CSRFKeyHex == "" {
		problems = append(problems, errors.New("AIGA_CSRF_KEY is required in production"))
	}
	return errors.Join(problems...)
}

// Production reports whether production checks apply.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// CSRFKey returns the configured CSRF secret. Outside production a random
// key is generated when none is set, so forms do not survive a restart.
// PRE: Validate returned nil
func (c Config) CSRFKey() ([]byte, error) {
	if c.CSRFKeyHex != "" {
		return hex.DecodeString(c.CSRFKeyHex)
	}
	if c.Production() {
		return nil, errors.New("AIGA_CSRF_KEY is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate CSRF key: %w", err)
	}
	slog.Warn("csrf_key_generated", "reason", "AIGA_CSRF_KEY not set")
	return key, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseDuration accepts Go durations ("15s") and bare seconds ("15").
func parseDuration(raw string) (time.Duration, error) {
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(raw)
}

func parseMillis(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func isHexKey(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == 32
}
