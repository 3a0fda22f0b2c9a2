package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration for the portal client and the
// development backend. Both binaries load the same struct; each reads only
// the fields relevant to it.
type Config struct {
	AppName string
	AppEnv  string

	// Portal client settings.
	APIBaseURL  string
	HTTPTimeout time.Duration
	SessionPath string

	// Development backend settings.
	ServerPort string
	SQLitePath string
	JWTSecret  string
	TokenTTL   time.Duration
}

// HTTPAddress returns the address the development backend should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.ServerPort, ":") {
		return c.ServerPort
	}

	return fmt.Sprintf(":%s", c.ServerPort)
}

// DefaultJWTSecret is the signing key used when EDUGEN_JWT_SECRET is unset.
// It exists so the development backend starts without ceremony; anything
// reachable from outside localhost must override it.
const DefaultJWTSecret = "edugen-dev-secret"

// Load reads configuration values from environment variables and an
// optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduGen AI")
	v.SetDefault("app.env", "development")
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", "0s")
	v.SetDefault("session.path", defaultSessionPath())
	v.SetDefault("server.port", "8000")
	v.SetDefault("sqlite.path", "edugen.db")
	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("token.ttl", "30m")

	timeout, err := time.ParseDuration(v.GetString("api.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid api timeout: %w", err)
	}

	if timeout < 0 {
		timeout = 0
	}

	ttl, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	cfg := Config{
		AppName:     v.GetString("app.name"),
		AppEnv:      v.GetString("app.env"),
		APIBaseURL:  strings.TrimRight(v.GetString("api.base_url"), "/"),
		HTTPTimeout: timeout,
		SessionPath: v.GetString("session.path"),
		ServerPort:  v.GetString("server.port"),
		SQLitePath:  v.GetString("sqlite.path"),
		JWTSecret:   v.GetString("jwt.secret"),
		TokenTTL:    ttl,
	}

	if cfg.APIBaseURL == "" {
		return Config{}, fmt.Errorf("api base url must be provided")
	}

	return cfg, nil
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	return filepath.Join(dir, "edugen", "session.json")
}
