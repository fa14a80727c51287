// Package config loads the service settings from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL    string
	DatabaseDriver string
	Port           string
	JWTSecret      string
	TokenTTL       time.Duration
	SessionTTL     time.Duration
	AllowedOrigins []string
	FirebaseBase64 string
	FirebaseFile   string
	SeedDemoUsers  bool
}

var ErrMissingSetting = errors.New("missing required setting")

// Load reads .env (if present) and then the process environment
func Load() (*Config, error) {
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}
	return FromViper(viper.New())
}

// FromViper resolves settings from v after applying defaults and env binding
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("PORT", "8080")
	v.SetDefault("TOKEN_TTL", "168h")
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "./firebase-service-account.json")
	v.SetDefault("SEED_DEMO_USERS", true)

	cfg := &Config{
		DatabaseURL:    v.GetString("DATABASE_URL"),
		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		Port:           v.GetString("PORT"),
		JWTSecret:      v.GetString("APP_JWT_SECRET"),
		TokenTTL:       v.GetDuration("TOKEN_TTL"),
		SessionTTL:     v.GetDuration("SESSION_TTL"),
		AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		FirebaseBase64: v.GetString("FIREBASE_CREDENTIALS_BASE64"),
		FirebaseFile:   v.GetString("FIREBASE_CREDENTIALS_FILE"),
		SeedDemoUsers:  v.GetBool("SEED_DEMO_USERS"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL", ErrMissingSetting)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: APP_JWT_SECRET", ErrMissingSetting)
	}
	switch cfg.DatabaseDriver {
	case "postgres", "pgx", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q (want postgres, pgx or sqlite3)", cfg.DatabaseDriver)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
