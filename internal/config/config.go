package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds API keys, endpoints and file paths, read from the
// environment with an optional .env file on top.
type Config struct {
	AppKey      string
	SecretKey   string
	CallbackURL string
	AuthURL     string
	TokenURL    string
	TokenFile   string

	ListenAddr  string
	CertFile    string
	KeyFile     string
	CodeTimeout time.Duration
}

const (
	defaultAuthURL     = "https://api.schwabapi.com/v1/oauth/authorize"
	defaultTokenURL    = "https://api.schwabapi.com/v1/oauth/token"
	defaultCallbackURL = "https://127.0.0.1:8182"
	defaultTokenFile   = "tokens.json"
	defaultListenAddr  = ":8182"
)

// Load reads configuration. A named env file must exist; the default .env
// is optional.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, err
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return Config{}, err
		}
	}

	cfg := Config{
		AppKey:      os.Getenv("SCHWAB_APP_KEY"),
		SecretKey:   os.Getenv("SCHWAB_SECRET_KEY"),
		CallbackURL: getenv("SCHWAB_CALLBACK_URL", defaultCallbackURL),
		AuthURL:     getenv("SCHWAB_AUTH_URL", defaultAuthURL),
		TokenURL:    getenv("SCHWAB_TOKEN_URL", defaultTokenURL),
		TokenFile:   getenv("SCHWAB_TOKEN_FILE", defaultTokenFile),
		ListenAddr:  getenv("SCHWAB_CALLBACK_LISTEN", defaultListenAddr),
		CertFile:    os.Getenv("SCHWAB_CALLBACK_CERT"),
		KeyFile:     os.Getenv("SCHWAB_CALLBACK_KEY"),
	}
	if timeout := os.Getenv("SCHWAB_CODE_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf("config: SCHWAB_CODE_TIMEOUT: %w", err)
		}
		cfg.CodeTimeout = d
	}
	if cfg.AppKey == "" || cfg.SecretKey == "" {
		return Config{}, fmt.Errorf("config: SCHWAB_APP_KEY and SCHWAB_SECRET_KEY are required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
