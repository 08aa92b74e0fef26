package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	AssetBackendLocal = "local"
	AssetBackendR2    = "r2"
)

// Config is everything the process reads from the environment.
type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL,required,notEmpty"`

	GatewayToken string `env:"GAME_SERVICE_TOKEN,required,notEmpty"`
	// AdminUserID is the only identity allowed on /s/admin routes.
	AdminUserID    string   `env:"ADMIN_USER_ID,required,notEmpty"`
	ListenAddr     string   `env:"LISTEN_ADDR" envDefault:":5200"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	AssetBackend    string `env:"ASSET_BACKEND" envDefault:"local"`
	AssetDir        string `env:"ASSET_DIR" envDefault:"."`
	OriginalsPrefix string `env:"ORIGINALS_PREFIX" envDefault:"img"`
	TeasersPrefix   string `env:"TEASERS_PREFIX" envDefault:"hidden_img"`

	R2AccountID       string `env:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret string `env:"R2_ACCESS_KEY_SECRET"`
	R2Bucket          string `env:"R2_BUCKET_NAME"`

	RevealInterval      time.Duration `env:"REVEAL_INTERVAL" envDefault:"1h"`
	ResendInterval      time.Duration `env:"RESEND_INTERVAL" envDefault:"1m"`
	CreditRetryInterval time.Duration `env:"CREDIT_RETRY_INTERVAL" envDefault:"30s"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	for i, origin := range cfg.AllowedOrigins {
		cfg.AllowedOrigins[i] = strings.TrimSpace(origin)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	switch c.AssetBackend {
	case AssetBackendLocal:
	case AssetBackendR2:
		if c.R2AccountID == "" || c.R2AccessKeyID == "" || c.R2AccessKeySecret == "" || c.R2Bucket == "" {
			return fmt.Errorf("ASSET_BACKEND=r2 requires CLOUDFLARE_ACCOUNT_ID, R2_ACCESS_KEY_ID, R2_ACCESS_KEY_SECRET and R2_BUCKET_NAME")
		}
	default:
		return fmt.Errorf("unsupported ASSET_BACKEND %q", c.AssetBackend)
	}

	if c.OriginalsPrefix == c.TeasersPrefix {
		return fmt.Errorf("ORIGINALS_PREFIX and TEASERS_PREFIX must differ")
	}
	if c.RevealInterval <= 0 || c.ResendInterval <= 0 || c.CreditRetryInterval <= 0 {
		return fmt.Errorf("scheduler intervals must be positive")
	}
	return nil
}

// AllowedOriginsHeader joins the origins the way fiber's CORS middleware expects.
func (c *Config) AllowedOriginsHeader() string {
	return strings.Join(c.AllowedOrigins, ",")
}
