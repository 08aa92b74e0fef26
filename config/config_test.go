package config

import (
	"strings"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "file.db")
	t.Setenv("GAME_SERVICE_TOKEN", "secret")
	t.Setenv("ADMIN_USER_ID", "42")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %q", cfg.DatabaseDriver)
	}
	if cfg.ListenAddr != ":5200" {
		t.Fatalf("expected :5200, got %q", cfg.ListenAddr)
	}
	if cfg.RevealInterval != time.Hour {
		t.Fatalf("expected 1h reveal interval, got %s", cfg.RevealInterval)
	}
	if cfg.OriginalsPrefix != "img" || cfg.TeasersPrefix != "hidden_img" {
		t.Fatalf("unexpected prefixes %q %q", cfg.OriginalsPrefix, cfg.TeasersPrefix)
	}
}

func TestLoadTrimsOrigins(t *testing.T) {
	setRequired(t)
	t.Chdir(t.TempDir())
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.AllowedOriginsHeader(); got != "http://a.test,http://b.test" {
		t.Fatalf("unexpected origins header %q", got)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GAME_SERVICE_TOKEN", "")
	t.Setenv("ADMIN_USER_ID", "")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseDriver:      DriverSQLite,
		AssetBackend:        AssetBackendLocal,
		OriginalsPrefix:     "img",
		TeasersPrefix:       "hidden_img",
		RevealInterval:      time.Minute,
		ResendInterval:      time.Minute,
		CreditRetryInterval: time.Minute,
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base
		if err := cfg.Validate(); err != nil {
			t.Fatalf("expected valid config, got %v", err)
		}
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := base
		cfg.DatabaseDriver = "mysql"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})

	t.Run("r2 without credentials", func(t *testing.T) {
		cfg := base
		cfg.AssetBackend = AssetBackendR2
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for missing R2 settings")
		}
	})

	t.Run("same prefixes", func(t *testing.T) {
		cfg := base
		cfg.TeasersPrefix = "img"
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for identical prefixes")
		}
	})
}
