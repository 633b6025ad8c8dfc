package config

import (
	"testing"
	"time"
)

func TestLoad_AppEnvValidation(t *testing.T) {
	t.Setenv("APP_ENV", "invalid")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid APP_ENV")
	}
}

func TestLoad_FeedRequiresTokenWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FOOTBALL_DATA_ENABLED", "true")
	t.Setenv("FOOTBALL_DATA_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when FOOTBALL_DATA_ENABLED=true without FOOTBALL_DATA_TOKEN")
	}
}

func TestLoad_UptraceRequiresDSNWhenEnabled(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("UPTRACE_ENABLED", "true")
	t.Setenv("UPTRACE_DSN", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error when UPTRACE_ENABLED=true without UPTRACE_DSN")
	}
}

func TestLoad_FeedConfigParsing(t *testing.T) {
	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("FOOTBALL_DATA_ENABLED", "true")
	t.Setenv("FOOTBALL_DATA_TOKEN", "token-123")
	t.Setenv("FOOTBALL_DATA_COMPETITION", "EC")
	t.Setenv("FOOTBALL_DATA_TIMEOUT", "4s")
	t.Setenv("FOOTBALL_DATA_MAX_RETRIES", "3")
	t.Setenv("SEASON", "2024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.FootballDataEnabled {
		t.Fatalf("expected FootballDataEnabled=true")
	}
	if cfg.FootballDataToken != "token-123" {
		t.Fatalf("unexpected FootballDataToken")
	}
	if cfg.FootballDataCompetition != "EC" {
		t.Fatalf("unexpected FootballDataCompetition: %q", cfg.FootballDataCompetition)
	}
	if cfg.FootballDataTimeout != 4*time.Second {
		t.Fatalf("unexpected FootballDataTimeout: %s", cfg.FootballDataTimeout)
	}
	if cfg.FootballDataMaxRetries != 3 {
		t.Fatalf("unexpected FootballDataMaxRetries: %d", cfg.FootballDataMaxRetries)
	}
	if cfg.Season != "2024" {
		t.Fatalf("unexpected Season: %q", cfg.Season)
	}
}

func TestLoad_DefaultsByEnv(t *testing.T) {
	t.Run("dev disables feed by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvDev)
		t.Setenv("FOOTBALL_DATA_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.FootballDataEnabled {
			t.Fatalf("expected FootballDataEnabled=false in dev by default")
		}
		if cfg.LogLevel != parseLogLevel("debug") {
			t.Fatalf("expected debug log level in dev by default")
		}
	})

	t.Run("prod disables pprof by default", func(t *testing.T) {
		t.Setenv("APP_ENV", EnvProd)
		t.Setenv("FOOTBALL_DATA_ENABLED", "false")
		t.Setenv("PPROF_ENABLED", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("load config: %v", err)
		}
		if cfg.PprofEnabled {
			t.Fatalf("expected PprofEnabled=false in prod by default")
		}
	})
}

func TestSplitCSV(t *testing.T) {
	t.Parallel()

	got := splitCSV(" https://a.example , ,https://b.example")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected splitCSV result: %#v", got)
	}
}
