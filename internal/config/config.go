package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/openkick/predictor/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                    string
	ServiceName               string
	ServiceVersion            string
	HTTPAddr                  string
	DBURL                     string
	ReadTimeout               time.Duration
	WriteTimeout              time.Duration
	CORSAllowedOrigins        []string
	Season                    string
	MatchCacheTTL             time.Duration
	LeaderboardCacheTTL       time.Duration
	FootballDataEnabled       bool
	FootballDataBaseURL       string
	FootballDataCompetition   string
	FootballDataToken         string
	FootballDataTimeout       time.Duration
	FootballDataMaxRetries    int
	FeedCircuitEnabled        bool
	FeedCircuitFailureCount   int
	FeedCircuitOpenTimeout    time.Duration
	FeedCircuitHalfOpenMaxReq int
	InternalJobToken          string
	UptraceEnabled            bool
	UptraceDSN                string
	PyroscopeEnabled          bool
	PyroscopeServerAddress    string
	PyroscopeAppName          string
	PyroscopeAuthToken        string
	PprofEnabled              bool
	PprofAddr                 string
	LogLevel                  logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	feedDefault := "true"
	if appEnv == EnvDev {
		feedDefault = "false"
	}
	feedEnabled, err := strconv.ParseBool(getEnv("FOOTBALL_DATA_ENABLED", feedDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_ENABLED: %w", err)
	}

	feedToken := strings.TrimSpace(getEnv("FOOTBALL_DATA_TOKEN", ""))
	if feedEnabled && feedToken == "" {
		return Config{}, fmt.Errorf("FOOTBALL_DATA_TOKEN is required when FOOTBALL_DATA_ENABLED=true")
	}

	feedTimeout, err := time.ParseDuration(getEnv("FOOTBALL_DATA_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_TIMEOUT: %w", err)
	}

	feedMaxRetries, err := getEnvAsInt("FOOTBALL_DATA_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_DATA_MAX_RETRIES: %w", err)
	}

	feedCircuitEnabled, err := strconv.ParseBool(getEnv("FEED_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_ENABLED: %w", err)
	}

	feedCircuitFailureCount, err := getEnvAsInt("FEED_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_FAILURE_COUNT: %w", err)
	}

	feedCircuitOpenTimeout, err := time.ParseDuration(getEnv("FEED_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}

	feedCircuitHalfOpenMaxReq, err := getEnvAsInt("FEED_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	matchCacheTTL, err := time.ParseDuration(getEnv("MATCH_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse MATCH_CACHE_TTL: %w", err)
	}

	leaderboardCacheTTL, err := time.ParseDuration(getEnv("LEADERBOARD_CACHE_TTL", "60s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse LEADERBOARD_CACHE_TTL: %w", err)
	}

	readTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}

	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}

	pprofDefault := "true"
	if appEnv == EnvProd {
		pprofDefault = "false"
	}
	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", pprofDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}

	logLevelDefault := "info"
	if appEnv == EnvDev {
		logLevelDefault = "debug"
	}

	serviceName := getEnv("SERVICE_NAME", "predictor")

	return Config{
		AppEnv:                    appEnv,
		ServiceName:               serviceName,
		ServiceVersion:            getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:                  getEnv("HTTP_ADDR", ":8080"),
		DBURL:                     strings.TrimSpace(getEnv("DATABASE_URL", "")),
		ReadTimeout:               readTimeout,
		WriteTimeout:              writeTimeout,
		CORSAllowedOrigins:        splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Season:                    getEnv("SEASON", "2026"),
		MatchCacheTTL:             matchCacheTTL,
		LeaderboardCacheTTL:       leaderboardCacheTTL,
		FootballDataEnabled:       feedEnabled,
		FootballDataBaseURL:       getEnv("FOOTBALL_DATA_BASE_URL", "https://api.football-data.org/v4"),
		FootballDataCompetition:   getEnv("FOOTBALL_DATA_COMPETITION", "WC"),
		FootballDataToken:         feedToken,
		FootballDataTimeout:       feedTimeout,
		FootballDataMaxRetries:    feedMaxRetries,
		FeedCircuitEnabled:        feedCircuitEnabled,
		FeedCircuitFailureCount:   feedCircuitFailureCount,
		FeedCircuitOpenTimeout:    feedCircuitOpenTimeout,
		FeedCircuitHalfOpenMaxReq: feedCircuitHalfOpenMaxReq,
		InternalJobToken:          strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
		UptraceEnabled:            uptraceEnabled,
		UptraceDSN:                uptraceDSN,
		PyroscopeEnabled:          pyroscopeEnabled,
		PyroscopeServerAddress:    pyroscopeServerAddress,
		PyroscopeAppName:          getEnv("PYROSCOPE_APP_NAME", serviceName),
		PyroscopeAuthToken:        getEnv("PYROSCOPE_AUTH_TOKEN", ""),
		PprofEnabled:              pprofEnabled,
		PprofAddr:                 getEnv("PPROF_ADDR", ":6060"),
		LogLevel:                  parseLogLevel(getEnv("LOG_LEVEL", logLevelDefault)),
	}, nil
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
