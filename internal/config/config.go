package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	DBURL   string
	BaseURL string

	RedisAddr     string
	RedisPassword string

	ClickHouseAddr     string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseDB       string

	GeoIPDBPath       string
	GeoIPHTTPFallback bool

	APIKeys            []string
	RateLimitPerMinute int

	TelegramToken string
}

var ErrMissing = errors.New("missing required environment variable")

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Error loading .env file", "error", err)
	}

	port := getEnv("PORT", "8080")
	fallback, err := strconv.ParseBool(getEnv("GEOIP_HTTP_FALLBACK", "true"))
	if err != nil {
		return nil, fmt.Errorf("GEOIP_HTTP_FALLBACK: %w", err)
	}
	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE: %w", err)
	}

	return &Config{
		Port:               port,
		DBURL:              getEnv("DB_URL", ""),
		BaseURL:            getEnv("BASE_URL", "http://localhost:"+port),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseUser:     getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickHouseDB:       getEnv("CLICKHOUSE_DB", "default"),
		GeoIPDBPath:        getEnv("GEOIP_DB_PATH", "GeoLite2-City.mmdb"),
		GeoIPHTTPFallback:  fallback,
		APIKeys:            splitList(getEnv("API_KEYS", "")),
		RateLimitPerMinute: rateLimit,
		TelegramToken:      getEnv("TELEGRAM_API_TOKEN", ""),
	}, nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.DBURL == "" {
		missing = append(missing, "DB_URL")
	}
	if c.Port == "" {
		missing = append(missing, "PORT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
	}
	if c.RateLimitPerMinute < 0 {
		return errors.New("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
