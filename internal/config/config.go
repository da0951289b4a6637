package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPAddr       string
	MySQLDSN       string
	KafkaBroker    string // empty disables event publishing
	KafkaTopic     string
	JaegerEndpoint string // empty disables tracing
	CatalogTTL     time.Duration
	MigrationsPath string
}

// Load reads configuration from the environment, with a .env file as an
// optional source and sensible local-development defaults.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found")
	}

	return &Config{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		MySQLDSN:       getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/storefront?parseTime=true"),
		KafkaBroker:    os.Getenv("KAFKA_BROKER"),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "order-events"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		CatalogTTL:     getDurationMs("CATALOG_TTL_MS", 300_000),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://./migrations"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationMs(key string, fallbackMs int64) time.Duration {
	if v := os.Getenv(key); v != "" {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
		log.Warn().Str("key", key).Str("value", v).Msg("invalid duration, using default")
	}
	return time.Duration(fallbackMs) * time.Millisecond
}
