package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process configuration from environment variables so main
// stays lean. The store backend is picked by whichever URL is set: postgres
// wins over redis, and with neither the in-memory store is used.
type Config struct {
	Addr            string
	PostgresURL     string
	RedisURL        string
	KafkaBrokers    []string
	KafkaTopic      string
	RefreshInterval time.Duration
	ChangesBuffer   int
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("EARSHOT_ADDR", ":8080"),
		PostgresURL:     os.Getenv("EARSHOT_POSTGRES_URL"),
		RedisURL:        os.Getenv("EARSHOT_REDIS_URL"),
		KafkaTopic:      getenv("EARSHOT_KAFKA_TOPIC", "earshot.records"),
		RefreshInterval: 30 * time.Minute,
		ChangesBuffer:   256,
	}
	if brokers := os.Getenv("EARSHOT_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("EARSHOT_REFRESH_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d > 0 {
			cfg.RefreshInterval = d
		}
	}
	if raw := os.Getenv("EARSHOT_CHANGES_BUFFER"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.ChangesBuffer = n
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
