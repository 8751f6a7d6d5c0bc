package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "STOREFRONT_"

// loadDotEnv copies a .env file from the working directory into the process
// environment. Variables that are already set keep their value.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// parseEnv overlays cfg with STOREFRONT_* variables read through lookup.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok && v != "" {
			*dst = v
		}
	}

	str("API_URL", &cfg.APIBaseURL)
	str("ORIGIN", &cfg.Origin)
	str("STORAGE_DRIVER", &cfg.StorageDriver)
	str("STORAGE_DSN", &cfg.StorageDSN)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("BUS_DRIVER", &cfg.BusDriver)
	str("KAFKA_TOPIC", &cfg.KafkaTopic)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("OTLP_ENDPOINT", &cfg.OTLPEndpoint)

	if v, ok := lookup(envPrefix + "KAFKA_BROKERS"); ok && v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v, ok := lookup(envPrefix + "REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sREQUEST_TIMEOUT: %w", envPrefix, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
