package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config holds runtime settings shared by the storefront CLI and the local
// HTTP API.
type Config struct {
	APIBaseURL     string
	Origin         string
	StorageDriver  string
	StorageDSN     string
	RedisAddr      string
	BusDriver      string
	KafkaBrokers   []string
	KafkaTopic     string
	HTTPAddr       string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
	OTLPEndpoint   string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.Origin = "default"
	c.StorageDriver = "sqlite"
	c.StorageDSN = "storefront.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.BusDriver = "local"
	c.KafkaBrokers = []string{"127.0.0.1:9092"}
	c.KafkaTopic = "storefront.changes"
	c.HTTPAddr = "127.0.0.1:8081"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate checks the fields the wiring depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, errors.New("api base url is empty"))
	}
	if c.Origin == "" {
		errs = append(errs, errors.New("origin is empty"))
	}
	if !slices.Contains([]string{"sqlite", "redis", "memory"}, c.StorageDriver) {
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.StorageDriver))
	}
	if !slices.Contains([]string{"local", "redis", "kafka"}, c.BusDriver) {
		errs = append(errs, fmt.Errorf("unknown bus driver %q", c.BusDriver))
	}
	if c.BusDriver == "kafka" && (len(c.KafkaBrokers) == 0 || c.KafkaTopic == "") {
		errs = append(errs, errors.New("kafka bus needs brokers and a topic"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Load builds a Config from defaults, then the environment, then the config
// file named by -c/-config, then command-line flags. Later sources win.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig is Load over os.Args that panics on error, for main packages.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:])
	if err != nil {
		panic(err)
	}
	return cfg
}
