package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/storefront/internal/flagx"
	"github.com/dmitrijs2005/storefront/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Durations use
// timex.Duration so they can be strings like "10s" or integer nanoseconds.
// Empty fields leave the current value alone.
type FileConfig struct {
	APIBaseURL     string         `json:"api_base_url" yaml:"api_base_url"`
	Origin         string         `json:"origin" yaml:"origin"`
	StorageDriver  string         `json:"storage_driver" yaml:"storage_driver"`
	StorageDSN     string         `json:"storage_dsn" yaml:"storage_dsn"`
	RedisAddr      string         `json:"redis_addr" yaml:"redis_addr"`
	BusDriver      string         `json:"bus_driver" yaml:"bus_driver"`
	KafkaBrokers   []string       `json:"kafka_brokers" yaml:"kafka_brokers"`
	KafkaTopic     string         `json:"kafka_topic" yaml:"kafka_topic"`
	HTTPAddr       string         `json:"http_addr" yaml:"http_addr"`
	RequestTimeout timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	LogFormat      string         `json:"log_format" yaml:"log_format"`
	OTLPEndpoint   string         `json:"otlp_endpoint" yaml:"otlp_endpoint"`
}

// parseFile overlays cfg with the file given by -c or -config. Files ending
// in .yaml or .yml are YAML; anything else is JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.APIBaseURL, fc.APIBaseURL)
	set(&cfg.Origin, fc.Origin)
	set(&cfg.StorageDriver, fc.StorageDriver)
	set(&cfg.StorageDSN, fc.StorageDSN)
	set(&cfg.RedisAddr, fc.RedisAddr)
	set(&cfg.BusDriver, fc.BusDriver)
	set(&cfg.KafkaTopic, fc.KafkaTopic)
	set(&cfg.HTTPAddr, fc.HTTPAddr)
	set(&cfg.LogLevel, fc.LogLevel)
	set(&cfg.LogFormat, fc.LogFormat)
	set(&cfg.OTLPEndpoint, fc.OTLPEndpoint)
	if len(fc.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = fc.KafkaBrokers
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeout.Duration)
	}
}
