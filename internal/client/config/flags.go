package config

import (
	"flag"
	"io"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/flagx"
)

var knownFlags = []string{"-a", "-o", "-s", "-d", "-r", "-b", "-k", "-l", "-t", "-log-level", "-log-format", "-otlp"}

// parseFlags populates Config fields from command-line flags.
//
//	-a string       API base URL
//	-o string       storage origin
//	-s string       storage driver: sqlite, redis or memory
//	-d string       storage DSN (SQLite file)
//	-r string       Redis address
//	-b string       change bus driver: local, redis or kafka
//	-k string       comma separated Kafka brokers
//	-l string       HTTP listen address (storefrontd)
//	-t duration     API request timeout
//	-log-level      debug, info, warn or error
//	-log-format     text or json
//	-otlp string    OTLP/HTTP trace endpoint
//
// Only the flags above are looked at; the rest of args is left for other
// loaders, using flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("storefront", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.Origin, "o", cfg.Origin, "storage origin")
	fs.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "storage driver")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "storage DSN")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.BusDriver, "b", cfg.BusDriver, "change bus driver")
	brokers := fs.String("k", strings.Join(cfg.KafkaBrokers, ","), "Kafka brokers")
	fs.StringVar(&cfg.HTTPAddr, "l", cfg.HTTPAddr, "HTTP listen address")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "API request timeout")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format")
	fs.StringVar(&cfg.OTLPEndpoint, "otlp", cfg.OTLPEndpoint, "OTLP/HTTP endpoint")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		return err
	}

	cfg.KafkaBrokers = splitList(*brokers)
	return nil
}
