// Package config loads runtime configuration for the storefront binaries.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables prefixed STOREFRONT_, after an optional .env
//     file in the working directory has been loaded.
//  3. Optional config file selected via -c or -config: YAML when the name
//     ends in .yaml/.yml, JSON otherwise.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// # File schema
//
// Durations use timex.Duration, so values can be either strings like "10s"
// or integer nanoseconds:
//
//	{
//	  "api_base_url": "https://shop.example.com/api",
//	  "origin": "shop.example.com",
//	  "storage_driver": "sqlite",
//	  "storage_dsn": "/var/lib/storefront/state.db",
//	  "bus_driver": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "request_timeout": "5s"
//	}
package config
