// Package config loads runtime configuration for the shopkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file named by -c / -config or $SHOPKEEPER_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the shopkeeper API
//	-t int      request timeout (seconds)
//	-d string   path of the local SQLite database
//	-k string   path of the local secret used to seal the stored credential
//	-l string   log level: debug, info, warn, error
//	-n int      products per page
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "10s" or integer
// nanoseconds. Keys that are absent keep their previous value:
//
//	{
//	  "server_url": "http://localhost:8000",
//	  "request_timeout": "10s",
//	  "database_path": "shopkeeper.db",
//	  "key_file": "shopkeeper.key",
//	  "log_level": "info",
//	  "page_size": 10
//	}
package config
