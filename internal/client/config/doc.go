// Package config loads runtime configuration for the ExpenseHub client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config or $EXPENSEHUB_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the ExpenseHub server
//	-d string   path of the local SQLite database
//	-i int      online status check interval (seconds)
//	-p int      pending count refresh interval (seconds)
//	-t int      request timeout (seconds)
//	-m int      failed pushes before a record is parked in sync_error (0 = never)
//	-l string   log level: debug, info, warn or error
//
// # JSON schema
//
// Intervals use timex.Duration, so they can be strings like "5s" or integer
// nanoseconds. Absent keys keep their defaults.
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "database_path": "expensehub.db",
//	  "online_check_interval": "5s",
//	  "pending_refresh_interval": "30s",
//	  "request_timeout": "30s",
//	  "max_attempts": 0,
//	  "log_level": "warn"
//	}
package config
