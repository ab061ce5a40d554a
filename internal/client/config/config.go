package config

import "time"

// Config holds runtime settings for the ExpenseHub client.
//
// Intervals and timeouts are time.Duration values; flags express them in
// seconds.
type Config struct {
	ServerURL              string
	DatabasePath           string
	OnlineCheckInterval    time.Duration
	PendingRefreshInterval time.Duration
	RequestTimeout         time.Duration
	// MaxAttempts moves a record to sync_error after that many failed
	// pushes. Zero retries forever.
	MaxAttempts int
	LogLevel    string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.DatabasePath = "expensehub.db"
	c.OnlineCheckInterval = 5 * time.Second
	c.PendingRefreshInterval = 30 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.MaxAttempts = 0
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
