package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/expensehub/internal/flagx"
	"github.com/dmitrijs2005/expensehub/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// (and a nil MaxAttempts) mark keys absent from the file.
type JsonConfig struct {
	ServerURL              string         `json:"server_url"`
	DatabasePath           string         `json:"database_path"`
	OnlineCheckInterval    timex.Duration `json:"online_check_interval"`
	PendingRefreshInterval timex.Duration `json:"pending_refresh_interval"`
	RequestTimeout         timex.Duration `json:"request_timeout"`
	MaxAttempts            *int           `json:"max_attempts"`
	LogLevel               string         `json:"log_level"`
}

// parseJson overlays Config with the values present in the JSON file named
// by -c/-config or $EXPENSEHUB_CONFIG. It panics on read or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFile()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.PendingRefreshInterval.Duration > 0 {
		cfg.PendingRefreshInterval = jc.PendingRefreshInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.MaxAttempts != nil {
		cfg.MaxAttempts = *jc.MaxAttempts
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
