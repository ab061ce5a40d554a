package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/flagx"
)

var clientFlags = []string{"-a", "-d", "-i", "-p", "-t", "-m", "-l"}

// parseFlags populates Config fields from command-line flags. Only the flags
// listed in clientFlags are considered, so -c/-config and anything unknown
// pass through untouched.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], clientFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the local database")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	pendingRefreshInterval := fs.Int("p", int(cfg.PendingRefreshInterval.Seconds()), "pending count refresh interval (in seconds)")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.IntVar(&cfg.MaxAttempts, "m", cfg.MaxAttempts, "failed pushes before a record is marked sync_error (0 = unbounded)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.PendingRefreshInterval = time.Duration(*pendingRefreshInterval) * time.Second
	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
