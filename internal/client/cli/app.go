package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/config"
	"github.com/dmitrijs2005/expensehub/internal/client/connectivity"
	"github.com/dmitrijs2005/expensehub/internal/client/services"
	"github.com/dmitrijs2005/expensehub/internal/client/syncer"
	"github.com/dmitrijs2005/expensehub/internal/logging"
)

const linkPollInterval = time.Second

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// monitor is the part of connectivity.Monitor the App drives.
type monitor interface {
	IsOnline() bool
	CheckConnectivity(ctx context.Context) bool
	Watch(ctx context.Context, interval time.Duration)
	WatchLink(ctx context.Context, interval time.Duration, linkUp func() bool)
}

type App struct {
	config   *config.Config
	repos    *client.Repositories
	monitor  monitor
	syncer   *syncer.Orchestrator
	auth     services.AuthService
	receipts services.ReceiptService
	times    services.TimeEntryService
	log      logging.Logger

	owner  string
	reader *bufio.Reader
	out    io.Writer
	now    func() time.Time
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()
	log := logging.New(os.Stderr, c.LogLevel, false)

	repos, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	mon := connectivity.NewMonitor(apiClient, log)
	orch := syncer.New(apiClient, syncer.Stores{
		Receipts:    repos.Receipts,
		TimeEntries: repos.TimeEntries,
		Queue:       repos.Queue,
		Metadata:    repos.Metadata,
	}, mon, log, syncer.Options{
		MaxAttempts:            c.MaxAttempts,
		PendingRefreshInterval: c.PendingRefreshInterval,
	})

	return &App{
		config:   c,
		repos:    repos,
		monitor:  mon,
		syncer:   orch,
		auth:     services.NewAuthService(apiClient, repos.DB, orch, mon),
		receipts: services.NewReceiptService(apiClient, repos.Receipts, repos.Queue, orch, mon, log),
		times:    services.NewTimeEntryService(apiClient, repos.TimeEntries, repos.Queue, orch, mon, log),
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		now:      time.Now,
	}, nil
}

func (a *App) mode() Mode {
	if a.monitor.IsOnline() {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) isLoggedIn() bool {
	return a.owner != ""
}

// Run restores the previous session, starts the background workers and
// blocks in the REPL until the user exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.close(ctx)

	if err := a.syncer.Restore(ctx); err != nil {
		a.log.Warn(ctx, "failed to restore sync state", "error", err)
	}
	session, err := a.auth.Restore(ctx)
	if err != nil {
		a.log.Warn(ctx, "failed to restore session", "error", err)
	}
	if session != nil {
		a.owner = session.OwnerID
	}

	a.syncer.Start(ctx)
	a.monitor.CheckConnectivity(ctx)
	go a.monitor.Watch(ctx, a.config.OnlineCheckInterval)
	go a.monitor.WatchLink(ctx, linkPollInterval, connectivity.InterfacesUp)

	fmt.Fprintln(a.out, "Welcome to ExpenseHub (type 'help' for commands)")
	if !a.isLoggedIn() {
		_ = a.Login(ctx, nil)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close(ctx context.Context) {
	if err := a.auth.Close(ctx); err != nil {
		a.log.Warn(ctx, "failed to close client", "error", err)
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			a.log.Warn(ctx, "failed to close database", "error", err)
		}
	}
}

// getStatus renders the prompt status: owner, connectivity, sync state and
// the number of records waiting for the server.
func (a *App) getStatus() string {
	st := a.syncer.Status()

	s := fmt.Sprintf("%s %s", a.mode(), st.State)
	if st.PendingCount > 0 {
		s += fmt.Sprintf(" %d pending", st.PendingCount)
	}
	if a.owner != "" {
		s = a.owner + " " + s
	}
	return "(" + s + ")"
}
