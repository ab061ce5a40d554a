package services

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/client/clienttest"
	"github.com/dmitrijs2005/expensehub/internal/client/syncer"
	"github.com/dmitrijs2005/expensehub/internal/logging"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

type fakeMonitor struct {
	mu       sync.Mutex
	online   bool
	reported int
}

func (m *fakeMonitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *fakeMonitor) ReportUnavailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = false
	m.reported++
}

func (m *fakeMonitor) Subscribe() (<-chan bool, func()) {
	return make(chan bool), func() {}
}

func (m *fakeMonitor) setOnline(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online = v
}

type env struct {
	repos    *client.Repositories
	fake     *clienttest.Fake
	mon      *fakeMonitor
	sync     *syncer.Orchestrator
	receipts ReceiptService
	times    TimeEntryService
	auth     AuthService
}

func setup(t *testing.T, online bool) *env {
	t.Helper()
	ctx := context.Background()

	repos, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	fake := clienttest.New(owner)
	mon := &fakeMonitor{online: online}
	o := syncer.New(fake, syncer.Stores{
		Receipts:    repos.Receipts,
		TimeEntries: repos.TimeEntries,
		Queue:       repos.Queue,
		Metadata:    repos.Metadata,
	}, mon, logging.Nop(), syncer.Options{})
	o.SetOwner(owner)

	return &env{
		repos:    repos,
		fake:     fake,
		mon:      mon,
		sync:     o,
		receipts: NewReceiptService(fake, repos.Receipts, repos.Queue, o, mon, logging.Nop()),
		times:    NewTimeEntryService(fake, repos.TimeEntries, repos.Queue, o, mon, logging.Nop()),
		auth:     NewAuthService(fake, repos.DB, o, mon),
	}
}

func (e *env) queueLen(t *testing.T) int {
	t.Helper()
	n, err := e.repos.Queue.Count(context.Background())
	require.NoError(t, err)
	return n
}

func ptr[T any](v T) *T { return &v }
