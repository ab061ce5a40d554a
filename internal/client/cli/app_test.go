package cli

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensehub/internal/api"
	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/client/clienttest"
	"github.com/dmitrijs2005/expensehub/internal/client/config"
	"github.com/dmitrijs2005/expensehub/internal/client/models"
	"github.com/dmitrijs2005/expensehub/internal/client/services"
	"github.com/dmitrijs2005/expensehub/internal/client/syncer"
	"github.com/dmitrijs2005/expensehub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

type fakeMonitor struct {
	mu     sync.Mutex
	online bool
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
}

func (m *fakeMonitor) CheckConnectivity(ctx context.Context) bool { return m.IsOnline() }
func (m *fakeMonitor) Watch(ctx context.Context, interval time.Duration) {
	<-ctx.Done()
}
func (m *fakeMonitor) WatchLink(ctx context.Context, interval time.Duration, linkUp func() bool) {
	<-ctx.Done()
}
func (m *fakeMonitor) Subscribe() (<-chan bool, func()) { return make(chan bool), func() {} }

type testApp struct {
	*App
	repos *client.Repositories
	fake  *clienttest.Fake
	mon   *fakeMonitor
	out   *bytes.Buffer
}

func newTestApp(t *testing.T, online bool, input ...string) *testApp {
	t.Helper()
	ctx := context.Background()

	repos, err := client.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	fake := clienttest.New(owner)
	mon := &fakeMonitor{online: online}
	log := logging.Nop()
	orch := syncer.New(fake, syncer.Stores{
		Receipts:    repos.Receipts,
		TimeEntries: repos.TimeEntries,
		Queue:       repos.Queue,
		Metadata:    repos.Metadata,
	}, mon, log, syncer.Options{})

	cfg := &config.Config{}
	cfg.LoadDefaults()

	out := &bytes.Buffer{}
	app := &App{
		config:   cfg,
		monitor:  mon,
		syncer:   orch,
		auth:     services.NewAuthService(fake, repos.DB, orch, mon),
		receipts: services.NewReceiptService(fake, repos.Receipts, repos.Queue, orch, mon, log),
		times:    services.NewTimeEntryService(fake, repos.TimeEntries, repos.Queue, orch, mon, log),
		log:      log,
		reader:   bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n")),
		out:      out,
		now:      func() time.Time { return time.Date(2024, 1, 17, 15, 0, 0, 0, time.UTC) },
	}
	return &testApp{App: app, repos: repos, fake: fake, mon: mon, out: out}
}

func stubToken(t *testing.T, tok string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(tok), nil }
	t.Cleanup(func() { readPassword = old })
}

func (ta *testApp) login(t *testing.T) {
	t.Helper()
	stubToken(t, "tok")
	require.NoError(t, ta.Login(context.Background(), []string{owner}))
}

func TestLogin_PromptsAndSyncs(t *testing.T) {
	ta := newTestApp(t, true, owner)
	stubToken(t, "tok")
	ta.fake.PutReceipt(api.Receipt{ID: "srv-1", OwnerID: owner, Currency: "USD", OcrStatus: "completed"})

	require.NoError(t, ta.Login(context.Background(), nil))

	assert.True(t, ta.isLoggedIn())
	assert.Equal(t, "tok", ta.fake.Token)
	assert.Contains(t, ta.out.String(), "Logged in as owner-1")

	got, err := ta.receipts.GetByID(context.Background(), "srv-1")
	require.NoError(t, err)
	assert.Equal(t, owner, got.OwnerID)
}

func TestLogin_Rejected(t *testing.T) {
	ta := newTestApp(t, true)
	stubToken(t, "bad")
	ta.fake.ListErr = client.ErrUnauthorized

	err := ta.Login(context.Background(), []string{owner})
	require.Error(t, err)
	assert.False(t, ta.isLoggedIn())
	assert.Contains(t, ta.out.String(), "rejected")
}

func TestAddReceipt_OfflineThenSync(t *testing.T) {
	img := filepath.Join(t.TempDir(), "r.jpg")
	require.NoError(t, os.WriteFile(img, []byte{0xff, 0xd8, 0xff}, 0o600))

	ta := newTestApp(t, false,
		img,          // image
		"Cafe",       // merchant
		"2024-01-15", // date
		"12,50",      // amount
		"eur",        // currency
		"Travel",     // category
		"",           // description
	)
	ta.login(t)

	require.NoError(t, ta.AddReceipt(context.Background(), nil))
	assert.Contains(t, ta.out.String(), "pending_sync")

	list, err := ta.receipts.Load(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	r := list[0]
	assert.True(t, models.IsLocalID(r.ID))
	assert.Equal(t, "Cafe", r.MerchantName)
	assert.Equal(t, 12.5, *r.TotalAmount)
	assert.Equal(t, "EUR", r.Currency)
	assert.Equal(t, "Travel", r.Category)

	ta.mon.online = true
	require.NoError(t, ta.Sync(context.Background(), nil))
	assert.Contains(t, ta.out.String(), "1 pushed")
	assert.Len(t, ta.fake.Uploads, 1)
	assert.Len(t, ta.fake.Receipts, 1)
}

func TestAddReceipt_BadAmountIsReported(t *testing.T) {
	ta := newTestApp(t, false, "", "Shop", "", "ten", "", "", "")
	ta.login(t)

	err := ta.AddReceipt(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, ta.out.String(), "invalid amount")
}

func TestEditAndDeleteReceipt(t *testing.T) {
	ta := newTestApp(t, true,
		"", "Old", "", "5", "", "", "", // add
		"New", "", "", "", "", "", // edit
	)
	ta.login(t)
	ctx := context.Background()

	require.NoError(t, ta.AddReceipt(ctx, nil))
	ids := make([]string, 0, 1)
	for id := range ta.fake.Receipts {
		ids = append(ids, id)
	}
	require.Len(t, ids, 1)

	require.NoError(t, ta.EditReceipt(ctx, ids))
	got, err := ta.receipts.GetByID(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, "New", got.MerchantName)
	assert.Equal(t, 5.0, *got.TotalAmount)
	assert.Equal(t, "New", ta.fake.Receipts[ids[0]].MerchantName)

	require.NoError(t, ta.DeleteReceipt(ctx, ids))
	assert.Empty(t, ta.fake.Receipts)
	require.NoError(t, ta.DeleteReceipt(ctx, ids))
	assert.Contains(t, ta.out.String(), "not found")

	require.Error(t, ta.EditReceipt(ctx, []string{"missing"}))
}

func TestTimeCommands(t *testing.T) {
	ta := newTestApp(t, false,
		"2024-01-15", "8", "Dev", "Apollo", // first entry
		"", "2", "Docs", "", // second entry, today
		"", "3", "", "", // edit of the second entry
	)
	ta.login(t)
	ctx := context.Background()

	require.NoError(t, ta.AddTime(ctx, nil))
	require.NoError(t, ta.AddTime(ctx, nil))

	list, err := ta.times.Load(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC), list[0].Date)

	require.NoError(t, ta.EditTime(ctx, []string{list[0].ID}))
	require.NoError(t, ta.ListTimes(ctx, nil))
	assert.Contains(t, ta.out.String(), "2024-01-15")
	assert.Contains(t, ta.out.String(), "Apollo")

	ta.out.Reset()
	require.NoError(t, ta.Hours(ctx, nil))
	assert.Equal(t, "2024-01-11 .. 2024-01-17: 11.00h\n", ta.out.String())

	ta.out.Reset()
	require.NoError(t, ta.Hours(ctx, []string{"2024-01-15"}))
	assert.Equal(t, "2024-01-15 .. 2024-01-15: 8.00h\n", ta.out.String())

	require.Error(t, ta.Hours(ctx, []string{"2024-01-17", "2024-01-15"}))

	require.NoError(t, ta.DeleteTime(ctx, []string{list[0].ID}))
	left, err := ta.times.Load(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestAddTime_RequiresHours(t *testing.T) {
	ta := newTestApp(t, false, "", "", "", "")
	ta.login(t)

	err := ta.AddTime(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, ta.out.String(), "hours are required")
}

func TestSync_OfflineAndStatus(t *testing.T) {
	ta := newTestApp(t, false, "", "1", "", "")
	ta.login(t)
	ctx := context.Background()

	require.NoError(t, ta.AddTime(ctx, nil))
	require.NoError(t, ta.Sync(ctx, nil))
	assert.Contains(t, ta.out.String(), "Server unreachable")

	ta.out.Reset()
	require.NoError(t, ta.Status(ctx, nil))
	out := ta.out.String()
	assert.Contains(t, out, "Owner:      owner-1")
	assert.Contains(t, out, "Mode:       offline")
	assert.Contains(t, out, "Pending:    1")
	assert.Contains(t, out, "Last sync:  never")
	assert.Equal(t, "(owner-1 offline idle 1 pending)", ta.getStatus())
}

func TestRetry_ResetsFailedRecords(t *testing.T) {
	ta := newTestApp(t, false)
	ta.login(t)
	ctx := context.Background()

	rec, err := ta.receipts.Create(ctx, models.ReceiptCreate{OwnerID: owner, MerchantName: "Stuck"})
	require.NoError(t, err)
	require.NoError(t, ta.repos.Receipts.SetStatus(ctx, rec.ID, models.SyncStatusError))

	require.NoError(t, ta.Status(ctx, nil))
	assert.Contains(t, ta.out.String(), "Failed:     receipt "+rec.ID)
	assert.Contains(t, ta.out.String(), "Run 'retry'")
	ta.out.Reset()

	ta.mon.online = true
	require.NoError(t, ta.Retry(ctx, nil))
	out := ta.out.String()
	assert.Contains(t, out, "1 record(s) queued for retry")
	assert.Contains(t, out, "1 pushed")
	assert.Len(t, ta.fake.Receipts, 1)

	ta.out.Reset()
	require.NoError(t, ta.Retry(ctx, nil))
	assert.Equal(t, "0 record(s) queued for retry\n", ta.out.String())
}

func TestLogout_KeepsOrWipesRecords(t *testing.T) {
	ta := newTestApp(t, false, "n", "")
	ta.login(t)
	ctx := context.Background()

	_, err := ta.receipts.Create(ctx, models.ReceiptCreate{OwnerID: owner})
	require.NoError(t, err)

	require.NoError(t, ta.Logout(ctx, nil))
	assert.False(t, ta.isLoggedIn())

	ta.login(t)
	list, err := ta.receipts.Load(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, ta.Logout(ctx, []string{"wipe"}))
	assert.Contains(t, ta.out.String(), "1 unsynced change(s) will be lost")
	list, err = ta.receipts.Load(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}
