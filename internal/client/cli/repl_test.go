package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	args  [][]string
}

func (f *fakeExec) rec(name string, args []string) error {
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	return nil
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) Login(ctx context.Context, args []string) error {
	f.loggedIn = true
	return f.rec("login", args)
}
func (f *fakeExec) Logout(ctx context.Context, args []string) error {
	f.loggedIn = false
	return f.rec("logout", args)
}
func (f *fakeExec) ListReceipts(ctx context.Context, args []string) error {
	return f.rec("receipts", args)
}
func (f *fakeExec) AddReceipt(ctx context.Context, args []string) error {
	return f.rec("addreceipt", args)
}
func (f *fakeExec) EditReceipt(ctx context.Context, args []string) error {
	return f.rec("editreceipt", args)
}
func (f *fakeExec) DeleteReceipt(ctx context.Context, args []string) error {
	return f.rec("delreceipt", args)
}
func (f *fakeExec) ListTimes(ctx context.Context, args []string) error  { return f.rec("times", args) }
func (f *fakeExec) AddTime(ctx context.Context, args []string) error    { return f.rec("addtime", args) }
func (f *fakeExec) EditTime(ctx context.Context, args []string) error   { return f.rec("edittime", args) }
func (f *fakeExec) DeleteTime(ctx context.Context, args []string) error { return f.rec("deltime", args) }
func (f *fakeExec) Hours(ctx context.Context, args []string) error      { return f.rec("hours", args) }
func (f *fakeExec) Sync(ctx context.Context, args []string) error       { return f.rec("sync", args) }
func (f *fakeExec) Retry(ctx context.Context, args []string) error      { return f.rec("retry", args) }
func (f *fakeExec) Status(ctx context.Context, args []string) error     { return f.rec("status", args) }

func capturePrints(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	origPrint := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = v.(string)
		}
		lines = append(lines, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = origPrint })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	capturePrints(t)

	input := strings.Join([]string{
		"receipts",
		"login owner-1",
		"receipts",
		"addreceipt",
		"editreceipt srv-1",
		"delreceipt srv-2",
		"times",
		"addtime",
		"edittime t-1",
		"deltime t-2",
		"hours 2024-01-01 2024-01-31",
		"sync",
		"retry",
		"status",
		"logout",
		"exit",
		"status",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr(input))

	assert.Equal(t, []string{
		"login", "receipts", "addreceipt", "editreceipt", "delreceipt",
		"times", "addtime", "edittime", "deltime", "hours", "sync", "retry", "status", "logout",
	}, exec.calls)
	assert.Equal(t, []string{"owner-1"}, exec.args[0])
	assert.Equal(t, []string{"srv-1"}, exec.args[3])
	assert.Equal(t, []string{"2024-01-01", "2024-01-31"}, exec.args[9])
}

func TestRunREPL_HelpUnknownAndLoginGuard(t *testing.T) {
	lines := capturePrints(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(s)" }, rdr("help\nsync\nfoobar\n\nquit\n"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *lines, helpLoggedOut)
	assert.Contains(t, *lines, "Please login first")
	assert.Contains(t, *lines, "Unknown command: foobar")
	assert.Equal(t, "Bye!", (*lines)[len(*lines)-1])
}

func TestRunREPL_LastLineWithoutNewline(t *testing.T) {
	capturePrints(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "" }, rdr("status"))

	assert.Equal(t, []string{"status"}, exec.calls)
}

func TestRunREPL_StopsOnCancelledContext(t *testing.T) {
	capturePrints(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExec{loggedIn: true}
	runREPL(ctx, exec, func() string { return "" }, rdr("status\n"))
	assert.Empty(t, exec.calls)
}
