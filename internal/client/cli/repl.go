package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error

	ListReceipts(ctx context.Context, args []string) error
	AddReceipt(ctx context.Context, args []string) error
	EditReceipt(ctx context.Context, args []string) error
	DeleteReceipt(ctx context.Context, args []string) error

	ListTimes(ctx context.Context, args []string) error
	AddTime(ctx context.Context, args []string) error
	EditTime(ctx context.Context, args []string) error
	DeleteTime(ctx context.Context, args []string) error
	Hours(ctx context.Context, args []string) error

	Sync(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: login, status, exit"
	helpLoggedIn  = "Available commands: receipts, addreceipt, editreceipt <id>, delreceipt <id>, " +
		"times, addtime, edittime <id>, deltime <id>, hours [from] [to], sync, retry, status, logout, exit"
)

// runREPL reads commands line by line from reader and dispatches them to a.
//
// The prompt shows the current status (from statusFn). Record commands are
// only accepted once logged in. Errors returned by handlers are ignored here;
// handlers report their own errors to the user. The loop exits on EOF, on
// "exit"/"quit", or when ctx is done.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("eh %s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}
		if !a.isLoggedIn() && needsLogin(cmd) {
			printlnFn("Please login first")
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "login":
			_ = a.Login(ctx, args)
		case "logout":
			_ = a.Logout(ctx, args)

		case "receipts":
			_ = a.ListReceipts(ctx, args)
		case "addreceipt":
			_ = a.AddReceipt(ctx, args)
		case "editreceipt":
			_ = a.EditReceipt(ctx, args)
		case "delreceipt":
			_ = a.DeleteReceipt(ctx, args)

		case "times":
			_ = a.ListTimes(ctx, args)
		case "addtime":
			_ = a.AddTime(ctx, args)
		case "edittime":
			_ = a.EditTime(ctx, args)
		case "deltime":
			_ = a.DeleteTime(ctx, args)
		case "hours":
			_ = a.Hours(ctx, args)

		case "sync":
			_ = a.Sync(ctx, args)
		case "retry":
			_ = a.Retry(ctx, args)
		case "status":
			_ = a.Status(ctx, args)

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

func needsLogin(cmd string) bool {
	switch cmd {
	case "logout", "receipts", "addreceipt", "editreceipt", "delreceipt",
		"times", "addtime", "edittime", "deltime", "hours", "sync", "retry":
		return true
	}
	return false
}
