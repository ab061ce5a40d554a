package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/expensehub/internal/client/client"
)

// getSimpleText and getToken are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getToken = GetToken

// fail reports err to the user and returns it unchanged.
func (a *App) fail(err error) error {
	fmt.Fprintf(a.out, "error: %v\n", err)
	return err
}

// Login prompts for the owner id (unless given as an argument) and the API
// token, stores the session and runs a first sync when online.
func (a *App) Login(ctx context.Context, args []string) error {
	var owner string
	if len(args) > 0 {
		owner = args[0]
	} else {
		var err error
		if owner, err = getSimpleText(a.reader, "Enter owner id", a.out); err != nil {
			return a.fail(err)
		}
	}

	token, err := getToken(a.out)
	if err != nil {
		return a.fail(err)
	}

	if err := a.auth.Login(ctx, owner, token); err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			fmt.Fprintln(a.out, "Login unsuccessful: the server rejected the token")
		}
		return a.fail(err)
	}
	a.owner = strings.TrimSpace(owner)

	if a.monitor.IsOnline() {
		if _, err := a.syncer.SyncAll(ctx); err != nil {
			fmt.Fprintf(a.out, "Logged in as %s, initial sync failed: %v\n", a.owner, err)
			return nil
		}
		fmt.Fprintf(a.out, "Logged in as %s\n", a.owner)
		return nil
	}
	fmt.Fprintf(a.out, "Logged in as %s (offline, the token will be checked on the next sync)\n", a.owner)
	return nil
}

// Logout forgets the session. Local records stay on disk unless the user
// asks to wipe them or passes "wipe".
func (a *App) Logout(ctx context.Context, args []string) error {
	wipe := len(args) > 0 && args[0] == "wipe"
	if !wipe {
		answer, err := getSimpleText(a.reader, "Delete local records too? [y/N]", a.out)
		if err != nil {
			return a.fail(err)
		}
		wipe = strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
	}

	if wipe {
		if n, err := a.syncer.RefreshPendingCount(ctx); err == nil && n > 0 {
			fmt.Fprintf(a.out, "Warning: %d unsynced change(s) will be lost\n", n)
		}
	}
	if err := a.auth.Logout(ctx, wipe); err != nil {
		return a.fail(err)
	}
	a.owner = ""
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
