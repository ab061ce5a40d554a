package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/expensehub/internal/client/client"
	"github.com/dmitrijs2005/expensehub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/expensehub/internal/common"
	"github.com/dmitrijs2005/expensehub/internal/dbx"
)

// Session is the owner/token pair the client acts as.
type Session struct {
	OwnerID string
	Token   string
}

// OwnerScope is the part of syncer.Orchestrator that follows the session.
type OwnerScope interface {
	SetOwner(ownerID string)
}

// AuthService manages the locally persisted session.
//
//   - Login stores the owner and API token. When online the token is
//     verified against the server first; offline it is accepted as is and
//     the first sync reveals a bad token.
//   - Restore resumes the session saved by a previous run.
//   - Logout forgets the session. Local records are kept unless wipe is set.
type AuthService interface {
	Login(ctx context.Context, ownerID, token string) error
	Restore(ctx context.Context) (*Session, error)
	Logout(ctx context.Context, wipe bool) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client  client.Client
	db      *sql.DB
	scope   OwnerScope
	monitor Connectivity
}

func NewAuthService(c client.Client, db *sql.DB, scope OwnerScope, m Connectivity) AuthService {
	return &authService{client: c, db: db, scope: scope, monitor: m}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

func (a *authService) Login(ctx context.Context, ownerID, token string) error {
	ownerID, token = strings.TrimSpace(ownerID), strings.TrimSpace(token)
	if ownerID == "" || token == "" {
		return fmt.Errorf("%w: owner and token are required", common.ErrorValidation)
	}

	a.client.SetToken(token)
	if a.monitor.IsOnline() {
		if _, err := a.client.ListReceipts(ctx); err != nil {
			switch {
			case errors.Is(err, client.ErrUnavailable):
				a.monitor.ReportUnavailable()
			default:
				a.client.SetToken("")
				return fmt.Errorf("login error: %w", err)
			}
		}
	}

	if err := a.getMetadataRepo().SaveSession(ctx, ownerID, token); err != nil {
		return fmt.Errorf("session saving error: %w", err)
	}
	a.scope.SetOwner(ownerID)
	return nil
}

// Restore returns nil when no session has been saved.
func (a *authService) Restore(ctx context.Context) (*Session, error) {
	owner, token, err := a.getMetadataRepo().Session(ctx)
	if err != nil {
		return nil, err
	}
	if owner == "" || token == "" {
		return nil, nil
	}

	a.client.SetToken(token)
	a.scope.SetOwner(owner)
	return &Session{OwnerID: owner, Token: token}, nil
}

func (a *authService) Logout(ctx context.Context, wipe bool) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		if !wipe {
			return nil
		}
		for _, table := range []string{"receipts", "time_entries", "sync_queue"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.scope.SetOwner("")
	a.client.SetToken("")
	return nil
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
