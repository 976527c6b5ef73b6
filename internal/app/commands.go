package app

import (
	"context"
	"fmt"

	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/logging"
	"github.com/tamsa/libterm/internal/session"
	"github.com/tamsa/libterm/internal/storage"
)

// withSession opens the state store for one-shot commands.
func withSession(opts Options, fn func(*session.Store, string) error) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}
	db, err := storage.OpenSQLite(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer db.Close()
	return fn(session.NewStore(db, logging.Discard()), cfg.APIURL)
}

// Whoami reports the claims of the stored session, if any.
func Whoami(opts Options) (session.Claims, bool, error) {
	var (
		claims session.Claims
		ok     bool
	)
	err := withSession(opts, func(store *session.Store, _ string) error {
		claims, ok = store.Claims()
		return nil
	})
	return claims, ok, err
}

// Logout removes the stored session token.
func Logout(opts Options) error {
	return withSession(opts, func(store *session.Store, _ string) error {
		store.Clear()
		return nil
	})
}

// Ping checks that the configured backend answers.
func Ping(ctx context.Context, opts Options) (string, error) {
	var message string
	err := withSession(opts, func(store *session.Store, apiURL string) error {
		client, err := library.NewClient(apiURL, store)
		if err != nil {
			return fmt.Errorf("init library client: %w", err)
		}
		message, err = client.Ping(ctx)
		return err
	})
	return message, err
}
