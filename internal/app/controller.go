package app

import (
	"context"
	"fmt"

	"github.com/tamsa/libterm/internal/prefs"
	"github.com/tamsa/libterm/internal/ui"
)

var _ ui.Controller = (*App)(nil)

// Navigate resolves path, following a login redirect.
func (a *App) Navigate(ctx context.Context, path string) {
	a.router.Navigate(ctx, path)
}

// Back returns to the previous page.
func (a *App) Back(ctx context.Context) bool {
	_, ok := a.router.Back(ctx)
	return ok
}

// Refresh reloads the current page.
func (a *App) Refresh(ctx context.Context) {
	a.router.Refresh(ctx)
}

// Login authenticates, stores the token and opens the dashboard. Progress
// refreshes in the background once the session starts.
func (a *App) Login(ctx context.Context, username, password string) error {
	token, err := a.client.Login(ctx, username, password)
	if err != nil {
		a.logger.Info("login failed", "username", username, "error", err)
		return err
	}
	if err := a.session.SetToken(token); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.router.Navigate(ctx, "/")
	return nil
}

// Register creates an account and returns the backend's message. The caller
// shows it and moves to the login view.
func (a *App) Register(ctx context.Context, username, email, password string) (string, error) {
	message, err := a.client.Register(ctx, username, email, password)
	if err != nil {
		return "", err
	}
	a.logger.Info("account registered", "username", username)
	return message, nil
}

// Logout ends the session. The session listener resets progress and
// redirects to the login view.
func (a *App) Logout() {
	a.session.Clear()
}

// MarkComplete records a topic as completed.
func (a *App) MarkComplete(ctx context.Context, topicID int64) error {
	return a.progress.MarkComplete(ctx, topicID)
}

func (a *App) IsComplete(topicID int64) bool {
	return a.progress.IsComplete(topicID)
}

func (a *App) CompletedCount() int {
	return a.progress.CompletedCount()
}

// SaveTheme persists the theme preference.
func (a *App) SaveTheme(name string) error {
	return prefs.Save(a.ctx, a.kv, prefs.Prefs{Theme: name})
}
