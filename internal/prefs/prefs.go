// Package prefs handles libterm user preferences persistence.
// Preferences live in the client key-value store next to the session token.
package prefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/tamsa/libterm/internal/storage"
)

// Prefs holds user preferences for libterm.
type Prefs struct {
	Theme string
}

const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	defaultTheme = ThemeDark
)

// Load reads preferences from kv, falling back to defaults if missing or unreadable.
func Load(ctx context.Context, kv storage.KV) Prefs {
	prefs := Prefs{Theme: defaultTheme}
	if kv == nil {
		return prefs
	}

	value, err := kv.Get(ctx, storage.KeyTheme)
	if err != nil {
		return prefs // Graceful degradation
	}
	if theme, ok := normalizeTheme(value); ok {
		prefs.Theme = theme
	}
	return prefs
}

// Save writes preferences to kv.
func Save(ctx context.Context, kv storage.KV, p Prefs) error {
	if kv == nil {
		return fmt.Errorf("prefs store is nil")
	}
	theme, ok := normalizeTheme(p.Theme)
	if !ok {
		return fmt.Errorf("unknown theme %q", p.Theme)
	}
	if err := kv.Set(ctx, storage.KeyTheme, theme); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func normalizeTheme(value string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case ThemeDark:
		return ThemeDark, true
	case ThemeLight:
		return ThemeLight, true
	default:
		return "", false
	}
}
