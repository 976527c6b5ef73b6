package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tamsa/libterm/internal/config"
	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/logging"
	"github.com/tamsa/libterm/internal/prefs"
	"github.com/tamsa/libterm/internal/progress"
	"github.com/tamsa/libterm/internal/router"
	"github.com/tamsa/libterm/internal/session"
	"github.com/tamsa/libterm/internal/storage"
	"github.com/tamsa/libterm/internal/ui"
)

// Options configure the libterm application.
type Options struct {
	ConfigPath string // empty uses ~/.config/libterm/config.toml
	APIURL     string // overrides api_url when set
	DataDir    string // overrides data_dir when set
}

// LoadConfig reads the config file and applies command line overrides.
func LoadConfig(opts Options) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.APIURL); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(opts.DataDir); v != "" {
		cfg.DataDir = v
	}
	return cfg, nil
}

// Run boots the libterm TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(logging.Options{Path: cfg.LogPath(), Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	db, err := storage.OpenSQLite(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer db.Close()

	screen := ui.NewScreen()
	application, err := New(ctx, cfg, db, screen, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	logger.Info("libterm starting", "api_url", cfg.APIURL, "data_dir", cfg.DataDir)
	application.Start(cfg.StartPath)

	return ui.Run(ui.Options{
		Context:    ctx,
		Controller: application,
		Screen:     screen,
		ThemeName:  prefs.Load(ctx, db).Theme,
		APIURL:     cfg.APIURL,
		LogPath:    cfg.LogPath(),
	})
}

// App owns every component of a running client and implements
// ui.Controller on top of them.
type App struct {
	ctx      context.Context
	kv       storage.KV
	logger   *slog.Logger
	session  *session.Store
	client   *library.Client
	progress *progress.Cache
	router   *router.Router
}

// New wires the session store, backend client, progress cache and router.
// renderer receives every frame the router draws.
func New(ctx context.Context, cfg config.Config, kv storage.KV, renderer router.Renderer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	a := &App{ctx: ctx, kv: kv, logger: logger}
	a.session = session.NewStore(kv, logger.With("component", "session"))

	client, err := library.NewClient(cfg.APIURL, a.session,
		library.WithTimeout(cfg.RequestTimeout),
		library.WithLogger(logger.With("component", "library")),
	)
	if err != nil {
		return nil, fmt.Errorf("init library client: %w", err)
	}
	a.client = client
	a.progress = progress.NewCache(client, a.session, logger.With("component", "progress"))

	r, err := router.New(a.routes(), a.session, renderer,
		router.WithLogger(logger.With("component", "router")),
	)
	if err != nil {
		return nil, fmt.Errorf("init router: %w", err)
	}
	a.router = r

	a.session.Subscribe(a.onSessionEvent)
	return a, nil
}

// Start refreshes progress for a stored session and resolves startPath.
func (a *App) Start(startPath string) {
	if a.session.Present() {
		go a.progress.Refresh(a.ctx)
	}
	if strings.TrimSpace(startPath) == "" {
		startPath = "/"
	}
	a.router.Navigate(a.ctx, startPath)
}

// Close cancels the in-flight action and waits for it.
func (a *App) Close() {
	a.router.Close()
}

func (a *App) onSessionEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventSessionCleared:
		a.progress.Reset()
		a.router.Navigate(a.ctx, "/login")
	case session.EventLoginSucceeded:
		go a.progress.Refresh(a.ctx)
	}
}
