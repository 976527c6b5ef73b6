package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/session"
)

// View describes what a route shows. Renderers switch on Kind.
type View struct {
	Kind   string
	Title  string
	Params Params
}

// NotFoundKind is the view kind rendered for unmatched paths.
const NotFoundKind = "notfound"

// Action loads data for an already rendered view.
type Action func(ctx context.Context, params Params) (any, error)

// Route binds a matcher to a view and an optional data action.
type Route struct {
	Name   string
	Match  Matcher
	View   func(Params) View
	Action Action
}

// Header is the auth state shown around protected views.
type Header struct {
	LoggedIn bool
	Username string
	Admin    bool
}

// Frame is one render. Seq increases with every render.
type Frame struct {
	Seq      uint64
	Path     string
	View     View
	Chrome   bool // draw the header around the view
	NotFound bool
	Loading  bool // an action was launched for this frame
}

// Delivery carries an action's result for the frame with the same Seq.
type Delivery struct {
	Seq  uint64
	Path string
	Data any
	Err  error
}

// Renderer draws frames. Methods may be called from any goroutine but never
// concurrently.
type Renderer interface {
	Render(Frame)
	RefreshHeader(Header)
	Deliver(Delivery)
}

// Gate reports the live session.
type Gate interface {
	Claims() (session.Claims, bool)
}

// Navigation is the last path the router resolved.
type Navigation struct {
	Path   string
	Params Params
}

// OutcomeKind says how a resolution ended.
type OutcomeKind int

const (
	Rendered OutcomeKind = iota + 1
	Redirected
	NotFound
)

func (k OutcomeKind) String() string {
	switch k {
	case Rendered:
		return "rendered"
	case Redirected:
		return "redirected"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Outcome reports a resolution. Target is set for redirects.
type Outcome struct {
	Kind   OutcomeKind
	Path   string
	Target string
	Seq    uint64
}

const (
	defaultLoginPath    = "/login"
	defaultHistoryLimit = 50
	maxRedirects        = 4
)

// Option customizes a Router.
type Option func(*Router)

// WithLogger sets the router's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithPublicPaths replaces the paths reachable without a session. The login
// path is always public.
func WithPublicPaths(paths ...string) Option {
	return func(r *Router) {
		r.public = make(map[string]bool, len(paths))
		for _, p := range paths {
			r.public[Normalize(p)] = true
		}
	}
}

// WithLoginPath sets where unauthenticated navigation is sent.
func WithLoginPath(path string) Option {
	return func(r *Router) { r.loginPath = Normalize(path) }
}

// WithHistoryLimit bounds the back history. Values below 2 disable Back.
func WithHistoryLimit(n int) Option {
	return func(r *Router) { r.historyLimit = n }
}

// Router resolves paths against an ordered route table, gating protected
// paths behind the session.
type Router struct {
	routes       []Route
	gate         Gate
	renderer     Renderer
	logger       *slog.Logger
	public       map[string]bool
	loginPath    string
	historyLimit int

	gen atomic.Uint64

	mu      sync.Mutex
	nav     Navigation
	history []string
	cancel  context.CancelFunc

	inflight sync.WaitGroup
}

// New builds a Router. The route table is fixed for its lifetime.
func New(routes []Route, gate Gate, renderer Renderer, opts ...Option) (*Router, error) {
	if gate == nil {
		return nil, fmt.Errorf("gate is nil")
	}
	if renderer == nil {
		return nil, fmt.Errorf("renderer is nil")
	}
	for i, route := range routes {
		if route.Match == nil {
			return nil, fmt.Errorf("route %d (%s): matcher is nil", i, route.Name)
		}
		if route.View == nil {
			return nil, fmt.Errorf("route %d (%s): view is nil", i, route.Name)
		}
	}
	r := &Router{
		routes:       append([]Route(nil), routes...),
		gate:         gate,
		renderer:     renderer,
		logger:       slog.New(slog.DiscardHandler),
		loginPath:    defaultLoginPath,
		historyLimit: defaultHistoryLimit,
	}
	WithPublicPaths("/login", "/register")(r)
	for _, opt := range opts {
		opt(r)
	}
	r.public[r.loginPath] = true
	return r, nil
}

// Resolve runs one navigation. Unauthenticated requests for protected paths
// only move Navigation to the login path; nothing renders and no action
// runs. Unknown paths render the not-found view and leave Navigation alone.
// Otherwise the matched view renders and its action, if any, starts in the
// background with ctx.
func (r *Router) Resolve(ctx context.Context, path string) Outcome {
	path = Normalize(path)
	claims, loggedIn := r.gate.Claims()

	r.mu.Lock()
	defer r.mu.Unlock()

	if !loggedIn && !r.public[path] {
		// Results launched before the redirect are stale.
		r.beginRenderLocked()
		r.nav = Navigation{Path: r.loginPath}
		r.logger.Debug("redirecting unauthenticated navigation", "path", path, "target", r.loginPath)
		return Outcome{Kind: Redirected, Path: path, Target: r.loginPath}
	}

	header := Header{LoggedIn: loggedIn, Username: claims.Username, Admin: loggedIn && claims.IsAdmin()}
	route, params, ok := r.match(path)
	if !ok {
		seq := r.beginRenderLocked()
		r.renderer.Render(Frame{
			Seq:      seq,
			Path:     path,
			View:     View{Kind: NotFoundKind, Title: "Not found"},
			Chrome:   !r.public[path],
			NotFound: true,
		})
		r.renderer.RefreshHeader(header)
		r.logger.Debug("no route matched", "path", path)
		return Outcome{Kind: NotFound, Path: path, Seq: seq}
	}

	r.nav = Navigation{Path: path, Params: params}
	r.pushHistoryLocked(path)

	view := route.View(params)
	if view.Params == nil {
		view.Params = params
	}
	seq := r.beginRenderLocked()
	r.renderer.Render(Frame{
		Seq:     seq,
		Path:    path,
		View:    view,
		Chrome:  !r.public[path],
		Loading: route.Action != nil,
	})
	if route.Action != nil {
		r.launchLocked(ctx, route, params, path, seq)
	}
	r.renderer.RefreshHeader(header)
	return Outcome{Kind: Rendered, Path: path, Seq: seq}
}

// Navigate resolves path and follows redirects.
func (r *Router) Navigate(ctx context.Context, path string) Outcome {
	out := r.Resolve(ctx, path)
	for hops := 0; out.Kind == Redirected && hops < maxRedirects; hops++ {
		if Normalize(out.Target) == out.Path {
			break
		}
		out = r.Resolve(ctx, out.Target)
	}
	return out
}

// Refresh re-resolves the current path.
func (r *Router) Refresh(ctx context.Context) Outcome {
	return r.Navigate(ctx, r.Current().Path)
}

// Back navigates to the previously resolved path. It reports false when
// there is nowhere to go back to. History is kept when the target does not
// render, for example after a login redirect.
func (r *Router) Back(ctx context.Context) (Outcome, bool) {
	r.mu.Lock()
	n := len(r.history)
	if n < 2 {
		r.mu.Unlock()
		return Outcome{}, false
	}
	target := r.history[n-2]
	popped := append([]string(nil), r.history[n-2:]...)
	r.history = r.history[:n-2]
	base := len(r.history)
	r.mu.Unlock()

	out := r.Navigate(ctx, target)
	if out.Kind != Rendered || out.Path != Normalize(target) {
		r.mu.Lock()
		r.restoreHistoryLocked(base, popped)
		r.mu.Unlock()
	}
	return out, true
}

// Current returns a copy of the navigation state.
func (r *Router) Current() Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	nav := r.nav
	nav.Params = append(Params(nil), r.nav.Params...)
	return nav
}

// Generation returns the sequence number of the latest render.
func (r *Router) Generation() uint64 {
	return r.gen.Load()
}

// Wait blocks until every launched action has finished.
func (r *Router) Wait() {
	r.inflight.Wait()
}

// Close cancels the in-flight action and waits for it to return.
func (r *Router) Close() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.inflight.Wait()
}

func (r *Router) match(path string) (Route, Params, bool) {
	for _, route := range r.routes {
		if params, ok := route.Match.Match(path); ok {
			return route, params, true
		}
	}
	return Route{}, nil, false
}

// beginRenderLocked starts a new generation and cancels the previous
// frame's action.
func (r *Router) beginRenderLocked() uint64 {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return r.gen.Inc()
}

func (r *Router) pushHistoryLocked(path string) {
	if n := len(r.history); n > 0 && r.history[n-1] == path {
		return
	}
	r.history = append(r.history, path)
	if r.historyLimit > 0 && len(r.history) > r.historyLimit {
		r.history = append([]string(nil), r.history[len(r.history)-r.historyLimit:]...)
	}
}

// restoreHistoryLocked puts popped back at base, ahead of anything pushed
// since it was removed.
func (r *Router) restoreHistoryLocked(base int, popped []string) {
	var since []string
	if base <= len(r.history) {
		since = append(since, r.history[base:]...)
		r.history = r.history[:base]
	}
	for _, path := range append(popped, since...) {
		r.pushHistoryLocked(path)
	}
}

func (r *Router) launchLocked(ctx context.Context, route Route, params Params, path string, seq uint64) {
	if ctx == nil {
		ctx = context.Background()
	}
	actionCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer cancel()
		data, err := runAction(actionCtx, route, params)
		r.deliver(Delivery{Seq: seq, Path: path, Data: data, Err: err}, route.Name)
	}()
}

func runAction(ctx context.Context, route Route, params Params) (data any, err error) {
	defer func() {
		if p := recover(); p != nil {
			data = nil
			err = fmt.Errorf("route %s: action panicked: %v", route.Name, p)
		}
	}()
	return route.Action(ctx, append(Params(nil), params...))
}

func (r *Router) deliver(d Delivery, routeName string) {
	if library.IsSessionExpired(d.Err) {
		r.logger.Debug("dropping session-expired action result", "route", routeName, "path", d.Path)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current := r.gen.Load(); current != d.Seq || r.nav.Path != d.Path {
		r.logger.Debug("dropping stale action result", "route", routeName, "path", d.Path,
			"seq", d.Seq, "current", current, "navigation", r.nav.Path)
		return
	}
	if d.Err != nil {
		r.logger.Warn("route action failed", "route", routeName, "path", d.Path, "error", d.Err)
	}
	r.renderer.Deliver(d)
}
