package router

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/session"
)

type fakeGate struct {
	mu     sync.Mutex
	claims session.Claims
	ok     bool
}

func (g *fakeGate) Claims() (session.Claims, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claims, g.ok
}

func (g *fakeGate) login(username string, role session.Role) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.claims = session.Claims{SubjectID: username, Username: username, Role: role}
	g.ok = true
}

func (g *fakeGate) logout() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.claims = session.Claims{}
	g.ok = false
}

type recorder struct {
	mu         sync.Mutex
	frames     []Frame
	headers    []Header
	deliveries []Delivery
}

func (r *recorder) Render(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) RefreshHeader(h Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.headers = append(r.headers, h)
}

func (r *recorder) Deliver(d Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

func (r *recorder) snapshot() ([]Frame, []Header, []Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...),
		append([]Header(nil), r.headers...),
		append([]Delivery(nil), r.deliveries...)
}

type counter struct {
	mu sync.Mutex
	n  map[string]int
}

func (c *counter) inc(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = make(map[string]int)
	}
	c.n[name]++
}

func (c *counter) get(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[name]
}

func view(kind string) func(Params) View {
	return func(p Params) View { return View{Kind: kind, Title: kind} }
}

func testRoutes(calls *counter) []Route {
	action := func(name string) Action {
		return func(ctx context.Context, p Params) (any, error) {
			calls.inc(name)
			return name + ":" + p.At(0), nil
		}
	}
	return []Route{
		{Name: "home", Match: Exact("/"), View: view("home"), Action: action("home")},
		{Name: "login", Match: Exact("/login"), View: view("login")},
		{Name: "register", Match: Exact("/register"), View: view("register")},
		{Name: "courses", Match: Exact("/courses"), View: view("courses"), Action: action("courses")},
		{Name: "course", Match: Pattern("/courses/{id}"), View: view("course"), Action: action("course")},
		{Name: "topic", Match: Regexp(`/topics/(\d+)`), View: view("topic"), Action: action("topic")},
	}
}

func newTestRouter(t *testing.T, gate Gate, calls *counter, extra ...Route) (*Router, *recorder) {
	t.Helper()
	rec := &recorder{}
	r, err := New(append(testRoutes(calls), extra...), gate, rec)
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, rec
}

func TestResolve_UnauthenticatedRedirectsWithoutRendering(t *testing.T) {
	calls := &counter{}
	r, rec := newTestRouter(t, &fakeGate{}, calls)

	for _, path := range []string{"/", "/courses", "/courses/9", "/topics/7", "/nowhere"} {
		out := r.Resolve(context.Background(), path)
		assert.Equal(t, Redirected, out.Kind, path)
		assert.Equal(t, "/login", out.Target, path)
		assert.Equal(t, "/login", r.Current().Path, path)
	}
	r.Wait()

	frames, headers, deliveries := rec.snapshot()
	assert.Empty(t, frames)
	assert.Empty(t, headers)
	assert.Empty(t, deliveries)
	for _, name := range []string{"home", "courses", "course", "topic"} {
		assert.Zero(t, calls.get(name), name)
	}
}

func TestNavigate_FollowsRedirectToLogin(t *testing.T) {
	r, rec := newTestRouter(t, &fakeGate{}, &counter{})

	out := r.Navigate(context.Background(), "/courses")

	assert.Equal(t, Rendered, out.Kind)
	assert.Equal(t, "/login", out.Path)
	frames, headers, _ := rec.snapshot()
	require.Len(t, frames, 1)
	assert.Equal(t, "login", frames[0].View.Kind)
	assert.False(t, frames[0].Chrome, "public views render without the header")
	require.Len(t, headers, 1)
	assert.False(t, headers[0].LoggedIn)
}

func TestResolve_PublicPathsRenderWithoutSession(t *testing.T) {
	r, rec := newTestRouter(t, &fakeGate{}, &counter{})

	out := r.Resolve(context.Background(), "#/register")

	assert.Equal(t, Rendered, out.Kind)
	assert.Equal(t, Navigation{Path: "/register"}, r.Current())
	frames, _, _ := rec.snapshot()
	require.Len(t, frames, 1)
	assert.Equal(t, "register", frames[0].View.Kind)
}

func TestResolve_RoutePrecedence(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	calls := &counter{}
	// A catch-all declared last must never shadow earlier routes.
	r, rec := newTestRouter(t, gate, calls, Route{Name: "any", Match: Regexp(`.*`), View: view("any")})

	r.Resolve(context.Background(), "/courses")
	r.Wait()
	r.Resolve(context.Background(), "/courses/9")
	r.Wait()

	frames, _, _ := rec.snapshot()
	require.Len(t, frames, 2)
	assert.Equal(t, "courses", frames[0].View.Kind)
	assert.Nil(t, frames[0].View.Params)
	assert.Equal(t, "course", frames[1].View.Kind)
	assert.Equal(t, Params{"9"}, frames[1].View.Params)
	assert.Equal(t, 1, calls.get("courses"))
	assert.Equal(t, 1, calls.get("course"))
	assert.Equal(t, Navigation{Path: "/courses/9", Params: Params{"9"}}, r.Current())
}

func TestResolve_IdempotentRerunsActionOnce(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	calls := &counter{}
	r, rec := newTestRouter(t, gate, calls)

	first := r.Resolve(context.Background(), "/topics/7")
	r.Wait()
	second := r.Resolve(context.Background(), "/topics/7")
	r.Wait()

	frames, headers, deliveries := rec.snapshot()
	require.Len(t, frames, 2)
	a, b := frames[0], frames[1]
	assert.Equal(t, a.Seq+1, b.Seq)
	a.Seq, b.Seq = 0, 0
	assert.Equal(t, a, b)
	assert.Equal(t, headers[0], headers[1])
	assert.Equal(t, 2, calls.get("topic"))
	require.Len(t, deliveries, 2)
	assert.Equal(t, "topic:7", deliveries[1].Data)
	assert.Equal(t, second.Seq, deliveries[1].Seq)
	assert.Equal(t, first.Seq, deliveries[0].Seq)
}

func TestResolve_NotFoundKeepsNavigation(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	r, rec := newTestRouter(t, gate, &counter{})

	r.Resolve(context.Background(), "/courses")
	r.Wait()
	out := r.Resolve(context.Background(), "/nowhere")

	assert.Equal(t, NotFound, out.Kind)
	assert.Equal(t, "/courses", r.Current().Path)
	frames, _, _ := rec.snapshot()
	last := frames[len(frames)-1]
	assert.True(t, last.NotFound)
	assert.True(t, last.Chrome)
}

func TestResolve_HeaderCarriesAdmin(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleAdmin)
	r, rec := newTestRouter(t, gate, &counter{})

	r.Resolve(context.Background(), "/courses")
	r.Wait()

	_, headers, _ := rec.snapshot()
	require.NotEmpty(t, headers)
	assert.Equal(t, Header{LoggedIn: true, Username: "amina", Admin: true}, headers[len(headers)-1])
}

func TestResolve_StaleActionResultIsDropped(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	release := make(chan struct{})
	started := make(chan struct{})
	slow := Route{
		Name:  "slow",
		Match: Exact("/slow"),
		View:  view("slow"),
		Action: func(ctx context.Context, p Params) (any, error) {
			close(started)
			<-release
			return "late", nil
		},
	}
	r, rec := newTestRouter(t, gate, &counter{}, slow)

	r.Resolve(context.Background(), "/slow")
	<-started
	r.Resolve(context.Background(), "/courses")
	close(release)
	r.Wait()

	_, _, deliveries := rec.snapshot()
	require.Len(t, deliveries, 1)
	assert.Equal(t, "courses:", deliveries[0].Data)
	assert.Equal(t, "/courses", deliveries[0].Path)
}

func TestResolve_LoginRedirectDropsEarlierResult(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	started := make(chan struct{})
	release := make(chan struct{})
	cancelled := false
	slow := Route{
		Name:  "slow",
		Match: Exact("/slow"),
		View:  view("slow"),
		Action: func(ctx context.Context, p Params) (any, error) {
			close(started)
			<-release
			cancelled = ctx.Err() != nil
			return "slow-data", nil
		},
	}
	r, rec := newTestRouter(t, gate, &counter{}, slow)

	r.Resolve(context.Background(), "/slow")
	<-started
	gate.logout()
	out := r.Resolve(context.Background(), "/topics/1")
	close(release)
	r.Wait()

	assert.Equal(t, Redirected, out.Kind)
	assert.Equal(t, "/login", r.Current().Path)
	assert.True(t, cancelled, "action context should be cancelled by the redirect")
	_, _, deliveries := rec.snapshot()
	assert.Empty(t, deliveries)
}

func TestResolve_ActionErrorsAndPanicsAreDelivered(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	boom := errors.New("boom")
	routes := []Route{
		{Name: "fails", Match: Exact("/fails"), View: view("fails"),
			Action: func(context.Context, Params) (any, error) { return nil, boom }},
		{Name: "panics", Match: Exact("/panics"), View: view("panics"),
			Action: func(context.Context, Params) (any, error) { panic("kaboom") }},
	}
	r, rec := newTestRouter(t, gate, &counter{}, routes...)

	r.Resolve(context.Background(), "/fails")
	r.Wait()
	r.Resolve(context.Background(), "/panics")
	r.Wait()
	out := r.Resolve(context.Background(), "/courses")
	r.Wait()

	_, _, deliveries := rec.snapshot()
	require.Len(t, deliveries, 3)
	assert.ErrorIs(t, deliveries[0].Err, boom)
	require.Error(t, deliveries[1].Err)
	assert.Contains(t, deliveries[1].Err.Error(), "kaboom")
	assert.Equal(t, Rendered, out.Kind)
	assert.NoError(t, deliveries[2].Err)
}

func TestResolve_SessionExpiredIsNeverDelivered(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	expired := Route{Name: "expired", Match: Exact("/expired"), View: view("expired"),
		Action: func(context.Context, Params) (any, error) { return nil, library.ErrSessionExpired }}
	r, rec := newTestRouter(t, gate, &counter{}, expired)

	r.Resolve(context.Background(), "/expired")
	r.Wait()

	_, _, deliveries := rec.snapshot()
	assert.Empty(t, deliveries)
}

func TestResolve_NewRenderCancelsPreviousAction(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	cancelled := make(chan struct{})
	started := make(chan struct{})
	waits := Route{Name: "waits", Match: Exact("/waits"), View: view("waits"),
		Action: func(ctx context.Context, p Params) (any, error) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}}
	r, _ := newTestRouter(t, gate, &counter{}, waits)

	r.Resolve(context.Background(), "/waits")
	<-started
	r.Resolve(context.Background(), "/courses")
	<-cancelled
	r.Wait()
}

func TestBack_ReturnsToPreviousPath(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	r, _ := newTestRouter(t, gate, &counter{})
	ctx := context.Background()

	_, ok := r.Back(ctx)
	assert.False(t, ok)

	r.Navigate(ctx, "/courses")
	r.Navigate(ctx, "/courses/1")
	r.Navigate(ctx, "/courses/1")
	r.Navigate(ctx, "/topics/7")

	out, ok := r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, "/courses/1", out.Path)
	out, ok = r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, "/courses", out.Path)
	_, ok = r.Back(ctx)
	assert.False(t, ok)
	r.Wait()
}

func TestBack_KeepsHistoryWhenTargetRedirects(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	r, _ := newTestRouter(t, gate, &counter{})
	ctx := context.Background()

	r.Navigate(ctx, "/courses")
	r.Navigate(ctx, "/courses/1")
	r.Wait()

	gate.logout()
	out, ok := r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, Rendered, out.Kind)
	assert.Equal(t, "/login", out.Path)

	gate.login("amina", session.RoleUser)
	out, ok = r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, "/courses/1", out.Path)
	out, ok = r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, "/courses", out.Path)
	r.Wait()
}

func TestBack_KeepsHistoryWhenTargetIsUnknown(t *testing.T) {
	gate := &fakeGate{}
	gate.login("amina", session.RoleUser)
	r, _ := newTestRouter(t, gate, &counter{})
	ctx := context.Background()

	r.history = []string{"/courses", "/gone", "/courses/1"}
	out, ok := r.Back(ctx)
	require.True(t, ok)
	assert.Equal(t, NotFound, out.Kind)
	assert.Equal(t, []string{"/courses", "/gone", "/courses/1"}, r.history)
	r.Wait()
}

func TestNew_RejectsIncompleteRoutes(t *testing.T) {
	_, err := New([]Route{{Name: "bad", View: view("x")}}, &fakeGate{}, &recorder{})
	assert.Error(t, err)
	_, err = New(nil, nil, &recorder{})
	assert.Error(t, err)
	_, err = New(nil, &fakeGate{}, nil)
	assert.Error(t, err)
}
