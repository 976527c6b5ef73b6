package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamsa/libterm/internal/config"
	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/library/librarytest"
	"github.com/tamsa/libterm/internal/prefs"
	"github.com/tamsa/libterm/internal/router"
	"github.com/tamsa/libterm/internal/storage"
	"github.com/tamsa/libterm/internal/ui"
)

type recorder struct {
	mu         sync.Mutex
	frames     []router.Frame
	header     router.Header
	deliveries []router.Delivery
}

func (r *recorder) Render(f router.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
}

func (r *recorder) RefreshHeader(h router.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.header = h
}

func (r *recorder) Deliver(d router.Delivery) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, d)
}

func (r *recorder) lastFrame(t *testing.T) router.Frame {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	return r.frames[len(r.frames)-1]
}

// lastDelivery returns the delivery for the latest frame.
func (r *recorder) lastDelivery(t *testing.T) router.Delivery {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	seq := r.frames[len(r.frames)-1].Seq
	for i := len(r.deliveries) - 1; i >= 0; i-- {
		if r.deliveries[i].Seq == seq {
			return r.deliveries[i]
		}
	}
	t.Fatalf("no delivery for frame %d", seq)
	return router.Delivery{}
}

func (r *recorder) currentHeader() router.Header {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.header
}

type harness struct {
	app     *App
	backend *librarytest.Backend
	kv      *storage.Memory
	screen  *recorder
}

func newHarness(t *testing.T, ctx context.Context, kv *storage.Memory) harness {
	t.Helper()
	backend := librarytest.New(t)
	if kv == nil {
		kv = storage.NewMemory()
	}
	screen := &recorder{}
	cfg := config.Defaults()
	cfg.APIURL = backend.URL()

	a, err := New(ctx, cfg, kv, screen, nil)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return harness{app: a, backend: backend, kv: kv, screen: screen}
}

func (h harness) signIn(t *testing.T, ctx context.Context, username string) {
	t.Helper()
	require.NoError(t, h.kv.Set(ctx, storage.KeyToken, h.backend.Issue(username)))
}

func TestStart_UnauthenticatedRedirectsToLogin(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)

	h.app.Start("/courses")
	h.app.router.Wait()

	assert.Equal(t, "/login", h.app.router.Current().Path)
	assert.Equal(t, ui.KindLogin, h.screen.lastFrame(t).View.Kind)
	assert.Zero(t, h.backend.Hits("/admin/courses"))
	assert.False(t, h.screen.currentHeader().LoggedIn)
}

func TestLogin_StoresSessionAndOpensDashboard(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)
	h.backend.SetCompleted("amina", 7)
	h.app.Start("/")

	require.NoError(t, h.app.Login(ctx, "amina", "secret"))
	h.app.router.Wait()

	token, err := h.kv.Get(ctx, storage.KeyToken)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "/", h.app.router.Current().Path)

	d := h.screen.lastDelivery(t)
	require.NoError(t, d.Err)
	dash, ok := d.Data.(ui.Dashboard)
	require.True(t, ok, "data is %T", d.Data)
	assert.Len(t, dash.Courses, 2)

	header := h.screen.currentHeader()
	assert.True(t, header.LoggedIn)
	assert.Equal(t, "amina", header.Username)
	assert.True(t, header.Admin)

	require.Eventually(t, func() bool { return h.app.IsComplete(7) }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, h.app.CompletedCount())
}

func TestLogin_BadCredentialsKeepLoggedOut(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)
	h.app.Start("/login")

	err := h.app.Login(ctx, "amina", "wrong")
	require.Error(t, err)
	assert.Equal(t, library.KindServer, library.KindOf(err))
	assert.Equal(t, "Invalid username or password", err.Error())

	_, err = h.kv.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, "/login", h.app.router.Current().Path)
}

func TestRegister_ReturnsBackendMessage(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)

	message, err := h.app.Register(ctx, "zara", "zara@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", message)

	_, err = h.app.Register(ctx, "amina", "amina@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, "Username already exists", err.Error())

	require.NoError(t, h.app.Login(ctx, "zara", "pw"))
}

func TestLogout_ResetsProgressAndRedirects(t *testing.T) {
	ctx := t.Context()
	kv := storage.NewMemory()
	h := newHarness(t, ctx, kv)
	h.signIn(t, ctx, "kofi")
	h.backend.SetCompleted("kofi", 7, 8)

	h.app.Start("/")
	h.app.router.Wait()
	require.Eventually(t, func() bool { return h.app.CompletedCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	h.app.Logout()

	assert.Zero(t, h.app.CompletedCount())
	assert.False(t, h.app.IsComplete(7))
	assert.Equal(t, "/login", h.app.router.Current().Path)
	assert.Equal(t, ui.KindLogin, h.screen.lastFrame(t).View.Kind)
	_, err := kv.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSessionExpiry_RedirectsWithoutDeliveringError(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)
	h.signIn(t, ctx, "kofi")
	h.app.Start("/")
	h.app.router.Wait()

	h.backend.RevokeAll()
	h.app.Navigate(ctx, "/topics/7")
	h.app.router.Wait()

	assert.Equal(t, "/login", h.app.router.Current().Path)
	assert.Equal(t, ui.KindLogin, h.screen.lastFrame(t).View.Kind)
	h.screen.mu.Lock()
	for _, d := range h.screen.deliveries {
		assert.False(t, library.IsSessionExpired(d.Err), "delivered %v for %s", d.Err, d.Path)
	}
	h.screen.mu.Unlock()
}

func TestTopic_LoadsAndMarksComplete(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)
	h.signIn(t, ctx, "kofi")
	h.app.Start("/topics/7")
	h.app.router.Wait()

	d := h.screen.lastDelivery(t)
	require.NoError(t, d.Err)
	topic, ok := d.Data.(library.Topic)
	require.True(t, ok, "data is %T", d.Data)
	assert.Equal(t, "Anatomy", topic.Name)
	assert.Equal(t, "<p>..</p>", topic.Content)
	assert.Empty(t, topic.Resources)
	assert.False(t, h.app.IsComplete(7))

	require.NoError(t, h.app.MarkComplete(ctx, 7))
	assert.True(t, h.app.IsComplete(7))
	assert.Equal(t, 1, h.backend.Hits("/api/topics/7/complete"))
}

func TestRoutes_LoadPageData(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)
	h.signIn(t, ctx, "amina")
	h.app.Start("/")
	h.app.router.Wait()

	h.app.Navigate(ctx, "/courses/1")
	h.app.router.Wait()
	course, ok := h.screen.lastDelivery(t).Data.(ui.CoursePage)
	require.True(t, ok)
	assert.Equal(t, "Medicine", course.Course.Name)
	require.Len(t, course.Modules, 1)
	assert.Equal(t, "Foundations", course.Modules[0].Name)

	h.app.Navigate(ctx, "#/modules/3")
	h.app.router.Wait()
	module, ok := h.screen.lastDelivery(t).Data.(ui.ModulePage)
	require.True(t, ok)
	assert.Equal(t, int64(3), module.ModuleID)
	assert.Len(t, module.Topics, 2)

	h.app.Navigate(ctx, "/search/phys%20io")
	h.app.router.Wait()
	search, ok := h.screen.lastDelivery(t).Data.(ui.SearchPage)
	require.True(t, ok)
	assert.Equal(t, "phys io", search.Query)
	assert.Equal(t, 1, h.backend.Hits("/search"))

	h.app.Navigate(ctx, "/admin/users")
	h.app.router.Wait()
	users, ok := h.screen.lastDelivery(t).Data.([]library.User)
	require.True(t, ok)
	assert.Len(t, users, 2)

	assert.True(t, h.app.Back(ctx))
	h.app.router.Wait()
	assert.Equal(t, "/search/phys%20io", h.app.router.Current().Path)
}

func TestRequest_MalformedStoredTokenSkipsNetwork(t *testing.T) {
	ctx := t.Context()
	kv := storage.NewMemory()
	h := newHarness(t, ctx, kv)
	require.NoError(t, kv.Set(ctx, storage.KeyToken, "not-a-token"))

	_, err := h.app.client.Courses(ctx)
	require.Error(t, err)
	assert.True(t, library.IsSessionExpired(err))
	assert.Zero(t, h.backend.Hits("/admin/courses"))
	assert.Equal(t, "/login", h.app.router.Current().Path)
	_, err = kv.Get(ctx, storage.KeyToken)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRoutes_ActionErrorIsDelivered(t *testing.T) {
	ctx := t.Context()
	h := newHarness(t, ctx, nil)
	h.signIn(t, ctx, "kofi")
	h.backend.Fail("/admin/courses", 500, "database unavailable")

	h.app.Start("/courses")
	h.app.router.Wait()

	d := h.screen.lastDelivery(t)
	require.Error(t, d.Err)
	assert.Equal(t, "database unavailable", d.Err.Error())
	assert.Equal(t, "/courses", h.app.router.Current().Path)
}

func TestSaveTheme_Persists(t *testing.T) {
	ctx := t.Context()
	kv := storage.NewMemory()
	h := newHarness(t, ctx, kv)

	require.NoError(t, h.app.SaveTheme(prefs.ThemeLight))
	assert.Equal(t, prefs.ThemeLight, prefs.Load(ctx, kv).Theme)
	assert.Error(t, h.app.SaveTheme("neon"))
}

func TestLoadConfig_AppliesOverrides(t *testing.T) {
	cfg, err := LoadConfig(Options{
		ConfigPath: t.TempDir() + "/missing.toml",
		APIURL:     " http://library.test ",
		DataDir:    "/tmp/libterm-data",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://library.test", cfg.APIURL)
	assert.Equal(t, "/tmp/libterm-data", cfg.DataDir)
	assert.Equal(t, "/", cfg.StartPath)
}
