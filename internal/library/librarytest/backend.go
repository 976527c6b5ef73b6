// Package librarytest runs an in-process fake of the library backend for tests.
package librarytest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/tamsa/libterm/internal/library"
	"github.com/tamsa/libterm/internal/session/sessiontest"
)

// Account is a user the fake backend accepts.
type Account struct {
	Password string
	Email    string
	Role     string
}

type failure struct {
	status  int
	message string
}

// Backend is a fake backend seeded with a small catalogue.
type Backend struct {
	mu         sync.Mutex
	accounts   map[string]Account
	tokens     map[string]string // token -> username
	courses    []library.Course
	modules    map[int64][]library.Module
	topics     map[int64][]library.TopicSummary
	pages      map[int64]library.Topic
	completed  map[string]map[int64]bool
	hits       map[string]int
	failures   map[string]failure
	gates      map[string]chan struct{}
	lastHeader http.Header

	server *httptest.Server
}

// New starts a Backend and stops it when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		accounts: map[string]Account{
			"amina": {Password: "secret", Email: "amina@example.com", Role: "admin"},
			"kofi":  {Password: "secret", Email: "kofi@example.com", Role: "student"},
		},
		tokens: make(map[string]string),
		courses: []library.Course{
			{ID: 1, Name: "Medicine", Description: "Pre-clinical sciences"},
			{ID: 2, Name: "Pharmacy", Description: "Drug handling"},
		},
		modules: map[int64][]library.Module{
			1: {{ID: 3, Name: "Foundations", Description: "Year one"}},
		},
		topics: map[int64][]library.TopicSummary{
			3: {{ID: 7, Name: "Anatomy"}, {ID: 8, Name: "Physiology"}},
		},
		pages: map[int64]library.Topic{
			7: {ID: 7, Name: "Anatomy", Content: "<p>..</p>", Resources: []library.Resource{}},
			8: {ID: 8, Name: "Physiology", Content: "<h2>Cells</h2><p>Homeostasis &amp; feedback.</p>",
				Resources: []library.Resource{{Name: "Slides", PathOrURL: "https://example.org/s.pdf", ResourceType: "pdf"}}},
		},
		completed: make(map[string]map[int64]bool),
		hits:      make(map[string]int),
		failures:  make(map[string]failure),
		gates:     make(map[string]chan struct{}),
	}

	r := mux.NewRouter()
	r.Use(b.count)
	r.HandleFunc("/ping", b.ping).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", b.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", b.register).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", b.authed(b.progress)).Methods(http.MethodGet)
	r.HandleFunc("/api/topics/{id:[0-9]+}/complete", b.authed(b.complete)).Methods(http.MethodPost)
	r.HandleFunc("/admin/courses", b.authed(b.listCourses)).Methods(http.MethodGet)
	r.HandleFunc("/admin/courses/{id:[0-9]+}", b.authed(b.getCourse)).Methods(http.MethodGet)
	r.HandleFunc("/admin/users", b.authed(b.listUsers)).Methods(http.MethodGet)
	r.HandleFunc("/courses/{id:[0-9]+}/modules", b.authed(b.listModules)).Methods(http.MethodGet)
	r.HandleFunc("/modules/{id:[0-9]+}/topics", b.authed(b.listTopics)).Methods(http.MethodGet)
	r.HandleFunc("/topics/{id:[0-9]+}", b.authed(b.getTopic)).Methods(http.MethodGet)
	r.HandleFunc("/search", b.authed(b.search)).Methods(http.MethodGet)

	b.server = httptest.NewServer(r)
	t.Cleanup(func() {
		b.releaseAll()
		b.server.Close()
	})
	return b
}

// URL is the backend's base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Hits returns how many requests reached path.
func (b *Backend) Hits(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

// LastHeader returns the headers of the most recent request.
func (b *Backend) LastHeader() http.Header {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastHeader.Clone()
}

// Issue returns a token the backend accepts for username.
func (b *Backend) Issue(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(username)
}

// RevokeAll makes every issued token answer 401.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]string)
}

// Fail makes every request to path answer status with message. An empty
// message answers with a non-JSON body.
func (b *Backend) Fail(path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[path] = failure{status: status, message: message}
}

// Hold blocks requests to path until the returned release func is called.
func (b *Backend) Hold(path string) (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	gate := make(chan struct{})
	b.gates[path] = gate
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gates[path] == gate {
				delete(b.gates, path)
			}
			b.mu.Unlock()
			close(gate)
		})
	}
}

// SetCompleted seeds the completed topics for username.
func (b *Backend) SetCompleted(username string, ids ...int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	b.completed[username] = set
}

func (b *Backend) releaseAll() {
	b.mu.Lock()
	gates := b.gates
	b.gates = make(map[string]chan struct{})
	b.mu.Unlock()
	for _, gate := range gates {
		close(gate)
	}
}

func (b *Backend) issueLocked(username string) string {
	account := b.accounts[username]
	token := sessiontest.Token(username, account.Role)
	b.tokens[token] = username
	return token
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.URL.Path]++
		b.lastHeader = r.Header.Clone()
		fail, failing := b.failures[r.URL.Path]
		gate := b.gates[r.URL.Path]
		b.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			if fail.message == "" {
				w.WriteHeader(fail.status)
				_, _ = w.Write([]byte("<html>oops</html>"))
				return
			}
			writeJSON(w, fail.status, library.MessageResponse{Message: fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, username string)

func (b *Backend) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		b.mu.Lock()
		username, ok := b.tokens[token]
		b.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token has expired"})
			return
		}
		next(w, r, username)
	}
}

func (b *Backend) ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, library.MessageResponse{Message: "pong!"})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req library.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, library.MessageResponse{Message: "Missing username or password"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	account, ok := b.accounts[req.Username]
	if !ok || account.Password != req.Password {
		writeJSON(w, http.StatusUnauthorized, library.MessageResponse{Message: "Invalid username or password"})
		return
	}
	writeJSON(w, http.StatusOK, library.LoginResponse{AccessToken: b.issueLocked(req.Username)})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req library.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, library.MessageResponse{Message: "Missing username, email, or password"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[req.Username]; exists {
		writeJSON(w, http.StatusBadRequest, library.MessageResponse{Message: "Username already exists"})
		return
	}
	b.accounts[req.Username] = Account{Password: req.Password, Email: req.Email, Role: "student"}
	writeJSON(w, http.StatusCreated, library.MessageResponse{Message: "User registered successfully"})
}

func (b *Backend) progress(w http.ResponseWriter, _ *http.Request, username string) {
	b.mu.Lock()
	ids := make([]int64, 0, len(b.completed[username]))
	for id := range b.completed[username] {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	writeJSON(w, http.StatusOK, library.ProgressResponse{CompletedTopicIDs: ids})
}

func (b *Backend) complete(w http.ResponseWriter, r *http.Request, username string) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pages[id]; !ok {
		writeJSON(w, http.StatusNotFound, library.MessageResponse{Message: "Topic not found"})
		return
	}
	if b.completed[username] == nil {
		b.completed[username] = make(map[int64]bool)
	}
	b.completed[username][id] = true
	writeJSON(w, http.StatusCreated, map[string]any{})
}

func (b *Backend) listCourses(w http.ResponseWriter, _ *http.Request, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.courses)
}

func (b *Backend) getCourse(w http.ResponseWriter, r *http.Request, _ string) {
	id := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.courses {
		if c.ID == id {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	http.NotFound(w, r)
}

func (b *Backend) listUsers(w http.ResponseWriter, _ *http.Request, username string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.accounts[username].Role != "admin" {
		writeJSON(w, http.StatusForbidden, library.MessageResponse{Message: "Admins only!"})
		return
	}
	names := make([]string, 0, len(b.accounts))
	for name := range b.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	users := make([]library.User, 0, len(names))
	for i, name := range names {
		a := b.accounts[name]
		users = append(users, library.User{ID: int64(i + 1), Username: name, Email: a.Email, Role: a.Role})
	}
	writeJSON(w, http.StatusOK, users)
}

func (b *Backend) listModules(w http.ResponseWriter, r *http.Request, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	modules := b.modules[pathID(r)]
	if modules == nil {
		modules = []library.Module{}
	}
	writeJSON(w, http.StatusOK, modules)
}

func (b *Backend) listTopics(w http.ResponseWriter, r *http.Request, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	topics := b.topics[pathID(r)]
	if topics == nil {
		topics = []library.TopicSummary{}
	}
	writeJSON(w, http.StatusOK, topics)
}

func (b *Backend) getTopic(w http.ResponseWriter, r *http.Request, _ string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	topic, ok := b.pages[pathID(r)]
	if !ok {
		writeJSON(w, http.StatusNotFound, library.MessageResponse{Message: "Topic not found"})
		return
	}
	writeJSON(w, http.StatusOK, topic)
}

func (b *Backend) search(w http.ResponseWriter, r *http.Request, _ string) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	b.mu.Lock()
	defer b.mu.Unlock()
	results := []library.SearchResult{}
	for _, c := range b.courses {
		if q != "" && strings.Contains(strings.ToLower(c.Name), q) {
			results = append(results, library.SearchResult{Name: c.Name, Type: "course", URL: "#/courses/" + strconv.FormatInt(c.ID, 10)})
		}
	}
	ids := make([]int64, 0, len(b.pages))
	for id := range b.pages {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if t := b.pages[id]; q != "" && strings.Contains(strings.ToLower(t.Name), q) {
			results = append(results, library.SearchResult{Name: t.Name, Type: "topic", URL: "#/topics/" + strconv.FormatInt(id, 10)})
		}
	}
	writeJSON(w, http.StatusOK, results)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
