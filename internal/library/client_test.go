package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

type fakeSession struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (s *fakeSession) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

func (s *fakeSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.cleared++
}

func (s *fakeSession) clearCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleared
}

func newTestClient(t *testing.T, handler http.HandlerFunc, sess *fakeSession) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL, sess)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != defaultAPIURL {
		t.Fatalf("url = %q, want http://%s", u.String(), defaultAPIURL)
	}

	u, err = parseBaseURL("https://library.example.com:8443/api?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("expected error for missing host")
	}
}

func TestRequest_NoTokenFailsWithoutNetwork(t *testing.T) {
	hits := 0
	sess := &fakeSession{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
	}, sess)

	_, err := client.Courses(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want SessionExpired", err)
	}
	if err.Error() != "Session expired, please log in again." {
		t.Fatalf("message = %q", err.Error())
	}
	if hits != 0 {
		t.Fatalf("hits = %d, want 0", hits)
	}
	if sess.clearCount() != 1 {
		t.Fatalf("Clear called %d times, want 1", sess.clearCount())
	}
}

func TestRequest_AttachesBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID, gotAgent string
	sess := &fakeSession{token: "abc.def.ghi"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAgent = r.Header.Get("User-Agent")
		_ = json.NewEncoder(w).Encode([]Course{{ID: 1, Name: "Medicine"}})
	}, sess)

	courses, err := client.Courses(context.Background())
	if err != nil {
		t.Fatalf("Courses returned error: %v", err)
	}
	if len(courses) != 1 || courses[0].Name != "Medicine" {
		t.Fatalf("courses = %#v", courses)
	}
	if gotAuth != "Bearer abc.def.ghi" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("X-Request-ID not set")
	}
	if gotAgent != defaultUserAgent {
		t.Fatalf("User-Agent = %q, want %q", gotAgent, defaultUserAgent)
	}
}

func TestRequest_UnauthorizedClearsSession(t *testing.T) {
	sess := &fakeSession{token: "stale"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"msg":"Token has expired"}`))
	}, sess)

	err := client.CompleteTopic(context.Background(), 7)
	if KindOf(err) != KindSessionExpired {
		t.Fatalf("kind = %v, want SessionExpired", KindOf(err))
	}
	if sess.clearCount() != 1 {
		t.Fatalf("Clear called %d times, want 1", sess.clearCount())
	}
	if _, ok := sess.Token(); ok {
		t.Fatalf("token still present after 401")
	}
}

func TestRequest_ServerErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "message", body: `{"message":"Topic not found"}`, want: "Topic not found"},
		{name: "html", body: `<html>boom</html>`, want: "request failed"},
		{name: "no message", body: `{}`, want: "request failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &fakeSession{token: "tok"}
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(tc.body))
			}, sess)

			_, err := client.Topic(context.Background(), 99)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Kind != KindServer || apiErr.Status != http.StatusNotFound {
				t.Fatalf("err = %#v, want ServerError 404", apiErr)
			}
			if apiErr.Message != tc.want {
				t.Fatalf("message = %q, want %q", apiErr.Message, tc.want)
			}
			if sess.clearCount() != 0 {
				t.Fatalf("session cleared on server error")
			}
		})
	}
}

func TestRequest_InvalidBodyIsServerError(t *testing.T) {
	sess := &fakeSession{token: "tok"}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, sess)

	_, err := client.Progress(context.Background())
	if !errors.Is(err, ErrServer) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if err.Error() != invalidResponseMessage {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestRequest_TransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	sess := &fakeSession{token: "tok"}
	client, err := NewClient(url, sess)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = client.Users(context.Background())
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if sess.clearCount() != 0 {
		t.Fatalf("session cleared on network error")
	}
}

func TestLogin_IsPublicAndReturnsToken(t *testing.T) {
	var gotAuth string
	var gotBody LoginRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(LoginResponse{AccessToken: " t.o.k "})
	}, &fakeSession{})

	token, err := client.Login(context.Background(), "amina", "secret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if token != "t.o.k" {
		t.Fatalf("token = %q, want t.o.k", token)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization = %q, want empty", gotAuth)
	}
	if gotBody.Username != "amina" || gotBody.Password != "secret" {
		t.Fatalf("body = %#v", gotBody)
	}
}

func TestLogin_RejectedCredentialsAreServerError(t *testing.T) {
	sess := &fakeSession{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid username or password"}`))
	}, sess)

	_, err := client.Login(context.Background(), "amina", "nope")
	if KindOf(err) != KindServer || err.Error() != "Invalid username or password" {
		t.Fatalf("err = %v (%v), want ServerError with backend message", err, KindOf(err))
	}
	if sess.clearCount() != 0 {
		t.Fatalf("login failure cleared the session")
	}
}

func TestSearch_EncodesQueryAndSkipsEmpty(t *testing.T) {
	var gotQuery string
	hits := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		gotQuery = r.URL.Query().Get("q")
		_ = json.NewEncoder(w).Encode([]SearchResult{{Name: "Anatomy", Type: "topic", URL: "#/topics/7"}})
	}, &fakeSession{token: "tok"})

	results, err := client.Search(context.Background(), "  ")
	if err != nil || results != nil || hits != 0 {
		t.Fatalf("empty search = %v, %v, hits %d", results, err, hits)
	}

	results, err = client.Search(context.Background(), "heart & lungs")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if gotQuery != "heart & lungs" {
		t.Fatalf("q = %q", gotQuery)
	}
	if len(results) != 1 || results[0].Path() != "/topics/7" {
		t.Fatalf("results = %#v", results)
	}
}

func TestAPIError_IsMatchesByKind(t *testing.T) {
	err := serverError(500, "boom")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("server error does not match ErrServer")
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrSessionExpired) {
		t.Fatalf("server error matched another kind")
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Fatalf("KindOf(plain) != 0")
	}
	if IsSessionExpired(err) || !IsSessionExpired(sessionExpired(401)) {
		t.Fatalf("IsSessionExpired mismatch")
	}
}
