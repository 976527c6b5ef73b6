package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is the slice of the session store the client needs.
type Session interface {
	Token() (string, bool)
	Clear()
}

// Client talks to the library backend. Every authorized call goes through
// Request, which owns token attachment and session expiry.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	session   Session
	logger    *slog.Logger
}

const (
	defaultAPIURL    = "127.0.0.1:5000"
	defaultUserAgent = "libterm/0.1"
)

// Option customizes a Client.
type Option func(*Client)

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient builds a Client for the backend at apiURL.
func NewClient(apiURL string, session Session, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, fmt.Errorf("session is nil")
	}
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{},
		userAgent: defaultUserAgent,
		session:   session,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request performs an authorized call and decodes a successful JSON body
// into dest (nil discards it). Failures are always *APIError. A missing token
// or a 401 clears the session and yields SessionExpired. No retries.
func (c *Client) Request(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	token, ok := c.session.Token()
	if !ok {
		c.logger.Info("no session token, skipping request", "method", method, "path", path)
		c.session.Clear()
		return sessionExpired(0)
	}

	resp, err := c.send(ctx, method, path, body, token)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Info("session rejected by backend", "method", method, "path", path)
		c.session.Clear()
		return sessionExpired(resp.StatusCode)
	}
	return c.decode(resp, method, path, dest)
}

// do is Request for endpoints that take no token.
func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	resp, err := c.send(ctx, method, path, body, "")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return c.decode(resp, method, path, dest)
}

func (c *Client) send(ctx context.Context, method, path string, body any, token string) (*http.Response, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return nil, networkError(fmt.Errorf("parse path %q: %w", path, err))
	}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, networkError(fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, networkError(fmt.Errorf("create request: %w", err))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", rel.Path, "request_id", requestID, "error", err)
		return nil, networkError(fmt.Errorf("execute request: %w", err))
	}
	c.logger.Debug("request done",
		"method", method,
		"path", rel.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"elapsed", time.Since(started))
	return resp, nil
}

func (c *Client) decode(resp *http.Response, method, path string, dest any) error {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := readMessage(resp.Body)
		c.logger.Info("backend returned error", "method", method, "path", path, "status", resp.StatusCode, "message", message)
		return serverError(resp.StatusCode, message)
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return &APIError{
			Kind:    KindServer,
			Status:  resp.StatusCode,
			Message: invalidResponseMessage,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func readMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 1<<20)).Decode(&payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Message)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var payload LoginResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &payload); err != nil {
		return "", err
	}
	token := strings.TrimSpace(payload.AccessToken)
	if token == "" {
		return "", serverError(http.StatusOK, "login response missing access_token")
	}
	return token, nil
}

// Register creates an account and returns the backend's confirmation message.
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var payload MessageResponse
	req := RegisterRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// Ping checks the backend is reachable.
func (c *Client) Ping(ctx context.Context) (string, error) {
	var payload MessageResponse
	if err := c.do(ctx, http.MethodGet, "/ping", nil, &payload); err != nil {
		return "", err
	}
	return payload.Message, nil
}

// Progress returns the ids of topics the user has completed.
func (c *Client) Progress(ctx context.Context) ([]int64, error) {
	var payload ProgressResponse
	if err := c.Request(ctx, http.MethodGet, "/api/progress", nil, &payload); err != nil {
		return nil, err
	}
	return payload.CompletedTopicIDs, nil
}

// CompleteTopic marks a topic complete for the current user.
func (c *Client) CompleteTopic(ctx context.Context, topicID int64) error {
	return c.Request(ctx, http.MethodPost, "/api/topics/"+formatID(topicID)+"/complete", nil, nil)
}

// Courses lists every course.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	var payload []Course
	if err := c.Request(ctx, http.MethodGet, "/admin/courses", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Course fetches a single course.
func (c *Client) Course(ctx context.Context, courseID int64) (Course, error) {
	var payload Course
	if err := c.Request(ctx, http.MethodGet, "/admin/courses/"+formatID(courseID), nil, &payload); err != nil {
		return Course{}, err
	}
	return payload, nil
}

// Modules lists the modules of a course.
func (c *Client) Modules(ctx context.Context, courseID int64) ([]Module, error) {
	var payload []Module
	if err := c.Request(ctx, http.MethodGet, "/courses/"+formatID(courseID)+"/modules", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Topics lists the topics of a module.
func (c *Client) Topics(ctx context.Context, moduleID int64) ([]TopicSummary, error) {
	var payload []TopicSummary
	if err := c.Request(ctx, http.MethodGet, "/modules/"+formatID(moduleID)+"/topics", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Topic fetches a topic with its content and resources.
func (c *Client) Topic(ctx context.Context, topicID int64) (Topic, error) {
	var payload Topic
	if err := c.Request(ctx, http.MethodGet, "/topics/"+formatID(topicID), nil, &payload); err != nil {
		return Topic{}, err
	}
	return payload, nil
}

// Users lists accounts. The backend restricts this to admins.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var payload []User
	if err := c.Request(ctx, http.MethodGet, "/admin/users", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// Search runs a catalogue search.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	rel := &url.URL{Path: "/search", RawQuery: url.Values{"q": []string{query}}.Encode()}
	var payload []SearchResult
	if err := c.Request(ctx, http.MethodGet, rel.String(), nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// IsSessionExpired reports whether err means the session is gone.
func IsSessionExpired(err error) bool {
	return errors.Is(err, ErrSessionExpired)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
