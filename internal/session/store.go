package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tamsa/libterm/internal/storage"
)

// EventKind identifies a session lifecycle transition.
type EventKind int

const (
	EventLoginSucceeded EventKind = iota + 1
	EventSessionCleared
)

func (k EventKind) String() string {
	switch k {
	case EventLoginSucceeded:
		return "loginSucceeded"
	case EventSessionCleared:
		return "sessionCleared"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers after a transition has been applied.
type Event struct {
	Kind   EventKind
	Claims Claims // set for EventLoginSucceeded
}

// Store owns the session token. It is the only writer of session lifecycle
// transitions; claims are derived from the stored token on every read.
type Store struct {
	kv     storage.KV
	logger *slog.Logger

	mu        sync.Mutex
	listeners []func(Event)
}

// NewStore builds a Store backed by kv.
func NewStore(kv storage.KV, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kv, logger: logger}
}

// Subscribe registers fn for every subsequent event. Listeners run
// synchronously, in subscription order, after the store has been updated.
func (s *Store) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Token returns the stored token. Storage failures and tokens that do not
// decode read as no token.
func (s *Store) Token() (string, bool) {
	token, ok := s.stored()
	if !ok {
		return "", false
	}
	if _, ok := DecodeClaims(token); !ok {
		s.logger.Debug("ignoring malformed session token")
		return "", false
	}
	return token, true
}

func (s *Store) stored() (string, bool) {
	if s == nil || s.kv == nil {
		return "", false
	}
	value, err := s.kv.Get(context.Background(), storage.KeyToken)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("read session token failed", "error", err)
		}
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Claims decodes the current token.
func (s *Store) Claims() (Claims, bool) {
	token, ok := s.stored()
	if !ok {
		return Claims{}, false
	}
	return DecodeClaims(token)
}

// Present reports whether a syntactically valid token is stored.
func (s *Store) Present() bool {
	_, ok := s.Claims()
	return ok
}

// SetToken persists token, making the session present, and emits
// EventLoginSucceeded. A token that does not decode is rejected.
func (s *Store) SetToken(token string) error {
	token = strings.TrimSpace(token)
	claims, ok := DecodeClaims(token)
	if !ok {
		return fmt.Errorf("session token is malformed")
	}
	if s.kv == nil {
		return fmt.Errorf("session storage unavailable")
	}
	if err := s.kv.Set(context.Background(), storage.KeyToken, token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.logger.Info("session started", "username", claims.Username, "role", claims.Role)
	s.emit(Event{Kind: EventLoginSucceeded, Claims: claims})
	return nil
}

// Clear removes the token and emits EventSessionCleared. It is safe to call
// when no session exists.
func (s *Store) Clear() {
	if s.kv != nil {
		if err := s.kv.Delete(context.Background(), storage.KeyToken); err != nil {
			s.logger.Warn("remove session token failed", "error", err)
		}
	}
	s.logger.Info("session cleared")
	s.emit(Event{Kind: EventSessionCleared})
}

func (s *Store) emit(event Event) {
	s.mu.Lock()
	listeners := make([]func(Event), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(event)
	}
}
