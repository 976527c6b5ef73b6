package ui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tamsa/libterm/internal/router"
)

// Screen is the router's Renderer. The router writes frames from whatever
// goroutine resolves a path; the Bubble Tea model reads them on redraw.
type Screen struct {
	mu       sync.Mutex
	frame    router.Frame
	header   router.Header
	delivery *router.Delivery
	version  uint64
	notify   chan struct{}
}

// NewScreen creates an empty Screen.
func NewScreen() *Screen {
	return &Screen{notify: make(chan struct{}, 1)}
}

// screenState is a consistent copy of the Screen.
type screenState struct {
	Frame    router.Frame
	Header   router.Header
	Delivery *router.Delivery
	Version  uint64
}

// Render replaces the frame and drops the previous frame's data.
func (s *Screen) Render(f router.Frame) {
	s.mu.Lock()
	s.frame = f
	s.delivery = nil
	s.version++
	s.mu.Unlock()
	s.poke()
}

// RefreshHeader replaces the header state.
func (s *Screen) RefreshHeader(h router.Header) {
	s.mu.Lock()
	changed := s.header != h
	s.header = h
	if changed {
		s.version++
	}
	s.mu.Unlock()
	if changed {
		s.poke()
	}
}

// Deliver attaches an action result to the frame it was launched for.
// Results for any other frame are dropped.
func (s *Screen) Deliver(d router.Delivery) {
	s.mu.Lock()
	if d.Seq != s.frame.Seq {
		s.mu.Unlock()
		return
	}
	s.delivery = &d
	s.version++
	s.mu.Unlock()
	s.poke()
}

// Changed is signalled after every update. Signals coalesce.
func (s *Screen) Changed() <-chan struct{} {
	return s.notify
}

func (s *Screen) snapshot() screenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := screenState{
		Frame:   s.frame,
		Header:  s.header,
		Version: s.version,
	}
	if s.delivery != nil {
		d := *s.delivery
		state.Delivery = &d
	}
	return state
}

func (s *Screen) poke() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

type redrawMsg struct{}

// waitForRedraw blocks until the screen changes or ctx ends.
func waitForRedraw(ctx context.Context, s *Screen) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.notify:
			return redrawMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}
