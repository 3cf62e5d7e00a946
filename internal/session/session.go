// Package session keeps one whiteboard per remote peer: its canvas, its
// stroke renderer, and the lookup used to route incoming messages to it.
package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"LocalDoodle/internal/canvas"
	"LocalDoodle/internal/state"
)

var ErrNotFound = errors.New("session not found")

// Session is a whiteboard shared with one peer. Canvas and Renderer belong to
// the UI goroutine; the Apply methods hop onto it through the directory's
// dispatcher.
type Session struct {
	ID       string
	Peer     string
	Opened   time.Time
	Canvas   *canvas.Canvas
	Renderer *state.Renderer

	dispatch func(func())
	logger   *slog.Logger
}

// ApplyStroke draws a stroke received from the peer.
func (s *Session) ApplyStroke(list state.DrawList) {
	s.dispatch(func() {
		if err := s.Renderer.Replay(list); err != nil {
			s.logger.Warn("dropping remote stroke", slog.String("error", err.Error()))
		}
	})
}

// ApplyClear clears the canvas because the peer asked to.
func (s *Session) ApplyClear() {
	s.dispatch(s.Renderer.ClearLocal)
}

// ApplyBrush adopts the peer's brush.
func (s *Session) ApplyBrush(b state.Brush) {
	s.dispatch(func() {
		s.Renderer.ApplyBrush(b)
	})
}

func (s *Session) teardown() {
	s.dispatch(s.Renderer.Detach)
}

// Settings are what new sessions are created with.
type Settings struct {
	Width, Height  int
	Background     color.Color
	Brush          state.Brush
	FlushThreshold int
}

// Option configures a Directory.
type Option func(*Directory)

// WithDispatch sets how work is moved onto the UI goroutine. The default runs
// it inline.
func WithDispatch(fn func(func())) Option {
	return func(d *Directory) {
		if fn != nil {
			d.dispatch = fn
		}
	}
}

// WithOnOpen registers a callback run after a session is created.
func WithOnOpen(fn func(*Session)) Option {
	return func(d *Directory) {
		d.onOpen = fn
	}
}

// WithOnClose registers a callback run after a session is closed.
func WithOnClose(fn func(*Session)) Option {
	return func(d *Directory) {
		d.onClose = fn
	}
}

// WithLogger sets the directory's logger; sessions and renderers derive from
// it.
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) {
		if l != nil {
			d.logger = l
		}
	}
}

// Directory holds the open sessions keyed by normalised peer identity.
type Directory struct {
	settings Settings
	sender   state.Sender
	dispatch func(func())
	onOpen   func(*Session)
	onClose  func(*Session)
	logger   *slog.Logger

	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewDirectory creates an empty directory whose sessions send through sender.
func NewDirectory(settings Settings, sender state.Sender, opts ...Option) *Directory {
	if settings.Background == nil {
		settings.Background = color.White
	}
	d := &Directory{
		settings: settings,
		sender:   sender,
		dispatch: func(fn func()) { fn() },
		logger:   slog.Default(),
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open returns the session for peer, creating it if needed. A non-zero size
// overrides the configured canvas dimensions for a new session.
func (d *Directory) Open(peer string, size image.Point) (*Session, error) {
	id := state.NormalizeID(peer)
	if id == "" {
		return nil, fmt.Errorf("open session: empty peer identity")
	}

	d.mu.Lock()
	if s, ok := d.sessions[id]; ok {
		d.mu.Unlock()
		return s, nil
	}

	w, h := d.settings.Width, d.settings.Height
	if size.X > 0 && size.Y > 0 {
		w, h = size.X, size.Y
	}
	c, err := canvas.New(w, h, d.settings.Background)
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("open session with %s: %w", id, err)
	}

	logger := d.logger.With(slog.String("peer", id))
	s := &Session{
		ID:     uuid.NewString(),
		Peer:   id,
		Opened: time.Now(),
		Canvas: c,
		Renderer: state.NewRenderer(id, c, d.sender,
			state.WithBrush(d.settings.Brush),
			state.WithFlushThreshold(d.settings.FlushThreshold),
			state.WithLogger(d.logger)),
		dispatch: d.dispatch,
		logger:   logger,
	}
	d.sessions[id] = s
	d.mu.Unlock()

	logger.Info("session opened", slog.String("session", s.ID), slog.Int("width", w), slog.Int("height", h))
	if d.onOpen != nil {
		d.onOpen(s)
	}
	return s, nil
}

// Find looks up the session for peer.
func (d *Directory) Find(peer string) (*Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[state.NormalizeID(peer)]
	return s, ok
}

// Close tears down the session for peer. Its in-flight stroke is dropped.
func (d *Directory) Close(peer string) error {
	id := state.NormalizeID(peer)
	d.mu.Lock()
	s, ok := d.sessions[id]
	delete(d.sessions, id)
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("close %q: %w", id, ErrNotFound)
	}

	s.teardown()
	s.logger.Info("session closed", slog.String("session", s.ID))
	if d.onClose != nil {
		d.onClose(s)
	}
	return nil
}

// CloseAll tears down every session.
func (d *Directory) CloseAll() {
	for _, peer := range d.Peers() {
		_ = d.Close(peer)
	}
}

// Peers lists the identities with an open session, sorted.
func (d *Directory) Peers() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of open sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
