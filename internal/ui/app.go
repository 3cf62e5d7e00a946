// Package ui is the desktop host: one window per whiteboard session plus a
// lobby window showing how to reach this instance.
package ui

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"LocalDoodle/internal/session"
)

type boardWindow struct {
	window  fyne.Window
	toolbar *Toolbar
}

// Shell owns the fyne application and the windows of open sessions.
type Shell struct {
	app        fyne.App
	title      string
	background color.Color
	logger     *slog.Logger

	lobby  fyne.Window
	status *widget.Label
	peers  *widget.Label

	boards map[string]*boardWindow
	mu     sync.Mutex
}

// NewShell creates the lobby window. It does not show it until Run.
func NewShell(a fyne.App, title string, background color.Color, logger *slog.Logger) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shell{
		app:        a,
		title:      title,
		background: background,
		logger:     logger,
		status:     widget.NewLabel("Ready"),
		peers:      widget.NewLabel("No boards open"),
		boards:     make(map[string]*boardWindow),
	}
	s.lobby = a.NewWindow(title)
	s.lobby.SetContent(container.NewVBox(s.status, widget.NewSeparator(), s.peers))
	s.lobby.Resize(fyne.NewSize(360, 120))
	s.lobby.SetMaster()
	return s
}

// Do runs fn on the UI goroutine.
func (s *Shell) Do(fn func()) {
	fyne.Do(fn)
}

// SetStatus updates the lobby status line. Safe from any goroutine.
func (s *Shell) SetStatus(text string) {
	fyne.Do(func() {
		s.status.SetText(text)
	})
}

// ShowLink puts a copyable share link into the lobby.
func (s *Shell) ShowLink(link string) {
	fyne.Do(func() {
		entry := widget.NewEntry()
		entry.SetText(link)
		copyBtn := widget.NewButton("Copy", func() {
			s.lobby.Clipboard().SetContent(link)
			s.status.SetText("Share link copied")
		})
		s.lobby.SetContent(container.NewVBox(
			s.status,
			container.NewBorder(nil, nil, widget.NewLabel("Share:"), copyBtn, entry),
			widget.NewSeparator(),
			s.peers,
		))
	})
}

// OpenBoard shows a window for sess. onClosed runs when the user closes it.
// Safe from any goroutine.
func (s *Shell) OpenBoard(sess *session.Session, onClosed func()) {
	fyne.Do(func() {
		s.openBoard(sess, onClosed)
	})
}

func (s *Shell) openBoard(sess *session.Session, onClosed func()) {
	s.mu.Lock()
	if _, ok := s.boards[sess.Peer]; ok {
		s.mu.Unlock()
		return
	}
	w := s.app.NewWindow(fmt.Sprintf("%s with %s", s.title, sess.Peer))
	bw := &boardWindow{window: w, toolbar: NewToolbar(sess.Renderer, s.background)}
	s.boards[sess.Peer] = bw
	s.mu.Unlock()

	board := NewBoard(sess)
	w.SetContent(container.NewBorder(bw.toolbar.Object(), nil, nil, nil, board))
	w.SetOnClosed(func() {
		if s.forget(sess.Peer, w) && onClosed != nil {
			onClosed()
		}
	})
	w.Show()
	s.refreshPeers()
	s.logger.Debug("board window opened", slog.String("peer", sess.Peer))
}

// CloseBoard closes the window of peer's session, if any. Safe from any
// goroutine.
func (s *Shell) CloseBoard(peer string) {
	fyne.Do(func() {
		s.mu.Lock()
		bw, ok := s.boards[peer]
		s.mu.Unlock()
		if !ok {
			return
		}
		s.forget(peer, bw.window)
		bw.window.Close()
	})
}

// SyncBrush refreshes the toolbar of peer's board after its brush changed
// remotely. Safe from any goroutine.
func (s *Shell) SyncBrush(peer string) {
	fyne.Do(func() {
		s.mu.Lock()
		bw, ok := s.boards[peer]
		s.mu.Unlock()
		if ok {
			bw.toolbar.Sync()
		}
	})
}

// forget drops the window bookkeeping and reports whether w was still
// registered for peer.
func (s *Shell) forget(peer string, w fyne.Window) bool {
	s.mu.Lock()
	bw, ok := s.boards[peer]
	if ok && bw.window == w {
		delete(s.boards, peer)
	} else {
		ok = false
	}
	s.mu.Unlock()
	if ok {
		s.refreshPeers()
	}
	return ok
}

// Boards returns the number of open board windows.
func (s *Shell) Boards() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.boards)
}

func (s *Shell) refreshPeers() {
	n := s.Boards()
	switch n {
	case 0:
		s.peers.SetText("No boards open")
	case 1:
		s.peers.SetText("1 board open")
	default:
		s.peers.SetText(fmt.Sprintf("%d boards open", n))
	}
}

// Run shows the lobby and blocks until the application quits. It must be
// called from the main goroutine.
func (s *Shell) Run() {
	s.lobby.ShowAndRun()
}

// Quit stops the application. Safe from any goroutine.
func (s *Shell) Quit() {
	s.app.Quit()
}
