package session

import (
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"LocalDoodle/internal/state"
)

// loopback hands every stroke a session sends to the matching session of the
// other directory, like the network would.
type loopback struct {
	mu     sync.Mutex
	target *Directory
	self   string
	sent   int
}

func (l *loopback) SendStroke(peer string, list state.DrawList) {
	l.mu.Lock()
	l.sent++
	l.mu.Unlock()
	if s, ok := l.target.Find(l.self); ok {
		s.ApplyStroke(list)
	}
}

func (l *loopback) SendClear(string) {
	if s, ok := l.target.Find(l.self); ok {
		s.ApplyClear()
	}
}

func testSettings() Settings {
	return Settings{
		Width:          64,
		Height:         48,
		Background:     color.White,
		Brush:          state.Brush{Size: 3, Color: 0x0000ff},
		FlushThreshold: 10,
	}
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDirectory_OpenFindClose(t *testing.T) {
	var opened, closed []string
	d := NewDirectory(testSettings(), nil, quiet(),
		WithOnOpen(func(s *Session) { opened = append(opened, s.Peer) }),
		WithOnClose(func(s *Session) { closed = append(closed, s.Peer) }))

	s, err := d.Open(" Bob ", image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Peer != "bob" {
		t.Errorf("Peer = %q, want bob", s.Peer)
	}
	if got := s.Canvas.Bounds().Size(); got != (image.Point{64, 48}) {
		t.Errorf("canvas size = %v", got)
	}
	if s.Renderer.Threshold() != 10 || s.Renderer.Brush().Size != 3 {
		t.Errorf("renderer not configured from settings")
	}

	again, err := d.Open("BOB", image.Pt(10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if again != s {
		t.Error("Open with the same identity should return the existing session")
	}
	if found, ok := d.Find("bob"); !ok || found != s {
		t.Error("Find(bob) did not return the session")
	}

	if _, err := d.Open("carol", image.Pt(20, 30)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"bob", "carol"}, d.Peers()); diff != "" {
		t.Errorf("peers (-want +got):\n%s", diff)
	}
	if c, _ := d.Find("Carol"); c.Canvas.Bounds().Size() != image.Pt(20, 30) {
		t.Errorf("negotiated size ignored: %v", c.Canvas.Bounds().Size())
	}

	if err := d.Close("Bob"); err != nil {
		t.Fatal(err)
	}
	if err := d.Close("bob"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Close = %v, want ErrNotFound", err)
	}
	if _, ok := d.Find("bob"); ok {
		t.Error("closed session still found")
	}
	if s.Renderer.State() != state.BrushUp {
		t.Error("closed session's renderer should be idle")
	}

	d.CloseAll()
	if d.Len() != 0 {
		t.Errorf("Len after CloseAll = %d", d.Len())
	}
	if diff := cmp.Diff([]string{"bob", "carol"}, opened); diff != "" {
		t.Errorf("opened (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"bob", "carol"}, closed); diff != "" {
		t.Errorf("closed (-want +got):\n%s", diff)
	}
}

func TestDirectory_OpenRejects(t *testing.T) {
	d := NewDirectory(testSettings(), nil, quiet())
	if _, err := d.Open("   ", image.Point{}); err == nil {
		t.Error("blank identity should be rejected")
	}

	bad := testSettings()
	bad.Width = 0
	d = NewDirectory(bad, nil, quiet())
	if _, err := d.Open("bob", image.Point{}); err == nil {
		t.Error("zero width canvas should be rejected")
	}
}

func TestSession_RemoteMatchesLocal(t *testing.T) {
	toBob := &loopback{self: "alice"}
	toAlice := &loopback{self: "bob"}
	alice := NewDirectory(testSettings(), toBob, quiet())
	bob := NewDirectory(testSettings(), toAlice, quiet())
	toBob.target = bob
	toAlice.target = alice

	local, err := alice.Open("bob", image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	remote, err := bob.Open("alice", image.Point{})
	if err != nil {
		t.Fatal(err)
	}

	r := local.Renderer
	r.BeginStroke(5, 5)
	for i := 1; i <= 25; i++ {
		r.ExtendStroke(5+i, 5+i/2)
	}
	r.EndStroke(0, 0)

	r.BeginStroke(40, 40)
	r.EndStroke(40, 40)

	if toBob.sent != 4 {
		t.Errorf("sent %d draw lists, want 4", toBob.sent)
	}
	assertSamePixels(t, local, remote)

	r.Clear()
	assertSamePixels(t, local, remote)
	if got := remote.Canvas.RGBAAt(6, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("remote pixel after clear = %v", got)
	}
}

func TestSession_StraySampleKeepsCanvasesEqual(t *testing.T) {
	toBob := &loopback{self: "alice"}
	alice := NewDirectory(testSettings(), toBob, quiet())
	bob := NewDirectory(testSettings(), nil, quiet())
	toBob.target = bob

	local, err := alice.Open("bob", image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	remote, err := bob.Open("alice", image.Point{})
	if err != nil {
		t.Fatal(err)
	}

	local.Renderer.ExtendStroke(20, 20)
	local.Renderer.EndStroke(20, 20)

	if toBob.sent != 0 {
		t.Errorf("sent %d draw lists, want none", toBob.sent)
	}
	assertSamePixels(t, local, remote)
}

func TestSession_DropsOffCanvasStroke(t *testing.T) {
	d := NewDirectory(testSettings(), nil, quiet())
	s, err := d.Open("bob", image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	s.ApplyStroke(state.DrawList{{0, 0}, {1 << 40, 0}})
	s.ApplyStroke(state.DrawList{{10, 10}, {2, 0}})

	if got := s.Canvas.RGBAAt(11, 10); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("stroke after a dropped one not drawn, pixel = %v", got)
	}
}

func TestSession_ApplyBrushUsesDispatch(t *testing.T) {
	var calls int
	d := NewDirectory(testSettings(), nil, quiet(),
		WithDispatch(func(fn func()) {
			calls++
			fn()
		}))
	s, err := d.Open("bob", image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	s.ApplyBrush(state.Brush{Size: 8, Color: 0x123456})
	if calls != 1 {
		t.Errorf("dispatch called %d times, want 1", calls)
	}
	if got := s.Renderer.Brush(); got != (state.Brush{Size: 8, Color: 0x123456}) {
		t.Errorf("brush = %+v", got)
	}

	s.ApplyStroke(nil)
	if calls != 2 {
		t.Errorf("dispatch called %d times, want 2", calls)
	}
}

func assertSamePixels(t *testing.T, a, b *Session) {
	t.Helper()
	ab, bb := a.Canvas.Bounds(), b.Canvas.Bounds()
	if ab != bb {
		t.Fatalf("bounds differ: %v vs %v", ab, bb)
	}
	for y := ab.Min.Y; y < ab.Max.Y; y++ {
		for x := ab.Min.X; x < ab.Max.X; x++ {
			if pa, pb := a.Canvas.RGBAAt(x, y), b.Canvas.RGBAAt(x, y); pa != pb {
				t.Fatalf("pixel (%d,%d): local %v, remote %v", x, y, pa, pb)
			}
		}
	}
}
