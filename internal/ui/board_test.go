package ui

import (
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/image/colornames"

	"LocalDoodle/internal/session"
	"LocalDoodle/internal/state"
)

type sent struct {
	strokes []state.DrawList
	clears  int
	brushes []state.Brush
}

func (s *sent) SendStroke(_ string, l state.DrawList) { s.strokes = append(s.strokes, l) }
func (s *sent) SendClear(string)                      { s.clears++ }
func (s *sent) SendBrush(_ string, b state.Brush)     { s.brushes = append(s.brushes, b) }

func newTestSession(t *testing.T, out *sent) *session.Session {
	t.Helper()
	d := session.NewDirectory(session.Settings{
		Width:      40,
		Height:     30,
		Background: color.White,
		Brush:      state.Brush{Size: 1, Color: 0xff0000},
	}, out, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s, err := d.Open("bob", image.Point{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mouse(x, y float32) *desktop.MouseEvent {
	return &desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	}
}

func drag(x, y float32) *fyne.DragEvent {
	return &fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}}
}

func TestBoard_DragDrawsAndSends(t *testing.T) {
	test.NewTempApp(t)
	out := &sent{}
	s := newTestSession(t, out)

	b := NewBoard(s)
	b.Resize(fyne.NewSize(40, 30))

	b.MouseDown(mouse(10, 10))
	b.Dragged(drag(13, 10))
	b.MouseUp(mouse(13, 10))
	b.DragEnd()

	if diff := cmp.Diff([]state.DrawList{{{10, 10}, {3, 0}}}, out.strokes); diff != "" {
		t.Errorf("sent strokes (-want +got):\n%s", diff)
	}
	for x := 10; x <= 13; x++ {
		if got := s.Canvas.RGBAAt(x, 10); got != (color.RGBA{255, 0, 0, 255}) {
			t.Errorf("pixel (%d,10) = %v, want red", x, got)
		}
	}
	if s.Renderer.State() != state.BrushUp {
		t.Errorf("state = %v after release", s.Renderer.State())
	}
}

func TestBoard_ScalesToCanvas(t *testing.T) {
	test.NewTempApp(t)
	out := &sent{}
	s := newTestSession(t, out)

	b := NewBoard(s)
	b.Resize(fyne.NewSize(80, 60))

	b.MouseDown(mouse(20, 20))
	b.DragEnd()

	if diff := cmp.Diff([]state.DrawList{{{10, 10}, {0, 0}, {0, 0}}}, out.strokes); diff != "" {
		t.Errorf("sent strokes (-want +got):\n%s", diff)
	}
}

func TestBoard_DragOutsidePinsToEdge(t *testing.T) {
	test.NewTempApp(t)
	out := &sent{}
	s := newTestSession(t, out)

	b := NewBoard(s)
	b.Resize(fyne.NewSize(40, 30))

	b.MouseDown(mouse(10, 10))
	b.Dragged(drag(500, -50))
	b.DragEnd()

	if diff := cmp.Diff([]state.DrawList{{{10, 10}, {29, -10}}}, out.strokes); diff != "" {
		t.Errorf("sent strokes (-want +got):\n%s", diff)
	}
	if got := s.Canvas.RGBAAt(39, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("edge pixel = %v, want red", got)
	}
}

func TestBoard_IgnoresSecondaryButton(t *testing.T) {
	test.NewTempApp(t)
	out := &sent{}
	s := newTestSession(t, out)
	b := NewBoard(s)

	ev := mouse(5, 5)
	ev.Button = desktop.MouseButtonSecondary
	b.MouseDown(ev)
	b.Dragged(drag(6, 6))
	b.MouseUp(ev)

	if len(out.strokes) != 0 {
		t.Errorf("secondary button sent %d strokes", len(out.strokes))
	}
}

func TestToolbar_Brush(t *testing.T) {
	test.NewTempApp(t)
	out := &sent{}
	s := newTestSession(t, out)
	tb := NewToolbar(s.Renderer, color.White)
	_ = tb.Object()

	tb.SelectColor(colornames.Blue)
	tb.Eraser()
	if _, ok := tb.Selected(); ok {
		t.Error("no swatch should be marked while erasing")
	}
	tb.Pen()

	want := []state.Brush{
		{Size: 1, Color: 0x0000ff},
		{Size: eraserSize, Color: 0xffffff},
		{Size: 2, Color: 0x0000ff},
	}
	if diff := cmp.Diff(want, out.brushes); diff != "" {
		t.Errorf("brushes (-want +got):\n%s", diff)
	}
	if tb.slider.Value != 2 {
		t.Errorf("slider = %v, want 2", tb.slider.Value)
	}
}

func TestToolbar_SyncAdoptsPeerColour(t *testing.T) {
	test.NewTempApp(t)
	out := &sent{}
	s := newTestSession(t, out)
	tb := NewToolbar(s.Renderer, color.White)
	_ = tb.Object()

	if c, ok := tb.Selected(); !ok || c != 0xff0000 {
		t.Errorf("selected = %v %v, want the initial red", c, ok)
	}

	s.ApplyBrush(state.Brush{Size: 4, Color: 0x0000ff})
	tb.Sync()
	if c, ok := tb.Selected(); !ok || c != 0x0000ff {
		t.Errorf("selected = %v %v, want blue after the peer's change", c, ok)
	}
	if tb.slider.Value != 4 {
		t.Errorf("slider = %v, want 4", tb.slider.Value)
	}

	// The peer erasing does not replace the pen.
	s.ApplyBrush(state.Brush{Size: eraserSize, Color: 0xffffff})
	tb.Sync()
	tb.Pen()

	want := []state.Brush{{Size: 2, Color: 0x0000ff}}
	if diff := cmp.Diff(want, out.brushes); diff != "" {
		t.Errorf("brushes (-want +got):\n%s", diff)
	}
}
