package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LocalDoodle/internal/session"
	"LocalDoodle/internal/state"
)

// Board shows one session's canvas and turns primary-button drags on it into
// pointer events for the session's renderer.
type Board struct {
	widget.BaseWidget

	session *session.Session
	image   *canvas.Image
	pressed bool
}

var _ fyne.Widget = (*Board)(nil)
var _ fyne.Draggable = (*Board)(nil)
var _ desktop.Mouseable = (*Board)(nil)

// NewBoard creates the widget for s. It must be called on the UI goroutine.
func NewBoard(s *session.Session) *Board {
	b := &Board{session: s}
	b.image = canvas.NewImageFromImage(s.Canvas.Image())
	b.image.FillMode = canvas.ImageFillStretch
	b.image.ScaleMode = canvas.ImageScalePixels
	size := s.Canvas.Bounds().Size()
	b.image.SetMinSize(fyne.NewSize(float32(size.X), float32(size.Y)))

	s.Canvas.OnInvalidate = func(image.Rectangle) {
		b.image.Refresh()
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *Board) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.image)
}

// pixel maps a widget position to canvas pixel coordinates. Drags that leave
// the widget are pinned to the canvas edge.
func (b *Board) pixel(pos fyne.Position) (int, int) {
	bounds := b.session.Canvas.Bounds().Size()
	size := b.Size()
	x, y := pos.X, pos.Y
	if size.Width > 0 && size.Height > 0 {
		x = x * float32(bounds.X) / size.Width
		y = y * float32(bounds.Y) / size.Height
	}
	return clamp(int(x), bounds.X-1), clamp(int(y), bounds.Y-1)
}

func clamp(v, hi int) int {
	return max(0, min(v, hi))
}

func (b *Board) handle(kind state.PointerKind, pos fyne.Position) {
	x, y := b.pixel(pos)
	b.session.Renderer.Handle(state.PointerEvent{Kind: kind, X: x, Y: y})
}

func (b *Board) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.pressed = true
	b.handle(state.PointerDown, e.Position)
}

func (b *Board) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !b.pressed {
		return
	}
	b.pressed = false
	b.handle(state.PointerUp, e.Position)
}

func (b *Board) Dragged(e *fyne.DragEvent) {
	if !b.pressed {
		return
	}
	b.handle(state.PointerMove, e.Position)
}

// DragEnd finishes the stroke when the release happened outside the widget
// and no MouseUp arrived.
func (b *Board) DragEnd() {
	if !b.pressed {
		return
	}
	b.pressed = false
	b.session.Renderer.Handle(state.PointerEvent{Kind: state.PointerUp})
}
