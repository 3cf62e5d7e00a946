package state

import (
	"image"
	"image/color"
	"log/slog"
)

// DefaultFlushThreshold is the number of motion samples after which a stroke
// still in progress is sent to the peer.
const DefaultFlushThreshold = 100

// Surface is the raster the renderer draws on.
type Surface interface {
	Bounds() image.Rectangle
	Background() color.Color
	Fill(r image.Rectangle, c color.Color)
	DrawPoint(x, y int, c color.Color, size int)
	DrawLine(p0, p1 image.Point, c color.Color, size int)
	Invalidate(r image.Rectangle)
}

// Sender hands finished or batched strokes to the transport. Calls must not
// block; delivery is the transport's problem.
type Sender interface {
	SendStroke(peer string, list DrawList)
	SendClear(peer string)
}

// BrushSender is implemented by transports that propagate brush changes.
type BrushSender interface {
	SendBrush(peer string, b Brush)
}

// Renderer turns the pointer events of one whiteboard session into brush
// drawing on a Surface and into DrawLists for the remote peer.
//
// A Renderer is owned by the goroutine that delivers pointer events and is not
// safe for concurrent use.
type Renderer struct {
	peer      string
	surface   Surface
	sender    Sender
	logger    *slog.Logger
	threshold int

	brush   Brush
	state   BrushState
	last    image.Point
	motions int
	moved   bool
	pending DrawList
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithFlushThreshold sets how many motion samples are buffered before a
// mid-stroke flush. Values below one are ignored.
func WithFlushThreshold(n int) RendererOption {
	return func(r *Renderer) {
		if n > 0 {
			r.threshold = n
		}
	}
}

// WithBrush sets the initial brush.
func WithBrush(b Brush) RendererOption {
	return func(r *Renderer) {
		r.brush = b
	}
}

// WithLogger sets the logger used for state violations and flushes.
func WithLogger(l *slog.Logger) RendererOption {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer creates a renderer for the session with peer. Either surface or
// sender may be nil; the corresponding side effects are then skipped.
func NewRenderer(peer string, surface Surface, sender Sender, opts ...RendererOption) *Renderer {
	r := &Renderer{
		peer:      peer,
		surface:   surface,
		sender:    sender,
		logger:    slog.Default(),
		threshold: DefaultFlushThreshold,
		brush:     Brush{Size: 2, Color: 0xff0000},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.brush.Size < 1 {
		r.brush.Size = 1
	}
	r.logger = r.logger.With(slog.String("peer", peer))
	return r
}

func (r *Renderer) Peer() string      { return r.peer }
func (r *Renderer) State() BrushState { return r.state }
func (r *Renderer) Brush() Brush      { return r.brush }
func (r *Renderer) Threshold() int    { return r.threshold }

// Pending returns a copy of the points buffered for the next flush.
func (r *Renderer) Pending() DrawList {
	return append(DrawList(nil), r.pending...)
}

// BeginStroke starts a stroke at (x, y).
func (r *Renderer) BeginStroke(x, y int) {
	if r.state != BrushUp {
		r.logger.Warn("stroke restarted", slog.String("state", r.state.String()))
	}
	r.state = BrushDown
	r.last = image.Pt(x, y)
	r.motions = 0
	r.moved = false
	r.pending = DrawList{r.last}

	r.drawPoint(r.last)
}

// ExtendStroke records one pointer motion sample while the button is held.
func (r *Renderer) ExtendStroke(x, y int) {
	p := image.Pt(x, y)
	if r.state != BrushDown && r.state != BrushMotion {
		r.logger.Error("bad brush state transition",
			slog.String("from", r.state.String()),
			slog.String("to", BrushMotion.String()))
		// The sample is ignored. It only anchors the next motion, which
		// starts a new list from here.
		r.state = BrushMotion
		r.last = p
		r.motions = 0
		r.moved = false
		r.pending = nil
		return
	}
	r.state = BrushMotion
	if len(r.pending) == 0 {
		r.pending = DrawList{r.last}
	}

	d := p.Sub(r.last)
	r.motions++
	r.moved = true

	if r.motions >= r.threshold {
		r.flush()
		r.pending = DrawList{r.last}
		r.motions = 0
	}
	r.pending = append(r.pending, d)

	r.drawLine(r.last, p)
	r.last = p
}

// EndStroke finishes the stroke and sends whatever is still buffered. The
// release position is not part of the stroke; motion samples carry the path.
func (r *Renderer) EndStroke(x, y int) {
	if r.state != BrushDown && r.state != BrushMotion {
		r.logger.Error("bad brush state transition",
			slog.String("from", r.state.String()),
			slog.String("to", BrushUp.String()),
			slog.Int("x", x), slog.Int("y", y))
		r.state = BrushUp
		return
	}
	r.state = BrushUp

	if !r.moved && len(r.pending) > 0 {
		r.pending = append(r.pending, endMarker, endMarker)
	}
	r.flush()
	r.pending = nil
	r.motions = 0
	r.moved = false
}

// Handle applies a pointer event.
func (r *Renderer) Handle(ev PointerEvent) {
	switch ev.Kind {
	case PointerDown:
		r.BeginStroke(ev.X, ev.Y)
	case PointerMove:
		r.ExtendStroke(ev.X, ev.Y)
	case PointerUp:
		r.EndStroke(ev.X, ev.Y)
	default:
		r.logger.Warn("unknown pointer event", slog.Int("kind", int(ev.Kind)))
	}
}

// SetBrush replaces the brush and tells the peer when the transport supports
// it.
func (r *Renderer) SetBrush(size int, c RGB) {
	r.applyBrush(size, c)
	if bs, ok := r.sender.(BrushSender); ok {
		bs.SendBrush(r.peer, r.brush)
	}
}

// ApplyBrush replaces the brush without notifying the peer. It is used for
// brush changes that came from the peer.
func (r *Renderer) ApplyBrush(b Brush) {
	r.applyBrush(b.Size, b.Color)
}

func (r *Renderer) applyBrush(size int, c RGB) {
	if size < 1 {
		r.logger.Warn("brush size clamped", slog.Int("size", size))
		size = 1
	}
	r.brush = Brush{Size: size, Color: c}
}

// Clear wipes the canvas and asks the peer to do the same.
func (r *Renderer) Clear() {
	r.ClearLocal()
	if r.sender != nil {
		r.sender.SendClear(r.peer)
	}
}

// ClearLocal wipes the canvas only.
func (r *Renderer) ClearLocal() {
	if r.surface == nil {
		return
	}
	b := r.surface.Bounds()
	r.surface.Fill(b, r.surface.Background())
	r.surface.Invalidate(b)
}

// Detach tears the renderer down: the in-flight stroke is dropped without
// being sent and later drawing becomes a no-op.
func (r *Renderer) Detach() {
	if len(r.pending) > 0 {
		r.logger.Debug("discarding in-flight stroke", slog.Int("points", len(r.pending)))
	}
	r.surface = nil
	r.pending = nil
	r.state = BrushUp
	r.motions = 0
	r.moved = false
}

func (r *Renderer) flush() {
	if len(r.pending) == 0 {
		return
	}
	r.logger.Debug("flushing stroke", slog.Int("points", len(r.pending)))
	if r.sender != nil {
		r.sender.SendStroke(r.peer, r.pending)
	}
}

func (r *Renderer) drawPoint(p image.Point) {
	if r.surface == nil {
		return
	}
	r.surface.DrawPoint(p.X, p.Y, r.brush.Color.Color(), r.brush.Size)
}

func (r *Renderer) drawLine(p0, p1 image.Point) {
	if r.surface == nil {
		return
	}
	r.surface.DrawLine(p0, p1, r.brush.Color.Color(), r.brush.Size)
}
