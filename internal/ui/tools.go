package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/image/colornames"

	"LocalDoodle/internal/state"
)

const (
	minBrushSize = 1
	maxBrushSize = 50
	eraserSize   = 20
	swatchSize   = 32
)

// Palette offered by the toolbar.
var palette = []color.Color{
	colornames.Black,
	colornames.Red,
	colornames.Lime,
	colornames.Blue,
	colornames.Yellow,
	colornames.Orange,
}

// swatch is one palette entry. The selected one is drawn with a heavier
// outline.
type swatch struct {
	widget.BaseWidget
	color    state.RGB
	selected bool
	onTap    func(state.RGB)
}

func newSwatch(c state.RGB, onTap func(state.RGB)) *swatch {
	s := &swatch{color: c, onTap: onTap}
	s.ExtendBaseWidget(s)
	return s
}

func (s *swatch) setSelected(on bool) {
	if s.selected == on {
		return
	}
	s.selected = on
	s.Refresh()
}

func (s *swatch) CreateRenderer() fyne.WidgetRenderer {
	fill := canvas.NewRectangle(s.color.Color())
	fill.SetMinSize(fyne.NewSize(swatchSize, swatchSize))
	outline := canvas.NewRectangle(color.Transparent)
	r := &swatchRenderer{swatch: s, fill: fill, outline: outline}
	r.Refresh()
	return r
}

func (s *swatch) Tapped(_ *fyne.PointEvent) {
	if s.onTap != nil {
		s.onTap(s.color)
	}
}

type swatchRenderer struct {
	swatch  *swatch
	fill    *canvas.Rectangle
	outline *canvas.Rectangle
}

func (r *swatchRenderer) Layout(size fyne.Size) {
	r.fill.Resize(size)
	r.outline.Resize(size)
}

func (r *swatchRenderer) MinSize() fyne.Size { return r.fill.MinSize() }

func (r *swatchRenderer) Refresh() {
	if r.swatch.selected {
		r.outline.StrokeColor = theme.Color(theme.ColorNamePrimary)
		r.outline.StrokeWidth = 3
	} else {
		r.outline.StrokeColor = color.Gray{Y: 150}
		r.outline.StrokeWidth = 1
	}
	r.fill.Refresh()
	r.outline.Refresh()
}

func (r *swatchRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.fill, r.outline}
}

func (r *swatchRenderer) Destroy() {}

// Toolbar edits the brush of one session and clears its board.
type Toolbar struct {
	renderer   *state.Renderer
	background state.RGB
	pen        state.RGB
	slider     *widget.Slider
	swatches   []*swatch
}

// NewToolbar builds the toolbar for r on a board painted bg. It must be called
// on the UI goroutine.
func NewToolbar(r *state.Renderer, bg color.Color) *Toolbar {
	t := &Toolbar{renderer: r, background: state.FromColor(bg), pen: r.Brush().Color}
	t.slider = widget.NewSlider(minBrushSize, maxBrushSize)
	t.slider.Step = 1
	t.slider.SetValue(float64(r.Brush().Size))
	t.slider.OnChangeEnded = func(v float64) {
		t.renderer.SetBrush(int(v), t.renderer.Brush().Color)
	}
	for _, c := range palette {
		t.swatches = append(t.swatches, newSwatch(state.FromColor(c), func(c state.RGB) { t.SelectColor(c) }))
	}
	t.highlight()
	return t
}

// SelectColor switches the pen to c keeping the current size.
func (t *Toolbar) SelectColor(c color.Color) {
	t.pen = state.FromColor(c)
	t.renderer.SetBrush(t.renderer.Brush().Size, t.pen)
	t.highlight()
}

// Pen restores the last selected colour after the eraser was used.
func (t *Toolbar) Pen() {
	size := t.renderer.Brush().Size
	if size >= eraserSize {
		size = minBrushSize + 1
	}
	t.renderer.SetBrush(size, t.pen)
	t.showSize(size)
	t.highlight()
}

// Eraser paints with the board background.
func (t *Toolbar) Eraser() {
	t.renderer.SetBrush(eraserSize, t.background)
	t.showSize(eraserSize)
	t.highlight()
}

// Sync shows the renderer's brush after the peer changed it. A colour other
// than the background becomes the pen that Pen returns to.
func (t *Toolbar) Sync() {
	b := t.renderer.Brush()
	if b.Color != t.background {
		t.pen = b.Color
	}
	t.showSize(b.Size)
	t.highlight()
}

// Selected returns the palette colour currently marked, if any.
func (t *Toolbar) Selected() (state.RGB, bool) {
	for _, s := range t.swatches {
		if s.selected {
			return s.color, true
		}
	}
	return 0, false
}

// highlight marks the swatch of the brush colour in use.
func (t *Toolbar) highlight() {
	current := t.renderer.Brush().Color
	for _, s := range t.swatches {
		s.setSelected(s.color == current)
	}
}

// showSize moves the slider without sending the brush again.
func (t *Toolbar) showSize(n int) {
	ended := t.slider.OnChangeEnded
	t.slider.OnChangeEnded = nil
	t.slider.SetValue(float64(n))
	t.slider.OnChangeEnded = ended
}

// Object lays the toolbar out.
func (t *Toolbar) Object() fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), t.Pen),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), t.Eraser),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DeleteIcon(), t.renderer.Clear),
	)

	swatches := make([]fyne.CanvasObject, 0, len(t.swatches))
	for _, s := range t.swatches {
		swatches = append(swatches, s)
	}

	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), t.slider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		container.NewHBox(swatches...),
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
