// Package canvas implements the fixed-size raster a whiteboard session draws
// on.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Brushes narrower than this are stamped as squares; small discs look worse
// than squares at that size.
const roundBrushMin = 5

var ErrInvalidSize = errors.New("invalid canvas size")

// Canvas is an RGBA raster with a background colour. Its size is fixed at
// creation. A Canvas is not safe for concurrent use.
type Canvas struct {
	img *image.RGBA
	bg  color.RGBA

	// OnInvalidate, when set, is called with every region that changed.
	OnInvalidate func(image.Rectangle)
}

// New creates a width×height canvas filled with bg.
func New(width, height int, bg color.Color) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	c := &Canvas{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		bg:  color.RGBAModel.Convert(bg).(color.RGBA),
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.bg), image.Point{}, draw.Src)
	return c, nil
}

func (c *Canvas) Bounds() image.Rectangle    { return c.img.Bounds() }
func (c *Canvas) Background() color.Color    { return c.bg }
func (c *Canvas) At(x, y int) color.Color    { return c.img.At(x, y) }
func (c *Canvas) RGBAAt(x, y int) color.RGBA { return c.img.RGBAAt(x, y) }

// Image exposes the backing raster. It is drawn into in place.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Fill paints r, clipped to the canvas, with col.
func (c *Canvas) Fill(r image.Rectangle, col color.Color) {
	r = r.Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

// DrawPoint stamps one brush dot of diameter size centred on (x, y).
func (c *Canvas) DrawPoint(x, y int, col color.Color, size int) {
	r := c.stamp(image.Pt(x, y), col, size)
	c.Invalidate(r)
}

// DrawLine stamps a brush dot on every pixel of the segment p0–p1.
func (c *Canvas) DrawLine(p0, p1 image.Point, col color.Color, size int) {
	var dirty image.Rectangle
	Line(p0, p1, func(p image.Point) {
		dirty = dirty.Union(c.stamp(p, col, size))
	})
	c.Invalidate(dirty)
}

// Invalidate reports r as changed.
func (c *Canvas) Invalidate(r image.Rectangle) {
	r = r.Intersect(c.img.Bounds())
	if r.Empty() || c.OnInvalidate == nil {
		return
	}
	c.OnInvalidate(r)
}

// Clear refills the whole canvas with the background.
func (c *Canvas) Clear() {
	c.Fill(c.img.Bounds(), c.bg)
	c.Invalidate(c.img.Bounds())
}

// DotRect is the square a dot of the given diameter centred on p occupies.
func DotRect(p image.Point, size int) image.Rectangle {
	if size < 1 {
		size = 1
	}
	tl := image.Pt(p.X-size/2, p.Y-size/2)
	return image.Rectangle{Min: tl, Max: tl.Add(image.Pt(size, size))}
}

func (c *Canvas) stamp(p image.Point, col color.Color, size int) image.Rectangle {
	r := DotRect(p, size)
	clip := r.Intersect(c.img.Bounds())
	if clip.Empty() {
		return image.Rectangle{}
	}
	if size < roundBrushMin {
		draw.Draw(c.img, clip, image.NewUniform(col), image.Point{}, draw.Src)
		return clip
	}

	rgba := color.RGBAModel.Convert(col).(color.RGBA)
	d2 := size * size
	for y := clip.Min.Y; y < clip.Max.Y; y++ {
		// Doubled offsets of the pixel centre from the disc centre.
		oy := 2*(y-r.Min.Y) + 1 - size
		for x := clip.Min.X; x < clip.Max.X; x++ {
			ox := 2*(x-r.Min.X) + 1 - size
			if ox*ox+oy*oy <= d2 {
				c.img.SetRGBA(x, y, rgba)
			}
		}
	}
	return clip
}
