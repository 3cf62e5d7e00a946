package state

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var (
	ErrEmptyDrawList = errors.New("draw list is empty")
	ErrOddDrawList   = errors.New("draw list has an odd number of coordinates")
	ErrOffCanvas     = errors.New("draw list leaves the canvas")
)

// RGB is a 24-bit colour packed as 0xRRGGBB.
type RGB uint32

func (c RGB) RGBA() (r, g, b, a uint32) {
	return c.Color().RGBA()
}

// Color returns the opaque color.RGBA for c.
func (c RGB) Color() color.RGBA {
	return color.RGBA{
		R: uint8(c >> 16),
		G: uint8(c >> 8),
		B: uint8(c),
		A: 0xff,
	}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%06x", uint32(c)&0xffffff)
}

func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *RGB) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// FromColor packs any color.Color into an RGB, dropping alpha.
func FromColor(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	return RGB((r>>8)<<16 | (g>>8)<<8 | b>>8)
}

// ParseColor accepts "#rrggbb", "rrggbb" or an SVG colour name.
func ParseColor(s string) (RGB, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if named, ok := colornames.Map[s]; ok {
		return FromColor(named), nil
	}
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return RGB(v), nil
}

// Brush holds the attributes every dot of a stroke is drawn with.
type Brush struct {
	Size  int `json:"size" yaml:"size"`
	Color RGB `json:"color" yaml:"color"`
}

// BrushState tracks where the pointer is within a stroke.
type BrushState int

const (
	BrushUp BrushState = iota
	BrushDown
	BrushMotion
)

func (s BrushState) String() string {
	switch s {
	case BrushUp:
		return "up"
	case BrushDown:
		return "down"
	case BrushMotion:
		return "motion"
	}
	return "brush(" + strconv.Itoa(int(s)) + ")"
}

// DrawList is a stroke as transmitted to a peer: the first entry is an
// absolute canvas point, every following entry is a delta from the previous
// point.
type DrawList []image.Point

// endMarker is appended twice to a stroke that never moved.
var endMarker = image.Point{}

// Flatten encodes the list as x, y, dx1, dy1, ... for the wire.
func (l DrawList) Flatten() []int {
	out := make([]int, 0, len(l)*2)
	for _, p := range l {
		out = append(out, p.X, p.Y)
	}
	return out
}

// ParseDrawList is the inverse of Flatten.
func ParseDrawList(coords []int) (DrawList, error) {
	if len(coords) == 0 {
		return nil, ErrEmptyDrawList
	}
	if len(coords)%2 != 0 {
		return nil, ErrOddDrawList
	}
	l := make(DrawList, 0, len(coords)/2)
	for i := 0; i < len(coords); i += 2 {
		l = append(l, image.Pt(coords[i], coords[i+1]))
	}
	return l, nil
}

// Path resolves the deltas into absolute points, one per entry.
func (l DrawList) Path() []image.Point {
	if len(l) == 0 {
		return nil
	}
	out := make([]image.Point, len(l))
	out[0] = l[0]
	for i := 1; i < len(l); i++ {
		out[i] = out[i-1].Add(l[i])
	}
	return out
}

// Within reports whether every point of the resolved path lies inside r. Each
// delta is checked against the size of r before it is added, so hostile
// values cannot overflow.
func (l DrawList) Within(r image.Rectangle) bool {
	if len(l) == 0 || !l[0].In(r) {
		return false
	}
	w, h := r.Dx(), r.Dy()
	cur := l[0]
	for _, d := range l[1:] {
		if d.X < -w || d.X > w || d.Y < -h || d.Y > h {
			return false
		}
		cur = cur.Add(d)
		if !cur.In(r) {
			return false
		}
	}
	return true
}

// IsClick reports whether the list is a zero-motion stroke terminated by the
// sentinel pair.
func (l DrawList) IsClick() bool {
	return len(l) == 3 && l[1] == endMarker && l[2] == endMarker
}
