package canvas

import "image"

// Line calls plot for every pixel of the integer segment p0–p1, endpoints
// included. The walk is canonicalised before it starts, so the pixel set does
// not depend on the order the endpoints are given in.
func Line(p0, p1 image.Point, plot func(image.Point)) {
	steep := abs(p1.Y-p0.Y) > abs(p1.X-p0.X)
	if steep {
		p0 = image.Pt(p0.Y, p0.X)
		p1 = image.Pt(p1.Y, p1.X)
	}
	if p0.X > p1.X || (p0.X == p1.X && p0.Y > p1.Y) {
		p0, p1 = p1, p0
	}

	dx := p1.X - p0.X
	dy := abs(p1.Y - p0.Y)
	ystep := 1
	if p0.Y > p1.Y {
		ystep = -1
	}

	err := 0
	y := p0.Y
	for x := p0.X; x <= p1.X; x++ {
		if steep {
			plot(image.Pt(y, x))
		} else {
			plot(image.Pt(x, y))
		}
		err += dy
		if 2*err >= dx {
			y += ystep
			err -= dx
		}
	}
}

// LinePoints collects the pixels Line visits, in walk order.
func LinePoints(p0, p1 image.Point) []image.Point {
	var pts []image.Point
	Line(p0, p1, func(p image.Point) {
		pts = append(pts, p)
	})
	return pts
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
