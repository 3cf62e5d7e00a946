package state

import (
	"fmt"
	"log/slog"
)

// Replay draws a DrawList received from the peer with the current brush. The
// stroke being drawn locally, if any, is left untouched.
//
// The head point gets a dot and every delta a line, which covers exactly the
// pixels the sender drew for the same stroke. Sentinel pairs resolve to
// zero-length lines on the last point and add nothing. A list that strays
// further than one brush width off the canvas is rejected with ErrOffCanvas
// and nothing is drawn.
func (r *Renderer) Replay(list DrawList) error {
	if len(list) == 0 {
		return ErrEmptyDrawList
	}
	if r.surface == nil {
		return nil
	}
	margin := r.brush.Size
	area := r.surface.Bounds().Inset(-margin)
	if !list.Within(area) {
		return fmt.Errorf("%w: %d points outside %v", ErrOffCanvas, len(list), area)
	}
	path := list.Path()
	r.drawPoint(path[0])
	for i := 1; i < len(path); i++ {
		if path[i] == path[i-1] {
			continue
		}
		r.drawLine(path[i-1], path[i])
	}
	r.logger.Debug("replayed stroke", slog.Int("points", len(list)), slog.Bool("click", list.IsClick()))
	return nil
}
