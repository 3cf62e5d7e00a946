package state

// PointerKind identifies a pointer event pushed by the host UI.
type PointerKind int

const (
	PointerDown PointerKind = iota + 1
	PointerMove
	PointerUp
)

// PointerEvent is a pointer sample in canvas pixel coordinates.
type PointerEvent struct {
	Kind PointerKind
	X, Y int
}
