package board

import "errors"

var (
	// ErrAlreadyDragging indicates Begin was called while a drag is in flight.
	ErrAlreadyDragging = errors.New("board: drag already in progress")
	// ErrNotDragging indicates Move or End was called outside a drag.
	ErrNotDragging = errors.New("board: no drag in progress")
)

// DragState enumerates the two states of a card's drag interaction.
type DragState int

const (
	// DragStateIdle means no drag is in flight.
	DragStateIdle DragState = iota
	// DragStateDragging means a pointer is currently moving the card.
	DragStateDragging
)

// DragTracker tracks one card's pointer interaction from drag-start to
// drag-end. Intermediate positions are observable through Move but only the
// End position is intended to be persisted.
type DragTracker struct {
	canvas     Canvas
	state      DragState
	grabOffset Point
	position   Point
}

// NewDragTracker constructs an idle tracker bound to one canvas geometry.
func NewDragTracker(canvas Canvas) *DragTracker {
	return &DragTracker{canvas: canvas}
}

// State reports whether a drag is in flight.
func (t *DragTracker) State() DragState {
	return t.state
}

// Begin enters the dragging state, capturing the pointer's offset within the
// card so the card does not jump under the pointer.
func (t *DragTracker) Begin(pointer Point, cardOrigin Point) error {
	if t.state == DragStateDragging {
		return ErrAlreadyDragging
	}
	t.grabOffset = Point{X: pointer.X - cardOrigin.X, Y: pointer.Y - cardOrigin.Y}
	t.position = cardOrigin
	t.state = DragStateDragging
	return nil
}

// Move recomputes the card origin from the pointer position, the container's
// scroll offset and the captured grab offset, clamped to the canvas.
func (t *DragTracker) Move(pointer Point, scroll Point) (Point, error) {
	if t.state != DragStateDragging {
		return Point{}, ErrNotDragging
	}
	t.position = t.canvas.Clamp(Point{
		X: pointer.X + scroll.X - t.grabOffset.X,
		Y: pointer.Y + scroll.Y - t.grabOffset.Y,
	})
	return t.position, nil
}

// End leaves the dragging state and returns the final position to commit.
func (t *DragTracker) End() (Point, error) {
	if t.state != DragStateDragging {
		return Point{}, ErrNotDragging
	}
	t.state = DragStateIdle
	return t.position, nil
}
