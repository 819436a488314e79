package board

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrInvalidCanvas indicates the canvas extent is not positive on both axes.
	ErrInvalidCanvas = errors.New("board: invalid canvas extent")
	// ErrInvalidCard indicates the card extent is not positive or exceeds the canvas.
	ErrInvalidCard = errors.New("board: invalid card extent")
)

// Point is a canvas-relative coordinate pair.
type Point struct {
	X float64
	Y float64
}

// Size describes a rectangular extent in canvas units.
type Size struct {
	Width  float64
	Height float64
}

// Rect is an axis-aligned bounding box on the canvas.
type Rect struct {
	Origin Point
	Extent Size
}

// Canvas models the scrollable board surface a card moves within.
type Canvas struct {
	Scroll Size
	Card   Size
}

// NewCanvas validates the scrollable extent and card extent pair.
func NewCanvas(scroll Size, card Size) (Canvas, error) {
	if scroll.Width <= 0 || scroll.Height <= 0 {
		return Canvas{}, fmt.Errorf("%w: %.0fx%.0f", ErrInvalidCanvas, scroll.Width, scroll.Height)
	}
	if card.Width <= 0 || card.Height <= 0 {
		return Canvas{}, fmt.Errorf("%w: %.0fx%.0f", ErrInvalidCard, card.Width, card.Height)
	}
	if card.Width > scroll.Width || card.Height > scroll.Height {
		return Canvas{}, fmt.Errorf("%w: card exceeds canvas", ErrInvalidCard)
	}
	return Canvas{Scroll: scroll, Card: card}, nil
}

// Clamp forces a card origin into [0, scrollExtent-cardExtent] on both axes so
// the card can never leave the scrollable surface.
func (c Canvas) Clamp(position Point) Point {
	return Point{
		X: clampAxis(position.X, c.Scroll.Width-c.Card.Width),
		Y: clampAxis(position.Y, c.Scroll.Height-c.Card.Height),
	}
}

func clampAxis(value, max float64) float64 {
	if value < 0 {
		return 0
	}
	if value > max {
		return max
	}
	return value
}

// ColumnBounds returns the bounding box of one column when the canvas is split
// into columnCount equal vertical lanes. A non-positive count or an index out
// of range yields the whole canvas.
func (c Canvas) ColumnBounds(columnCount, columnIndex int) Rect {
	if columnCount <= 0 || columnIndex < 0 || columnIndex >= columnCount {
		return Rect{Extent: c.Scroll}
	}
	columnWidth := c.Scroll.Width / float64(columnCount)
	return Rect{
		Origin: Point{X: columnWidth * float64(columnIndex)},
		Extent: Size{Width: columnWidth, Height: c.Scroll.Height},
	}
}

// RandomPlacement picks an initial position for a new card: a pseudo-random
// point inside a randomly chosen column's bounding box, clamped so the card
// stays fully on the canvas. A nil source falls back to the shared generator.
func (c Canvas) RandomPlacement(columnCount int, source *rand.Rand) Point {
	if columnCount <= 0 {
		columnCount = 1
	}
	columnIndex := intn(source, columnCount)
	bounds := c.ColumnBounds(columnCount, columnIndex)
	position := Point{
		X: bounds.Origin.X + float64n(source, bounds.Extent.Width),
		Y: bounds.Origin.Y + float64n(source, bounds.Extent.Height),
	}
	return c.Clamp(position)
}

func intn(source *rand.Rand, n int) int {
	if source == nil {
		return rand.Intn(n)
	}
	return source.Intn(n)
}

func float64n(source *rand.Rand, scale float64) float64 {
	if source == nil {
		return rand.Float64() * scale
	}
	return source.Float64() * scale
}
