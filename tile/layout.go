package tile

import (
	"fmt"
	"iter"

	"github.com/bodgit/tilefits/grid"
)

// ceilDiv divides positive a by positive b rounding up, without overflowing
// for b close to the largest int.
func ceilDiv(a, b int) int {
	return (a-1)/b + 1
}

// Layout describes how a width by height grid divides into tiles of a given
// shape. It holds no reference to any grid and can be iterated any number
// of times.
type Layout struct {
	width, height int
	shape         Shape
	cols, rows    int
}

// NewLayout returns the layout for a width by height grid. The shape may be
// larger than the grid in either direction.
func NewLayout(width, height int, shape Shape) (*Layout, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("tile: invalid grid dimensions %dx%d", width, height)
	}
	return &Layout{
		width:  width,
		height: height,
		shape:  shape,
		cols:   ceilDiv(width, shape.Width),
		rows:   ceilDiv(height, shape.Height),
	}, nil
}

// For returns the layout for g.
func For(g *grid.Grid, shape Shape) (*Layout, error) {
	return NewLayout(g.Width, g.Height, shape)
}

// Shape returns the nominal tile shape.
func (l *Layout) Shape() Shape {
	return l.shape
}

// Cols returns the number of tiles across.
func (l *Layout) Cols() int {
	return l.cols
}

// Rows returns the number of tiles down.
func (l *Layout) Rows() int {
	return l.rows
}

// Len returns the total number of tiles.
func (l *Layout) Len() int {
	return l.cols * l.rows
}

// Tile returns the i'th tile in row-major order. It panics if i is out of
// range.
func (l *Layout) Tile(i int) Tile {
	if i < 0 || i >= l.Len() {
		panic(fmt.Sprintf("tile: index %d out of range [0,%d)", i, l.Len()))
	}
	row, col := i/l.cols, i%l.cols
	x, y := col*l.shape.Width, row*l.shape.Height
	return Tile{
		Row:    row,
		Col:    col,
		X:      x,
		Y:      y,
		Width:  min(x+l.shape.Width, l.width) - x,
		Height: min(y+l.shape.Height, l.height) - y,
	}
}

// All yields every tile in row-major order.
func (l *Layout) All() iter.Seq[Tile] {
	return func(yield func(Tile) bool) {
		for i := 0; i < l.Len(); i++ {
			if !yield(l.Tile(i)) {
				return
			}
		}
	}
}

// Extract copies the samples covered by t out of g in row-major order.
func Extract(g *grid.Grid, t Tile) []int64 {
	out := make([]int64, 0, t.Len())
	for y := t.Y; y < t.Y+t.Height; y++ {
		i := y*g.Width + t.X
		out = append(out, g.Samples[i:i+t.Width]...)
	}
	return out
}

// Insert copies samples into the rectangle covered by t. The caller
// guarantees len(samples) == t.Len().
func Insert(g *grid.Grid, t Tile, samples []int64) {
	for y := 0; y < t.Height; y++ {
		i := (t.Y+y)*g.Width + t.X
		copy(g.Samples[i:i+t.Width], samples[y*t.Width:(y+1)*t.Width])
	}
}
