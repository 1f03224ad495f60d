/*
Package tile partitions a grid into rectangular tiles.

Tiles are visited in row-major order: every tile in the first row of tiles
from left to right, then the next row. Tiles on the right and bottom edges are
clipped to the grid when the tile shape does not evenly divide it; they are
never padded.

A Shape is always given as (Width, Height), that is columns then rows, with
the fastest varying axis first.
*/
package tile

import (
	"fmt"
)

// InvalidShapeError is returned for a tile shape with a non-positive side.
type InvalidShapeError struct {
	Shape Shape
}

func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("tile: invalid shape %s", e.Shape)
}

// Shape is the nominal size of each tile.
type Shape struct {
	Width  int
	Height int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Validate returns an *InvalidShapeError unless both sides are positive.
func (s Shape) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return &InvalidShapeError{Shape: s}
	}
	return nil
}

// Tile is one clipped rectangle of a grid.
type Tile struct {
	// Row and Col are the zero-based tile indices
	Row, Col int
	// X and Y are the grid coordinates of the top-left sample
	X, Y int
	// Width and Height are the clipped dimensions
	Width, Height int
}

// Len returns the number of samples covered by the tile.
func (t Tile) Len() int {
	return t.Width * t.Height
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.Row, t.Col)
}
