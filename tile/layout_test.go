package tile

import (
	"math"
	"testing"

	"github.com/bodgit/tilefits/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialGrid(t *testing.T, width, height int) *grid.Grid {
	g, err := grid.New(width, height, grid.Int32)
	require.NoError(t, err)
	for i := range g.Samples {
		g.Samples[i] = int64(i + 1)
	}
	return g
}

func TestInvalidShape(t *testing.T) {
	for _, s := range []Shape{{0, 4}, {4, 0}, {-1, 2}, {2, -3}} {
		_, err := NewLayout(4, 4, s)
		var ise *InvalidShapeError
		if assert.ErrorAs(t, err, &ise, s.String()) {
			assert.Equal(t, s, ise.Shape)
		}
	}

	_, err := NewLayout(0, 4, Shape{2, 2})
	assert.Error(t, err)
}

func TestPartition(t *testing.T) {
	tables := []struct {
		width, height int
		shape         Shape
		cols, rows    int
	}{
		{4, 4, Shape{4, 4}, 1, 1},
		{4, 4, Shape{2, 2}, 2, 2},
		{5, 4, Shape{2, 3}, 3, 2},
		{5, 4, Shape{3, 2}, 2, 2},
		{5, 4, Shape{10, 10}, 1, 1},
		{7, 3, Shape{1, 1}, 7, 3},
		{1, 9, Shape{4, 2}, 1, 5},
	}

	for _, table := range tables {
		t.Run(table.shape.String(), func(t *testing.T) {
			g := sequentialGrid(t, table.width, table.height)

			l, err := For(g, table.shape)
			require.NoError(t, err)
			assert.Equal(t, table.cols, l.Cols())
			assert.Equal(t, table.rows, l.Rows())

			seen := make([]int, len(g.Samples))
			out, err := grid.New(g.Width, g.Height, g.SampleType)
			require.NoError(t, err)

			i := 0
			for tl := range l.All() {
				assert.Equal(t, i/l.Cols(), tl.Row)
				assert.Equal(t, i%l.Cols(), tl.Col)
				assert.True(t, tl.Width > 0 && tl.Width <= table.shape.Width)
				assert.True(t, tl.Height > 0 && tl.Height <= table.shape.Height)

				for y := tl.Y; y < tl.Y+tl.Height; y++ {
					for x := tl.X; x < tl.X+tl.Width; x++ {
						seen[y*g.Width+x]++
					}
				}

				samples := Extract(g, tl)
				assert.Len(t, samples, tl.Len())
				Insert(out, tl, samples)
				i++
			}
			assert.Equal(t, l.Len(), i)

			for j, n := range seen {
				assert.Equal(t, 1, n, "sample %d", j)
			}
			assert.True(t, g.Equal(out))
		})
	}
}

func TestEdgeTiles(t *testing.T) {
	g := sequentialGrid(t, 5, 4)

	l, err := For(g, Shape{Width: 2, Height: 3})
	require.NoError(t, err)

	var tiles []Tile
	for tl := range l.All() {
		tiles = append(tiles, tl)
	}

	assert.Equal(t, []Tile{
		{Row: 0, Col: 0, X: 0, Y: 0, Width: 2, Height: 3},
		{Row: 0, Col: 1, X: 2, Y: 0, Width: 2, Height: 3},
		{Row: 0, Col: 2, X: 4, Y: 0, Width: 1, Height: 3},
		{Row: 1, Col: 0, X: 0, Y: 3, Width: 2, Height: 1},
		{Row: 1, Col: 1, X: 2, Y: 3, Width: 2, Height: 1},
		{Row: 1, Col: 2, X: 4, Y: 3, Width: 1, Height: 1},
	}, tiles)

	assert.Equal(t, []int64{5, 10, 15}, Extract(g, tiles[2]))
	assert.Equal(t, []int64{20}, Extract(g, tiles[5]))
}

func TestRestartable(t *testing.T) {
	l, err := NewLayout(5, 4, Shape{3, 2})
	require.NoError(t, err)

	var first, second []Tile
	for tl := range l.All() {
		first = append(first, tl)
		if len(first) == 2 {
			break
		}
	}
	for tl := range l.All() {
		second = append(second, tl)
	}

	assert.Len(t, second, 4)
	assert.Equal(t, first, second[:2])
}

func TestTileOutOfRange(t *testing.T) {
	l, err := NewLayout(2, 2, Shape{1, 1})
	require.NoError(t, err)

	assert.Panics(t, func() { l.Tile(4) })
	assert.Panics(t, func() { l.Tile(-1) })
}

func TestHugeShape(t *testing.T) {
	g := sequentialGrid(t, 5, 4)

	for _, s := range []Shape{{math.MaxInt, 1}, {1, math.MaxInt}, {math.MaxInt, math.MaxInt}} {
		l, err := For(g, s)
		require.NoError(t, err)

		out, err := grid.New(g.Width, g.Height, g.SampleType)
		require.NoError(t, err)

		n := 0
		for tl := range l.All() {
			Insert(out, tl, Extract(g, tl))
			n++
		}
		assert.Equal(t, l.Len(), n)
		assert.True(t, g.Equal(out), s.String())
	}

	l, err := NewLayout(5, 4, Shape{math.MaxInt, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Cols())
	assert.Equal(t, 4, l.Rows())
	assert.Equal(t, Tile{Row: 0, Col: 0, X: 0, Y: 0, Width: 5, Height: 1}, l.Tile(0))
}
