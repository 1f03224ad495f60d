/*
Package grid implements the in-memory pixel grid stored in a tiled container.

A grid is a width by height array of fixed-width signed integer samples held
in row-major order. Samples are always carried as int64 regardless of the
declared sample type, which only bounds the values a grid may hold.
*/
package grid

import (
	"errors"
	"fmt"
	"math"
)

// SampleType is the declared width of each sample.
type SampleType uint8

// Supported sample types. The values are written as-is into the container
// header so must never be renumbered.
const (
	Int8 SampleType = iota + 1
	Int16
	Int32
	Int64
)

var errBadDimensions = errors.New("grid: width and height must be positive")

// ErrSampleRange is returned when a sample does not fit the grid's sample
// type.
var ErrSampleRange = errors.New("grid: sample out of range")

// Valid reports whether t is one of the supported sample types.
func (t SampleType) Valid() bool {
	return t >= Int8 && t <= Int64
}

// Bits returns the number of bits in a sample of type t.
func (t SampleType) Bits() int {
	switch t {
	case Int8:
		return 8
	case Int16:
		return 16
	case Int32:
		return 32
	case Int64:
		return 64
	}
	return 0
}

// Bytes returns the number of bytes in a sample of type t.
func (t SampleType) Bytes() int {
	return t.Bits() >> 3
}

// Min returns the smallest value representable by t.
func (t SampleType) Min() int64 {
	switch t {
	case Int8:
		return math.MinInt8
	case Int16:
		return math.MinInt16
	case Int32:
		return math.MinInt32
	}
	return math.MinInt64
}

// Max returns the largest value representable by t.
func (t SampleType) Max() int64 {
	switch t {
	case Int8:
		return math.MaxInt8
	case Int16:
		return math.MaxInt16
	case Int32:
		return math.MaxInt32
	}
	return math.MaxInt64
}

// Contains reports whether v fits in t.
func (t SampleType) Contains(v int64) bool {
	return v >= t.Min() && v <= t.Max()
}

func (t SampleType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("SampleType(%d)", uint8(t))
	}
	return fmt.Sprintf("int%d", t.Bits())
}

// ParseSampleType is the inverse of SampleType.String.
func ParseSampleType(s string) (SampleType, error) {
	for t := Int8; t <= Int64; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("grid: unknown sample type %q", s)
}

// Grid is a two dimensional array of samples.
type Grid struct {
	Width      int
	Height     int
	SampleType SampleType
	// Samples holds Width*Height values in row-major order
	Samples []int64
}

// New returns a zeroed grid of the given dimensions.
func New(width, height int, t SampleType) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, errBadDimensions
	}
	if !t.Valid() {
		return nil, fmt.Errorf("grid: invalid sample type %d", uint8(t))
	}
	return &Grid{
		Width:      width,
		Height:     height,
		SampleType: t,
		Samples:    make([]int64, width*height),
	}, nil
}

// FromRows builds a grid from a slice of equal length rows.
func FromRows(t SampleType, rows [][]int64) (*Grid, error) {
	if len(rows) == 0 {
		return nil, errBadDimensions
	}
	g, err := New(len(rows[0]), len(rows), t)
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != g.Width {
			return nil, fmt.Errorf("grid: row %d has %d samples, expected %d", y, len(row), g.Width)
		}
		for x, v := range row {
			if err := g.Set(x, y, v); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// At returns the sample at column x, row y.
func (g *Grid) At(x, y int) int64 {
	return g.Samples[y*g.Width+x]
}

// Set stores v at column x, row y.
func (g *Grid) Set(x, y int, v int64) error {
	if !g.SampleType.Contains(v) {
		return fmt.Errorf("%w: %d does not fit %s", ErrSampleRange, v, g.SampleType)
	}
	g.Samples[y*g.Width+x] = v
	return nil
}

// Validate checks the grid's shape and that every sample fits its type.
func (g *Grid) Validate() error {
	if g.Width <= 0 || g.Height <= 0 {
		return errBadDimensions
	}
	if !g.SampleType.Valid() {
		return fmt.Errorf("grid: invalid sample type %d", uint8(g.SampleType))
	}
	if len(g.Samples) != g.Width*g.Height {
		return fmt.Errorf("grid: have %d samples, expected %d", len(g.Samples), g.Width*g.Height)
	}
	for i, v := range g.Samples {
		if !g.SampleType.Contains(v) {
			return fmt.Errorf("%w: %d at (%d,%d) does not fit %s", ErrSampleRange, v, i%g.Width, i/g.Width, g.SampleType)
		}
	}
	return nil
}

// Rows returns a copy of the samples split into rows.
func (g *Grid) Rows() [][]int64 {
	rows := make([][]int64, g.Height)
	for y := range rows {
		rows[y] = append([]int64(nil), g.Samples[y*g.Width:(y+1)*g.Width]...)
	}
	return rows
}

// Equal reports whether g and o have the same shape, type and samples.
func (g *Grid) Equal(o *Grid) bool {
	if g == nil || o == nil {
		return g == o
	}
	if g.Width != o.Width || g.Height != o.Height || g.SampleType != o.SampleType || len(g.Samples) != len(o.Samples) {
		return false
	}
	for i := range g.Samples {
		if g.Samples[i] != o.Samples[i] {
			return false
		}
	}
	return true
}
