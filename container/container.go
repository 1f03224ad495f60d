/*
Package container implements the tiled image container reader and writer.

A container holds a single grid split into tiles, each tile compressed
independently with the same codec. All integers are big-endian.

The file starts with a 32 byte header:

	offset size
	0      4    magic "TFIT"
	4      2    format version, currently 1
	6      1    sample type
	7      1    codec ID
	8      4    grid width
	12     4    grid height
	16     4    tile width
	20     4    tile height
	24     4    tile count
	28     4    reserved, zero

The header is followed by one 16 byte index entry per tile in row-major tile
order, holding the absolute byte offset (8 bytes), byte length (4 bytes) and
IEEE CRC-32 (4 bytes) of the tile's compressed block. The compressed blocks
follow the index back to back in the same order and the last block ends at
the end of the file.

Tile shapes are always (width, height). Tiles on the right and bottom edges
are clipped to the grid and are compressed at their clipped size.
*/
package container

import (
	"runtime"

	"github.com/bodgit/tilefits/codec"
)

const (
	magic      = "TFIT"
	version    = 1
	headerSize = 32
	entrySize  = 16
	maxUint32  = 1<<32 - 1
)

// Options control encoding and decoding. A nil *Options uses the defaults.
type Options struct {
	// Registry resolves codec IDs, codec.Default if nil
	Registry *codec.Registry
	// Concurrency is the maximum number of tiles compressed or decompressed
	// at once, runtime.GOMAXPROCS(0) if zero or less
	Concurrency int
}

func (o *Options) registry() *codec.Registry {
	if o == nil || o.Registry == nil {
		return codec.Default
	}
	return o.Registry
}

func (o *Options) concurrency() int {
	if o == nil || o.Concurrency <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Concurrency
}
