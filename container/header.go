package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/bodgit/tilefits/codec"
	"github.com/bodgit/tilefits/grid"
	"github.com/bodgit/tilefits/tile"
)

// header is the fixed size leading block of a container. Field order and
// widths define the on-disk layout.
type header struct {
	Magic      [4]byte
	Version    uint16
	SampleType uint8
	Codec      uint8
	Width      uint32
	Height     uint32
	TileWidth  uint32
	TileHeight uint32
	TileCount  uint32
	Reserved   uint32
}

func newHeader(g *grid.Grid, l *tile.Layout, id codec.ID) (*header, error) {
	shape := l.Shape()
	for _, v := range []int{g.Width, g.Height, shape.Width, shape.Height, l.Len()} {
		if uint64(v) > maxUint32 {
			return nil, errors.New("container: dimensions exceed 32 bits")
		}
	}
	h := &header{
		Version:    version,
		SampleType: uint8(g.SampleType),
		Codec:      uint8(id),
		Width:      uint32(g.Width),
		Height:     uint32(g.Height),
		TileWidth:  uint32(shape.Width),
		TileHeight: uint32(shape.Height),
		TileCount:  uint32(l.Len()),
	}
	copy(h.Magic[:], magic)
	return h, nil
}

// MarshalBinary encodes the header into binary form and returns the result
func (h *header) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := binary.Write(b, binary.BigEndian, h); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes and validates the header from binary form
func (h *header) UnmarshalBinary(b []byte) error {
	if len(b) < headerSize {
		return corruptf("file too short for header")
	}
	if err := binary.Read(bytes.NewReader(b[:headerSize]), binary.BigEndian, h); err != nil {
		return err
	}

	switch {
	case string(h.Magic[:]) != magic:
		return corruptf("bad magic %q", h.Magic[:])
	case h.Version != version:
		return corruptf("unsupported version %d", h.Version)
	case !grid.SampleType(h.SampleType).Valid():
		return corruptf("unknown sample type %d", h.SampleType)
	case h.Width == 0 || h.Height == 0:
		return corruptf("invalid dimensions %dx%d", h.Width, h.Height)
	case h.TileWidth == 0 || h.TileHeight == 0:
		return corruptf("invalid tile shape %dx%d", h.TileWidth, h.TileHeight)
	}

	return nil
}

func (h *header) shape() tile.Shape {
	return tile.Shape{Width: int(h.TileWidth), Height: int(h.TileHeight)}
}

// entry is one tile index record.
type entry struct {
	Offset uint64
	Length uint32
	CRC    uint32
}

type index []entry

func (x index) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	if err := binary.Write(b, binary.BigEndian, x); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// UnmarshalBinary decodes len(*x) entries, the caller sizing the slice from
// the header's tile count.
func (x *index) UnmarshalBinary(b []byte) error {
	if len(b) != len(*x)*entrySize {
		return corruptf("index is %d bytes, expected %d", len(b), len(*x)*entrySize)
	}
	if err := binary.Read(bytes.NewReader(b), binary.BigEndian, *x); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return corruptf("short index")
		}
		return err
	}
	return nil
}

// Config describes a container without decoding any tiles.
type Config struct {
	Width      int
	Height     int
	SampleType grid.SampleType
	Shape      tile.Shape
	Codec      codec.ID
	Tiles      int
}

func (h *header) config() Config {
	return Config{
		Width:      int(h.Width),
		Height:     int(h.Height),
		SampleType: grid.SampleType(h.SampleType),
		Shape:      h.shape(),
		Codec:      codec.ID(h.Codec),
		Tiles:      int(h.TileCount),
	}
}
