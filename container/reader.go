package container

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/bodgit/tilefits/codec"
	"github.com/bodgit/tilefits/grid"
	"github.com/bodgit/tilefits/tile"
	"golang.org/x/sync/errgroup"
)

// maxSamples bounds the grid a header may declare.
const maxSamples = 1 << 30

type state int

const (
	stateUnopened state = iota
	stateHeaderParsed
	stateIndexParsed
	stateTilesDecoded
	stateAssembled
	stateFailed
)

var stateNames = [...]string{
	stateUnopened:     "unopened",
	stateHeaderParsed: "header parsed",
	stateIndexParsed:  "index parsed",
	stateTilesDecoded: "tiles decoded",
	stateAssembled:    "assembled",
	stateFailed:       "failed",
}

func (s state) String() string {
	return stateNames[s]
}

func readFull(r io.ReaderAt, b []byte, off int64) error {
	n, err := r.ReadAt(b, off)
	if n == len(b) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return &IOError{Op: "read", Err: err}
}

type decoder struct {
	r    io.ReaderAt
	size int64
	o    *Options

	state  state
	header header
	layout *tile.Layout
	index  index
	tiles  [][]int64
	grid   *grid.Grid
}

// step runs fn if the decoder is in state from, moving to state to on
// success and to stateFailed otherwise.
func (d *decoder) step(from, to state, fn func() error) error {
	if d.state != from {
		return fmt.Errorf("container: cannot move from %s to %s", d.state, to)
	}
	if err := fn(); err != nil {
		d.state = stateFailed
		return err
	}
	d.state = to
	return nil
}

func (d *decoder) readHeader() error {
	if d.size < headerSize {
		return corruptf("file is %d bytes, too short for header", d.size)
	}

	b := make([]byte, headerSize)
	if err := readFull(d.r, b, 0); err != nil {
		return err
	}
	if err := d.header.UnmarshalBinary(b); err != nil {
		return err
	}

	if uint64(d.header.Width)*uint64(d.header.Height) > maxSamples {
		return corruptf("%dx%d grid too large to decode", d.header.Width, d.header.Height)
	}

	l, err := tile.NewLayout(int(d.header.Width), int(d.header.Height), d.header.shape())
	if err != nil {
		return corruptf("%v", err)
	}
	if l.Len() != int(d.header.TileCount) {
		return corruptf("tile count %d, expected %d for %dx%d grid with %s tiles", d.header.TileCount, l.Len(), d.header.Width, d.header.Height, l.Shape())
	}
	d.layout = l

	return nil
}

func (d *decoder) readIndex() error {
	end := uint64(headerSize) + uint64(d.header.TileCount)*entrySize
	if end > uint64(d.size) {
		return corruptf("index of %d tiles exceeds file size %d", d.header.TileCount, d.size)
	}

	b := make([]byte, end-headerSize)
	if err := readFull(d.r, b, headerSize); err != nil {
		return err
	}

	d.index = make(index, d.header.TileCount)
	if err := d.index.UnmarshalBinary(b); err != nil {
		return err
	}

	// Blocks must follow the index back to back and end with the file
	for i, e := range d.index {
		if e.Offset != end {
			return corruptf("tile %d at offset %d, expected %d", i, e.Offset, end)
		}
		end += uint64(e.Length)
		if end > uint64(d.size) {
			return corruptf("tile index claims %d bytes, file has %d", end, d.size)
		}
	}
	if end != uint64(d.size) {
		return corruptf("%d trailing bytes after last tile", uint64(d.size)-end)
	}

	return nil
}

func (d *decoder) decodeTiles() error {
	id := codec.ID(d.header.Codec)
	c, err := d.o.registry().Lookup(id)
	if err != nil {
		return &CodecMismatchError{ID: id}
	}

	t := grid.SampleType(d.header.SampleType)
	d.tiles = make([][]int64, len(d.index))

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(d.o.concurrency())

	for i, e := range d.index {
		if ctx.Err() != nil {
			break
		}
		tl := d.layout.Tile(i)
		g.Go(func() error {
			b := make([]byte, e.Length)
			if err := readFull(d.r, b, int64(e.Offset)); err != nil {
				return err
			}
			if crc32.ChecksumIEEE(b) != e.CRC {
				return fmt.Errorf("%w: tile %s", ErrChecksum, tl)
			}
			samples, err := c.Decompress(b, tl.Width, tl.Height, t)
			if err != nil {
				return fmt.Errorf("container: tile %s: %w", tl, err)
			}
			d.tiles[i] = samples
			return nil
		})
	}

	return g.Wait()
}

func (d *decoder) assemble() error {
	m, err := grid.New(int(d.header.Width), int(d.header.Height), grid.SampleType(d.header.SampleType))
	if err != nil {
		return corruptf("%v", err)
	}

	covered := make([]bool, len(m.Samples))
	for i, samples := range d.tiles {
		t := d.layout.Tile(i)
		if len(samples) != t.Len() {
			return &IncompleteTileCoverageError{X: t.X, Y: t.Y}
		}
		for y := t.Y; y < t.Y+t.Height; y++ {
			for x := t.X; x < t.X+t.Width; x++ {
				if covered[y*m.Width+x] {
					return &IncompleteTileCoverageError{X: x, Y: y}
				}
				covered[y*m.Width+x] = true
			}
		}
		tile.Insert(m, t, samples)
	}

	for i, ok := range covered {
		if !ok {
			return &IncompleteTileCoverageError{X: i % m.Width, Y: i / m.Width}
		}
	}

	if err := m.Validate(); err != nil {
		return err
	}
	d.grid = m

	return nil
}

func (d *decoder) decode(configOnly bool) error {
	if err := d.step(stateUnopened, stateHeaderParsed, d.readHeader); err != nil {
		return err
	}
	if configOnly {
		return nil
	}
	if err := d.step(stateHeaderParsed, stateIndexParsed, d.readIndex); err != nil {
		return err
	}
	if err := d.step(stateIndexParsed, stateTilesDecoded, d.decodeTiles); err != nil {
		return err
	}
	return d.step(stateTilesDecoded, stateAssembled, d.assemble)
}

// Decode reads the size byte container from r and returns the reassembled
// grid. No grid is returned on any error.
func Decode(r io.ReaderAt, size int64, o *Options) (*grid.Grid, error) {
	d := decoder{r: r, size: size, o: o}
	if err := d.decode(false); err != nil {
		return nil, err
	}
	return d.grid, nil
}

// DecodeConfig returns the dimensions, tiling and codec of a container
// without decoding any tiles.
func DecodeConfig(r io.ReaderAt, size int64) (Config, error) {
	d := decoder{r: r, size: size}
	if err := d.decode(true); err != nil {
		return Config{}, err
	}
	return d.header.config(), nil
}

func open(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, &IOError{Op: "open", Path: path, Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, &IOError{Op: "stat", Path: path, Err: err}
	}
	return f, info.Size(), nil
}

// ReadFile decodes the container stored at path.
func ReadFile(path string, o *Options) (*grid.Grid, error) {
	f, size, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := Decode(f, size, o)
	if err != nil {
		var ioe *IOError
		if errors.As(err, &ioe) && ioe.Path == "" {
			ioe.Path = path
		}
		return nil, err
	}
	return g, nil
}

// ReadConfigFile returns the configuration of the container stored at path.
func ReadConfigFile(path string) (Config, error) {
	f, size, err := open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return DecodeConfig(f, size)
}
