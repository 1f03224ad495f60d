package container

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/tilefits/codec"
	"github.com/bodgit/tilefits/grid"
	"github.com/bodgit/tilefits/tile"
	"golang.org/x/sync/errgroup"
)

type encoder struct {
	w io.Writer

	grid   *grid.Grid
	layout *tile.Layout
	codec  codec.Codec
	n      int

	blocks [][]byte
}

// compress fills e.blocks in row-major tile order, stopping at the first
// failure.
func (e *encoder) compress() error {
	e.blocks = make([][]byte, e.layout.Len())

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(e.n)

	for i := 0; i < e.layout.Len(); i++ {
		if ctx.Err() != nil {
			break
		}
		t := e.layout.Tile(i)
		g.Go(func() error {
			b, err := e.codec.Compress(tile.Extract(e.grid, t), t.Width, t.Height, e.grid.SampleType)
			if err != nil {
				return fmt.Errorf("container: tile %s: %w", t, err)
			}
			if uint64(len(b)) > maxUint32 {
				return fmt.Errorf("container: tile %s: compressed block too large", t)
			}
			e.blocks[i] = b
			return nil
		})
	}

	return g.Wait()
}

func (e *encoder) write(h *header) error {
	hb, err := h.MarshalBinary()
	if err != nil {
		return err
	}

	x := make(index, len(e.blocks))
	offset := uint64(headerSize + len(x)*entrySize)
	for i, b := range e.blocks {
		x[i] = entry{
			Offset: offset,
			Length: uint32(len(b)),
			CRC:    crc32.ChecksumIEEE(b),
		}
		offset += uint64(len(b))
	}

	xb, err := x.MarshalBinary()
	if err != nil {
		return err
	}

	for _, b := range append([][]byte{hb, xb}, e.blocks...) {
		if _, err := e.w.Write(b); err != nil {
			return &IOError{Op: "write", Err: err}
		}
	}

	return nil
}

// Encode compresses g with the codec registered for id using tiles of the
// given shape and writes the container to w. Failures of w are returned as
// an *IOError; nothing is written unless every tile compressed.
func Encode(w io.Writer, g *grid.Grid, shape tile.Shape, id codec.ID, o *Options) error {
	if err := g.Validate(); err != nil {
		return err
	}

	l, err := tile.For(g, shape)
	if err != nil {
		return err
	}

	c, err := o.registry().Lookup(id)
	if err != nil {
		return err
	}

	h, err := newHeader(g, l, id)
	if err != nil {
		return err
	}

	e := encoder{
		w:      w,
		grid:   g,
		layout: l,
		codec:  c,
		n:      o.concurrency(),
	}

	if err := e.compress(); err != nil {
		return err
	}

	return e.write(h)
}

// WriteFile encodes g into the file at path, replacing any existing file.
// The container is written to a temporary file in the same directory which
// is renamed into place only once complete, so a partially written
// container is never visible at path.
func WriteFile(path string, g *grid.Grid, shape tile.Shape, id codec.ID, o *Options) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	tmp := f.Name()

	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	if err = Encode(w, g, shape, id, o); err != nil {
		var ioe *IOError
		if errors.As(err, &ioe) && ioe.Path == "" {
			ioe.Path = path
		}
		return err
	}

	if err = w.Flush(); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	if err = f.Chmod(0644); err != nil {
		return &IOError{Op: "chmod", Path: path, Err: err}
	}
	if err = f.Sync(); err != nil {
		return &IOError{Op: "sync", Path: path, Err: err}
	}
	if err = f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	if err = os.Rename(tmp, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}

	return nil
}
