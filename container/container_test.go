package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/tilefits/codec"
	"github.com/bodgit/tilefits/grid"
	"github.com/bodgit/tilefits/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioGrid(t *testing.T) *grid.Grid {
	g, err := grid.FromRows(grid.Int16, [][]int64{
		{-30, -10, 0, 10},
		{20, 40, 80, 120},
		{160, 200, 240, 280},
		{320, 360, 400, 440},
	})
	require.NoError(t, err)
	return g
}

func fiveByFour(t *testing.T) *grid.Grid {
	g, err := grid.FromRows(grid.Int16, [][]int64{
		{1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10},
		{11, 12, 13, 14, 15},
		{16, 17, 18, 19, 20},
	})
	require.NoError(t, err)
	return g
}

func encode(t *testing.T, g *grid.Grid, shape tile.Shape, id codec.ID, o *Options) []byte {
	b := new(bytes.Buffer)
	require.NoError(t, Encode(b, g, shape, id, o))
	return b.Bytes()
}

func decode(b []byte, o *Options) (*grid.Grid, error) {
	return Decode(bytes.NewReader(b), int64(len(b)), o)
}

func TestScenario(t *testing.T) {
	dir := t.TempDir()
	g := scenarioGrid(t)

	for _, id := range []codec.ID{codec.HCompress, codec.PLIO, codec.Gzip, codec.Rice, codec.None} {
		t.Run(id.String(), func(t *testing.T) {
			path := filepath.Join(dir, id.String()+".tfits")
			require.NoError(t, WriteFile(path, g, tile.Shape{Width: 4, Height: 4}, id, nil))

			out, err := ReadFile(path, nil)
			require.NoError(t, err)
			assert.Equal(t, g.Rows(), out.Rows())
			assert.Equal(t, grid.Int16, out.SampleType)

			cfg, err := ReadConfigFile(path)
			require.NoError(t, err)
			assert.Equal(t, Config{
				Width:      4,
				Height:     4,
				SampleType: grid.Int16,
				Shape:      tile.Shape{Width: 4, Height: 4},
				Codec:      id,
				Tiles:      1,
			}, cfg)
		})
	}
}

func TestEdgeTiling(t *testing.T) {
	g := fiveByFour(t)

	for _, shape := range []tile.Shape{{2, 3}, {3, 2}, {1, 1}, {5, 4}, {8, 8}} {
		for _, id := range codec.Default.IDs() {
			for _, n := range []int{1, 4} {
				b := encode(t, g, shape, id, &Options{Concurrency: n})

				out, err := decode(b, &Options{Concurrency: n})
				require.NoError(t, err, "%s %s", shape, id)
				assert.True(t, g.Equal(out), "%s %s", shape, id)
			}
		}
	}
}

func TestLayout(t *testing.T) {
	b := encode(t, fiveByFour(t), tile.Shape{Width: 2, Height: 3}, codec.None, nil)

	// 6 tiles: 2x3, 2x3, 1x3, 2x1, 2x1, 1x1 samples of 2 bytes each
	lengths := []uint32{12, 12, 6, 4, 4, 2}
	require.Len(t, b, headerSize+len(lengths)*entrySize+40)

	assert.Equal(t, []byte(magic), b[:4])
	assert.Equal(t, uint32(6), binary.BigEndian.Uint32(b[24:]))

	offset := uint64(headerSize + len(lengths)*entrySize)
	for i, l := range lengths {
		e := b[headerSize+i*entrySize:]
		assert.Equal(t, offset, binary.BigEndian.Uint64(e))
		assert.Equal(t, l, binary.BigEndian.Uint32(e[8:]))
		offset += uint64(l)
	}

	// Third tile is the clipped right hand column
	third := b[headerSize+len(lengths)*entrySize+24:]
	assert.Equal(t, []byte{0, 5, 0, 10, 0, 15}, third[:6])
}

func TestIdempotent(t *testing.T) {
	dir := t.TempDir()
	g := fiveByFour(t)

	for _, id := range codec.Default.IDs() {
		a := filepath.Join(dir, "a-"+id.String())
		b := filepath.Join(dir, "b-"+id.String())

		require.NoError(t, WriteFile(a, g, tile.Shape{Width: 3, Height: 2}, id, &Options{Concurrency: 1}))
		require.NoError(t, WriteFile(b, g, tile.Shape{Width: 3, Height: 2}, id, &Options{Concurrency: 8}))

		ab, err := os.ReadFile(a)
		require.NoError(t, err)
		bb, err := os.ReadFile(b)
		require.NoError(t, err)
		assert.Equal(t, ab, bb, id.String())
	}
}

func TestInvalidShape(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.tfits")

	err := WriteFile(path, scenarioGrid(t), tile.Shape{Width: 0, Height: 4}, codec.Gzip, nil)
	var ise *tile.InvalidShapeError
	require.ErrorAs(t, err, &ise)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUnknownCodec(t *testing.T) {
	err := Encode(new(bytes.Buffer), scenarioGrid(t), tile.Shape{Width: 4, Height: 4}, codec.ID(200), nil)
	var uce *codec.UnknownCodecError
	assert.ErrorAs(t, err, &uce)
}

func TestUnsupportedSampleType(t *testing.T) {
	g, err := grid.FromRows(grid.Int64, [][]int64{{1 << 40, -1 << 40}})
	require.NoError(t, err)

	err = Encode(new(bytes.Buffer), g, tile.Shape{Width: 2, Height: 1}, codec.Rice, nil)
	var use *codec.UnsupportedSampleTypeError
	assert.ErrorAs(t, err, &use)
}

func TestFailedWriteKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.tfits")

	require.NoError(t, WriteFile(path, scenarioGrid(t), tile.Shape{Width: 4, Height: 4}, codec.Gzip, nil))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.Error(t, WriteFile(path, scenarioGrid(t), tile.Shape{Width: 4, Height: 4}, codec.ID(99), nil))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCorruptHeader(t *testing.T) {
	good := encode(t, fiveByFour(t), tile.Shape{Width: 3, Height: 2}, codec.Gzip, nil)

	tables := []struct {
		name   string
		mangle func([]byte) []byte
	}{
		{"short", func(b []byte) []byte { return b[:headerSize-1] }},
		{"magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"version", func(b []byte) []byte { b[5] = 9; return b }},
		{"sample type", func(b []byte) []byte { b[6] = 0; return b }},
		{"width", func(b []byte) []byte { binary.BigEndian.PutUint32(b[8:], 0); return b }},
		{"tile width", func(b []byte) []byte { binary.BigEndian.PutUint32(b[16:], 0); return b }},
		{"tile count", func(b []byte) []byte { binary.BigEndian.PutUint32(b[24:], 3); return b }},
		{"huge grid", func(b []byte) []byte {
			binary.BigEndian.PutUint32(b[8:], 1<<20)
			binary.BigEndian.PutUint32(b[12:], 1<<20)
			return b
		}},
		{"truncated index", func(b []byte) []byte { return b[:headerSize+entrySize] }},
		{"truncated payload", func(b []byte) []byte { return b[:len(b)-1] }},
		{"length too long", func(b []byte) []byte {
			e := b[headerSize+3*entrySize+8:]
			binary.BigEndian.PutUint32(e, binary.BigEndian.Uint32(e)+1000)
			return b
		}},
		{"offset", func(b []byte) []byte {
			e := b[headerSize+entrySize:]
			binary.BigEndian.PutUint64(e, binary.BigEndian.Uint64(e)+1)
			return b
		}},
		{"trailing", func(b []byte) []byte { return append(b, 0) }},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			b := table.mangle(append([]byte(nil), good...))

			out, err := decode(b, nil)
			var che *CorruptHeaderError
			assert.ErrorAs(t, err, &che)
			assert.Nil(t, out)
		})
	}
}

func TestCodecMismatch(t *testing.T) {
	b := encode(t, scenarioGrid(t), tile.Shape{Width: 2, Height: 2}, codec.Rice, nil)

	reg := codec.NewRegistry(codec.Builtin()...)
	noRice := codec.NewRegistry()
	for _, id := range reg.IDs() {
		if id != codec.Rice {
			c, err := reg.Lookup(id)
			require.NoError(t, err)
			noRice.Register(c)
		}
	}

	out, err := decode(b, &Options{Registry: noRice})
	var cme *CodecMismatchError
	require.ErrorAs(t, err, &cme)
	assert.Equal(t, codec.Rice, cme.ID)
	assert.Nil(t, out)

	// Unregistered ID patched into the header
	b[7] = 250
	_, err = decode(b, nil)
	require.ErrorAs(t, err, &cme)
	assert.Equal(t, codec.ID(250), cme.ID)
}

func TestChecksum(t *testing.T) {
	b := encode(t, scenarioGrid(t), tile.Shape{Width: 2, Height: 2}, codec.None, nil)
	b[len(b)-1] ^= 0xff

	_, err := decode(b, nil)
	assert.ErrorIs(t, err, ErrChecksum)
}

// shortCodec drops the last sample of every tile it decodes.
type shortCodec struct {
	codec.Codec
}

func (c shortCodec) Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error) {
	samples, err := c.Codec.Decompress(b, width, height, t)
	if err != nil {
		return nil, err
	}
	return samples[:len(samples)-1], nil
}

func TestIncompleteTileCoverage(t *testing.T) {
	b := encode(t, fiveByFour(t), tile.Shape{Width: 3, Height: 2}, codec.None, nil)

	none, err := codec.Default.Lookup(codec.None)
	require.NoError(t, err)

	out, err := decode(b, &Options{Registry: codec.NewRegistry(shortCodec{none})})
	var itc *IncompleteTileCoverageError
	require.ErrorAs(t, err, &itc)
	assert.Equal(t, 0, itc.X)
	assert.Equal(t, 0, itc.Y)
	assert.Nil(t, out)
}

func TestStates(t *testing.T) {
	good := encode(t, scenarioGrid(t), tile.Shape{Width: 3, Height: 3}, codec.PLIO, nil)

	d := decoder{r: bytes.NewReader(good), size: int64(len(good))}
	require.NoError(t, d.decode(false))
	assert.Equal(t, stateAssembled, d.state)

	d = decoder{r: bytes.NewReader(good), size: int64(len(good))}
	require.NoError(t, d.decode(true))
	assert.Equal(t, stateHeaderParsed, d.state)
	assert.Error(t, d.step(stateTilesDecoded, stateAssembled, d.assemble))

	bad := append([]byte(nil), good...)
	bad[len(bad)-1] ^= 1
	d = decoder{r: bytes.NewReader(bad), size: int64(len(bad))}
	require.Error(t, d.decode(false))
	assert.Equal(t, stateFailed, d.state)
	assert.Nil(t, d.grid)
	assert.Equal(t, "failed", d.state.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestIOError(t *testing.T) {
	err := Encode(failingWriter{}, scenarioGrid(t), tile.Shape{Width: 4, Height: 4}, codec.None, nil)
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	assert.Equal(t, "write", ioe.Op)

	missing := filepath.Join(t.TempDir(), "missing", "x.tfits")
	err = WriteFile(missing, scenarioGrid(t), tile.Shape{Width: 4, Height: 4}, codec.None, nil)
	require.ErrorAs(t, err, &ioe)
	assert.Equal(t, "create", ioe.Op)

	_, err = ReadFile(missing, nil)
	require.ErrorAs(t, err, &ioe)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
