package tilefits

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bodgit/tilefits/codec"
	"github.com/bodgit/tilefits/grid"
	"github.com/bodgit/tilefits/tile"
)

// Ext is the filename extension given to every fixture.
const Ext = ".tfits"

// Fixture is one container to generate.
type Fixture struct {
	Name  string
	Grid  *grid.Grid
	Shape tile.Shape
	Codec codec.ID
}

// Filename returns the name of the file the fixture is written to.
func (f Fixture) Filename() string {
	return f.Name + Ext
}

func mustGrid(t grid.SampleType, rows [][]int64) *grid.Grid {
	g, err := grid.FromRows(t, rows)
	if err != nil {
		panic(err)
	}
	return g
}

// DefaultFixtures returns the standard fixture set: a 4x4 grid under each of
// the four FITS codecs plus a 5x4 grid split into clipped 3x2 tiles.
func DefaultFixtures() []Fixture {
	data4x4 := mustGrid(grid.Int16, [][]int64{
		{-30, -10, 0, 10},
		{20, 40, 80, 120},
		{160, 200, 240, 280},
		{320, 360, 400, 440},
	})

	data5x4 := mustGrid(grid.Int16, [][]int64{
		{1, 2, 3, 4, 5},
		{6, 7, 8, 9, 10},
		{11, 12, 13, 14, 15},
		{16, 17, 18, 19, 20},
	})

	return []Fixture{
		{"hcompress_4x4_i16", data4x4, tile.Shape{Width: 4, Height: 4}, codec.HCompress},
		{"plio_4x4_i16", data4x4, tile.Shape{Width: 4, Height: 4}, codec.PLIO},
		{"gzip_4x4_i16", data4x4, tile.Shape{Width: 4, Height: 4}, codec.Gzip},
		{"rice_4x4_i16", data4x4, tile.Shape{Width: 4, Height: 4}, codec.Rice},
		{"gzip_5x4_i16_tiled_3x2", data5x4, tile.Shape{Width: 3, Height: 2}, codec.Gzip},
	}
}

type xmlFixtures struct {
	XMLName  xml.Name     `xml:"Fixtures"`
	Fixtures []xmlFixture `xml:"Fixture"`
}

type xmlFixture struct {
	XMLName    xml.Name `xml:"Fixture"`
	Name       string   `xml:"Name"`
	Codec      string   `xml:"Codec"`
	SampleType string   `xml:"SampleType"`
	TileWidth  int      `xml:"TileWidth"`
	TileHeight int      `xml:"TileHeight"`
	Rows       []string `xml:"Row"`
}

func (x xmlFixture) fixture() (Fixture, error) {
	if x.Name == "" || strings.ContainsAny(x.Name, `/\`) {
		return Fixture{}, fmt.Errorf("tilefits: invalid fixture name %q", x.Name)
	}

	id, err := codec.ParseID(x.Codec)
	if err != nil {
		return Fixture{}, err
	}

	st := grid.Int16
	if x.SampleType != "" {
		if st, err = grid.ParseSampleType(x.SampleType); err != nil {
			return Fixture{}, err
		}
	}

	shape := tile.Shape{Width: x.TileWidth, Height: x.TileHeight}
	if err := shape.Validate(); err != nil {
		return Fixture{}, err
	}

	rows := make([][]int64, 0, len(x.Rows))
	for _, r := range x.Rows {
		fields := strings.Fields(r)
		row := make([]int64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseInt(f, 10, 64)
			if err != nil {
				return Fixture{}, fmt.Errorf("tilefits: fixture %s: %w", x.Name, err)
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}

	g, err := grid.FromRows(st, rows)
	if err != nil {
		return Fixture{}, fmt.Errorf("tilefits: fixture %s: %w", x.Name, err)
	}

	return Fixture{
		Name:  x.Name,
		Grid:  g,
		Shape: shape,
		Codec: id,
	}, nil
}

// ParseFixtures reads an XML fixture set from r.
func ParseFixtures(r io.Reader) ([]Fixture, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var xf xmlFixtures
	if err := xml.Unmarshal(b, &xf); err != nil {
		return nil, err
	}

	fixtures := make([]Fixture, 0, len(xf.Fixtures))
	for _, x := range xf.Fixtures {
		f, err := x.fixture()
		if err != nil {
			return nil, err
		}
		fixtures = append(fixtures, f)
	}

	return fixtures, nil
}

// LoadFixtures reads an XML fixture set from file.
func LoadFixtures(file string) ([]Fixture, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseFixtures(f)
}
