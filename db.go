package tilefits

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/tilefits/codec"
	"github.com/bodgit/tilefits/grid"
	"github.com/bodgit/tilefits/tile"
	_ "github.com/mattn/go-sqlite3"
)

// Entry is the manifest record of one generated fixture.
type Entry struct {
	Name       string
	File       string
	Codec      codec.ID
	SampleType grid.SampleType
	Width      int
	Height     int
	Shape      tile.Shape
	Size       int64
	SHA1       string
	CRC        string
}

// Manifest is the SQLite catalogue of generated fixtures.
type Manifest struct {
	db *sql.DB
}

// OpenManifest opens or creates the manifest database at file.
func OpenManifest(file string) (*Manifest, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	// Fixture workers record concurrently, serialise them onto one connection
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS fixture (id INTEGER PRIMARY KEY NOT NULL, name TEXT NOT NULL UNIQUE, file TEXT NOT NULL, codec TEXT NOT NULL, sample_type TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, tile_width INTEGER NOT NULL, tile_height INTEGER NOT NULL, size INTEGER NOT NULL, sha1 TEXT NOT NULL, crc TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Manifest{
		db: db,
	}, nil
}

// Close closes the database.
func (m *Manifest) Close() error {
	return m.db.Close()
}

// Record stores e, replacing any entry with the same name.
func (m *Manifest) Record(e Entry) error {
	if _, err := m.db.Exec("INSERT OR REPLACE INTO fixture (name, file, codec, sample_type, width, height, tile_width, tile_height, size, sha1, crc) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", e.Name, e.File, e.Codec.String(), e.SampleType.String(), e.Width, e.Height, e.Shape.Width, e.Shape.Height, e.Size, e.SHA1, e.CRC); err != nil {
		return err
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var e Entry
	var id, st string
	if err := s.Scan(&e.Name, &e.File, &id, &st, &e.Width, &e.Height, &e.Shape.Width, &e.Shape.Height, &e.Size, &e.SHA1, &e.CRC); err != nil {
		return nil, err
	}

	var err error
	if e.Codec, err = codec.ParseID(id); err != nil {
		return nil, err
	}
	if e.SampleType, err = grid.ParseSampleType(st); err != nil {
		return nil, err
	}

	return &e, nil
}

const selectEntry = "SELECT name, file, codec, sample_type, width, height, tile_width, tile_height, size, sha1, crc FROM fixture"

// Lookup returns the entry for name, or nil if there is none.
func (m *Manifest) Lookup(name string) (*Entry, error) {
	e, err := scanEntry(m.db.QueryRow(selectEntry+" WHERE name = ?", name))
	switch err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return e, nil
	default:
		return nil, err
	}
}

// Entries returns every entry ordered by name.
func (m *Manifest) Entries() ([]Entry, error) {
	rows, err := m.db.Query(selectEntry + " ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}

	return entries, rows.Err()
}
