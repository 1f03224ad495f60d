/*
Package tilefits generates reference tiled image containers used to check
decoders of the format against known inputs.

Each fixture pairs a grid with a tile shape and codec. Generated fixtures are
catalogued in a small SQLite manifest recording their size and checksums so a
set of fixtures can later be verified.
*/
package tilefits

import (
	"log"

	"github.com/bodgit/tilefits/container"
)

const defaultWorkers = 10

// Generator writes and verifies fixture sets.
type Generator struct {
	manifest *Manifest
	logger   *log.Logger
	workers  int
	options  *container.Options
}

// New returns a Generator recording fixtures in the manifest database at
// file. At most workers fixtures are written at once, ten if workers is zero
// or less.
func New(file string, logger *log.Logger, workers int) (*Generator, error) {
	m, err := OpenManifest(file)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Generator{
		manifest: m,
		logger:   logger,
		workers:  workers,
		options:  &container.Options{Concurrency: 1},
	}, nil
}

// Manifest returns the manifest the Generator records into.
func (g *Generator) Manifest() *Manifest {
	return g.manifest
}

// Close closes the manifest database.
func (g *Generator) Close() error {
	return g.manifest.Close()
}
