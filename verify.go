package tilefits

import (
	"fmt"
	"path/filepath"

	"github.com/bodgit/tilefits/container"
)

// Verify checks every fixture in the manifest against the files in dir: the
// file checksums must match and the container must decode to a grid of the
// recorded shape. It returns the number of fixtures checked.
func (g *Generator) Verify(dir string) (int, error) {
	entries, err := g.manifest.Entries()
	if err != nil {
		return 0, err
	}

	for i, e := range entries {
		file := filepath.Join(dir, e.File)

		size, sha, crc, err := checksumFile(file)
		if err != nil {
			return i, err
		}
		if size != e.Size || sha != e.SHA1 || crc != e.CRC {
			return i, fmt.Errorf("tilefits: fixture %s: checksum mismatch, have %s, expected %s", e.Name, sha, e.SHA1)
		}

		cfg, err := container.ReadConfigFile(file)
		if err != nil {
			return i, err
		}
		if cfg.Codec != e.Codec || cfg.Shape != e.Shape {
			return i, fmt.Errorf("tilefits: fixture %s: written with %s %s tiles, expected %s %s tiles", e.Name, cfg.Codec, cfg.Shape, e.Codec, e.Shape)
		}

		m, err := container.ReadFile(file, g.options)
		if err != nil {
			return i, fmt.Errorf("tilefits: fixture %s: %w", e.Name, err)
		}
		if m.Width != e.Width || m.Height != e.Height || m.SampleType != e.SampleType {
			return i, fmt.Errorf("tilefits: fixture %s: decoded %dx%d %s, expected %dx%d %s", e.Name, m.Width, m.Height, m.SampleType, e.Width, e.Height, e.SampleType)
		}

		g.logger.Printf("Verified \"%s\"\n", file)
	}

	return len(entries), nil
}
