package tilefits

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/tilefits/container"
)

// withDir ensures dir exists, creating it and any parents if absent, for the
// duration of fn.
func withDir(dir string, fn func(string) error) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(abs, 0755); err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("not a directory")
	}

	return fn(abs)
}

func checkNames(fixtures []Fixture) error {
	seen := make(map[string]struct{}, len(fixtures))
	for _, f := range fixtures {
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("tilefits: duplicate fixture %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func (g *Generator) feedFixtures(ctx context.Context, fixtures []Fixture) (<-chan Fixture, <-chan error, error) {
	out := make(chan Fixture)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, f := range fixtures {
			select {
			case out <- f:
			case <-ctx.Done():
				errc <- errors.New("generate cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

func (g *Generator) writeFixture(dir string, f Fixture) error {
	file := filepath.Join(dir, f.Filename())
	if err := container.WriteFile(file, f.Grid, f.Shape, f.Codec, g.options); err != nil {
		return fmt.Errorf("tilefits: fixture %s: %w", f.Name, err)
	}

	size, sha, crc, err := checksumFile(file)
	if err != nil {
		return err
	}

	if err := g.manifest.Record(Entry{
		Name:       f.Name,
		File:       f.Filename(),
		Codec:      f.Codec,
		SampleType: f.Grid.SampleType,
		Width:      f.Grid.Width,
		Height:     f.Grid.Height,
		Shape:      f.Shape,
		Size:       size,
		SHA1:       sha,
		CRC:        crc,
	}); err != nil {
		return err
	}

	g.logger.Printf("Wrote \"%s\" (%s, %s tiles, %d bytes)\n", file, f.Codec, f.Shape, size)

	return nil
}

func (g *Generator) fixtureWorker(ctx context.Context, dir string, in <-chan Fixture) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for f := range in {
			if ctx.Err() != nil {
				return
			}
			if err := g.writeFixture(dir, f); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// firstError drains every error channel concurrently and returns the first
// error seen, calling cancel as soon as it arrives so the remaining stages
// stop early.
func firstError(cancel context.CancelFunc, cs ...<-chan error) error {
	var (
		wg    sync.WaitGroup
		once  sync.Once
		first error
	)
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			defer wg.Done()
			for err := range c {
				if err != nil {
					once.Do(func() {
						first = err
						cancel()
					})
				}
			}
		}(c)
	}
	wg.Wait()
	return first
}

// Generate writes every fixture into dir, creating dir if needed, and
// records each in the manifest. It stops at the first failure and returns
// the number of fixtures written.
func (g *Generator) Generate(dir string, fixtures []Fixture) (int, error) {
	if err := checkNames(fixtures); err != nil {
		return 0, err
	}

	err := withDir(dir, func(dir string) error {
		ctx, cancelFunc := context.WithCancel(context.Background())
		defer cancelFunc()

		var errcList []<-chan error

		in, errc, err := g.feedFixtures(ctx, fixtures)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)

		for i := 0; i < min(g.workers, len(fixtures)); i++ {
			errc, err := g.fixtureWorker(ctx, dir, in)
			if err != nil {
				return err
			}
			errcList = append(errcList, errc)
		}

		return firstError(cancelFunc, errcList...)
	})
	if err != nil {
		return 0, err
	}

	return len(fixtures), nil
}
