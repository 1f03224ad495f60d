package container

import (
	"errors"
	"fmt"

	"github.com/bodgit/tilefits/codec"
)

// ErrChecksum is returned when a tile's compressed block does not match the
// checksum recorded in the index.
var ErrChecksum = errors.New("container: tile checksum mismatch")

// IOError wraps a failure of the underlying file or stream.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("container: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("container: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CorruptHeaderError is returned when the header or tile index is invalid
// or inconsistent with the size of the file.
type CorruptHeaderError struct {
	Msg string
}

func (e *CorruptHeaderError) Error() string {
	return "container: corrupt header: " + e.Msg
}

func corruptf(format string, args ...interface{}) error {
	return &CorruptHeaderError{Msg: fmt.Sprintf(format, args...)}
}

// CodecMismatchError is returned when a container was written with a codec
// that is not in the registry used to read it.
type CodecMismatchError struct {
	ID codec.ID
}

func (e *CodecMismatchError) Error() string {
	return fmt.Sprintf("container: no codec registered for %s", e.ID)
}

// IncompleteTileCoverageError is returned when the decoded tiles do not cover
// every sample of the grid exactly once. X and Y locate the first offending
// sample.
type IncompleteTileCoverageError struct {
	X, Y int
}

func (e *IncompleteTileCoverageError) Error() string {
	return fmt.Sprintf("container: tiles do not cover sample (%d,%d) exactly once", e.X, e.Y)
}
