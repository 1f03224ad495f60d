/*
Package codec implements the per-tile compression algorithms used by the
container format.

Each algorithm is identified by a stable ID written into the container header
and is looked up through a Registry, so new algorithms can be added without
touching the container reader or writer. Every codec is lossless; a codec that
cannot reproduce a sample type exactly refuses it with an
*UnsupportedSampleTypeError.

Multi-byte integers inside payloads are big-endian.
*/
package codec

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/bodgit/tilefits/grid"
)

// ID identifies a codec. The values are written as-is into the container
// header so must never be renumbered.
type ID uint8

// Built-in codecs, named after the matching FITS ZCMPTYPE values.
const (
	None ID = iota
	Gzip
	Rice
	PLIO
	HCompress
)

var names = map[ID]string{
	None:      "NONE",
	Gzip:      "GZIP_1",
	Rice:      "RICE_1",
	PLIO:      "PLIO_1",
	HCompress: "HCOMPRESS_1",
}

func (id ID) String() string {
	if s, ok := names[id]; ok {
		return s
	}
	return fmt.Sprintf("ID(%d)", uint8(id))
}

// ParseID returns the ID for the given name.
func ParseID(name string) (ID, error) {
	for id, s := range names {
		if s == name {
			return id, nil
		}
	}
	return 0, &UnknownCodecError{Name: name}
}

// ErrCorruptTile is returned when a compressed tile cannot be decoded back
// into the expected number of in-range samples.
var ErrCorruptTile = errors.New("codec: corrupt tile")

func corruptf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrCorruptTile, fmt.Sprintf(format, args...))
}

// UnknownCodecError is returned when looking up a codec that has not been
// registered.
type UnknownCodecError struct {
	ID   ID
	Name string
}

func (e *UnknownCodecError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("codec: unknown codec %q", e.Name)
	}
	return fmt.Sprintf("codec: unknown codec %s", e.ID)
}

// UnsupportedSampleTypeError is returned by a codec that cannot round trip
// samples of the given type.
type UnsupportedSampleTypeError struct {
	Codec      ID
	SampleType grid.SampleType
}

func (e *UnsupportedSampleTypeError) Error() string {
	return fmt.Sprintf("codec: %s does not support %s samples", e.Codec, e.SampleType)
}

// Codec compresses and decompresses the samples of a single tile. Samples
// are passed in row-major order and always number width*height.
type Codec interface {
	ID() ID
	Compress(samples []int64, width, height int, t grid.SampleType) ([]byte, error)
	Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error)
}

// Registry maps IDs to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[ID]Codec
}

// NewRegistry returns a registry holding the given codecs.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{
		codecs: make(map[ID]Codec),
	}
	for _, c := range codecs {
		r.Register(c)
	}
	return r
}

// Builtin returns a new instance of every built-in codec.
func Builtin() []Codec {
	return []Codec{
		noneCodec{},
		newGzipCodec(),
		riceCodec{},
		plioCodec{},
		newHCompressCodec(),
	}
}

// Default is the registry used when none is supplied.
var Default = NewRegistry(Builtin()...)

// Register adds c, replacing any codec already registered with the same ID.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.ID()] = c
}

// Lookup returns the codec registered for id.
func (r *Registry) Lookup(id ID) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[id]
	if !ok {
		return nil, &UnknownCodecError{ID: id}
	}
	return c, nil
}

// IDs returns the registered IDs in ascending order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ID, 0, len(r.codecs))
	for id := range r.codecs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func checkInput(samples []int64, width, height int, t grid.SampleType) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("codec: invalid tile dimensions %dx%d", width, height)
	}
	if len(samples) != width*height {
		return fmt.Errorf("codec: have %d samples, expected %d", len(samples), width*height)
	}
	if !t.Valid() {
		return fmt.Errorf("codec: invalid sample type %d", uint8(t))
	}
	for i, v := range samples {
		if !t.Contains(v) {
			return fmt.Errorf("codec: sample %d: %w: %d does not fit %s", i, grid.ErrSampleRange, v, t)
		}
	}
	return nil
}

func checkOutput(samples []int64, width, height int, t grid.SampleType) error {
	if len(samples) != width*height {
		return corruptf("decoded %d samples, expected %d", len(samples), width*height)
	}
	for _, v := range samples {
		if !t.Contains(v) {
			return corruptf("sample %d does not fit %s", v, t)
		}
	}
	return nil
}
