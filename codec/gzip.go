package codec

import (
	"bytes"
	"io"

	"github.com/bodgit/tilefits/grid"
	"github.com/klauspost/compress/gzip"
)

// gzipCodec deflates the big-endian samples. The gzip header carries no
// modification time or name so output is deterministic.
type gzipCodec struct {
	level int
}

func newGzipCodec() gzipCodec {
	return gzipCodec{level: gzip.BestCompression}
}

func (gzipCodec) ID() ID { return Gzip }

func (c gzipCodec) Compress(samples []int64, width, height int, t grid.SampleType) ([]byte, error) {
	if err := checkInput(samples, width, height, t); err != nil {
		return nil, err
	}

	b := new(bytes.Buffer)
	w, err := gzip.NewWriterLevel(b, c.level)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(packSamples(samples, t)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func (gzipCodec) Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error) {
	r, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, corruptf("%v", err)
	}
	defer r.Close()

	// Read one byte more than expected so oversized payloads are caught
	expected := int64(width * height * t.Bytes())
	raw, err := io.ReadAll(io.LimitReader(r, expected+1))
	if err != nil {
		return nil, corruptf("%v", err)
	}

	return unpackSamples(raw, width*height, t)
}
