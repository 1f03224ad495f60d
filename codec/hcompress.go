package codec

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/bodgit/tilefits/grid"
	"github.com/klauspost/compress/zstd"
)

// hcompressCodec applies a reversible integer Haar wavelet over the tile,
// halving the low-pass region each level until it is a single sample. The
// coefficients are packed as zig-zag varints and entropy coded with zstd.
//
// Intermediate coefficients need a couple of bits of headroom beyond the
// sample width so 64-bit samples are refused.
type hcompressCodec struct {
	encoders *sync.Pool
	decoders *sync.Pool
}

func newHCompressCodec() hcompressCodec {
	return hcompressCodec{
		encoders: &sync.Pool{
			New: func() interface{} {
				enc, err := zstd.NewWriter(
					nil,
					zstd.WithEncoderConcurrency(1),
					zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
					zstd.WithLowerEncoderMem(true),
				)
				if err != nil {
					panic(err)
				}
				return enc
			},
		},
		decoders: &sync.Pool{
			New: func() interface{} {
				dec, err := zstd.NewReader(
					nil,
					zstd.WithDecoderConcurrency(1),
					zstd.WithDecoderLowmem(true),
				)
				if err != nil {
					panic(err)
				}
				return dec
			},
		},
	}
}

func (hcompressCodec) ID() ID { return HCompress }

func (c hcompressCodec) Compress(samples []int64, width, height int, t grid.SampleType) ([]byte, error) {
	if err := checkInput(samples, width, height, t); err != nil {
		return nil, err
	}
	if t == grid.Int64 {
		return nil, &UnsupportedSampleTypeError{Codec: HCompress, SampleType: t}
	}

	v := append([]int64(nil), samples...)
	haarForward(v, width, height)

	var raw []byte
	for _, x := range v {
		raw = binary.AppendVarint(raw, x)
	}

	enc := c.encoders.Get().(*zstd.Encoder)
	defer c.encoders.Put(enc)

	return enc.EncodeAll(raw, nil), nil
}

func (c hcompressCodec) Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error) {
	if t == grid.Int64 {
		return nil, &UnsupportedSampleTypeError{Codec: HCompress, SampleType: t}
	}

	n := width * height
	raw, err := c.inflate(b, n*binary.MaxVarintLen64)
	if err != nil {
		return nil, err
	}

	v := make([]int64, n)
	for i := range v {
		x, k := binary.Varint(raw)
		if k <= 0 {
			return nil, corruptf("hcompress: short coefficient data")
		}
		v[i] = x
		raw = raw[k:]
	}
	if len(raw) != 0 {
		return nil, corruptf("hcompress: trailing coefficient data")
	}

	haarInverse(v, width, height)

	return v, checkOutput(v, width, height, t)
}

// maxWindow is the largest zstd window accepted regardless of tile size,
// the encoder never uses more than this.
const maxWindow = 8 << 20

// inflate decompresses a zstd payload of at most limit bytes without ever
// buffering more than limit+1 bytes of output.
func (c hcompressCodec) inflate(b []byte, limit int) ([]byte, error) {
	var h zstd.Header
	if err := h.Decode(b); err != nil {
		return nil, corruptf("hcompress: %v", err)
	}
	if h.HasFCS && h.FrameContentSize > uint64(limit) {
		return nil, corruptf("hcompress: frame holds %d bytes, at most %d expected", h.FrameContentSize, limit)
	}
	if h.WindowSize > uint64(max(limit, maxWindow)) {
		return nil, corruptf("hcompress: window of %d bytes too large", h.WindowSize)
	}

	dec := c.decoders.Get().(*zstd.Decoder)
	defer c.decoders.Put(dec)

	// A bytes.Reader, unlike a bytes.Buffer, keeps the decoder streaming
	if err := dec.Reset(bytes.NewReader(b)); err != nil {
		return nil, corruptf("hcompress: %v", err)
	}

	raw, err := io.ReadAll(io.LimitReader(dec, int64(limit)+1))
	if err != nil {
		return nil, corruptf("hcompress: %v", err)
	}
	if len(raw) > limit {
		return nil, corruptf("hcompress: more than %d bytes of coefficient data", limit)
	}

	return raw, nil
}

// lift replaces n values spaced stride apart with their pairwise floor means
// followed by their pairwise differences. An odd trailing value joins the
// means unchanged.
func lift(v []int64, off, stride, n int, tmp []int64) {
	half := (n + 1) / 2
	for i := 0; i < n/2; i++ {
		a, b := v[off+2*i*stride], v[off+(2*i+1)*stride]
		d := a - b
		tmp[i] = b + d>>1
		tmp[half+i] = d
	}
	if n%2 == 1 {
		tmp[half-1] = v[off+(n-1)*stride]
	}
	for i := 0; i < n; i++ {
		v[off+i*stride] = tmp[i]
	}
}

func unlift(v []int64, off, stride, n int, tmp []int64) {
	half := (n + 1) / 2
	for i := 0; i < n/2; i++ {
		s, d := v[off+i*stride], v[off+(half+i)*stride]
		b := s - d>>1
		tmp[2*i] = d + b
		tmp[2*i+1] = b
	}
	if n%2 == 1 {
		tmp[n-1] = v[off+(half-1)*stride]
	}
	for i := 0; i < n; i++ {
		v[off+i*stride] = tmp[i]
	}
}

func haarForward(v []int64, width, height int) {
	tmp := make([]int64, max(width, height))
	for w, h := width, height; w > 1 || h > 1; w, h = (w+1)/2, (h+1)/2 {
		if w > 1 {
			for y := 0; y < h; y++ {
				lift(v, y*width, 1, w, tmp)
			}
		}
		if h > 1 {
			for x := 0; x < w; x++ {
				lift(v, x, width, h, tmp)
			}
		}
	}
}

func haarInverse(v []int64, width, height int) {
	tmp := make([]int64, max(width, height))

	var levels [][2]int
	for w, h := width, height; w > 1 || h > 1; w, h = (w+1)/2, (h+1)/2 {
		levels = append(levels, [2]int{w, h})
	}

	for i := len(levels) - 1; i >= 0; i-- {
		w, h := levels[i][0], levels[i][1]
		if h > 1 {
			for x := 0; x < w; x++ {
				unlift(v, x, width, h, tmp)
			}
		}
		if w > 1 {
			for y := 0; y < h; y++ {
				unlift(v, y*width, 1, w, tmp)
			}
		}
	}
}
