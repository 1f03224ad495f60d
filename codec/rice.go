package codec

import (
	"math/bits"

	"github.com/bodgit/tilefits/grid"
)

const riceBlock = 32

// riceParams holds the number of bits used for the FS code, the largest FS
// worth coding and the raw sample width.
type riceParams struct {
	fsBits, fsMax, bBits int
}

func riceParamsFor(t grid.SampleType) (riceParams, bool) {
	switch t {
	case grid.Int8:
		return riceParams{3, 6, 8}, true
	case grid.Int16:
		return riceParams{4, 14, 16}, true
	case grid.Int32:
		return riceParams{5, 25, 32}, true
	}
	return riceParams{}, false
}

// riceCodec Rice codes the first differences of the samples in blocks of
// riceBlock, choosing a split per block. A block code of zero means every
// difference in the block is zero and fsMax+1 means the differences are
// stored raw.
//
// The first sample is stored raw in bBits, differences are taken modulo
// 2^bBits and zig-zag mapped to unsigned values.
type riceCodec struct{}

func (riceCodec) ID() ID { return Rice }

func (riceCodec) Compress(samples []int64, width, height int, t grid.SampleType) ([]byte, error) {
	if err := checkInput(samples, width, height, t); err != nil {
		return nil, err
	}
	p, ok := riceParamsFor(t)
	if !ok {
		return nil, &UnsupportedSampleTypeError{Codec: Rice, SampleType: t}
	}

	var bw bitWriter
	mask := uint64(1)<<uint(p.bBits) - 1

	last := samples[0]
	bw.writeBits(uint64(last)&mask, p.bBits)

	diffs := make([]uint64, 0, riceBlock)
	for i := 0; i < len(samples); i += riceBlock {
		end := min(i+riceBlock, len(samples))

		diffs = diffs[:0]
		var sum uint64
		for _, v := range samples[i:end] {
			d := zigzag(wrap(v-last, p.bBits))
			last = v
			diffs = append(diffs, d)
			sum += d
		}

		fs := bits.Len64(sum / uint64(len(diffs)) >> 1)

		switch {
		case fs >= p.fsMax:
			bw.writeBits(uint64(p.fsMax+1), p.fsBits)
			for _, d := range diffs {
				bw.writeBits(d, p.bBits)
			}
		case sum == 0:
			bw.writeBits(0, p.fsBits)
		default:
			bw.writeBits(uint64(fs+1), p.fsBits)
			for _, d := range diffs {
				for top := d >> uint(fs); top > 0; top-- {
					bw.writeBit(false)
				}
				bw.writeBit(true)
				bw.writeBits(d, fs)
			}
		}
	}

	return bw.bytes(), nil
}

func (riceCodec) Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error) {
	p, ok := riceParamsFor(t)
	if !ok {
		return nil, &UnsupportedSampleTypeError{Codec: Rice, SampleType: t}
	}

	br := bitReader{data: b}
	n := width * height
	samples := make([]int64, 0, n)

	first, err := br.readBits(p.bBits)
	if err != nil {
		return nil, corruptf("rice: %v", err)
	}
	last := wrap(int64(first), p.bBits)

	// Longest run of zero bits a valid unary prefix can have
	maxTop := uint64(1) << uint(p.bBits)

	for len(samples) < n {
		count := min(riceBlock, n-len(samples))

		code, err := br.readBits(p.fsBits)
		if err != nil {
			return nil, corruptf("rice: %v", err)
		}

		for j := 0; j < count; j++ {
			var d uint64
			switch {
			case code == 0:
			case int(code) == p.fsMax+1:
				if d, err = br.readBits(p.bBits); err != nil {
					return nil, corruptf("rice: %v", err)
				}
			case int(code) <= p.fsMax:
				fs := int(code) - 1
				var top uint64
				for {
					bit, err := br.readBit()
					if err != nil {
						return nil, corruptf("rice: %v", err)
					}
					if bit {
						break
					}
					if top++; top > maxTop {
						return nil, corruptf("rice: unary prefix too long")
					}
				}
				low, err := br.readBits(fs)
				if err != nil {
					return nil, corruptf("rice: %v", err)
				}
				d = top<<uint(fs) | low
			default:
				return nil, corruptf("rice: invalid block code %d", code)
			}

			last = wrap(last+unzigzag(d), p.bBits)
			samples = append(samples, last)
		}
	}

	if br.remaining() {
		return nil, corruptf("rice: trailing data")
	}

	return samples, checkOutput(samples, width, height, t)
}
