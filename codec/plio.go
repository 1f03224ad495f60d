package codec

import (
	"encoding/binary"

	"github.com/bodgit/tilefits/grid"
)

// plioCodec run-length codes the samples in row-major order as a sequence of
// (value, run length) pairs, the value as a zig-zag varint and the run
// length as an unsigned varint. Unlike the FITS PLIO_1 bitstream it accepts
// negative values.
type plioCodec struct{}

func (plioCodec) ID() ID { return PLIO }

func (plioCodec) Compress(samples []int64, width, height int, t grid.SampleType) ([]byte, error) {
	if err := checkInput(samples, width, height, t); err != nil {
		return nil, err
	}

	var b []byte
	for i := 0; i < len(samples); {
		j := i + 1
		for j < len(samples) && samples[j] == samples[i] {
			j++
		}
		b = binary.AppendVarint(b, samples[i])
		b = binary.AppendUvarint(b, uint64(j-i))
		i = j
	}

	return b, nil
}

func (plioCodec) Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error) {
	n := width * height
	samples := make([]int64, 0, n)

	for len(b) > 0 {
		v, i := binary.Varint(b)
		if i <= 0 {
			return nil, corruptf("plio: bad value")
		}
		b = b[i:]

		run, i := binary.Uvarint(b)
		if i <= 0 || run == 0 {
			return nil, corruptf("plio: bad run length")
		}
		b = b[i:]

		if run > uint64(n-len(samples)) {
			return nil, corruptf("plio: run overflows tile")
		}
		for ; run > 0; run-- {
			samples = append(samples, v)
		}
	}

	return samples, checkOutput(samples, width, height, t)
}
