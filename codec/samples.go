package codec

import (
	"encoding/binary"

	"github.com/bodgit/tilefits/grid"
)

// packSamples lays samples out as big-endian integers of the width of t.
func packSamples(samples []int64, t grid.SampleType) []byte {
	n := t.Bytes()
	b := make([]byte, len(samples)*n)
	for i, v := range samples {
		switch t {
		case grid.Int8:
			b[i] = byte(v)
		case grid.Int16:
			binary.BigEndian.PutUint16(b[i*n:], uint16(v))
		case grid.Int32:
			binary.BigEndian.PutUint32(b[i*n:], uint32(v))
		case grid.Int64:
			binary.BigEndian.PutUint64(b[i*n:], uint64(v))
		}
	}
	return b
}

func unpackSamples(b []byte, count int, t grid.SampleType) ([]int64, error) {
	n := t.Bytes()
	if len(b) != count*n {
		return nil, corruptf("have %d bytes, expected %d", len(b), count*n)
	}
	samples := make([]int64, count)
	for i := range samples {
		switch t {
		case grid.Int8:
			samples[i] = int64(int8(b[i]))
		case grid.Int16:
			samples[i] = int64(int16(binary.BigEndian.Uint16(b[i*n:])))
		case grid.Int32:
			samples[i] = int64(int32(binary.BigEndian.Uint32(b[i*n:])))
		case grid.Int64:
			samples[i] = int64(binary.BigEndian.Uint64(b[i*n:]))
		}
	}
	return samples, nil
}

// wrap sign-extends the low bits of v.
func wrap(v int64, bits int) int64 {
	shift := 64 - uint(bits)
	return v << shift >> shift
}

func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
