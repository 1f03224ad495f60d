package codec

import "github.com/bodgit/tilefits/grid"

// noneCodec stores samples uncompressed.
type noneCodec struct{}

func (noneCodec) ID() ID { return None }

func (noneCodec) Compress(samples []int64, width, height int, t grid.SampleType) ([]byte, error) {
	if err := checkInput(samples, width, height, t); err != nil {
		return nil, err
	}
	return packSamples(samples, t), nil
}

func (noneCodec) Decompress(b []byte, width, height int, t grid.SampleType) ([]int64, error) {
	return unpackSamples(b, width*height, t)
}
