package codec

import (
	"bytes"
	"io"
)

// bitWriter writes bits msb-first into each byte.
type bitWriter struct {
	buf  bytes.Buffer
	byte byte
	n    uint8
}

func (bw *bitWriter) writeBit(bit bool) {
	bw.byte <<= 1
	if bit {
		bw.byte |= 1
	}
	bw.n++
	if bw.n == 8 {
		_ = bw.buf.WriteByte(bw.byte)
		bw.byte = 0
		bw.n = 0
	}
}

// writeBits writes the low n bits of bits, most significant first.
func (bw *bitWriter) writeBits(bits uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		bw.writeBit(bits>>uint(i)&1 == 1)
	}
}

// bytes flushes any partial byte, padded with zeros, and returns the result.
func (bw *bitWriter) bytes() []byte {
	if bw.n > 0 {
		_ = bw.buf.WriteByte(bw.byte << (8 - bw.n))
		bw.byte = 0
		bw.n = 0
	}
	return bw.buf.Bytes()
}

// bitReader reads bits msb-first from each byte.
type bitReader struct {
	data []byte
	idx  int
	bit  uint8
}

func (br *bitReader) readBit() (bool, error) {
	if br.idx >= len(br.data) {
		return false, io.ErrUnexpectedEOF
	}
	set := br.data[br.idx]&(1<<(7-br.bit)) != 0
	br.bit++
	if br.bit == 8 {
		br.bit = 0
		br.idx++
	}
	return set, nil
}

func (br *bitReader) readBits(n int) (uint64, error) {
	var v uint64
	for i := 0; i < n; i++ {
		bit, err := br.readBit()
		if err != nil {
			return 0, err
		}
		v <<= 1
		if bit {
			v |= 1
		}
	}
	return v, nil
}

// remaining reports whether any whole byte after the current one is unread.
func (br *bitReader) remaining() bool {
	if br.bit == 0 {
		return br.idx < len(br.data)
	}
	return br.idx+1 < len(br.data)
}
