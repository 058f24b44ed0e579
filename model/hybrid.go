package model

import (
	"fmt"
	"math/bits"
)

// widthFromMaxInt returns the number of bits needed to store values in
// [0, max].
func widthFromMaxInt(max int) uint {
	return uint(bits.Len(uint(max)))
}

// hybridDecoder decodes the RLE / bit-packed hybrid encoding used for level
// streams and dictionary indices. Each run starts with a ULEB128 header whose
// low bit selects the mode: 0 is a run-length run of a single value stored in
// ceil(width/8) little-endian bytes, 1 is (header>>1) groups of 8 bit-packed
// values.
type hybridDecoder struct {
	width uint
}

func newHybridDecoder(width uint) *hybridDecoder {
	return &hybridDecoder{width: width}
}

// decodeLengthPrefixed reads the 4-byte little-endian payload length that
// precedes level streams, then decodes up to count values from that payload.
// The cursor is left at the first byte after the payload even when fewer
// values were present.
func (h *hybridDecoder) decodeLengthPrefixed(r *byteReader, count int) ([]uint32, error) {
	size, err := r.readUintLE(4)
	if err != nil {
		return nil, fmt.Errorf("%w: level stream length prefix: %v", ErrCorruptPage, err)
	}
	payload, err := r.readBytes(int(size))
	if err != nil {
		return nil, fmt.Errorf("%w: level stream of %d bytes: %v", ErrCorruptPage, size, err)
	}
	return h.decode(newByteReader(payload), count)
}

// decode reads runs until count values are decoded or the buffer is
// exhausted. A payload ending at an exact run boundary returns the values
// decoded so far; a run truncated mid-way is a format error.
func (h *hybridDecoder) decode(r *byteReader, count int) ([]uint32, error) {
	out := make([]uint32, 0, count)
	for len(out) < count && r.remaining() > 0 {
		header, err := r.readULEB128()
		if err != nil {
			return nil, fmt.Errorf("%w: run header: %v", ErrCorruptPage, err)
		}
		if header&1 == 0 {
			// RLE run: one value repeated header>>1 times.
			runLength := int(header >> 1)
			value, err := r.readUintLE(int(h.width+7) / 8)
			if err != nil {
				return nil, fmt.Errorf("%w: RLE run value: %v", ErrCorruptPage, err)
			}
			for i := 0; i < runLength; i++ {
				out = append(out, uint32(value))
			}
		} else {
			// Bit-packed run: groups of 8 values, 8*width bits per group.
			groups := int(header >> 1)
			values, err := r.readBitPacked(groups*8, h.width)
			if err != nil {
				return nil, fmt.Errorf("%w: bit-packed run of %d groups: %v", ErrCorruptPage, groups, err)
			}
			out = append(out, values...)
		}
	}
	// Bit-packed groups round up to multiples of 8, so the last run may
	// overshoot the requested count.
	if len(out) > count {
		out = out[:count]
	}
	return out, nil
}
