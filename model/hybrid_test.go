package model

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// appendULEB128 encodes v with 7 data bits per byte, high bit as
// continuation.
func appendULEB128(buf []byte, v uint64) []byte {
	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}
	return append(buf, byte(v))
}

// appendRLERun appends a run-length run of value repeated count times.
func appendRLERun(buf []byte, value uint32, count int, width uint) []byte {
	buf = appendULEB128(buf, uint64(count)<<1)
	for i := 0; i < int(width+7)/8; i++ {
		buf = append(buf, byte(value>>(8*i)))
	}
	return buf
}

// appendBitPackedRun appends values as bit-packed groups of 8, padding the
// last group with zeros.
func appendBitPackedRun(buf []byte, values []uint32, width uint) []byte {
	groups := (len(values) + 7) / 8
	buf = appendULEB128(buf, uint64(groups)<<1|1)
	var acc uint64
	var bits uint
	for i := 0; i < groups*8; i++ {
		var v uint32
		if i < len(values) {
			v = values[i]
		}
		acc |= uint64(v) << bits
		bits += width
		for bits >= 8 {
			buf = append(buf, byte(acc))
			acc >>= 8
			bits -= 8
		}
	}
	if bits > 0 {
		buf = append(buf, byte(acc))
	}
	return buf
}

func Test_HybridDecode_RLERun(t *testing.T) {
	tests := []struct {
		name     string
		width    uint
		payload  []byte
		count    int
		expected []uint32
	}{
		{
			name:     "Single run",
			width:    1,
			payload:  appendRLERun(nil, 1, 5, 1),
			count:    5,
			expected: []uint32{1, 1, 1, 1, 1},
		},
		{
			name:     "Two runs",
			width:    2,
			payload:  appendRLERun(appendRLERun(nil, 3, 2, 2), 0, 3, 2),
			count:    5,
			expected: []uint32{3, 3, 0, 0, 0},
		},
		{
			name:     "Wide value",
			width:    20,
			payload:  appendRLERun(nil, 0x000fffff, 2, 20),
			count:    2,
			expected: []uint32{0x000fffff, 0x000fffff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := newHybridDecoder(tt.width).decode(newByteReader(tt.payload), tt.count)
			require.NoError(t, err)
			require.Equal(t, tt.expected, values)
		})
	}
}

func Test_HybridDecode_BitPackedRun(t *testing.T) {
	expected := []uint32{0, 1, 2, 3, 4, 5, 6, 7, 1, 3}
	payload := appendBitPackedRun(nil, expected, 3)

	values, err := newHybridDecoder(3).decode(newByteReader(payload), len(expected))
	require.NoError(t, err)
	require.Equal(t, expected, values)
}

func Test_HybridDecode_MixedRuns(t *testing.T) {
	payload := appendRLERun(nil, 2, 4, 3)
	payload = appendBitPackedRun(payload, []uint32{1, 0, 1, 0, 1, 0, 1, 0}, 3)

	values, err := newHybridDecoder(3).decode(newByteReader(payload), 12)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 2, 2, 2, 1, 0, 1, 0, 1, 0, 1, 0}, values)
}

func Test_HybridDecode_EmptyPayload(t *testing.T) {
	values, err := newHybridDecoder(1).decode(newByteReader(nil), 10)
	require.NoError(t, err)
	require.Empty(t, values)
}

func Test_HybridDecode_ShortPayload(t *testing.T) {
	// Payload ends at an exact run boundary before the requested count is
	// met: the decoder returns what it has.
	payload := appendRLERun(nil, 1, 3, 1)
	values, err := newHybridDecoder(1).decode(newByteReader(payload), 10)
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 1, 1}, values)
}

func Test_HybridDecode_TruncatedRun(t *testing.T) {
	// A bit-packed run header promising more groups than the payload holds.
	payload := appendULEB128(nil, 4<<1|1)
	payload = append(payload, 0xff)
	_, err := newHybridDecoder(8).decode(newByteReader(payload), 32)
	require.ErrorIs(t, err, ErrCorruptPage)
}

func Test_HybridDecode_LengthPrefixed(t *testing.T) {
	body := appendRLERun(nil, 2, 6, 2)
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint32(payload, uint32(len(body)))
	payload = append(payload, body...)
	// Trailing bytes after the prefixed stream must stay unread.
	payload = append(payload, 0xde, 0xad)

	r := newByteReader(payload)
	values, err := newHybridDecoder(2).decodeLengthPrefixed(r, 6)
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 2, 2, 2, 2, 2}, values)
	require.Equal(t, 2, r.remaining())
}

func Test_HybridDecode_LengthPrefixTooLarge(t *testing.T) {
	payload := []byte{0xff, 0x00, 0x00, 0x00, 0x01}
	_, err := newHybridDecoder(1).decodeLengthPrefixed(newByteReader(payload), 1)
	require.ErrorIs(t, err, ErrCorruptPage)
}

func Test_HybridDecode_RoundTrip(t *testing.T) {
	// Encoding any sequence as a single bit-packed run and decoding recovers
	// the original prefix exactly.
	for _, width := range []uint{1, 2, 3, 5, 7, 8, 11, 16, 24, 32} {
		sequence := make([]uint32, 27)
		mask := uint32(uint64(1)<<width - 1)
		for i := range sequence {
			sequence[i] = uint32(i*2654435761) & mask
		}
		payload := appendBitPackedRun(nil, sequence, width)
		values, err := newHybridDecoder(width).decode(newByteReader(payload), len(sequence))
		require.NoError(t, err)
		require.Equal(t, sequence, values, "width %d", width)
	}
}

func Test_WidthFromMaxInt(t *testing.T) {
	tests := []struct {
		max      int
		expected uint
	}{
		{max: 0, expected: 0},
		{max: 1, expected: 1},
		{max: 2, expected: 2},
		{max: 3, expected: 2},
		{max: 7, expected: 3},
		{max: 8, expected: 4},
		{max: 255, expected: 8},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, widthFromMaxInt(tt.max), "max %d", tt.max)
	}
}
