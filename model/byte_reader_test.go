package model

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ReadUintLE(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		size     int
		expected uint64
	}{
		{name: "One byte", data: []byte{0x2a}, size: 1, expected: 0x2a},
		{name: "Two bytes", data: []byte{0x34, 0x12}, size: 2, expected: 0x1234},
		{name: "Four bytes", data: []byte{0x78, 0x56, 0x34, 0x12}, size: 4, expected: 0x12345678},
		{
			name:     "Eight bytes",
			data:     []byte{0xef, 0xcd, 0xab, 0x89, 0x67, 0x45, 0x23, 0x01},
			size:     8,
			expected: 0x0123456789abcdef,
		},
		{name: "Zero size", data: nil, size: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newByteReader(tt.data)
			v, err := r.readUintLE(tt.size)
			require.NoError(t, err)
			require.Equal(t, tt.expected, v)
			require.Equal(t, tt.size, r.position())
		})
	}
}

func Test_ReadUintLE_ShortBuffer(t *testing.T) {
	r := newByteReader([]byte{0x01, 0x02})
	_, err := r.readUintLE(4)
	require.ErrorIs(t, err, io.EOF)
}

func Test_ReadULEB128(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected uint64
		consumed int
	}{
		{name: "Single byte", data: []byte{0x05}, expected: 5, consumed: 1},
		{name: "Boundary 127", data: []byte{0x7f}, expected: 127, consumed: 1},
		{name: "Two bytes", data: []byte{0x80, 0x01}, expected: 128, consumed: 2},
		{name: "Larger value", data: []byte{0xe5, 0x8e, 0x26}, expected: 624485, consumed: 3},
		{
			name:     "Max 32-bit",
			data:     []byte{0xff, 0xff, 0xff, 0xff, 0x0f},
			expected: 0xffffffff,
			consumed: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newByteReader(tt.data)
			v, err := r.readULEB128()
			require.NoError(t, err)
			require.Equal(t, tt.expected, v)
			require.Equal(t, tt.consumed, r.position())
		})
	}
}

func Test_ReadULEB128_TooLong(t *testing.T) {
	r := newByteReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01})
	_, err := r.readULEB128()
	require.Error(t, err)
}

func Test_ReadULEB128_Truncated(t *testing.T) {
	r := newByteReader([]byte{0x80})
	_, err := r.readULEB128()
	require.ErrorIs(t, err, io.EOF)
}

func Test_ReadBitPacked(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		count    int
		width    uint
		expected []uint32
	}{
		{
			name:     "Width one",
			data:     []byte{0x0b}, // 1,1,0,1
			count:    4,
			width:    1,
			expected: []uint32{1, 1, 0, 1},
		},
		{
			name: "Width three across byte boundary",
			// Values 0..7 packed LSB first: 10001000 11000110 11111010
			data:     []byte{0x88, 0xc6, 0xfa},
			count:    8,
			width:    3,
			expected: []uint32{0, 1, 2, 3, 4, 5, 6, 7},
		},
		{
			name:     "Width zero yields zeros",
			data:     nil,
			count:    5,
			width:    0,
			expected: []uint32{0, 0, 0, 0, 0},
		},
		{
			name:     "Width 32",
			data:     []byte{0xff, 0xff, 0xff, 0xff},
			count:    1,
			width:    32,
			expected: []uint32{0xffffffff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newByteReader(tt.data)
			v, err := r.readBitPacked(tt.count, tt.width)
			require.NoError(t, err)
			require.Equal(t, tt.expected, v)
		})
	}
}

func Test_ReadBitPacked_ShortBuffer(t *testing.T) {
	r := newByteReader([]byte{0xff})
	_, err := r.readBitPacked(8, 3)
	require.ErrorIs(t, err, io.EOF)
}

func Test_ReadBitPacked_WidthTooLarge(t *testing.T) {
	r := newByteReader([]byte{0xff})
	_, err := r.readBitPacked(1, 33)
	require.Error(t, err)
}

func Test_Skip(t *testing.T) {
	r := newByteReader([]byte{1, 2, 3, 4})
	r.skip(2)
	require.Equal(t, 2, r.position())
	r.skip(10)
	require.Equal(t, 4, r.position())
	require.Equal(t, 0, r.remaining())
}
