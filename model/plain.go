package model

import (
	"fmt"
	"math"

	"github.com/hangxie/parquet-go/v2/parquet"
)

// plainDecoder reads PLAIN-encoded values of one physical type from a
// cursor. Booleans are bit-packed LSB-first, so a decoder instance keeps the
// partially consumed byte between reads.
type plainDecoder struct {
	typ        parquet.Type
	typeLength int32

	boolBuf  byte
	boolBits uint
}

func newPlainDecoder(typ parquet.Type, typeLength int32) *plainDecoder {
	return &plainDecoder{typ: typ, typeLength: typeLength}
}

// decode reads count values. Byte arrays come back as string, INT96 as a
// 12-byte string in file order.
func (d *plainDecoder) decode(r *byteReader, count int) ([]interface{}, error) {
	values := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		v, err := d.readOne(r)
		if err != nil {
			return nil, fmt.Errorf("%w: PLAIN %s value %d of %d: %v", ErrCorruptPage, d.typ, i, count, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func (d *plainDecoder) readOne(r *byteReader) (interface{}, error) {
	switch d.typ {
	case parquet.Type_BOOLEAN:
		if d.boolBits == 0 {
			b, err := r.readByte()
			if err != nil {
				return nil, err
			}
			d.boolBuf = b
			d.boolBits = 8
		}
		v := d.boolBuf&1 != 0
		d.boolBuf >>= 1
		d.boolBits--
		return v, nil

	case parquet.Type_INT32:
		v, err := r.readUintLE(4)
		if err != nil {
			return nil, err
		}
		return int32(v), nil

	case parquet.Type_INT64:
		v, err := r.readUintLE(8)
		if err != nil {
			return nil, err
		}
		return int64(v), nil

	case parquet.Type_INT96:
		raw, err := r.readBytes(12)
		if err != nil {
			return nil, err
		}
		return string(raw), nil

	case parquet.Type_FLOAT:
		v, err := r.readUintLE(4)
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(uint32(v)), nil

	case parquet.Type_DOUBLE:
		v, err := r.readUintLE(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil

	case parquet.Type_BYTE_ARRAY:
		size, err := r.readUintLE(4)
		if err != nil {
			return nil, err
		}
		raw, err := r.readBytes(int(int32(size)))
		if err != nil {
			return nil, err
		}
		return string(raw), nil

	case parquet.Type_FIXED_LEN_BYTE_ARRAY:
		if d.typeLength <= 0 {
			return nil, fmt.Errorf("FIXED_LEN_BYTE_ARRAY without type length")
		}
		raw, err := r.readBytes(int(d.typeLength))
		if err != nil {
			return nil, err
		}
		return string(raw), nil
	}
	return nil, fmt.Errorf("unsupported physical type %v", d.typ)
}
