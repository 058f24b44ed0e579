// Package testfile synthesizes small Parquet files for tests. The generated
// file has three flat columns over four rows: a required INT32 `id`, an
// optional UTF-8 `name` with one null, and a required dictionary-encoded
// UTF-8 `region`.
package testfile

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/golang/snappy"
	"github.com/hangxie/parquet-go/v2/parquet"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// NumRows is the row count of the generated file.
const NumRows = 4

// Columns lists the leaf column names in schema order.
func Columns() []string {
	return []string{"id", "name", "region"}
}

// Rows returns the expected materialized rows; nil marks the null cell.
func Rows() [][]interface{} {
	return [][]interface{}{
		{int32(1), "alpha", "east"},
		{int32(2), "beta", "west"},
		{int32(3), nil, "east"},
		{int32(4), "delta", "west"},
	}
}

// CSV returns the expected tab-delimited dump without a header row.
func CSV() string {
	return "1\talpha\teast\n2\tbeta\twest\n3\t\teast\n4\tdelta\twest\n"
}

// Build assembles a complete Parquet file using the given codec for every
// page.
func Build(codec parquet.CompressionCodec) []byte {
	var file bytes.Buffer
	file.WriteString("PAR1")

	// id: PLAIN INT32, required, one data page.
	var idPayload bytes.Buffer
	for _, id := range []int32{1, 2, 3, 4} {
		_ = binary.Write(&idPayload, binary.LittleEndian, id)
	}
	idOffset := int64(file.Len())
	idSizes := appendDataPage(&file, idPayload.Bytes(), parquet.Encoding_PLAIN, codec)

	// name: PLAIN BYTE_ARRAY, optional, definition levels [1,1,0,1] as one
	// bit-packed run inside a length-prefixed hybrid stream.
	var namePayload bytes.Buffer
	namePayload.Write([]byte{0x02, 0x00, 0x00, 0x00}) // level stream length
	namePayload.Write([]byte{0x03, 0x0b})             // 1 bit-packed group: 1,1,0,1,...
	for _, name := range []string{"alpha", "beta", "delta"} {
		_ = binary.Write(&namePayload, binary.LittleEndian, int32(len(name)))
		namePayload.WriteString(name)
	}
	nameOffset := int64(file.Len())
	nameSizes := appendDataPage(&file, namePayload.Bytes(), parquet.Encoding_PLAIN, codec)

	// region: dictionary page with two PLAIN entries, then one data page of
	// 1-bit indices [0,1,0,1].
	var dictPayload bytes.Buffer
	for _, region := range []string{"east", "west"} {
		_ = binary.Write(&dictPayload, binary.LittleEndian, int32(len(region)))
		dictPayload.WriteString(region)
	}
	regionDictOffset := int64(file.Len())
	dictSizes := appendDictionaryPage(&file, dictPayload.Bytes(), codec)

	regionPayload := []byte{0x01, 0x03, 0x0a} // width 1, 1 bit-packed group: 0,1,0,1,...
	regionDataOffset := int64(file.Len())
	regionSizes := appendDataPage(&file, regionPayload, parquet.Encoding_PLAIN_DICTIONARY, codec)

	rowGroup := &parquet.RowGroup{
		NumRows: NumRows,
		Columns: []*parquet.ColumnChunk{
			{
				FileOffset: idOffset,
				MetaData: &parquet.ColumnMetaData{
					Type:                  parquet.Type_INT32,
					Encodings:             []parquet.Encoding{parquet.Encoding_PLAIN},
					PathInSchema:          []string{"id"},
					Codec:                 codec,
					NumValues:             NumRows,
					TotalUncompressedSize: idSizes.uncompressed,
					TotalCompressedSize:   idSizes.compressed,
					DataPageOffset:        idOffset,
				},
			},
			{
				FileOffset: nameOffset,
				MetaData: &parquet.ColumnMetaData{
					Type:                  parquet.Type_BYTE_ARRAY,
					Encodings:             []parquet.Encoding{parquet.Encoding_PLAIN, parquet.Encoding_RLE},
					PathInSchema:          []string{"name"},
					Codec:                 codec,
					NumValues:             NumRows,
					TotalUncompressedSize: nameSizes.uncompressed,
					TotalCompressedSize:   nameSizes.compressed,
					DataPageOffset:        nameOffset,
				},
			},
			{
				FileOffset: regionDictOffset,
				MetaData: &parquet.ColumnMetaData{
					Type:                  parquet.Type_BYTE_ARRAY,
					Encodings:             []parquet.Encoding{parquet.Encoding_PLAIN_DICTIONARY, parquet.Encoding_RLE},
					PathInSchema:          []string{"region"},
					Codec:                 codec,
					NumValues:             NumRows,
					TotalUncompressedSize: dictSizes.uncompressed + regionSizes.uncompressed,
					TotalCompressedSize:   dictSizes.compressed + regionSizes.compressed,
					DataPageOffset:        regionDataOffset,
					DictionaryPageOffset:  i64Ptr(regionDictOffset),
				},
			},
		},
	}
	rowGroup.TotalByteSize = idSizes.uncompressed + nameSizes.uncompressed +
		dictSizes.uncompressed + regionSizes.uncompressed

	meta := &parquet.FileMetaData{
		Version: 1,
		Schema: []*parquet.SchemaElement{
			{Name: "schema", NumChildren: i32Ptr(3)},
			{
				Name:           "id",
				Type:           typePtr(parquet.Type_INT32),
				RepetitionType: repPtr(parquet.FieldRepetitionType_REQUIRED),
			},
			{
				Name:           "name",
				Type:           typePtr(parquet.Type_BYTE_ARRAY),
				RepetitionType: repPtr(parquet.FieldRepetitionType_OPTIONAL),
				ConvertedType:  convPtr(parquet.ConvertedType_UTF8),
			},
			{
				Name:           "region",
				Type:           typePtr(parquet.Type_BYTE_ARRAY),
				RepetitionType: repPtr(parquet.FieldRepetitionType_REQUIRED),
				ConvertedType:  convPtr(parquet.ConvertedType_UTF8),
			},
		},
		NumRows:   NumRows,
		RowGroups: []*parquet.RowGroup{rowGroup},
		CreatedBy: strPtr("parquet-dump testfile"),
	}

	footer := serialize(meta)
	file.Write(footer)
	_ = binary.Write(&file, binary.LittleEndian, uint32(len(footer)))
	file.WriteString("PAR1")
	return file.Bytes()
}

type pageSizes struct {
	compressed   int64
	uncompressed int64
}

func appendDataPage(file *bytes.Buffer, payload []byte, encoding parquet.Encoding, codec parquet.CompressionCodec) pageSizes {
	compressed := compress(payload, codec)
	header := &parquet.PageHeader{
		Type:                 parquet.PageType_DATA_PAGE,
		UncompressedPageSize: int32(len(payload)),
		CompressedPageSize:   int32(len(compressed)),
		DataPageHeader: &parquet.DataPageHeader{
			NumValues:               NumRows,
			Encoding:                encoding,
			DefinitionLevelEncoding: parquet.Encoding_RLE,
			RepetitionLevelEncoding: parquet.Encoding_RLE,
		},
	}
	headerBytes := serialize(header)
	file.Write(headerBytes)
	file.Write(compressed)
	return pageSizes{
		compressed:   int64(len(headerBytes) + len(compressed)),
		uncompressed: int64(len(headerBytes) + len(payload)),
	}
}

func appendDictionaryPage(file *bytes.Buffer, payload []byte, codec parquet.CompressionCodec) pageSizes {
	compressed := compress(payload, codec)
	header := &parquet.PageHeader{
		Type:                 parquet.PageType_DICTIONARY_PAGE,
		UncompressedPageSize: int32(len(payload)),
		CompressedPageSize:   int32(len(compressed)),
		DictionaryPageHeader: &parquet.DictionaryPageHeader{
			NumValues: 2,
			Encoding:  parquet.Encoding_PLAIN,
		},
	}
	headerBytes := serialize(header)
	file.Write(headerBytes)
	file.Write(compressed)
	return pageSizes{
		compressed:   int64(len(headerBytes) + len(compressed)),
		uncompressed: int64(len(headerBytes) + len(payload)),
	}
}

func serialize(msg thrift.TStruct) []byte {
	buf := thrift.NewTMemoryBuffer()
	proto := thrift.NewTCompactProtocolConf(buf, nil)
	ctx := context.Background()
	if err := msg.Write(ctx, proto); err != nil {
		panic(fmt.Sprintf("serializing %T: %v", msg, err))
	}
	if err := proto.Flush(ctx); err != nil {
		panic(fmt.Sprintf("flushing %T: %v", msg, err))
	}
	return buf.Bytes()
}

func compress(payload []byte, codec parquet.CompressionCodec) []byte {
	switch codec {
	case parquet.CompressionCodec_UNCOMPRESSED:
		return payload
	case parquet.CompressionCodec_SNAPPY:
		return snappy.Encode(nil, payload)
	case parquet.CompressionCodec_GZIP:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		_, _ = w.Write(payload)
		_ = w.Close()
		return buf.Bytes()
	case parquet.CompressionCodec_ZSTD:
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			panic(err)
		}
		_, _ = w.Write(payload)
		_ = w.Close()
		return buf.Bytes()
	case parquet.CompressionCodec_LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		_, _ = w.Write(payload)
		_ = w.Close()
		return buf.Bytes()
	}
	panic(fmt.Sprintf("no test compressor for codec %v", codec))
}

func i32Ptr(v int32) *int32 { return &v }

func i64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func typePtr(v parquet.Type) *parquet.Type { return &v }

func repPtr(v parquet.FieldRepetitionType) *parquet.FieldRepetitionType { return &v }

func convPtr(v parquet.ConvertedType) *parquet.ConvertedType { return &v }
