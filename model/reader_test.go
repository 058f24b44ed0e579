package model

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hangxie/parquet-go/v2/parquet"
	"github.com/stretchr/testify/require"

	"github.com/dalazx/parquet-dump/internal/testfile"
)

func openTestFile(t *testing.T, codec parquet.CompressionCodec) *FileReader {
	data := testfile.Build(codec)
	r, err := NewFileReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return r
}

func Test_CheckMagic(t *testing.T) {
	valid := []byte("PAR1_some_bogus_data_PAR1")
	ok, err := CheckHeaderMagic(bytes.NewReader(valid))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = CheckFooterMagic(bytes.NewReader(valid), int64(len(valid)))
	require.NoError(t, err)
	require.True(t, ok)

	invalid := []byte("blah")
	ok, err = CheckHeaderMagic(bytes.NewReader(invalid))
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = CheckFooterMagic(bytes.NewReader(invalid), int64(len(invalid)))
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_NewFileReader_NotParquet(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "Garbage", data: []byte("blah")},
		{name: "Empty", data: nil},
		{name: "Magic only at header", data: []byte("PAR1_some_bogus_data")},
		{name: "Magic only at footer", data: []byte("_some_bogus_data_PAR1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileReader(bytes.NewReader(tt.data), int64(len(tt.data)))
			require.ErrorIs(t, err, ErrNotParquet)
		})
	}
}

func Test_NewFileReader_BadFooterLength(t *testing.T) {
	// Correct magic on both ends, footer length pointing outside the file.
	var data bytes.Buffer
	data.WriteString("PAR1")
	_ = binary.Write(&data, binary.LittleEndian, uint32(1<<30))
	data.WriteString("PAR1")

	_, err := NewFileReader(bytes.NewReader(data.Bytes()), int64(data.Len()))
	require.ErrorIs(t, err, ErrCorruptMetadata)
}

func Test_NewFileReader_GarbageFooter(t *testing.T) {
	var data bytes.Buffer
	data.WriteString("PAR1")
	data.Write(bytes.Repeat([]byte{0xff}, 16))
	_ = binary.Write(&data, binary.LittleEndian, uint32(16))
	data.WriteString("PAR1")

	_, err := NewFileReader(bytes.NewReader(data.Bytes()), int64(data.Len()))
	require.ErrorIs(t, err, ErrCorruptMetadata)
}

func Test_FileReader_Footer(t *testing.T) {
	r := openTestFile(t, parquet.CompressionCodec_UNCOMPRESSED)

	footer := r.Footer()
	require.EqualValues(t, 1, footer.Version)
	require.EqualValues(t, testfile.NumRows, footer.NumRows)
	require.Len(t, footer.RowGroups, 1)

	names := make([]string, len(footer.Schema))
	for i, se := range footer.Schema {
		names[i] = se.Name
	}
	require.ElementsMatch(t, []string{"schema", "id", "name", "region"}, names)
}

func Test_FileReader_FooterIdempotent(t *testing.T) {
	data := testfile.Build(parquet.CompressionCodec_UNCOMPRESSED)
	source := bytes.NewReader(data)

	first, err := NewFileReader(source, int64(len(data)))
	require.NoError(t, err)
	second, err := NewFileReader(source, int64(len(data)))
	require.NoError(t, err)
	require.Equal(t, first.Footer(), second.Footer())
}

func Test_FileReader_ReadRowGroup(t *testing.T) {
	codecs := []parquet.CompressionCodec{
		parquet.CompressionCodec_UNCOMPRESSED,
		parquet.CompressionCodec_SNAPPY,
		parquet.CompressionCodec_GZIP,
		parquet.CompressionCodec_ZSTD,
		parquet.CompressionCodec_LZ4,
	}

	for _, codec := range codecs {
		t.Run(codec.String(), func(t *testing.T) {
			r := openTestFile(t, codec)
			rg, err := r.ReadRowGroup(0, nil)
			require.NoError(t, err)
			require.Equal(t, testfile.Columns(), rg.Keys)
			require.EqualValues(t, testfile.NumRows, rg.NumRows)

			// Every column materializes to exactly NumRows values.
			for _, key := range rg.Keys {
				require.Len(t, rg.Columns[key], testfile.NumRows)
			}

			for i, expected := range testfile.Rows() {
				require.Equal(t, expected, rg.Row(int64(i)), "row %d", i)
			}
		})
	}
}

func Test_FileReader_ColumnSelection(t *testing.T) {
	r := openTestFile(t, parquet.CompressionCodec_UNCOMPRESSED)

	rg, err := r.ReadRowGroup(0, []string{"region", "id"})
	require.NoError(t, err)
	require.Equal(t, []string{"region", "id"}, rg.Keys)
	require.Equal(t, []interface{}{"east", int32(1)}, rg.Row(0))

	_, err = r.ReadRowGroup(0, []string{"nope"})
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func Test_FileReader_Dump(t *testing.T) {
	r := openTestFile(t, parquet.CompressionCodec_UNCOMPRESSED)

	var rows [][]interface{}
	err := r.Dump(DumpOptions{}, func(rg RowGroupColumns) error {
		for i := int64(0); i < rg.NumRows; i++ {
			rows = append(rows, rg.Row(i))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, testfile.Rows(), rows)
}

func Test_FileReader_GetFileInfo(t *testing.T) {
	r := openTestFile(t, parquet.CompressionCodec_UNCOMPRESSED)

	info := r.GetFileInfo()
	require.EqualValues(t, 1, info.Version)
	require.EqualValues(t, testfile.NumRows, info.NumRows)
	require.Equal(t, 1, info.NumRowGroups)
	require.Equal(t, 3, info.NumLeafColumns)
	require.Equal(t, "parquet-dump testfile", info.CreatedBy)
}

func Test_FileReader_GetPageMetadataList(t *testing.T) {
	r := openTestFile(t, parquet.CompressionCodec_UNCOMPRESSED)

	// The dictionary-encoded column has a dictionary page then a data page.
	pages, err := r.GetPageMetadataList(0, 2)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "DICTIONARY_PAGE", pages[0].PageType)
	require.Equal(t, "DATA_PAGE", pages[1].PageType)
	require.EqualValues(t, 2, pages[0].NumValues)
	require.EqualValues(t, testfile.NumRows, pages[1].NumValues)

	// The plain column has a single data page.
	pages, err = r.GetPageMetadataList(0, 0)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	require.Equal(t, "DATA_PAGE", pages[0].PageType)

	_, err = r.GetPageMetadataList(5, 0)
	require.ErrorIs(t, err, ErrInvalidRowGroupIndex)
	_, err = r.GetPageMetadataList(0, 9)
	require.ErrorIs(t, err, ErrInvalidColumnIndex)
}

func Test_FileReader_GetColumnChunkInfo(t *testing.T) {
	r := openTestFile(t, parquet.CompressionCodec_SNAPPY)

	info, err := r.GetColumnChunkInfo(0, 1)
	require.NoError(t, err)
	require.Equal(t, "name", info.Name)
	require.Equal(t, "BYTE_ARRAY", info.PhysicalType)
	require.Equal(t, "UTF8", info.ConvertedType)
	require.Equal(t, "SNAPPY", info.Codec)
	require.EqualValues(t, testfile.NumRows, info.NumValues)
}
