package model

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/hangxie/parquet-go/v2/parquet"
)

const (
	magic = "PAR1"

	// magic header + footer length + magic footer
	minFileSize = 4 + 4 + 4
)

// FileReader reads the footer of a Parquet file and drives per-column chunk
// readers over its row groups.
type FileReader struct {
	file   io.ReadSeeker
	size   int64
	meta   *parquet.FileMetaData
	schema *SchemaHelper
	closer io.Closer
}

// OpenFile opens a Parquet file from the local filesystem.
func OpenFile(path string) (*FileReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r, err := NewFileReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewFileReader validates the magic markers, reads the footer and builds the
// schema helper. The reader takes over the byte source; it must not be
// shared.
func NewFileReader(file io.ReadSeeker, size int64) (*FileReader, error) {
	if size < minFileSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the minimal layout", ErrNotParquet, size)
	}
	if ok, err := CheckHeaderMagic(file); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: missing header magic", ErrNotParquet)
	}
	if ok, err := CheckFooterMagic(file, size); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: missing footer magic", ErrNotParquet)
	}

	footerSize, err := readFooterSize(file, size)
	if err != nil {
		return nil, err
	}

	meta, err := readFooter(file, size, footerSize)
	if err != nil {
		return nil, err
	}

	schema, err := NewSchemaHelper(meta.Schema)
	if err != nil {
		return nil, err
	}

	return &FileReader{file: file, size: size, meta: meta, schema: schema}, nil
}

// Close releases the underlying byte source when the reader owns it.
func (fr *FileReader) Close() error {
	if fr.closer != nil {
		return fr.closer.Close()
	}
	return nil
}

// CheckHeaderMagic reports whether the source starts with the PAR1 marker.
func CheckHeaderMagic(file io.ReadSeeker) (bool, error) {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return readMagic(file)
}

// CheckFooterMagic reports whether the source ends with the PAR1 marker.
func CheckFooterMagic(file io.ReadSeeker, size int64) (bool, error) {
	if size < int64(len(magic)) {
		return false, nil
	}
	if _, err := file.Seek(size-int64(len(magic)), io.SeekStart); err != nil {
		return false, err
	}
	return readMagic(file)
}

func readMagic(file io.Reader) (bool, error) {
	buf := make([]byte, len(magic))
	if _, err := io.ReadFull(file, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return string(buf) == magic, nil
}

// readFooterSize reads the little-endian footer length stored just before
// the trailing magic and checks it fits inside the file.
func readFooterSize(file io.ReadSeeker, size int64) (int64, error) {
	if _, err := file.Seek(size-8, io.SeekStart); err != nil {
		return 0, err
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(file, buf); err != nil {
		return 0, err
	}
	footerSize := int64(int32(binary.LittleEndian.Uint32(buf)))
	if footerSize <= 0 || footerSize > size-minFileSize {
		return 0, fmt.Errorf("%w: footer length %d does not fit in %d bytes", ErrCorruptMetadata, footerSize, size)
	}
	return footerSize, nil
}

func readFooter(file io.ReadSeeker, size, footerSize int64) (*parquet.FileMetaData, error) {
	if _, err := file.Seek(size-8-footerSize, io.SeekStart); err != nil {
		return nil, err
	}
	proto := thrift.NewTCompactProtocolConf(&positionTracker{r: file}, nil)
	meta := parquet.NewFileMetaData()
	if err := meta.Read(context.Background(), proto); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptMetadata, err)
	}
	return meta, nil
}

// Footer returns the parsed file metadata.
func (fr *FileReader) Footer() *parquet.FileMetaData {
	return fr.meta
}

// Schema returns the schema helper built from the footer.
func (fr *FileReader) Schema() *SchemaHelper {
	return fr.schema
}

// NumRows returns the total row count of the file.
func (fr *FileReader) NumRows() int64 {
	return fr.meta.NumRows
}

// RowGroups returns the footer's row groups in file order.
func (fr *FileReader) RowGroups() []*parquet.RowGroup {
	return fr.meta.RowGroups
}

// RowGroupColumns is the decoded content of one row group: one materialized
// value slice per selected column, each NumRows long for flat columns.
type RowGroupColumns struct {
	Keys    []string
	Columns map[string][]interface{}
	NumRows int64
}

// Row assembles the values of one row by zipping the columns.
func (rg RowGroupColumns) Row(i int64) []interface{} {
	row := make([]interface{}, len(rg.Keys))
	for c, key := range rg.Keys {
		col := rg.Columns[key]
		if i < int64(len(col)) {
			row[c] = col[i]
		}
	}
	return row
}

// DumpOptions selects columns for a dump.
type DumpOptions struct {
	// Columns holds dotted leaf paths; empty means every leaf column in
	// schema order.
	Columns []string
}

// selectLeaves resolves the column selection against the schema.
func (fr *FileReader) selectLeaves(columns []string) ([]LeafColumn, error) {
	if len(columns) == 0 {
		return fr.schema.Leaves(), nil
	}
	leaves := make([]LeafColumn, 0, len(columns))
	for _, name := range columns {
		leaf, err := fr.schema.Leaf(strings.Split(name, "."))
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leaf)
	}
	return leaves, nil
}

// ReadRowGroup decodes the selected columns of one row group to completion.
func (fr *FileReader) ReadRowGroup(rgIndex int, columns []string) (RowGroupColumns, error) {
	if rgIndex < 0 || rgIndex >= len(fr.meta.RowGroups) {
		return RowGroupColumns{}, ErrInvalidRowGroupIndex
	}
	leaves, err := fr.selectLeaves(columns)
	if err != nil {
		return RowGroupColumns{}, err
	}

	rg := fr.meta.RowGroups[rgIndex]
	out := RowGroupColumns{
		Keys:    make([]string, 0, len(leaves)),
		Columns: make(map[string][]interface{}, len(leaves)),
		NumRows: rg.NumRows,
	}
	for _, leaf := range leaves {
		chunk, err := findColumnChunk(rg, leaf.Path)
		if err != nil {
			return RowGroupColumns{}, err
		}
		cr, err := NewColumnChunkReader(fr.file, fr.schema, chunk.MetaData, rg.NumRows)
		if err != nil {
			return RowGroupColumns{}, err
		}
		values, _, _, err := cr.ReadAll()
		if err != nil {
			return RowGroupColumns{}, fmt.Errorf("column %s: %w", leaf.Name(), err)
		}
		out.Keys = append(out.Keys, leaf.Name())
		out.Columns[leaf.Name()] = values
	}
	return out, nil
}

func findColumnChunk(rg *parquet.RowGroup, path []string) (*parquet.ColumnChunk, error) {
	dotted := strings.Join(path, ".")
	for _, chunk := range rg.Columns {
		if chunk.MetaData == nil {
			continue
		}
		if strings.EqualFold(strings.Join(chunk.MetaData.PathInSchema, "."), dotted) {
			return chunk, nil
		}
	}
	return nil, fmt.Errorf("%w: no chunk for %s", ErrUnknownColumn, dotted)
}

// Dump decodes every row group in file order and hands each one to the
// sink. The sink may return io.EOF to stop early without error.
func (fr *FileReader) Dump(opts DumpOptions, sink func(RowGroupColumns) error) error {
	for i := range fr.meta.RowGroups {
		rg, err := fr.ReadRowGroup(i, opts.Columns)
		if err != nil {
			return err
		}
		if err := sink(rg); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
	return nil
}
