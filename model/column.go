package model

import (
	"fmt"
	"io"

	"github.com/hangxie/parquet-go/v2/parquet"
)

// PageValues is the decoded content of one data page. Values holds only the
// defined values (definition level equal to the maximum); undefined
// positions are reconstructed from DefinitionLevels. Level slices are nil
// when the column cannot have the corresponding levels.
type PageValues struct {
	NumValues        int32
	Values           []interface{}
	DefinitionLevels []uint32
	RepetitionLevels []uint32
}

// ColumnChunkReader iterates the pages of one column chunk, decoding the
// dictionary page (if any) and every data page in file order.
type ColumnChunkReader struct {
	file   io.ReadSeeker
	meta   *parquet.ColumnMetaData
	leaf   LeafColumn
	schema *SchemaHelper

	numRows    int64
	offset     int64
	valuesRead int64
	dictionary []interface{}
	sawData    bool
}

// NewColumnChunkReader positions a reader at the chunk's first page. The
// effective start offset is the dictionary page offset when it is present
// and precedes the data page offset.
func NewColumnChunkReader(file io.ReadSeeker, schema *SchemaHelper, meta *parquet.ColumnMetaData, numRows int64) (*ColumnChunkReader, error) {
	leaf, err := schema.Leaf(meta.PathInSchema)
	if err != nil {
		return nil, err
	}
	return &ColumnChunkReader{
		file:    file,
		meta:    meta,
		leaf:    leaf,
		schema:  schema,
		numRows: numRows,
		offset:  columnStartOffset(meta),
	}, nil
}

// columnStartOffset returns the starting offset for a column's pages
func columnStartOffset(meta *parquet.ColumnMetaData) int64 {
	if meta.DictionaryPageOffset != nil && *meta.DictionaryPageOffset < meta.DataPageOffset {
		return *meta.DictionaryPageOffset
	}
	return meta.DataPageOffset
}

// Next decodes the next data page, transparently consuming dictionary pages
// and skipping index pages. It returns io.EOF once the chunk's row count is
// exhausted.
func (cr *ColumnChunkReader) Next() (*PageValues, error) {
	for {
		if cr.valuesRead >= cr.numRows {
			return nil, io.EOF
		}

		header, headerSize, err := readPageHeader(cr.file, cr.offset)
		if err != nil {
			return nil, err
		}
		nextOffset := cr.offset + headerSize + int64(header.CompressedPageSize)

		switch header.Type {
		case parquet.PageType_DICTIONARY_PAGE:
			if err := cr.readDictionaryPage(header); err != nil {
				return nil, err
			}
			cr.offset = nextOffset

		case parquet.PageType_INDEX_PAGE:
			cr.offset = nextOffset

		case parquet.PageType_DATA_PAGE:
			page, err := cr.readDataPage(header)
			if err != nil {
				return nil, err
			}
			cr.offset = nextOffset
			cr.valuesRead += int64(page.NumValues)
			cr.sawData = true
			return page, nil

		default:
			return nil, fmt.Errorf("%w: %v for column %s", ErrUnsupportedPageType, header.Type, cr.leaf.Name())
		}
	}
}

// readDictionaryPage decodes the single dictionary page of a chunk as a flat
// sequence of plain-encoded values.
func (cr *ColumnChunkReader) readDictionaryPage(header *parquet.PageHeader) error {
	if cr.dictionary != nil || cr.sawData {
		return fmt.Errorf("%w: dictionary page after first page of column %s", ErrCorruptPage, cr.leaf.Name())
	}
	dictHeader := header.DictionaryPageHeader
	if dictHeader == nil {
		return fmt.Errorf("%w: dictionary page without dictionary header", ErrCorruptPage)
	}
	switch dictHeader.Encoding {
	case parquet.Encoding_PLAIN, parquet.Encoding_PLAIN_DICTIONARY:
	default:
		return fmt.Errorf("%w: %v for dictionary page", ErrUnsupportedEncoding, dictHeader.Encoding)
	}

	payload, err := readPagePayload(cr.file, header, cr.meta.Codec)
	if err != nil {
		return err
	}
	decoder := newPlainDecoder(cr.meta.Type, typeLength(cr.leaf.Element))
	values, err := decoder.decode(newByteReader(payload), int(dictHeader.NumValues))
	if err != nil {
		return err
	}
	cr.dictionary = values
	return nil
}

func (cr *ColumnChunkReader) readDataPage(header *parquet.PageHeader) (*PageValues, error) {
	daph := header.DataPageHeader
	if daph == nil {
		return nil, fmt.Errorf("%w: data page without data header", ErrCorruptPage)
	}
	if daph.NumValues < 0 {
		return nil, fmt.Errorf("%w: negative value count %d", ErrCorruptPage, daph.NumValues)
	}

	payload, err := readPagePayload(cr.file, header, cr.meta.Codec)
	if err != nil {
		return nil, err
	}
	cur := newByteReader(payload)
	numValues := int(daph.NumValues)

	page := &PageValues{NumValues: daph.NumValues}

	// Repetition levels come first and are only present for repeated paths.
	if cr.leaf.MaxRepetitionLevel > 0 {
		page.RepetitionLevels, err = readLevels(cur, daph.RepetitionLevelEncoding,
			widthFromMaxInt(cr.leaf.MaxRepetitionLevel), numValues)
		if err != nil {
			return nil, fmt.Errorf("repetition levels of column %s: %w", cr.leaf.Name(), err)
		}
	}

	// Definition levels are skipped entirely when the leaf is required.
	defined := numValues
	if !cr.schema.IsRequired(cr.leaf.Element.Name) {
		width := widthFromMaxInt(cr.leaf.MaxDefinitionLevel)
		if width == 0 {
			page.DefinitionLevels = make([]uint32, numValues)
		} else {
			page.DefinitionLevels, err = readLevels(cur, daph.DefinitionLevelEncoding, width, numValues)
			if err != nil {
				return nil, fmt.Errorf("definition levels of column %s: %w", cr.leaf.Name(), err)
			}
		}
		defined = 0
		maxDef := uint32(cr.leaf.MaxDefinitionLevel)
		for _, dl := range page.DefinitionLevels {
			if dl == maxDef {
				defined++
			}
		}
	}

	switch daph.Encoding {
	case parquet.Encoding_PLAIN:
		decoder := newPlainDecoder(cr.meta.Type, typeLength(cr.leaf.Element))
		page.Values, err = decoder.decode(cur, defined)
		if err != nil {
			return nil, err
		}

	case parquet.Encoding_PLAIN_DICTIONARY, parquet.Encoding_RLE_DICTIONARY:
		page.Values, err = cr.decodeDictionaryIndices(cur, defined)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("%w: %v for column %s", ErrUnsupportedEncoding, daph.Encoding, cr.leaf.Name())
	}

	return page, nil
}

// decodeDictionaryIndices reads the dictionary-index stream of a data page:
// a single byte giving the index bit width followed by a hybrid stream that
// runs to the end of the page.
func (cr *ColumnChunkReader) decodeDictionaryIndices(cur *byteReader, count int) ([]interface{}, error) {
	if cr.dictionary == nil {
		return nil, fmt.Errorf("%w: dictionary-encoded page without dictionary", ErrCorruptPage)
	}
	width, err := cur.readByte()
	if err != nil {
		return nil, fmt.Errorf("%w: dictionary index bit width: %v", ErrCorruptPage, err)
	}
	if width > 32 {
		return nil, fmt.Errorf("%w: dictionary index bit width %d", ErrCorruptPage, width)
	}
	indices, err := newHybridDecoder(uint(width)).decode(cur, count)
	if err != nil {
		return nil, err
	}
	if len(indices) < count {
		return nil, fmt.Errorf("%w: %d dictionary indices, page needs %d", ErrCorruptPage, len(indices), count)
	}
	values := make([]interface{}, count)
	for i, idx := range indices {
		if int(idx) >= len(cr.dictionary) {
			return nil, fmt.Errorf("%w: dictionary index %d out of range (%d entries)", ErrCorruptPage, idx, len(cr.dictionary))
		}
		values[i] = cr.dictionary[idx]
	}
	return values, nil
}

// readLevels decodes one level stream. Level streams are length-prefixed
// hybrid streams; the legacy BIT_PACKED encoding is not supported.
func readLevels(cur *byteReader, encoding parquet.Encoding, width uint, count int) ([]uint32, error) {
	switch encoding {
	case parquet.Encoding_RLE:
		levels, err := newHybridDecoder(width).decodeLengthPrefixed(cur, count)
		if err != nil {
			return nil, err
		}
		if len(levels) < count {
			return nil, fmt.Errorf("%w: %d levels, page declares %d values", ErrCorruptPage, len(levels), count)
		}
		return levels, nil
	default:
		return nil, fmt.Errorf("%w: %v for levels", ErrUnsupportedEncoding, encoding)
	}
}

func typeLength(elem *parquet.SchemaElement) int32 {
	if elem == nil || elem.TypeLength == nil {
		return 0
	}
	return *elem.TypeLength
}

// ReadAll drains the chunk and materializes one slot per value, inserting
// nil where the definition level is below the maximum.
func (cr *ColumnChunkReader) ReadAll() ([]interface{}, []uint32, []uint32, error) {
	var values []interface{}
	var defLevels, repLevels []uint32
	for {
		page, err := cr.Next()
		if err == io.EOF {
			return values, defLevels, repLevels, nil
		}
		if err != nil {
			return nil, nil, nil, err
		}
		values = append(values, materializeValues(page, uint32(cr.leaf.MaxDefinitionLevel))...)
		defLevels = append(defLevels, page.DefinitionLevels...)
		repLevels = append(repLevels, page.RepetitionLevels...)
	}
}

// materializeValues expands the defined values of a page to one slot per
// value position.
func materializeValues(page *PageValues, maxDef uint32) []interface{} {
	if page.DefinitionLevels == nil {
		return page.Values
	}
	out := make([]interface{}, len(page.DefinitionLevels))
	next := 0
	for i, dl := range page.DefinitionLevels {
		if dl == maxDef {
			out[i] = page.Values[next]
			next++
		}
	}
	return out
}
