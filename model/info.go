package model

import (
	"strings"

	"github.com/hangxie/parquet-go/v2/parquet"
)

// FileInfo contains metadata about a Parquet file
type FileInfo struct {
	Version               int32   `json:"version"`
	NumRowGroups          int     `json:"numRowGroups"`
	NumRows               int64   `json:"numRows"`
	NumLeafColumns        int     `json:"numLeafColumns"`
	TotalCompressedSize   int64   `json:"totalCompressedSize"`
	TotalUncompressedSize int64   `json:"totalUncompressedSize"`
	CompressionRatio      float64 `json:"compressionRatio"`
	CreatedBy             string  `json:"createdBy,omitempty"`
}

// RowGroupInfo contains metadata about a row group
type RowGroupInfo struct {
	Index            int     `json:"index"`
	NumRows          int64   `json:"numRows"`
	NumColumns       int     `json:"numColumns"`
	CompressedSize   int64   `json:"compressedSize"`
	UncompressedSize int64   `json:"uncompressedSize"`
	CompressionRatio float64 `json:"compressionRatio"`
}

// ColumnChunkInfo contains metadata about a column chunk
type ColumnChunkInfo struct {
	Index            int      `json:"index"`
	PathInSchema     []string `json:"pathInSchema"`
	Name             string   `json:"name"`
	PhysicalType     string   `json:"physicalType"`
	ConvertedType    string   `json:"convertedType,omitempty"`
	Codec            string   `json:"codec"`
	Encodings        []string `json:"encodings"`
	NumValues        int64    `json:"numValues"`
	CompressedSize   int64    `json:"compressedSize"`
	UncompressedSize int64    `json:"uncompressedSize"`
	CompressionRatio float64  `json:"compressionRatio"`
	DataPageOffset   int64    `json:"dataPageOffset"`
	DictPageOffset   *int64   `json:"dictionaryPageOffset,omitempty"`
}

// PageMetadata contains metadata about a page
type PageMetadata struct {
	Index            int    `json:"index"`
	Offset           int64  `json:"offset"`
	PageType         string `json:"pageType"`
	CompressedSize   int32  `json:"compressedSize"`
	UncompressedSize int32  `json:"uncompressedSize"`
	NumValues        int32  `json:"numValues"`
	Encoding         string `json:"encoding,omitempty"`
	DefLevelEncoding string `json:"defLevelEncoding,omitempty"`
	RepLevelEncoding string `json:"repLevelEncoding,omitempty"`
}

// GetFileInfo extracts file-level information
func (fr *FileReader) GetFileInfo() FileInfo {
	info := FileInfo{
		Version:        fr.meta.Version,
		NumRowGroups:   len(fr.meta.RowGroups),
		NumRows:        fr.meta.NumRows,
		NumLeafColumns: len(fr.schema.Leaves()),
	}

	for _, rg := range fr.meta.RowGroups {
		info.TotalUncompressedSize += rg.TotalByteSize
		info.TotalCompressedSize += getTotalSize(rg)
	}
	if info.TotalCompressedSize > 0 {
		info.CompressionRatio = float64(info.TotalUncompressedSize) / float64(info.TotalCompressedSize)
	}
	if fr.meta.CreatedBy != nil {
		info.CreatedBy = *fr.meta.CreatedBy
	}
	return info
}

// getTotalSize gets the total compressed size of a row group
func getTotalSize(rg *parquet.RowGroup) int64 {
	var total int64
	for _, col := range rg.Columns {
		if col.MetaData != nil {
			total += col.MetaData.TotalCompressedSize
		}
	}
	return total
}

// GetRowGroupInfo extracts row group information
func (fr *FileReader) GetRowGroupInfo(rgIndex int) (RowGroupInfo, error) {
	if rgIndex < 0 || rgIndex >= len(fr.meta.RowGroups) {
		return RowGroupInfo{}, ErrInvalidRowGroupIndex
	}
	rg := fr.meta.RowGroups[rgIndex]
	info := RowGroupInfo{
		Index:            rgIndex,
		NumRows:          rg.NumRows,
		NumColumns:       len(rg.Columns),
		UncompressedSize: rg.TotalByteSize,
		CompressedSize:   getTotalSize(rg),
	}
	if info.CompressedSize > 0 {
		info.CompressionRatio = float64(info.UncompressedSize) / float64(info.CompressedSize)
	}
	return info, nil
}

// GetAllRowGroupsInfo returns info for all row groups
func (fr *FileReader) GetAllRowGroupsInfo() []RowGroupInfo {
	infos := make([]RowGroupInfo, len(fr.meta.RowGroups))
	for i := range fr.meta.RowGroups {
		info, _ := fr.GetRowGroupInfo(i)
		infos[i] = info
	}
	return infos
}

// GetColumnChunkInfo extracts column chunk information
func (fr *FileReader) GetColumnChunkInfo(rgIndex, colIndex int) (ColumnChunkInfo, error) {
	if rgIndex < 0 || rgIndex >= len(fr.meta.RowGroups) {
		return ColumnChunkInfo{}, ErrInvalidRowGroupIndex
	}
	rg := fr.meta.RowGroups[rgIndex]
	if colIndex < 0 || colIndex >= len(rg.Columns) {
		return ColumnChunkInfo{}, ErrInvalidColumnIndex
	}

	meta := rg.Columns[colIndex].MetaData
	encodings := make([]string, len(meta.Encodings))
	for i, enc := range meta.Encodings {
		encodings[i] = enc.String()
	}
	info := ColumnChunkInfo{
		Index:            colIndex,
		PathInSchema:     meta.PathInSchema,
		Name:             strings.Join(meta.PathInSchema, "."),
		PhysicalType:     meta.Type.String(),
		Codec:            meta.Codec.String(),
		Encodings:        encodings,
		NumValues:        meta.NumValues,
		CompressedSize:   meta.TotalCompressedSize,
		UncompressedSize: meta.TotalUncompressedSize,
		DataPageOffset:   meta.DataPageOffset,
		DictPageOffset:   meta.DictionaryPageOffset,
	}
	if info.CompressedSize > 0 {
		info.CompressionRatio = float64(info.UncompressedSize) / float64(info.CompressedSize)
	}
	if leaf, err := fr.schema.Leaf(meta.PathInSchema); err == nil {
		if leaf.Element.ConvertedType != nil {
			info.ConvertedType = leaf.Element.ConvertedType.String()
		}
	}
	return info, nil
}

// GetAllColumnChunksInfo returns info for all columns in a row group
func (fr *FileReader) GetAllColumnChunksInfo(rgIndex int) ([]ColumnChunkInfo, error) {
	if rgIndex < 0 || rgIndex >= len(fr.meta.RowGroups) {
		return nil, ErrInvalidRowGroupIndex
	}
	rg := fr.meta.RowGroups[rgIndex]
	infos := make([]ColumnChunkInfo, len(rg.Columns))
	for i := range rg.Columns {
		info, err := fr.GetColumnChunkInfo(rgIndex, i)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}
	return infos, nil
}

// GetPageMetadataList walks the page headers of a column chunk without
// decoding values.
func (fr *FileReader) GetPageMetadataList(rgIndex, colIndex int) ([]PageMetadata, error) {
	if rgIndex < 0 || rgIndex >= len(fr.meta.RowGroups) {
		return nil, ErrInvalidRowGroupIndex
	}
	rg := fr.meta.RowGroups[rgIndex]
	if colIndex < 0 || colIndex >= len(rg.Columns) {
		return nil, ErrInvalidColumnIndex
	}
	meta := rg.Columns[colIndex].MetaData

	var pages []PageMetadata
	startOffset := columnStartOffset(meta)
	offset := startOffset
	var valuesRead int64
	for valuesRead < rg.NumRows {
		header, headerSize, err := readPageHeader(fr.file, offset)
		if err != nil {
			return nil, err
		}
		pages = append(pages, extractPageMetadata(header, offset, len(pages)))
		valuesRead += countPageValues(header)
		offset += headerSize + int64(header.CompressedPageSize)

		// A chunk whose headers never account for the row count would walk
		// forever; stop once past the chunk's declared extent.
		if offset > startOffset+meta.TotalCompressedSize {
			break
		}
	}
	return pages, nil
}

// GetPageMetadata returns metadata for a specific page
func (fr *FileReader) GetPageMetadata(rgIndex, colIndex, pageIndex int) (PageMetadata, error) {
	pages, err := fr.GetPageMetadataList(rgIndex, colIndex)
	if err != nil {
		return PageMetadata{}, err
	}
	if pageIndex < 0 || pageIndex >= len(pages) {
		return PageMetadata{}, ErrInvalidPageIndex
	}
	return pages[pageIndex], nil
}

// extractPageMetadata creates PageMetadata from a page header
func extractPageMetadata(header *parquet.PageHeader, offset int64, index int) PageMetadata {
	info := PageMetadata{
		Index:            index,
		Offset:           offset,
		PageType:         header.Type.String(),
		CompressedSize:   header.CompressedPageSize,
		UncompressedSize: header.UncompressedPageSize,
	}
	switch header.Type {
	case parquet.PageType_DATA_PAGE:
		if h := header.DataPageHeader; h != nil {
			info.NumValues = h.NumValues
			info.Encoding = h.Encoding.String()
			info.DefLevelEncoding = h.DefinitionLevelEncoding.String()
			info.RepLevelEncoding = h.RepetitionLevelEncoding.String()
		}
	case parquet.PageType_DATA_PAGE_V2:
		if h := header.DataPageHeaderV2; h != nil {
			info.NumValues = h.NumValues
			info.Encoding = h.Encoding.String()
		}
	case parquet.PageType_DICTIONARY_PAGE:
		if h := header.DictionaryPageHeader; h != nil {
			info.NumValues = h.NumValues
			info.Encoding = h.Encoding.String()
		}
	}
	return info
}

// countPageValues returns the number of values in a page (only for data pages)
func countPageValues(header *parquet.PageHeader) int64 {
	if header.Type == parquet.PageType_DATA_PAGE && header.DataPageHeader != nil {
		return int64(header.DataPageHeader.NumValues)
	}
	if header.Type == parquet.PageType_DATA_PAGE_V2 && header.DataPageHeaderV2 != nil {
		return int64(header.DataPageHeaderV2.NumValues)
	}
	return 0
}
