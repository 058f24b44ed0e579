package model

import "errors"

var (
	// ErrNotParquet is returned when the magic bytes are missing or the file is too short
	ErrNotParquet = errors.New("not a parquet file")

	// ErrCorruptMetadata is returned when the footer cannot be deserialized or is inconsistent
	ErrCorruptMetadata = errors.New("corrupt file metadata")

	// ErrCorruptPage is returned when a page payload or its level/value streams are damaged
	ErrCorruptPage = errors.New("corrupt page")

	// ErrUnsupportedCodec is returned for compression codecs without a decompressor
	ErrUnsupportedCodec = errors.New("unsupported compression codec")

	// ErrUnsupportedEncoding is returned for value encodings outside PLAIN and the dictionary family
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrUnsupportedPageType is returned for page types the reader cannot decode
	ErrUnsupportedPageType = errors.New("unsupported page type")

	// ErrUnknownColumn is returned when a selected column path is absent from the schema
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidRowGroupIndex is returned when an invalid row group index is requested
	ErrInvalidRowGroupIndex = errors.New("invalid row group index")

	// ErrInvalidColumnIndex is returned when an invalid column index is requested
	ErrInvalidColumnIndex = errors.New("invalid column index")

	// ErrInvalidPageIndex is returned when an invalid page index is requested
	ErrInvalidPageIndex = errors.New("invalid page index")
)
