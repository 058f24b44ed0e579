package model

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/golang/snappy"
	"github.com/hangxie/parquet-go/v2/parquet"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// positionTracker wraps a reader and tracks read position so the Thrift
// protocol can report how many bytes a page header consumed.
type positionTracker struct {
	r   io.Reader
	pos int64
}

func (p *positionTracker) Read(buf []byte) (n int, err error) {
	n, err = p.r.Read(buf)
	p.pos += int64(n)
	return n, err
}

func (p *positionTracker) Write(buf []byte) (int, error) {
	return 0, fmt.Errorf("write not supported")
}

func (p *positionTracker) Close() error {
	return nil
}

func (p *positionTracker) Flush(ctx context.Context) error {
	return nil
}

func (p *positionTracker) RemainingBytes() uint64 {
	return ^uint64(0) // Unknown
}

func (p *positionTracker) Open() error {
	return nil
}

func (p *positionTracker) IsOpen() bool {
	return true
}

// readPageHeader reads a page header from the given offset and returns it
// with the header size, leaving the file positioned at the first payload
// byte.
func readPageHeader(pFile io.ReadSeeker, offset int64) (*parquet.PageHeader, int64, error) {
	if _, err := pFile.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("failed to seek to page: %w", err)
	}

	trackingTransport := &positionTracker{r: pFile, pos: offset}
	proto := thrift.NewTCompactProtocolConf(trackingTransport, nil)

	pageHeader := parquet.NewPageHeader()
	if err := pageHeader.Read(context.Background(), proto); err != nil {
		return nil, 0, fmt.Errorf("%w: page header at offset %d: %v", ErrCorruptMetadata, offset, err)
	}

	headerSize := trackingTransport.pos - offset

	// Seek to end of header
	if _, err := pFile.Seek(trackingTransport.pos, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("failed to seek after header: %w", err)
	}

	return pageHeader, headerSize, nil
}

// readPagePayload reads the compressed page body following its header and
// returns the decompressed payload. The payload length must match the
// header's uncompressed size exactly.
func readPagePayload(pFile io.Reader, header *parquet.PageHeader, codec parquet.CompressionCodec) ([]byte, error) {
	if header.CompressedPageSize < 0 || header.UncompressedPageSize < 0 {
		return nil, fmt.Errorf("%w: negative page size", ErrCorruptPage)
	}
	compressed := make([]byte, header.CompressedPageSize)
	if _, err := io.ReadFull(pFile, compressed); err != nil {
		return nil, fmt.Errorf("reading %d page bytes: %w", header.CompressedPageSize, err)
	}
	payload, err := decompressPageData(compressed, codec, header.UncompressedPageSize)
	if err != nil {
		return nil, err
	}
	if int32(len(payload)) != header.UncompressedPageSize {
		return nil, fmt.Errorf("%w: decompressed to %d bytes, header says %d",
			ErrCorruptPage, len(payload), header.UncompressedPageSize)
	}
	return payload, nil
}

// decompressPageData decompresses page data based on the codec
func decompressPageData(compressedData []byte, codec parquet.CompressionCodec, uncompressedSize int32) ([]byte, error) {
	switch codec {
	case parquet.CompressionCodec_UNCOMPRESSED:
		return compressedData, nil
	case parquet.CompressionCodec_SNAPPY:
		return decompressSnappy(compressedData)
	case parquet.CompressionCodec_GZIP:
		return decompressGzip(compressedData)
	case parquet.CompressionCodec_ZSTD:
		return decompressZstd(compressedData)
	case parquet.CompressionCodec_LZ4:
		return decompressLZ4(compressedData, int(uncompressedSize))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCodec, codec)
	}
}

func decompressSnappy(data []byte) ([]byte, error) {
	payload, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: snappy: %v", ErrCorruptPage, err)
	}
	return payload, nil
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrCorruptPage, err)
	}
	defer func() { _ = reader.Close() }()
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrCorruptPage, err)
	}
	return payload, nil
}

func decompressZstd(data []byte) ([]byte, error) {
	reader, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptPage, err)
	}
	defer reader.Close()
	payload, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptPage, err)
	}
	return payload, nil
}

func decompressLZ4(data []byte, uncompressedSize int) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))
	result := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, fmt.Errorf("%w: lz4: %v", ErrCorruptPage, err)
	}
	return result, nil
}
