package client

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hangxie/parquet-go/v2/parquet"
	"github.com/stretchr/testify/require"

	"github.com/dalazx/parquet-dump/internal/testfile"
	"github.com/dalazx/parquet-dump/service"
)

func newTestClient(t *testing.T) *ParquetClient {
	path := filepath.Join(t.TempDir(), "test.parquet")
	require.NoError(t, os.WriteFile(path, testfile.Build(parquet.CompressionCodec_GZIP), 0o644))

	svc, err := service.NewParquetService(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	server := httptest.NewServer(service.CreateRouter(svc, true))
	t.Cleanup(server.Close)
	return NewParquetClient(server.URL)
}

func Test_Client_GetFileInfo(t *testing.T) {
	c := newTestClient(t)

	info, err := c.GetFileInfo()
	require.NoError(t, err)
	require.EqualValues(t, testfile.NumRows, info.NumRows)
	require.Equal(t, 1, info.NumRowGroups)
}

func Test_Client_GetSchema(t *testing.T) {
	c := newTestClient(t)

	columns, err := c.GetSchema()
	require.NoError(t, err)
	require.Len(t, columns, 3)
	require.Equal(t, "region", columns[2].Name)
	require.Equal(t, "BYTE_ARRAY", columns[2].PhysicalType)
}

func Test_Client_GetRows(t *testing.T) {
	c := newTestClient(t)

	rows, err := c.GetRows(nil, -1)
	require.NoError(t, err)
	require.Len(t, rows, testfile.NumRows)
	require.Equal(t, "alpha", rows[0]["name"])

	rows, err = c.GetRows([]string{"id", "region"}, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotContains(t, rows[0], "name")
	require.Equal(t, "east", rows[0]["region"])

	_, err = c.GetRows([]string{"bogus"}, -1)
	require.Error(t, err)
}

func Test_Client_RowGroupsAndChunks(t *testing.T) {
	c := newTestClient(t)

	rowGroups, err := c.GetAllRowGroupsInfo()
	require.NoError(t, err)
	require.Len(t, rowGroups, 1)

	rowGroup, err := c.GetRowGroupInfo(0)
	require.NoError(t, err)
	require.EqualValues(t, testfile.NumRows, rowGroup.NumRows)

	chunks, err := c.GetAllColumnChunksInfo(0)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	chunk, err := c.GetColumnChunkInfo(0, 0)
	require.NoError(t, err)
	require.Equal(t, "id", chunk.Name)

	_, err = c.GetRowGroupInfo(9)
	require.Error(t, err)
}

func Test_Client_Pages(t *testing.T) {
	c := newTestClient(t)

	pages, err := c.GetAllPagesInfo(0, 2)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "DICTIONARY_PAGE", pages[0].PageType)

	page, err := c.GetPageInfo(0, 2, 1)
	require.NoError(t, err)
	require.Equal(t, "DATA_PAGE", page.PageType)

	_, err = c.GetPageInfo(0, 2, 9)
	require.Error(t, err)
}

func Test_Client_ServerDown(t *testing.T) {
	c := NewParquetClient("http://127.0.0.1:1")
	_, err := c.GetFileInfo()
	require.Error(t, err)
}
