package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/dalazx/parquet-dump/model"
	"github.com/dalazx/parquet-dump/service"
)

// ParquetClient is an HTTP client for accessing parquet data
type ParquetClient struct {
	baseURL string
	client  *http.Client
}

// NewParquetClient creates a new HTTP client
func NewParquetClient(baseURL string) *ParquetClient {
	return &ParquetClient{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// GetFileInfo retrieves file-level metadata
func (c *ParquetClient) GetFileInfo() (model.FileInfo, error) {
	var info model.FileInfo
	err := c.get("/info", &info)
	return info, err
}

// GetSchema retrieves the leaf columns of the schema
func (c *ParquetClient) GetSchema() ([]service.SchemaColumn, error) {
	var columns []service.SchemaColumn
	err := c.get("/schema", &columns)
	return columns, err
}

// GetRows retrieves decoded rows, optionally projected to the named columns
// and capped at limit rows; limit -1 means no limit.
func (c *ParquetClient) GetRows(columns []string, limit int64) ([]map[string]interface{}, error) {
	query := url.Values{}
	if len(columns) > 0 {
		query.Set("columns", strings.Join(columns, ","))
	}
	if limit != -1 {
		query.Set("limit", fmt.Sprintf("%d", limit))
	}
	path := "/rows"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var rows []map[string]interface{}
	err := c.get(path, &rows)
	return rows, err
}

// GetAllRowGroupsInfo retrieves all row groups
func (c *ParquetClient) GetAllRowGroupsInfo() ([]model.RowGroupInfo, error) {
	var rowGroups []model.RowGroupInfo
	err := c.get("/rowgroups", &rowGroups)
	return rowGroups, err
}

// GetRowGroupInfo retrieves info for a specific row group
func (c *ParquetClient) GetRowGroupInfo(rgIndex int) (model.RowGroupInfo, error) {
	var info model.RowGroupInfo
	err := c.get(fmt.Sprintf("/rowgroups/%d", rgIndex), &info)
	return info, err
}

// GetAllColumnChunksInfo retrieves all column chunks for a row group
func (c *ParquetClient) GetAllColumnChunksInfo(rgIndex int) ([]model.ColumnChunkInfo, error) {
	var columns []model.ColumnChunkInfo
	err := c.get(fmt.Sprintf("/rowgroups/%d/columnchunks", rgIndex), &columns)
	return columns, err
}

// GetColumnChunkInfo retrieves info for a specific column chunk
func (c *ParquetClient) GetColumnChunkInfo(rgIndex, colIndex int) (model.ColumnChunkInfo, error) {
	var info model.ColumnChunkInfo
	err := c.get(fmt.Sprintf("/rowgroups/%d/columnchunks/%d", rgIndex, colIndex), &info)
	return info, err
}

// GetAllPagesInfo retrieves all page metadata for a column chunk
func (c *ParquetClient) GetAllPagesInfo(rgIndex, colIndex int) ([]model.PageMetadata, error) {
	var pages []model.PageMetadata
	err := c.get(fmt.Sprintf("/rowgroups/%d/columnchunks/%d/pages", rgIndex, colIndex), &pages)
	return pages, err
}

// GetPageInfo retrieves info for a specific page
func (c *ParquetClient) GetPageInfo(rgIndex, colIndex, pageIndex int) (model.PageMetadata, error) {
	var info model.PageMetadata
	err := c.get(fmt.Sprintf("/rowgroups/%d/columnchunks/%d/pages/%d", rgIndex, colIndex, pageIndex), &info)
	return info, err
}

// Helper method to make GET requests and decode JSON
func (c *ParquetClient) get(path string, result interface{}) error {
	url := c.baseURL + path

	resp, err := c.client.Get(url)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Try to read error message from response
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
