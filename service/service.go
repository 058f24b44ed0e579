package service

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/dalazx/parquet-dump/model"
)

// ParquetService manages the Parquet file and provides HTTP endpoints
type ParquetService struct {
	reader *model.FileReader
	uri    string
}

// NewParquetService creates a new service instance
func NewParquetService(uri string) (*ParquetService, error) {
	reader, err := model.OpenFile(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return &ParquetService{reader: reader, uri: uri}, nil
}

// Close closes the underlying parquet file
func (s *ParquetService) Close() error {
	return s.reader.Close()
}

// CreateRouter creates a new router with all routes configured
// If quiet is true, disables logging middleware (useful for embedded servers)
func CreateRouter(s *ParquetService, quiet bool) *mux.Router {
	r := mux.NewRouter()
	s.SetupRoutes(r)
	r.Use(CORSMiddleware)
	if !quiet {
		r.Use(LoggingMiddleware)
	}
	return r
}

// SetupRoutes configures all HTTP routes
func (s *ParquetService) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/info", s.handleFileInfo).Methods("GET")
	r.HandleFunc("/schema", s.handleSchema).Methods("GET")
	r.HandleFunc("/rows", s.handleRows).Methods("GET")

	r.HandleFunc("/rowgroups", s.handleRowGroups).Methods("GET")
	r.HandleFunc("/rowgroups/{rgIndex}", s.handleRowGroupInfo).Methods("GET")
	r.HandleFunc("/rowgroups/{rgIndex}/columnchunks", s.handleColumnChunks).Methods("GET")
	r.HandleFunc("/rowgroups/{rgIndex}/columnchunks/{colIndex}", s.handleColumnChunkInfo).Methods("GET")
	r.HandleFunc("/rowgroups/{rgIndex}/columnchunks/{colIndex}/pages", s.handlePages).Methods("GET")
	r.HandleFunc("/rowgroups/{rgIndex}/columnchunks/{colIndex}/pages/{pageIndex}", s.handlePageInfo).Methods("GET")
}

// handleIndex lists the available endpoints
func (s *ParquetService) handleIndex(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"file": s.uri,
		"endpoints": []string{
			"/info",
			"/schema",
			"/rows?columns=a,b&limit=N",
			"/rowgroups",
			"/rowgroups/{rgIndex}",
			"/rowgroups/{rgIndex}/columnchunks",
			"/rowgroups/{rgIndex}/columnchunks/{colIndex}",
			"/rowgroups/{rgIndex}/columnchunks/{colIndex}/pages",
			"/rowgroups/{rgIndex}/columnchunks/{colIndex}/pages/{pageIndex}",
		},
	})
}

// SchemaColumn describes one leaf column of the schema
type SchemaColumn struct {
	Name               string `json:"name"`
	PhysicalType       string `json:"physicalType,omitempty"`
	ConvertedType      string `json:"convertedType,omitempty"`
	Repetition         string `json:"repetition,omitempty"`
	MaxDefinitionLevel int    `json:"maxDefinitionLevel"`
	MaxRepetitionLevel int    `json:"maxRepetitionLevel"`
}

// handleSchema returns the leaf columns with their level bounds
func (s *ParquetService) handleSchema(w http.ResponseWriter, r *http.Request) {
	leaves := s.reader.Schema().Leaves()
	columns := make([]SchemaColumn, len(leaves))
	for i, leaf := range leaves {
		col := SchemaColumn{
			Name:               leaf.Name(),
			MaxDefinitionLevel: leaf.MaxDefinitionLevel,
			MaxRepetitionLevel: leaf.MaxRepetitionLevel,
		}
		if leaf.Element.Type != nil {
			col.PhysicalType = leaf.Element.Type.String()
		}
		if leaf.Element.ConvertedType != nil {
			col.ConvertedType = leaf.Element.ConvertedType.String()
		}
		if leaf.Element.RepetitionType != nil {
			col.Repetition = leaf.Element.RepetitionType.String()
		}
		columns[i] = col
	}
	WriteJSON(w, http.StatusOK, columns)
}

// handleRows returns decoded rows as a JSON array of objects; all rows are
// collected before the response is written
func (s *ParquetService) handleRows(w http.ResponseWriter, r *http.Request) {
	var columns []string
	if raw := r.URL.Query().Get("columns"); raw != "" {
		columns = strings.Split(raw, ",")
	}
	limit := int64(-1)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	var rows []map[string]interface{}
	sink := func(rg model.RowGroupColumns) error {
		for i := int64(0); i < rg.NumRows; i++ {
			if limit != -1 && int64(len(rows)) >= limit {
				return nil
			}
			row := make(map[string]interface{}, len(rg.Keys))
			for c, v := range rg.Row(i) {
				row[rg.Keys[c]] = v
			}
			rows = append(rows, row)
		}
		return nil
	}
	if err := s.reader.Dump(model.DumpOptions{Columns: columns}, sink); err != nil {
		WriteError(w, httpStatus(err), err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, rows)
}

// handleFileInfo returns file-level metadata
func (s *ParquetService) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.reader.GetFileInfo())
}

// handleRowGroups returns all row groups
func (s *ParquetService) handleRowGroups(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.reader.GetAllRowGroupsInfo())
}

// handleRowGroupInfo returns info for a specific row group
func (s *ParquetService) handleRowGroupInfo(w http.ResponseWriter, r *http.Request) {
	rgIndex, ok := pathIndex(w, r, "rgIndex")
	if !ok {
		return
	}
	info, err := s.reader.GetRowGroupInfo(rgIndex)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// handleColumnChunks returns all column chunks for a row group
func (s *ParquetService) handleColumnChunks(w http.ResponseWriter, r *http.Request) {
	rgIndex, ok := pathIndex(w, r, "rgIndex")
	if !ok {
		return
	}
	columns, err := s.reader.GetAllColumnChunksInfo(rgIndex)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, columns)
}

// handleColumnChunkInfo returns info for a specific column chunk
func (s *ParquetService) handleColumnChunkInfo(w http.ResponseWriter, r *http.Request) {
	rgIndex, ok := pathIndex(w, r, "rgIndex")
	if !ok {
		return
	}
	colIndex, ok := pathIndex(w, r, "colIndex")
	if !ok {
		return
	}
	info, err := s.reader.GetColumnChunkInfo(rgIndex, colIndex)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// handlePages returns metadata for all pages of a column chunk
func (s *ParquetService) handlePages(w http.ResponseWriter, r *http.Request) {
	rgIndex, ok := pathIndex(w, r, "rgIndex")
	if !ok {
		return
	}
	colIndex, ok := pathIndex(w, r, "colIndex")
	if !ok {
		return
	}
	pages, err := s.reader.GetPageMetadataList(rgIndex, colIndex)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, pages)
}

// handlePageInfo returns metadata for a specific page
func (s *ParquetService) handlePageInfo(w http.ResponseWriter, r *http.Request) {
	rgIndex, ok := pathIndex(w, r, "rgIndex")
	if !ok {
		return
	}
	colIndex, ok := pathIndex(w, r, "colIndex")
	if !ok {
		return
	}
	pageIndex, ok := pathIndex(w, r, "pageIndex")
	if !ok {
		return
	}
	page, err := s.reader.GetPageMetadata(rgIndex, colIndex, pageIndex)
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	idx, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", name))
		return 0, false
	}
	return idx, true
}

func httpStatus(err error) int {
	if errors.Is(err, model.ErrUnknownColumn) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// StartServer starts the HTTP server on the given address
func StartServer(s *ParquetService, addr string) error {
	router := CreateRouter(s, false)
	fmt.Printf("Serving %s on %s\n", s.uri, addr)
	return http.ListenAndServe(addr, router)
}
