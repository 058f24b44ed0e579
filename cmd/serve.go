package cmd

import (
	"fmt"

	"github.com/dalazx/parquet-dump/service"
)

// ServeCmd is a kong command for serving the HTTP API
type ServeCmd struct {
	URI  string `arg:"" predictor:"file" help:"Path of Parquet file."`
	Addr string `short:"a" default:":8080" help:"Address to listen on (default :8080)."`
}

// Run starts the HTTP API server
func (s ServeCmd) Run() error {
	svc, err := service.NewParquetService(s.URI)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer func() { _ = svc.Close() }()

	return service.StartServer(svc, s.Addr)
}
