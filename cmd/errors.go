package cmd

import "errors"

var (
	// ErrUnknownFormat is returned when the requested output format is not supported
	ErrUnknownFormat = errors.New("unknown output format")
)
