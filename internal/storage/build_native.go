//go:build native
// +build native

package storage

// This file is compiled when building with CGO and the native tag.
// The database lives as an ordinary file in the platform's application
// data directory and FTS stays trigger-synchronized.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "native" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "native"
)
