//go:build !native
// +build !native

package storage

// This file is compiled when building without the native tag. The pure Go
// SQLite engine works on a scratch image reconstituted from a durable
// key-value store, the way a WASM engine runs inside a sandboxed host.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "embedded"
)
