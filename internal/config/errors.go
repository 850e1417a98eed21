package config

import (
	"errors"

	"github.com/dshills/inicache/internal/config/loader"
)

// Errors returned by store operations.
var (
	// ErrDocumentNotFound indicates the named document is not cached.
	ErrDocumentNotFound = errors.New("config document not found")

	// ErrFileOperationsDisabled indicates file I/O is suppressed on the store.
	ErrFileOperationsDisabled = errors.New("file operations are disabled")

	// ErrBaseFileMissing indicates a required Default file does not exist.
	ErrBaseFileMissing = errors.New("base config file missing")

	// ErrUnknownFormat indicates an unsupported dump format.
	ErrUnknownFormat = errors.New("unknown dump format")
)

// ParseError is reported for layer files in strict formats (TOML, JSON)
// that failed to parse. The layer is skipped.
type ParseError = loader.ParseError
