package config

import (
	"github.com/spf13/afero"

	"github.com/dshills/inicache/internal/config/layer"
)

// Type selects whether a store persists documents.
type Type uint8

const (
	// DiskBacked stores write dirty documents to their saved path on flush.
	DiskBacked Type = iota

	// Temporary stores never write. Flush only evicts.
	Temporary
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case DiskBacked:
		return "disk-backed"
	case Temporary:
		return "temporary"
	default:
		return "unknown"
	}
}

// DefaultKnownNames are the documents Initialize loads eagerly.
var DefaultKnownNames = []string{
	"Engine",
	"Game",
	"Input",
	"Editor",
	"GameUserSettings",
	"Scalability",
	"DeviceProfiles",
	"Hardware",
}

// Option configures a Store instance.
type Option func(*Store)

// WithEngineDir sets the engine configuration directory.
func WithEngineDir(dir string) Option {
	return func(s *Store) {
		s.hier.EngineDir = dir
	}
}

// WithProjectDir sets the project configuration directory.
func WithProjectDir(dir string) Option {
	return func(s *Store) {
		s.hier.ProjectDir = dir
	}
}

// WithSavedDir sets the directory saved documents are flushed to.
func WithSavedDir(dir string) Option {
	return func(s *Store) {
		s.hier.SavedDir = dir
	}
}

// WithPlatform selects the platform layers.
func WithPlatform(platform string) Option {
	return func(s *Store) {
		s.hier.Platform = platform
	}
}

// WithCustomConfig selects the Custom/<name> layer.
func WithCustomConfig(name string) Option {
	return func(s *Store) {
		s.hier.Custom = name
	}
}

// WithHierarchy sets all hierarchy directories at once.
func WithHierarchy(ctx layer.Context) Option {
	return func(s *Store) {
		s.hier = ctx
	}
}

// WithOverrides adds in-memory overrides applied above every file layer.
func WithOverrides(overrides ...layer.Override) Option {
	return func(s *Store) {
		s.overrides = append(s.overrides, overrides...)
	}
}

// WithType sets the store type.
func WithType(t Type) Option {
	return func(s *Store) {
		s.kind = t
	}
}

// WithFS sets the file system used for all file access.
func WithFS(fs afero.Fs) Option {
	return func(s *Store) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithKnownNames replaces the documents loaded by Initialize.
func WithKnownNames(names ...string) Option {
	return func(s *Store) {
		s.known = append([]string(nil), names...)
	}
}

// WithWatcher enables live reload of layer files through fsnotify. Changes
// are queued and applied by ReloadChanged. Only meaningful with the OS
// file system.
func WithWatcher(enable bool) Option {
	return func(s *Store) {
		s.enableWatcher = enable
	}
}

// WithWorkingDir sets the directory relative paths are resolved against.
func WithWorkingDir(dir string) Option {
	return func(s *Store) {
		s.workDir = dir
	}
}

// WithFileOperationsDisabled starts the store with file I/O suppressed.
func WithFileOperationsDisabled() Option {
	return func(s *Store) {
		s.fileOpsDisabled = true
	}
}

// WithAsyncNotify delivers change notifications from a goroutine.
func WithAsyncNotify(bufferSize int) Option {
	return func(s *Store) {
		s.notifyBuffer = bufferSize
	}
}
