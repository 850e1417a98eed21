// Package loader reads configuration layer files for inicache.
//
// Layers are normally INI files. When an expected .ini file is missing, a
// sibling .toml or .json file with the same stem is used instead. All file
// access goes through an afero.Fs so tests can run against memory.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/logging"
)

var log = logging.For("loader")

// Loader reads one layer file.
type Loader interface {
	// Load reads the file at path.
	// Returns nil, nil if the file doesn't exist (not an error).
	Load(path string) (*ini.RawFile, error)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() afero.Fs {
	return afero.NewOsFs()
}

// ForPath returns the loader matching the file extension of path.
func ForPath(fs afero.Fs, path string) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return NewTOMLLoader(fs)
	case ".json":
		return NewJSONLoader(fs)
	default:
		return NewINILoader(fs)
	}
}

// alternates lists the extensions tried, in order, for a layer file.
var alternates = []string{".ini", ".toml", ".json"}

// Resolve finds the file that provides the layer expected at iniPath.
// Returns "" if none of the alternatives exist.
func Resolve(fs afero.Fs, iniPath string) string {
	stem := strings.TrimSuffix(iniPath, filepath.Ext(iniPath))
	for _, ext := range alternates {
		p := stem + ext
		if info, err := fs.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// LoadLayer resolves and reads the layer expected at iniPath. The returned
// path is the file actually read; both results are empty when none exists.
func LoadLayer(fs afero.Fs, iniPath string) (*ini.RawFile, string, error) {
	path := Resolve(fs, iniPath)
	if path == "" {
		return nil, "", nil
	}
	raw, err := ForPath(fs, path).Load(path)
	if err != nil {
		return nil, path, err
	}
	return raw, path, nil
}

// readFile reads path, mapping a missing file to nil data and nil error.
func readFile(fs afero.Fs, path string) ([]byte, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return data, nil
}

// ParseError represents an error while parsing a structured layer file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
