package loader

import (
	"bytes"

	"github.com/spf13/afero"

	"github.com/dshills/inicache/internal/config/ini"
)

// INILoader loads layers from INI files.
type INILoader struct {
	fs afero.Fs
}

// NewINILoader creates an INI loader reading from fs.
func NewINILoader(fs afero.Fs) *INILoader {
	return &INILoader{fs: fs}
}

// Load reads the INI file at path.
func (l *INILoader) Load(path string) (*ini.RawFile, error) {
	data, err := readFile(l.fs, path)
	if err != nil || data == nil {
		return nil, err
	}
	raw, err := ini.ParseRaw(bytes.NewReader(data), path)
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return raw, nil
}
