package loader

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/dshills/inicache/internal/config/ini"
)

// TOMLLoader loads layers from TOML files. Each table becomes a section;
// nested tables become sections named with dotted paths. Arrays become
// repeated keys. A key may carry a merge prefix ("+Key") like an INI line.
type TOMLLoader struct {
	fs afero.Fs
}

// NewTOMLLoader creates a TOML loader reading from fs.
func NewTOMLLoader(fs afero.Fs) *TOMLLoader {
	return &TOMLLoader{fs: fs}
}

// Load reads the TOML file at path.
func (l *TOMLLoader) Load(path string) (*ini.RawFile, error) {
	data, err := readFile(l.fs, path)
	if err != nil || data == nil {
		return nil, err
	}
	return l.parse(path, data)
}

func (l *TOMLLoader) parse(source string, data []byte) (*ini.RawFile, error) {
	var config map[string]any
	if err := toml.Unmarshal(data, &config); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}

	raw := ini.NewRawFile(source)
	for _, name := range sortedKeys(config) {
		table, ok := config[name].(map[string]any)
		if !ok {
			log.WithField("source", source).WithField("key", name).Debug("Skipping top-level TOML value outside a table")
			continue
		}
		addTOMLTable(raw, name, table)
	}
	return raw, nil
}

func addTOMLTable(raw *ini.RawFile, name string, table map[string]any) {
	sec := raw.Section(name)
	for _, key := range sortedKeys(table) {
		switch v := table[key].(type) {
		case map[string]any:
			addTOMLTable(raw, name+"."+key, v)
		case []any:
			op, k := splitOp(key)
			for _, item := range v {
				sec.Append(op, k, formatScalar(item))
			}
		default:
			op, k := splitOp(key)
			sec.Append(op, k, formatScalar(v))
		}
	}
}

// splitOp separates a merge prefix from a key.
func splitOp(key string) (ini.Op, string) {
	if len(key) < 2 {
		return ini.OpSet, key
	}
	switch key[0] {
	case '+':
		return ini.OpAddUnique, key[1:]
	case '.':
		return ini.OpAdd, key[1:]
	case '-':
		return ini.OpRemove, key[1:]
	case '!':
		return ini.OpClear, key[1:]
	}
	return ini.OpSet, key
}

func formatScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
