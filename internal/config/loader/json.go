package loader

import (
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/dshills/inicache/internal/config/ini"
)

// JSONLoader loads layers from JSON files. The top-level object maps section
// names to objects of keys; array values become repeated keys. Document order
// is preserved.
type JSONLoader struct {
	fs afero.Fs
}

// NewJSONLoader creates a JSON loader reading from fs.
func NewJSONLoader(fs afero.Fs) *JSONLoader {
	return &JSONLoader{fs: fs}
}

// Load reads the JSON file at path.
func (l *JSONLoader) Load(path string) (*ini.RawFile, error) {
	data, err := readFile(l.fs, path)
	if err != nil || data == nil {
		return nil, err
	}
	return parseJSON(path, data)
}

func parseJSON(source string, data []byte) (*ini.RawFile, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: source, Message: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Path: source, Message: "top-level value must be an object"}
	}

	raw := ini.NewRawFile(source)
	root.ForEach(func(name, table gjson.Result) bool {
		if !table.IsObject() {
			log.WithField("source", source).WithField("key", name.String()).Debug("Skipping top-level JSON value outside an object")
			return true
		}
		addJSONObject(raw, name.String(), table)
		return true
	})
	return raw, nil
}

func addJSONObject(raw *ini.RawFile, name string, obj gjson.Result) {
	sec := raw.Section(name)
	obj.ForEach(func(key, value gjson.Result) bool {
		switch {
		case value.IsObject():
			addJSONObject(raw, name+"."+key.String(), value)
		case value.IsArray():
			op, k := splitOp(key.String())
			for _, item := range value.Array() {
				sec.Append(op, k, item.String())
			}
		default:
			op, k := splitOp(key.String())
			sec.Append(op, k, value.String())
		}
		return true
	})
}
