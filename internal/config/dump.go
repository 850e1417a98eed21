package config

import (
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/samber/oops"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/inicache/internal/config/ini"
)

// Format names a dump encoding.
type Format string

const (
	// FormatINI writes the document as it would be saved.
	FormatINI Format = "ini"

	// FormatJSON writes one object per section. Array keys become arrays.
	FormatJSON Format = "json"

	// FormatYAML writes one mapping per section in document order.
	FormatYAML Format = "yaml"

	// FormatTOML writes one table per section. Tables come out sorted.
	FormatTOML Format = "toml"
)

// Formats lists the supported dump formats.
var Formats = []Format{FormatINI, FormatJSON, FormatYAML, FormatTOML}

// ParseFormat returns the format named s, ignoring case.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatINI, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	}
	return "", oops.In("config").With("format", s).Wrapf(ErrUnknownFormat, "parsing format")
}

// Dump writes the cached document for name in the given format.
func (s *Store) Dump(w io.Writer, name string, format Format) error {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return oops.In("config").With("document", name).Wrapf(ErrDocumentNotFound, "dumping config")
	}
	return Encode(w, sl.doc, format)
}

// Encode writes doc in the given format. INI, JSON and YAML keep section
// and key order; TOML tables are sorted by the encoder. Keys with several
// values become arrays.
func Encode(w io.Writer, doc *ini.Document, format Format) error {
	var err error
	switch format {
	case FormatINI:
		_, err = doc.WriteTo(w)
	case FormatJSON:
		err = encodeJSON(w, doc)
	case FormatYAML:
		err = encodeYAML(w, doc)
	case FormatTOML:
		err = encodeTOML(w, doc)
	default:
		return oops.In("config").With("format", string(format)).Wrapf(ErrUnknownFormat, "encoding config")
	}
	if err != nil {
		return oops.In("config").With("format", string(format)).With("document", doc.Name).Wrapf(err, "encoding config")
	}
	return nil
}

// groupedValues returns the keys of sec in order with all their values.
func groupedValues(sec *ini.Section) ([]string, map[string][]string) {
	keys := sec.Keys()
	values := make(map[string][]string, len(keys))
	for _, k := range keys {
		values[k] = sec.Values(k)
	}
	return keys, values
}

func encodeJSON(w io.Writer, doc *ini.Document) error {
	root := "{}"
	for _, sec := range doc.Sections() {
		obj := "{}"
		keys, values := groupedValues(sec)
		for _, k := range keys {
			var v any = values[k]
			if len(values[k]) == 1 {
				v = values[k][0]
			}
			var err error
			if obj, err = sjson.Set(obj, escapeJSONPath(k), v); err != nil {
				return err
			}
		}
		var err error
		if root, err = sjson.SetRaw(root, escapeJSONPath(sec.Name()), obj); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, root+"\n")
	return err
}

// escapeJSONPath escapes the characters sjson treats as path syntax.
func escapeJSONPath(key string) string {
	var sb strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', '\\', ':', '!', '=', '<', '>', '%':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func encodeYAML(w io.Writer, doc *ini.Document) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, sec := range doc.Sections() {
		m := &yaml.Node{Kind: yaml.MappingNode}
		keys, values := groupedValues(sec)
		for _, k := range keys {
			m.Content = append(m.Content, scalarNode(k), valueNode(values[k]))
		}
		root.Content = append(root.Content, scalarNode(sec.Name()), m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return err
	}
	return enc.Close()
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func valueNode(values []string) *yaml.Node {
	if len(values) == 1 {
		return scalarNode(values[0])
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		seq.Content = append(seq.Content, scalarNode(v))
	}
	return seq
}

func encodeTOML(w io.Writer, doc *ini.Document) error {
	tables := make(map[string]any, doc.Len())
	for _, sec := range doc.Sections() {
		t := make(map[string]any)
		keys, values := groupedValues(sec)
		for _, k := range keys {
			if len(values[k]) == 1 {
				t[k] = values[k][0]
			} else {
				t[k] = values[k]
			}
		}
		tables[sec.Name()] = t
	}
	return toml.NewEncoder(w).Encode(tables)
}
