package layer

import (
	"errors"
	"strings"

	"github.com/samber/oops"

	"github.com/dshills/inicache/internal/config/ini"
)

// ErrInvalidOverride indicates an override string could not be parsed.
var ErrInvalidOverride = errors.New("invalid override")

// Override is a single in-memory setting applied on top of every file layer,
// written as Name:[Section]:Key=Value. The key may carry a merge prefix
// (+ . - !) like a file line.
type Override struct {
	Document string
	Section  string
	Op       ini.Op
	Key      string
	Value    string
}

// String formats the override in its parse form.
func (o Override) String() string {
	prefix := ""
	if o.Op != ini.OpSet {
		prefix = o.Op.String()
	}
	return o.Document + ":[" + o.Section + "]:" + prefix + o.Key + "=" + o.Value
}

// ParseOverride parses Name:[Section]:Key=Value.
func ParseOverride(s string) (Override, error) {
	bad := oops.In("layer").With("override", s)

	open := strings.Index(s, ":[")
	if open <= 0 {
		return Override{}, bad.Wrapf(ErrInvalidOverride, "missing document name")
	}
	rest := s[open+2:]
	end := strings.Index(rest, "]:")
	if end <= 0 {
		return Override{}, bad.Wrapf(ErrInvalidOverride, "missing section")
	}
	line := rest[end+2:]
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return Override{}, bad.Wrapf(ErrInvalidOverride, "missing '='")
	}

	o := Override{
		Document: strings.TrimSpace(s[:open]),
		Section:  strings.TrimSpace(rest[:end]),
		Key:      strings.TrimSpace(line[:eq]),
		Value:    ini.Unquote(strings.TrimSpace(line[eq+1:])),
	}
	if len(o.Key) > 1 {
		switch o.Key[0] {
		case '+':
			o.Op = ini.OpAddUnique
		case '.':
			o.Op = ini.OpAdd
		case '-':
			o.Op = ini.OpRemove
		case '!':
			o.Op = ini.OpClear
		}
		if o.Op != ini.OpSet {
			o.Key = strings.TrimSpace(o.Key[1:])
		}
	}
	if o.Key == "" {
		return Override{}, bad.Wrapf(ErrInvalidOverride, "empty key")
	}
	return o, nil
}

// ParseOverrides parses every string, returning the valid overrides and the
// joined errors of the invalid ones.
func ParseOverrides(list []string) ([]Override, error) {
	var out []Override
	var errs []error
	for _, s := range list {
		if strings.TrimSpace(s) == "" {
			continue
		}
		o, err := ParseOverride(s)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, o)
	}
	return out, errors.Join(errs...)
}

// OverrideLayer builds the override layer for base name. Returns nil when
// no override targets it.
func OverrideLayer(base string, overrides []Override) *Layer {
	fb := ini.Fold(base)
	var raw *ini.RawFile
	for _, o := range overrides {
		if ini.Fold(o.Document) != fb {
			continue
		}
		if raw == nil {
			raw = ini.NewRawFile("overrides")
		}
		raw.Section(o.Section).Append(o.Op, o.Key, o.Value)
	}
	if raw == nil {
		return nil
	}
	return NewLayerWithRaw(StandardLayerName(SourceOverride), SourceOverride, PriorityOverride, raw)
}
