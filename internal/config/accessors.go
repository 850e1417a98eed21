package config

import (
	"strings"

	"github.com/dshills/inicache/internal/config/ini"
)

// sectionPrivate looks up section in the named document.
//
// With force the document is loaded and the section created when missing.
// While file operations are disabled, force caches the detached document
// it gets so later reads see the write. Unless peek is set, a section that is returned (found or created) marks
// the document dirty. Getters always pass force=false, peek=true so reads
// never flag the document for writing.
func (s *Store) sectionPrivate(name, section string, force, peek bool) (*ini.Document, *ini.Section) {
	var doc *ini.Document
	if force {
		doc = s.GetOrLoadDocument(name)
		if s.fileOpsDisabled && !s.ContainsDocument(doc) {
			key, _ := s.resolve(name)
			s.insert(&slot{key: key, doc: doc, hier: s.hier})
			log.WithField("document", doc.Name).Debug("Caching detached document for write")
		}
	} else if sl := s.find(s.KeyFor(name)); sl != nil {
		doc = sl.doc
	}
	if doc == nil {
		return nil, nil
	}

	sec, ok := doc.Section(section)
	if !ok {
		if !force {
			return doc, nil
		}
		sec, _ = doc.FindOrAddSection(section)
	}
	if !peek {
		doc.MarkDirty()
	}
	return doc, sec
}

// peekSection is the read path used by every getter.
func (s *Store) peekSection(section, name string) *ini.Section {
	s.mustBeReady()
	_, sec := s.sectionPrivate(name, section, false, true)
	return sec
}

// GetString returns the first value of key. Getters only read documents
// that are already cached.
func (s *Store) GetString(section, key, name string) (string, bool) {
	sec := s.peekSection(section, name)
	if sec == nil {
		return "", false
	}
	return sec.Get(key)
}

// GetInt returns key parsed as a 32-bit integer.
func (s *Store) GetInt(section, key, name string) (int, bool) {
	v, ok := s.GetString(section, key, name)
	if !ok {
		return 0, false
	}
	n, ok := ini.ParseInt(v, 32)
	if !ok {
		return 0, false
	}
	return int(n), true
}

// GetInt64 returns key parsed as a 64-bit integer.
func (s *Store) GetInt64(section, key, name string) (int64, bool) {
	v, ok := s.GetString(section, key, name)
	if !ok {
		return 0, false
	}
	return ini.ParseInt(v, 64)
}

// GetFloat returns key parsed as a float32.
func (s *Store) GetFloat(section, key, name string) (float32, bool) {
	v, ok := s.GetString(section, key, name)
	if !ok {
		return 0, false
	}
	f, ok := ini.ParseFloat(v, 32)
	if !ok {
		return 0, false
	}
	return float32(f), true
}

// GetDouble returns key parsed as a float64.
func (s *Store) GetDouble(section, key, name string) (float64, bool) {
	v, ok := s.GetString(section, key, name)
	if !ok {
		return 0, false
	}
	return ini.ParseFloat(v, 64)
}

// GetBool returns key parsed as a boolean.
func (s *Store) GetBool(section, key, name string) (bool, bool) {
	v, ok := s.GetString(section, key, name)
	if !ok {
		return false, false
	}
	return ini.ParseBool(v)
}

// GetArray returns every value of key in order.
func (s *Store) GetArray(section, key, name string) ([]string, bool) {
	sec := s.peekSection(section, name)
	if sec == nil {
		return nil, false
	}
	values := sec.Values(key)
	return values, len(values) > 0
}

// GetSingleLineArray splits the first value of key on whitespace.
func (s *Store) GetSingleLineArray(section, key, name string) ([]string, bool) {
	sec := s.peekSection(section, name)
	if sec == nil || !sec.Has(key) {
		return nil, false
	}
	return sec.SingleLineArray(key), true
}

// GetStringOrDefault returns the value of key or def.
func (s *Store) GetStringOrDefault(section, key, name, def string) string {
	if v, ok := s.GetString(section, key, name); ok {
		return v
	}
	return def
}

// GetIntOrDefault returns the value of key or def.
func (s *Store) GetIntOrDefault(section, key, name string, def int) int {
	if v, ok := s.GetInt(section, key, name); ok {
		return v
	}
	return def
}

// GetFloatOrDefault returns the value of key or def.
func (s *Store) GetFloatOrDefault(section, key, name string, def float32) float32 {
	if v, ok := s.GetFloat(section, key, name); ok {
		return v
	}
	return def
}

// GetBoolOrDefault returns the value of key or def.
func (s *Store) GetBoolOrDefault(section, key, name string, def bool) bool {
	if v, ok := s.GetBool(section, key, name); ok {
		return v
	}
	return def
}

// GetSection returns the entries of section as Key=Value lines.
func (s *Store) GetSection(section, name string) ([]string, bool) {
	sec := s.peekSection(section, name)
	if sec == nil {
		return nil, false
	}
	entries := sec.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Key + "=" + e.Value
	}
	return lines, true
}

// DoesSectionExist reports whether the cached document has section.
func (s *Store) DoesSectionExist(section, name string) bool {
	return s.peekSection(section, name) != nil
}

// GetSectionNames returns the section names of the cached document.
func (s *Store) GetSectionNames(name string) ([]string, bool) {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return nil, false
	}
	return sl.doc.SectionNames(), true
}

// GetPerObjectConfigSections returns up to max sections named
// "<object> <className>". A max of zero or less means no limit.
func (s *Store) GetPerObjectConfigSections(name, className string, max int) []string {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return nil
	}
	suffix := " " + ini.Fold(className)
	var out []string
	for _, sec := range sl.doc.SectionNames() {
		if max > 0 && len(out) >= max {
			break
		}
		f := ini.Fold(sec)
		if len(f) > len(suffix) && strings.HasSuffix(f, suffix) {
			out = append(out, sec)
		}
	}
	return out
}

// ForEachEntry calls visit for every entry of section in order. It returns
// false when the section does not exist.
func (s *Store) ForEachEntry(section, name string, visit func(key, value string)) bool {
	sec := s.peekSection(section, name)
	if sec == nil {
		return false
	}
	for _, e := range sec.Entries() {
		visit(e.Key, e.Value)
	}
	return true
}

// Parse1ToNSectionOfStrings groups the values of keyN under the preceding
// keyOne value in section. See ini.Section.Parse1ToN.
func (s *Store) Parse1ToNSectionOfStrings(section, keyOne, keyN, name string) map[string][]string {
	sec := s.peekSection(section, name)
	if sec == nil {
		return map[string][]string{}
	}
	return sec.Parse1ToN(keyOne, keyN)
}
