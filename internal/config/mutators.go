package config

import (
	"strconv"
	"strings"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/notify"
)

// setValues is the write path shared by every setter: load the document,
// create the section if needed, replace the values and mark dirty. Keys
// that would read back differently from the saved file are refused.
func (s *Store) setValues(section, key, name string, values []string) {
	s.mustBeReady()
	if !ini.ValidKey(key) {
		log.WithField("document", name).WithField("key", key).Warn("Refusing to set invalid config key")
		return
	}
	doc, sec := s.sectionPrivate(name, section, true, false)
	old := sec.Values(key)
	sec.SetValues(key, values)
	doc.MarkDirty()
	s.notifier.NotifySet(doc.Name, sec.Name(), key, old, append([]string(nil), values...), "set")
}

// SetString replaces the values of key with value.
func (s *Store) SetString(section, key, value, name string) {
	s.setValues(section, key, name, []string{value})
}

// SetInt stores an integer.
func (s *Store) SetInt(section, key string, value int, name string) {
	s.setValues(section, key, name, []string{strconv.Itoa(value)})
}

// SetInt64 stores a 64-bit integer.
func (s *Store) SetInt64(section, key string, value int64, name string) {
	s.setValues(section, key, name, []string{strconv.FormatInt(value, 10)})
}

// SetFloat stores a float32.
func (s *Store) SetFloat(section, key string, value float32, name string) {
	s.setValues(section, key, name, []string{ini.FormatFloat(float64(value), 32)})
}

// SetDouble stores a float64.
func (s *Store) SetDouble(section, key string, value float64, name string) {
	s.setValues(section, key, name, []string{ini.FormatFloat(value, 64)})
}

// SetBool stores a boolean.
func (s *Store) SetBool(section, key string, value bool, name string) {
	s.setValues(section, key, name, []string{ini.FormatBool(value)})
}

// SetArray replaces the values of key with values, one line each. An empty
// slice removes the key.
func (s *Store) SetArray(section, key string, values []string, name string) {
	s.setValues(section, key, name, values)
}

// SetSingleLineArray stores values joined by spaces on one line.
func (s *Store) SetSingleLineArray(section, key string, values []string, name string) {
	s.setValues(section, key, name, []string{strings.Join(values, " ")})
}

// RemoveKey deletes every value of key from a cached document.
func (s *Store) RemoveKey(section, key, name string) bool {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return false
	}
	sec, ok := sl.doc.Section(section)
	if !ok {
		return false
	}
	old := sec.Values(key)
	if sec.Remove(key) == 0 {
		return false
	}
	sl.doc.MarkDirty()
	s.notifier.NotifyDelete(sl.doc.Name, sec.Name(), key, old, "remove")
	return true
}

// EmptySection removes section from a cached document.
func (s *Store) EmptySection(section, name string) bool {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return false
	}
	sec, ok := sl.doc.Section(section)
	if !ok {
		return false
	}
	sl.doc.RemoveSection(section)
	sl.doc.MarkDirty()
	s.notifier.NotifyDelete(sl.doc.Name, sec.Name(), "", nil, "empty")
	return true
}

// EmptySectionsMatchingString removes every section whose name contains
// match, ignoring case. It returns the number removed.
func (s *Store) EmptySectionsMatchingString(match, name string) int {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return 0
	}

	fm := ini.Fold(match)
	batch := s.notifier.NewBatch()
	for _, sec := range sl.doc.SectionNames() {
		if !strings.Contains(ini.Fold(sec), fm) {
			continue
		}
		sl.doc.RemoveSection(sec)
		batch.Add(notify.Change{Document: sl.doc.Name, Section: sec, Type: notify.ChangeDelete, Source: "empty"})
	}

	n := batch.Len()
	if n > 0 {
		sl.doc.MarkDirty()
	}
	batch.Commit()
	return n
}
