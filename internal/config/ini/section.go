// Package ini implements the in-memory model and text format of configuration
// documents.
//
// A Document is an ordered set of named Sections. A Section is an ordered
// multi-map: a key may appear several times, and the order of its values is
// significant. Section names and keys compare case-insensitively but keep
// their original spelling for output.
package ini

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used for name comparisons.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Entry is a single key/value pair of a section.
type Entry struct {
	Key   string
	Value string
}

type entry struct {
	Entry
	fold string
}

// Section is an ordered multi-map from key to string values.
type Section struct {
	name    string
	entries []entry
}

// NewSection creates an empty section.
func NewSection(name string) *Section {
	return &Section{name: name}
}

// Name returns the section name as first written.
func (s *Section) Name() string {
	return s.name
}

// Len returns the number of entries, counting repeated keys.
func (s *Section) Len() int {
	return len(s.entries)
}

// Get returns the first value stored under key.
func (s *Section) Get(key string) (string, bool) {
	fk := Fold(key)
	for _, e := range s.entries {
		if e.fold == fk {
			return e.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under key in insertion order.
// Returns nil if the key is absent.
func (s *Section) Values(key string) []string {
	fk := Fold(key)
	var out []string
	for _, e := range s.entries {
		if e.fold == fk {
			out = append(out, e.Value)
		}
	}
	return out
}

// Has reports whether key has at least one value.
func (s *Section) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Keys returns the distinct keys in first-seen order.
func (s *Section) Keys() []string {
	seen := make(map[string]bool, len(s.entries))
	keys := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if seen[e.fold] {
			continue
		}
		seen[e.fold] = true
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns a copy of all entries in order.
func (s *Section) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Entry
	}
	return out
}

// Add appends a value for key.
func (s *Section) Add(key, value string) {
	s.entries = append(s.entries, entry{Entry: Entry{Key: key, Value: value}, fold: Fold(key)})
}

// AddUnique appends value unless key already holds exactly that value.
// Returns true if the value was added.
func (s *Section) AddUnique(key, value string) bool {
	fk := Fold(key)
	for _, e := range s.entries {
		if e.fold == fk && e.Value == value {
			return false
		}
	}
	s.entries = append(s.entries, entry{Entry: Entry{Key: key, Value: value}, fold: fk})
	return true
}

// Set replaces all values of key with a single value.
func (s *Section) Set(key, value string) {
	s.SetValues(key, []string{value})
}

// SetValues replaces all values of key. The new values take the position of
// the first existing occurrence, or are appended when the key is new.
// An empty values slice removes the key.
func (s *Section) SetValues(key string, values []string) {
	fk := Fold(key)
	at := -1
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if e.fold == fk {
			if at < 0 {
				at = len(kept)
			}
			continue
		}
		kept = append(kept, e)
	}
	if at < 0 {
		at = len(kept)
	}

	added := make([]entry, len(values))
	for i, v := range values {
		added[i] = entry{Entry: Entry{Key: key, Value: v}, fold: fk}
	}

	out := make([]entry, 0, len(kept)+len(added))
	out = append(out, kept[:at]...)
	out = append(out, added...)
	out = append(out, kept[at:]...)
	s.entries = out
}

// Remove deletes every value of key and returns how many were removed.
func (s *Section) Remove(key string) int {
	fk := Fold(key)
	return s.removeWhere(func(e entry) bool { return e.fold == fk })
}

// RemoveValue deletes the values of key equal to value.
func (s *Section) RemoveValue(key, value string) int {
	fk := Fold(key)
	return s.removeWhere(func(e entry) bool { return e.fold == fk && e.Value == value })
}

func (s *Section) removeWhere(match func(entry) bool) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if match(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so dropped strings can be collected.
	for i := len(kept); i < len(s.entries); i++ {
		s.entries[i] = entry{}
	}
	s.entries = kept
	return removed
}

// Clear removes all entries.
func (s *Section) Clear() {
	s.entries = nil
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := &Section{name: s.name}
	if len(s.entries) > 0 {
		c.entries = make([]entry, len(s.entries))
		copy(c.entries, s.entries)
	}
	return c
}

// SingleLineArray splits the first value of key on whitespace.
func (s *Section) SingleLineArray(key string) []string {
	v, ok := s.Get(key)
	if !ok {
		return nil
	}
	return strings.Fields(v)
}

// Parse1ToN reads a section holding 1-to-N relations such as
//
//	MapName=Map1
//	Package=PackageA
//	Package=PackageB
//	MapName=Map2
//	Package=PackageC
//
// Every keyN value is attached to the most recent keyOne value. keyN values
// seen before any keyOne are dropped. A keyOne seen twice keeps accumulating.
func (s *Section) Parse1ToN(keyOne, keyN string) map[string][]string {
	one, n := Fold(keyOne), Fold(keyN)
	out := make(map[string][]string)
	current := ""
	haveCurrent := false
	for _, e := range s.entries {
		switch e.fold {
		case one:
			current = e.Value
			haveCurrent = true
			if _, ok := out[current]; !ok {
				out[current] = []string{}
			}
		case n:
			if haveCurrent {
				out[current] = append(out[current], e.Value)
			}
		}
	}
	return out
}
