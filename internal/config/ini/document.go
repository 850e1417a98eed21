package ini

import (
	"bytes"
	"io"
	"strings"
)

// Document is one logical configuration file: ordered sections, a dirty
// flag, and the path it is written to. An empty Path means the document is
// detached and never written.
type Document struct {
	// Name is the logical or file name the document was loaded under.
	Name string

	// Path is the destination used when the document is flushed.
	Path string

	sections []*Section
	index    map[string]*Section
	dirty    bool
}

// NewDocument creates an empty document.
func NewDocument(name string) *Document {
	return &Document{
		Name:  name,
		index: make(map[string]*Section),
	}
}

// Section returns the named section without modifying the document.
func (d *Document) Section(name string) (*Section, bool) {
	if d == nil || d.index == nil {
		return nil, false
	}
	s, ok := d.index[Fold(name)]
	return s, ok
}

// FindOrAddSection returns the named section, creating it when absent.
// The second result reports whether the section was created.
func (d *Document) FindOrAddSection(name string) (*Section, bool) {
	if d.index == nil {
		d.index = make(map[string]*Section)
	}
	key := Fold(name)
	if s, ok := d.index[key]; ok {
		return s, false
	}
	s := NewSection(name)
	d.index[key] = s
	d.sections = append(d.sections, s)
	return s, true
}

// RemoveSection deletes the named section.
func (d *Document) RemoveSection(name string) bool {
	key := Fold(name)
	if _, ok := d.index[key]; !ok {
		return false
	}
	delete(d.index, key)
	for i, s := range d.sections {
		if Fold(s.name) == key {
			d.sections = append(d.sections[:i], d.sections[i+1:]...)
			break
		}
	}
	return true
}

// Sections returns the sections in order.
func (d *Document) Sections() []*Section {
	out := make([]*Section, len(d.sections))
	copy(out, d.sections)
	return out
}

// SectionNames returns the section names in order.
func (d *Document) SectionNames() []string {
	names := make([]string, len(d.sections))
	for i, s := range d.sections {
		names[i] = s.name
	}
	return names
}

// Len returns the number of sections.
func (d *Document) Len() int {
	return len(d.sections)
}

// Dirty reports whether the document has unsaved changes.
func (d *Document) Dirty() bool {
	return d.dirty
}

// MarkDirty flags the document as needing a flush.
func (d *Document) MarkDirty() {
	d.dirty = true
}

// ClearDirty resets the dirty flag.
func (d *Document) ClearDirty() {
	d.dirty = false
}

// Clone returns a deep copy, including name, path and dirty state.
func (d *Document) Clone() *Document {
	c := NewDocument(d.Name)
	c.Path = d.Path
	c.dirty = d.dirty
	for _, s := range d.sections {
		sc := s.Clone()
		c.sections = append(c.sections, sc)
		c.index[Fold(sc.name)] = sc
	}
	return c
}

// ReplaceContents swaps in a copy of other's sections, keeping Name and
// Path, and clears the dirty flag. Existing references to d see the new
// contents.
func (d *Document) ReplaceContents(other *Document) {
	c := other.Clone()
	d.sections = c.sections
	d.index = c.index
	d.dirty = false
}

// Apply merges one parsed layer into the document.
//
// Within a section, the first plain Key= line of the layer replaces every
// value the key held before; further plain lines for the same key append.
// +Key adds a value if absent, .Key always appends, -Key removes a matching
// value and !Key removes all values. Apply never marks the document dirty.
func (d *Document) Apply(raw *RawFile) {
	if raw == nil {
		return
	}
	for _, rs := range raw.Sections {
		sec, _ := d.FindOrAddSection(rs.Name)
		replaced := make(map[string]bool)
		for _, ln := range rs.Lines {
			fk := Fold(ln.Key)
			switch ln.Op {
			case OpSet:
				if replaced[fk] {
					sec.Add(ln.Key, ln.Value)
				} else {
					sec.SetValues(ln.Key, []string{ln.Value})
					replaced[fk] = true
				}
			case OpAddUnique:
				sec.AddUnique(ln.Key, ln.Value)
			case OpAdd:
				sec.Add(ln.Key, ln.Value)
			case OpRemove:
				sec.RemoveValue(ln.Key, ln.Value)
			case OpClear:
				sec.Remove(ln.Key)
				replaced[fk] = true
			}
		}
	}
}

// WriteTo writes the document in INI text form.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for i, s := range d.sections {
		if i > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteByte('[')
		buf.WriteString(s.name)
		buf.WriteString("]\n")
		for _, e := range s.entries {
			buf.WriteString(e.Key)
			buf.WriteByte('=')
			buf.WriteString(Quote(e.Value))
			buf.WriteByte('\n')
		}
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// String returns the INI text form of the document.
func (d *Document) String() string {
	var sb strings.Builder
	_, _ = d.WriteTo(&sb)
	return sb.String()
}
