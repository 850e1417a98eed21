package ini

import (
	"bufio"
	"io"
	"strings"

	"github.com/dshills/inicache/internal/logging"
)

var log = logging.For("ini")

// maxLineSize bounds a single line of input.
const maxLineSize = 1 << 20

// Op is the merge operation encoded by a line's key prefix.
type Op uint8

const (
	// OpSet is a plain Key=Value line.
	OpSet Op = iota
	// OpAddUnique is +Key=Value: add unless already present.
	OpAddUnique
	// OpAdd is .Key=Value: always append.
	OpAdd
	// OpRemove is -Key=Value: remove the matching value.
	OpRemove
	// OpClear is !Key=: remove every value of the key.
	OpClear
)

// String returns the line prefix for the operation.
func (o Op) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpAddUnique:
		return "+"
	case OpAdd:
		return "."
	case OpRemove:
		return "-"
	case OpClear:
		return "!"
	default:
		return "unknown"
	}
}

func opFor(c byte) (Op, bool) {
	switch c {
	case '+':
		return OpAddUnique, true
	case '.':
		return OpAdd, true
	case '-':
		return OpRemove, true
	case '!':
		return OpClear, true
	}
	return OpSet, false
}

// Line is one key/value line of a raw file.
type Line struct {
	Op    Op
	Key   string
	Value string
	// Num is the 1-based source line, or 0 for synthesized lines.
	Num int
}

// RawSection holds the lines of one section in file order.
type RawSection struct {
	Name  string
	Lines []Line
}

// Append adds a synthesized line.
func (s *RawSection) Append(op Op, key, value string) {
	s.Lines = append(s.Lines, Line{Op: op, Key: key, Value: value})
}

// RawFile is the unmerged content of one source file. Repeated headers for
// the same section are folded into one RawSection.
type RawFile struct {
	Source   string
	Sections []*RawSection
}

// NewRawFile creates an empty raw file.
func NewRawFile(source string) *RawFile {
	return &RawFile{Source: source}
}

// Section returns the named raw section, appending it when absent.
func (f *RawFile) Section(name string) *RawSection {
	fk := Fold(name)
	for _, s := range f.Sections {
		if Fold(s.Name) == fk {
			return s
		}
	}
	s := &RawSection{Name: name}
	f.Sections = append(f.Sections, s)
	return s
}

// Empty reports whether the file has no sections.
func (f *RawFile) Empty() bool {
	return f == nil || len(f.Sections) == 0
}

// ParseRaw reads INI text without merging. Malformed lines are skipped;
// only read errors are returned.
func ParseRaw(r io.Reader, source string) (*RawFile, error) {
	f := NewRawFile(source)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var current *RawSection
	num := 0
	for sc.Scan() {
		num++
		text := sc.Text()
		if num == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		text = strings.TrimSpace(text)
		if text == "" || text[0] == ';' || text[0] == '#' {
			continue
		}

		if text[0] == '[' && text[len(text)-1] == ']' {
			name := strings.TrimSpace(text[1 : len(text)-1])
			if name == "" {
				log.WithField("source", source).WithField("line", num).Debug("Skipping empty section header")
				current = nil
				continue
			}
			current = f.Section(name)
			continue
		}

		if current == nil {
			log.WithField("source", source).WithField("line", num).Debug("Skipping line outside section")
			continue
		}

		eq := strings.IndexByte(text, '=')
		if eq < 0 {
			log.WithField("source", source).WithField("line", num).Debug("Skipping line without '='")
			continue
		}

		key := strings.TrimSpace(text[:eq])
		op := OpSet
		if len(key) > 1 {
			if o, ok := opFor(key[0]); ok {
				op = o
				key = strings.TrimSpace(key[1:])
			}
		}
		if key == "" {
			continue
		}

		value := Unquote(strings.TrimSpace(text[eq+1:]))
		current.Lines = append(current.Lines, Line{Op: op, Key: key, Value: value, Num: num})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return f, nil
}

// ValidKey reports whether key survives a write and re-read unchanged. Keys
// must not start with a merge operator or comment marker, contain '=' or
// line breaks, or carry surrounding spaces.
func ValidKey(key string) bool {
	if key == "" || key != strings.TrimSpace(key) {
		return false
	}
	if _, ok := opFor(key[0]); ok {
		return false
	}
	switch key[0] {
	case ';', '#', '[':
		return false
	}
	return !strings.ContainsAny(key, "=\r\n")
}

// Parse reads INI text into a new document.
func Parse(r io.Reader, name string) (*Document, error) {
	raw, err := ParseRaw(r, name)
	if err != nil {
		return nil, err
	}
	d := NewDocument(name)
	d.Apply(raw)
	return d, nil
}

// ParseString reads INI text from a string into a new document.
func ParseString(text, name string) (*Document, error) {
	return Parse(strings.NewReader(text), name)
}

// Quote returns v in the form written to disk, quoting it when it would
// otherwise not survive a parse.
func Quote(v string) string {
	if !needsQuote(v) {
		return v
	}
	var sb strings.Builder
	sb.Grow(len(v) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(v); i++ {
		switch c := v[i]; c {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func needsQuote(v string) bool {
	if v == "" {
		return false
	}
	if v != strings.TrimSpace(v) || v[0] == '"' {
		return true
	}
	return strings.ContainsAny(v, "\n\r")
}

// Unquote strips surrounding double quotes and resolves escapes. Values
// that are not quoted are returned unchanged; unknown escapes are kept.
func Unquote(v string) string {
	if len(v) < 2 || v[0] != '"' || v[len(v)-1] != '"' {
		return v
	}
	inner := v[1 : len(v)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}
	var sb strings.Builder
	sb.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i == len(inner)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case '\\':
			sb.WriteByte('\\')
		case '"':
			sb.WriteByte('"')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(inner[i])
		}
	}
	return sb.String()
}
