package ini

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSection_RepeatedKeysKeepOrder(t *testing.T) {
	doc, err := ParseString(`
[Paths]
Path=a
Other=x
Path=b
Path=c
`, "test")
	require.NoError(t, err)

	sec, ok := doc.Section("Paths")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, sec.Values("Path"))
	assert.Equal(t, []string{"Path", "Other"}, sec.Keys())

	first, ok := sec.Get("path")
	require.True(t, ok, "key lookup should ignore case")
	assert.Equal(t, "a", first)
}

func TestSection_SetValuesReplacesInPlace(t *testing.T) {
	s := NewSection("S")
	s.Add("A", "1")
	s.Add("B", "2")
	s.Add("A", "3")
	s.Add("C", "4")

	s.SetValues("a", []string{"x", "y"})

	assert.Equal(t, []Entry{
		{Key: "a", Value: "x"},
		{Key: "a", Value: "y"},
		{Key: "B", Value: "2"},
		{Key: "C", Value: "4"},
	}, s.Entries())

	s.SetValues("D", []string{"new"})
	assert.Equal(t, "new", s.Entries()[s.Len()-1].Value)

	s.SetValues("a", nil)
	assert.False(t, s.Has("A"))
}

func TestSection_RemoveAndAddUnique(t *testing.T) {
	s := NewSection("S")
	assert.True(t, s.AddUnique("K", "v"))
	assert.False(t, s.AddUnique("k", "v"))
	s.Add("K", "w")
	s.Add("K", "v")

	assert.Equal(t, 2, s.RemoveValue("K", "v"))
	assert.Equal(t, []string{"w"}, s.Values("K"))
	assert.Equal(t, 1, s.Remove("K"))
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Values("K"))
}

func TestSection_Parse1ToN(t *testing.T) {
	doc, err := ParseString("[PerMapPackages]\nMapName=Map1\nPackage=A\nPackage=B\nMapName=Map2\nPackage=C", "test")
	require.NoError(t, err)

	sec, ok := doc.Section("PerMapPackages")
	require.True(t, ok)

	got := sec.Parse1ToN("MapName", "Package")
	assert.Equal(t, map[string][]string{
		"Map1": {"A", "B"},
		"Map2": {"C"},
	}, got)
}

func TestSection_Parse1ToN_EdgeCases(t *testing.T) {
	s := NewSection("S")
	s.Add("Package", "orphan")
	s.Add("MapName", "Empty")
	s.Add("MapName", "M")
	s.Add("Package", "A")
	s.Add("MapName", "M")
	s.Add("Package", "B")

	got := s.Parse1ToN("mapname", "package")
	assert.Equal(t, map[string][]string{
		"Empty": {},
		"M":     {"A", "B"},
	}, got)
}

func TestSection_SingleLineArray(t *testing.T) {
	s := NewSection("S")
	s.Add("List", "  one two\tthree ")
	assert.Equal(t, []string{"one", "two", "three"}, s.SingleLineArray("List"))
	assert.Nil(t, s.SingleLineArray("Missing"))
}

func TestParseRaw_Operators(t *testing.T) {
	raw, err := ParseRaw(strings.NewReader(`
; comment
# another
Orphan=1
[A]
Plain=1
+Unique=2
.Append=3
-Remove=4
!Clear=ClearArray
NoEquals
=novalue
[A]
Plain=5
`), "file.ini")
	require.NoError(t, err)
	require.Len(t, raw.Sections, 1, "repeated headers fold into one section")

	lines := raw.Sections[0].Lines
	require.Len(t, lines, 6)
	assert.Equal(t, Line{Op: OpSet, Key: "Plain", Value: "1", Num: 6}, lines[0])
	assert.Equal(t, OpAddUnique, lines[1].Op)
	assert.Equal(t, "Unique", lines[1].Key)
	assert.Equal(t, OpAdd, lines[2].Op)
	assert.Equal(t, OpRemove, lines[3].Op)
	assert.Equal(t, OpClear, lines[4].Op)
	assert.Equal(t, "5", lines[5].Value)
}

func TestParseRaw_ByteOrderMark(t *testing.T) {
	raw, err := ParseRaw(strings.NewReader("\ufeff[S]\nK=V\n"), "bom.ini")
	require.NoError(t, err)
	require.Len(t, raw.Sections, 1)
	assert.Equal(t, "S", raw.Sections[0].Name)
}

func TestDocument_ApplyLayers(t *testing.T) {
	base, err := ParseString(`
[Core]
Name=Base
List=a
List=b
Keep=yes
Drop=1
Drop=2
`, "base")
	require.NoError(t, err)

	override, err := ParseRaw(strings.NewReader(`
[Core]
Name=Override
+List=b
+List=c
.List=a
-Drop=1
!Keep=
[New]
K=V
`), "override")
	require.NoError(t, err)

	base.Apply(override)

	core, _ := base.Section("Core")
	name, _ := core.Get("Name")
	assert.Equal(t, "Override", name)
	assert.Equal(t, []string{"a", "b", "c", "a"}, core.Values("List"))
	assert.False(t, core.Has("Keep"))
	assert.Equal(t, []string{"2"}, core.Values("Drop"))

	_, ok := base.Section("new")
	assert.True(t, ok)
	assert.False(t, base.Dirty(), "Apply must not mark dirty")
}

func TestDocument_ApplyPlainKeyReplacesLowerLayerOnce(t *testing.T) {
	doc, err := ParseString("[S]\nK=old1\nK=old2\n", "base")
	require.NoError(t, err)

	layer, err := ParseRaw(strings.NewReader("[S]\nK=new1\nK=new2\n"), "layer")
	require.NoError(t, err)
	doc.Apply(layer)

	sec, _ := doc.Section("S")
	assert.Equal(t, []string{"new1", "new2"}, sec.Values("K"))
}

func TestDocument_RoundTrip(t *testing.T) {
	doc := NewDocument("rt")
	s, created := doc.FindOrAddSection("Values")
	require.True(t, created)
	s.Add("Plain", "text")
	s.Add("Spaces", "  padded  ")
	s.Add("Quoted", `"already quoted"`)
	s.Add("Multi", "line1\nline2")
	s.Add("Path", `C:\Game\Config`)
	s.Add("Empty", "")
	s.Add("Arr", "1")
	s.Add("Arr", "2")
	doc.FindOrAddSection("EmptySection")

	text := doc.String()
	back, err := ParseString(text, "rt")
	require.NoError(t, err)

	assert.Equal(t, doc.SectionNames(), back.SectionNames())
	bs, _ := back.Section("Values")
	assert.Equal(t, s.Entries(), bs.Entries())
	assert.Equal(t, text, back.String())
}

func TestDocument_SectionManagement(t *testing.T) {
	doc := NewDocument("d")
	doc.FindOrAddSection("One")
	doc.FindOrAddSection("Two")
	_, created := doc.FindOrAddSection("ONE")
	assert.False(t, created)
	assert.Equal(t, 2, doc.Len())

	assert.True(t, doc.RemoveSection("one"))
	assert.False(t, doc.RemoveSection("one"))
	assert.Equal(t, []string{"Two"}, doc.SectionNames())
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc, err := ParseString("[S]\nK=V\n", "orig")
	require.NoError(t, err)
	doc.Path = "/tmp/orig.ini"
	doc.MarkDirty()

	c := doc.Clone()
	cs, _ := c.Section("S")
	cs.Set("K", "changed")

	s, _ := doc.Section("S")
	v, _ := s.Get("K")
	assert.Equal(t, "V", v)
	assert.Equal(t, "/tmp/orig.ini", c.Path)
	assert.True(t, c.Dirty())
}

func TestDocument_ReplaceContents(t *testing.T) {
	doc, err := ParseString("[A]\nK=1\n", "Game")
	require.NoError(t, err)
	doc.Path = "/saved/Game.ini"
	doc.MarkDirty()
	ref := doc

	fresh, err := ParseString("[B]\nK=2\n", "Other")
	require.NoError(t, err)
	doc.ReplaceContents(fresh)

	assert.Equal(t, "Game", ref.Name)
	assert.Equal(t, "/saved/Game.ini", ref.Path)
	assert.False(t, ref.Dirty())
	assert.Equal(t, []string{"B"}, ref.SectionNames())

	sec, _ := fresh.Section("B")
	sec.Set("K", "changed")
	got, _ := ref.Section("B")
	v, _ := got.Get("K")
	assert.Equal(t, "2", v)
}

func TestQuoteUnquote(t *testing.T) {
	tests := []string{
		"",
		"plain",
		" lead",
		"trail ",
		`"`,
		`"abc`,
		`a"b`,
		"tab\tinside",
		"new\nline",
		`back\slash`,
		` x\`,
	}
	for _, v := range tests {
		assert.Equal(t, v, Unquote(Quote(v)), "round trip of %q", v)
	}
	assert.Equal(t, `keep\q`, Unquote(`"keep\q"`))
}
