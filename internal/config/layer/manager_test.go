package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStack_AddSortsByPriority(t *testing.T) {
	s := NewStack()

	s.Add(NewLayer("saved", SourceSaved, PrioritySaved))
	s.Add(NewLayer("base", SourceEngineBase, PriorityEngineBase))
	s.Add(NewLayer("default", SourceProjectDefault, PriorityProjectDefault))

	require.Equal(t, 3, s.Len())
	layers := s.Layers()
	assert.Equal(t, "base", layers[0].Name)
	assert.Equal(t, "default", layers[1].Name)
	assert.Equal(t, "saved", layers[2].Name)
}

func TestStack_RemoveAndGet(t *testing.T) {
	s := NewStack()
	s.Add(NewLayer("test1", SourceEngineBase, PriorityEngineBase))
	s.Add(NewLayer("test2", SourceSaved, PrioritySaved))

	assert.True(t, s.Remove("test1"))
	assert.Equal(t, 1, s.Len())
	assert.False(t, s.Remove("nonexistent"))

	assert.NotNil(t, s.Get("test2"))
	assert.Nil(t, s.Get("test1"))
	assert.NotNil(t, s.BySource(SourceSaved))
	assert.Nil(t, s.BySource(SourceCustom))
}

func TestStack_Merge(t *testing.T) {
	s := NewStack()
	s.Add(rawLayer(t, "saved", SourceSaved, "[Audio]\nVolume=0.5\n"))
	s.Add(rawLayer(t, "default", SourceProjectDefault, "[Audio]\nVolume=1.0\nDevice=Default\n+Codecs=ogg\n"))
	s.Add(rawLayer(t, "platform", SourceProjectPlatform, "[Audio]\n+Codecs=opus\n-Codecs=ogg\n"))

	doc := s.Merge("Game")
	assert.Equal(t, "Game", doc.Name)

	audio, ok := doc.Section("Audio")
	require.True(t, ok)
	vol, _ := audio.Get("Volume")
	assert.Equal(t, "0.5", vol)
	dev, _ := audio.Get("Device")
	assert.Equal(t, "Default", dev)
	assert.Equal(t, []string{"opus"}, audio.Values("Codecs"))
}

func TestStack_MergeReturnsCopies(t *testing.T) {
	s := NewStack()
	s.Add(rawLayer(t, "default", SourceProjectDefault, "[S]\nK=V\n"))

	first := s.Merge("X")
	sec, _ := first.Section("S")
	sec.Set("K", "mutated")

	second := s.Merge("X")
	sec2, _ := second.Section("S")
	v, _ := sec2.Get("K")
	assert.Equal(t, "V", v)
}

func TestStack_MergeRefreshesAfterAdd(t *testing.T) {
	s := NewStack()
	s.Add(rawLayer(t, "default", SourceProjectDefault, "[S]\nK=V\n"))
	_ = s.Merge("X")

	s.Add(rawLayer(t, "override", SourceOverride, "[S]\nK=O\n"))
	sec, _ := s.Merge("X").Section("S")
	v, _ := sec.Get("K")
	assert.Equal(t, "O", v)
}

func TestStack_Which(t *testing.T) {
	s := NewStack()
	base := rawLayer(t, "default", SourceProjectDefault, "[S]\nA=1\nB=1\n")
	base.Path = "/p/DefaultX.ini"
	s.Add(base)
	s.Add(rawLayer(t, "saved", SourceSaved, "[S]\nA=2\n-B=1\n"))

	l, ok := s.Which("s", "a")
	require.True(t, ok)
	assert.Equal(t, "saved", l.Name)

	l, ok = s.Which("S", "B")
	require.True(t, ok)
	assert.Equal(t, "default", l.Name, "remove-only layers do not provide values")

	_, ok = s.Which("S", "Missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"/p/DefaultX.ini"}, s.Paths())
}

func TestStack_Clear(t *testing.T) {
	s := NewStack()
	s.Add(NewLayer("test", SourceEngineBase, PriorityEngineBase))
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.Merge("empty").Len())
}
