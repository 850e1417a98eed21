package layer

import (
	"sort"
	"sync"

	"github.com/dshills/inicache/internal/config/ini"
)

// Stack manages the layers of one logical document and provides the merged
// result.
type Stack struct {
	mu     sync.RWMutex
	layers []*Layer      // Sorted by priority (ascending)
	merged *ini.Document // Cached merged result
	dirty  bool          // Whether merged cache needs refresh
}

// NewStack creates an empty layer stack.
func NewStack() *Stack {
	return &Stack{
		layers: make([]*Layer, 0),
		dirty:  true,
	}
}

// Add adds a layer. Layers are kept sorted by priority; layers of equal
// priority keep insertion order.
func (s *Stack) Add(layer *Layer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = append(s.layers, layer)
	sort.SliceStable(s.layers, func(i, j int) bool {
		return s.layers[i].Priority < s.layers[j].Priority
	})
	s.dirty = true
}

// Remove removes a layer by name.
// Returns true if the layer was found and removed.
func (s *Stack) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, layer := range s.layers {
		if layer.Name == name {
			s.layers = append(s.layers[:i], s.layers[i+1:]...)
			s.dirty = true
			return true
		}
	}
	return false
}

// Get returns a layer by name.
func (s *Stack) Get(name string) *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, layer := range s.layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

// BySource returns the first layer with the given source.
func (s *Stack) BySource(source Source) *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, layer := range s.layers {
		if layer.Source == source {
			return layer
		}
	}
	return nil
}

// Layers returns a copy of all layers sorted by priority.
func (s *Stack) Layers() []*Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Layer, len(s.layers))
	copy(result, s.layers)
	return result
}

// Len returns the number of layers.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.layers)
}

// Paths returns the file paths of the layers that came from disk.
func (s *Stack) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var paths []string
	for _, layer := range s.layers {
		if layer.Path != "" {
			paths = append(paths, layer.Path)
		}
	}
	return paths
}

// Merge applies all layers, lowest priority first, to a new document.
// The result is cached until a layer is added or removed; callers receive
// their own copy.
func (s *Stack) Merge(name string) *ini.Document {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty || s.merged == nil {
		doc := ini.NewDocument(name)
		for _, layer := range s.layers {
			doc.Apply(layer.Raw)
		}
		s.merged = doc
		s.dirty = false
	}

	out := s.merged.Clone()
	out.Name = name
	return out
}

// Which returns the highest-priority layer that contributes a value to
// key in section. Layers that only remove values do not count.
func (s *Stack) Which(section, key string) (*Layer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fs, fk := ini.Fold(section), ini.Fold(key)
	for i := len(s.layers) - 1; i >= 0; i-- {
		layer := s.layers[i]
		if layer.Raw == nil {
			continue
		}
		for _, rs := range layer.Raw.Sections {
			if ini.Fold(rs.Name) != fs {
				continue
			}
			for _, ln := range rs.Lines {
				if ln.Op == ini.OpRemove || ln.Op == ini.OpClear {
					continue
				}
				if ini.Fold(ln.Key) == fk {
					return layer, true
				}
			}
		}
	}
	return nil, false
}

// Invalidate marks the merged cache as stale.
// Call this after modifying layer data directly.
func (s *Stack) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// Clear removes all layers and releases memory.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.layers = nil
	s.merged = nil
	s.dirty = true
}
