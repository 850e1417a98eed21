// Package layer provides configuration hierarchy management for inicache.
//
// A logical configuration document is built from several source files
// applied in a fixed order. Each source is a Layer; a Stack keeps the layers
// sorted by priority and merges them into a single document.
package layer

import (
	"time"

	"github.com/dshills/inicache/internal/config/ini"
)

// Layer represents a single configuration layer.
type Layer struct {
	// Name identifies the layer (e.g., "default", "platform", "saved").
	Name string

	// Priority determines merge order (higher overrides lower).
	Priority int

	// Source indicates which hierarchy slot the layer fills.
	Source Source

	// Path is the file path (if loaded from file).
	Path string

	// Raw holds the unmerged lines of the layer.
	Raw *ini.RawFile

	// ModTime is when the source was last modified.
	ModTime time.Time
}

// NewLayer creates a new empty configuration layer.
func NewLayer(name string, source Source, priority int) *Layer {
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Raw:      ini.NewRawFile(name),
		ModTime:  time.Now(),
	}
}

// NewLayerWithRaw creates a layer around parsed file content.
func NewLayerWithRaw(name string, source Source, priority int, raw *ini.RawFile) *Layer {
	if raw == nil {
		raw = ini.NewRawFile(name)
	}
	return &Layer{
		Name:     name,
		Source:   source,
		Priority: priority,
		Raw:      raw,
		ModTime:  time.Now(),
	}
}

// Clone creates a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	raw := ini.NewRawFile(l.Raw.Source)
	for _, s := range l.Raw.Sections {
		rs := raw.Section(s.Name)
		rs.Lines = append(rs.Lines, s.Lines...)
	}
	return &Layer{
		Name:     l.Name,
		Priority: l.Priority,
		Source:   l.Source,
		Path:     l.Path,
		Raw:      raw,
		ModTime:  l.ModTime,
	}
}

// Source indicates where a configuration layer came from.
type Source uint8

const (
	// SourceEngineBase is the engine-wide Base<Name>.ini.
	SourceEngineBase Source = iota
	// SourceProjectDefault is the project's Default<Name>.ini, the base source.
	SourceProjectDefault
	// SourceEnginePlatform is the engine's per-platform file.
	SourceEnginePlatform
	// SourceProjectPlatform is the project's per-platform file.
	SourceProjectPlatform
	// SourceCustom is the custom-config variant of the project default.
	SourceCustom
	// SourceSaved is the saved user file, also the flush destination.
	SourceSaved
	// SourceOverride holds command-line and environment overrides.
	SourceOverride
)

// String returns a human-readable name for the source.
func (s Source) String() string {
	switch s {
	case SourceEngineBase:
		return "engine-base"
	case SourceProjectDefault:
		return "project-default"
	case SourceEnginePlatform:
		return "engine-platform"
	case SourceProjectPlatform:
		return "project-platform"
	case SourceCustom:
		return "custom"
	case SourceSaved:
		return "saved"
	case SourceOverride:
		return "override"
	default:
		return "unknown"
	}
}
