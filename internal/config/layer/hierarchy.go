package layer

import (
	"path/filepath"
)

// Context describes where the files of a configuration hierarchy live.
// Empty directories disable the layers rooted in them.
type Context struct {
	EngineDir  string
	ProjectDir string
	SavedDir   string

	// Platform selects the per-platform layers and the saved sub-directory.
	Platform string

	// Custom selects Custom/<Custom>/Default<Name>.ini when non-empty.
	Custom string
}

// Candidate is one file that may contribute to a document.
type Candidate struct {
	Source Source
	Path   string
}

// Candidates lists the files for base name in merge order, lowest priority
// first. The files may or may not exist.
//
//	1. {EngineDir}/Base{Name}.ini
//	2. {ProjectDir}/Default{Name}.ini
//	3. {EngineDir}/{Platform}/{Platform}{Name}.ini
//	4. {ProjectDir}/{Platform}/{Platform}{Name}.ini
//	5. {ProjectDir}/Custom/{Custom}/Default{Name}.ini
//	6. {SavedDir}/{Platform}/{Name}.ini
func (c Context) Candidates(base string) []Candidate {
	var out []Candidate
	if c.EngineDir != "" {
		out = append(out, Candidate{SourceEngineBase, filepath.Join(c.EngineDir, "Base"+base+".ini")})
	}
	if c.ProjectDir != "" {
		out = append(out, Candidate{SourceProjectDefault, c.DefaultPath(base)})
	}
	if c.Platform != "" {
		if c.EngineDir != "" {
			out = append(out, Candidate{SourceEnginePlatform, filepath.Join(c.EngineDir, c.Platform, c.Platform+base+".ini")})
		}
		if c.ProjectDir != "" {
			out = append(out, Candidate{SourceProjectPlatform, filepath.Join(c.ProjectDir, c.Platform, c.Platform+base+".ini")})
		}
	}
	if c.Custom != "" && c.ProjectDir != "" {
		out = append(out, Candidate{SourceCustom, filepath.Join(c.ProjectDir, "Custom", c.Custom, "Default"+base+".ini")})
	}
	if c.SavedDir != "" {
		out = append(out, Candidate{SourceSaved, c.SavedPath(base)})
	}
	return out
}

// DefaultPath returns the path of the base source for base name.
func (c Context) DefaultPath(base string) string {
	return filepath.Join(c.ProjectDir, "Default"+base+".ini")
}

// SavedPath returns the saved file for base name. Flushes write here.
func (c Context) SavedPath(base string) string {
	if c.Platform == "" {
		return filepath.Join(c.SavedDir, base+".ini")
	}
	return filepath.Join(c.SavedDir, c.Platform, base+".ini")
}

// WithPlatform returns a copy of the context for another platform.
func (c Context) WithPlatform(platform string) Context {
	c.Platform = platform
	return c
}
