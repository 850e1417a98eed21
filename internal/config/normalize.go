package config

import (
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/layer"
)

// Key identifies a cached document: the normalized name and its hash.
// Computing a Key does not touch store state that changes after New, so it
// can be done before taking any lock.
type Key struct {
	Name string
	Hash uint64
}

// KeyFor normalizes name and hashes it.
//
// Known names map to their registered spelling regardless of case, and so
// does the saved file of a known name. Plain names without a separator or
// extension map to their saved file. Anything else is a path: backslashes
// become slashes, relative paths are resolved against the working
// directory, the result is cleaned and case folded.
func (s *Store) KeyFor(name string) Key {
	n := s.normalize(name)
	return Key{Name: n, Hash: xxhash.Sum64String(n)}
}

func (s *Store) normalize(name string) string {
	return s.normalizeIn(name, s.hier)
}

func (s *Store) normalizeIn(name string, hier layer.Context) string {
	if canon, ok := s.knownName(name); ok {
		if hier.Platform == s.hier.Platform {
			return canon
		}
		// Another platform's copy is its own document, keyed by its saved
		// file.
		return foldPath(absPath(s.workDir, hier.SavedPath(canon)))
	}
	p := foldPath(s.resolvePathIn(name, hier))
	if canon, ok := s.savedIndex[p]; ok {
		return canon
	}
	return p
}

func foldPath(p string) string {
	return ini.Fold(filepath.ToSlash(p))
}

// indexSavedFiles records the saved file of every known name so a path to
// it resolves to the known name.
func (s *Store) indexSavedFiles() {
	s.savedIndex = make(map[string]string, len(s.known))
	if s.hier.SavedDir == "" {
		return
	}
	for _, name := range s.known {
		s.savedIndex[foldPath(absPath(s.workDir, s.hier.SavedPath(name)))] = name
	}
}

// resolve returns the key for name and the name to load it by, which is
// the known name when name is the saved file of one.
func (s *Store) resolve(name string) (Key, string) {
	key := s.KeyFor(name)
	if canon, ok := s.knownName(key.Name); ok {
		return key, canon
	}
	return key, name
}

// resolvePath returns the file a non-known name refers to, with its
// original case.
func (s *Store) resolvePath(name string) string {
	return s.resolvePathIn(name, s.hier)
}

func (s *Store) resolvePathIn(name string, hier layer.Context) string {
	if !isPlainName(name) {
		return absPath(s.workDir, name)
	}
	// Plain base names live at their saved file.
	if hier.SavedDir == "" {
		return absPath(s.workDir, name+".ini")
	}
	return absPath(s.workDir, hier.SavedPath(name))
}

func (s *Store) knownName(name string) (string, bool) {
	canon, ok := s.knownIndex[ini.Fold(name)]
	return canon, ok
}

// isPlainName reports whether name is a bare base name such as "Engine"
// rather than a file path.
func isPlainName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`) && filepath.Ext(name) == ""
}

// absPath converts p to a clean absolute path, treating backslashes as
// separators.
func absPath(workDir, p string) string {
	p = filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
	if !filepath.IsAbs(p) {
		p = filepath.Join(workDir, p)
	}
	return filepath.Clean(p)
}

// ConfigFilename returns the cache key name for baseName: the canonical
// spelling of a known name, or the normalized saved path of any other.
func (s *Store) ConfigFilename(baseName string) string {
	s.mustBeReady()
	return s.normalize(baseName)
}
