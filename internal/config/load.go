package config

import (
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/layer"
	"github.com/dshills/inicache/internal/config/loader"
)

// LoadOptions control LoadGlobalFile.
type LoadOptions struct {
	// ForceReload rebuilds a cached document from disk, discarding
	// unsaved changes.
	ForceReload bool

	// RequireDefault fails with ErrBaseFileMissing when the base source
	// does not exist instead of producing an empty document.
	RequireDefault bool

	// Platform loads the platform layers of another platform.
	Platform string
}

// LoadGlobalFile loads baseName through the hierarchy and caches it. It
// returns the key the document is cached under.
func (s *Store) LoadGlobalFile(baseName string, opts LoadOptions) (string, error) {
	s.mustBeReady()
	if s.fileOpsDisabled {
		return "", oops.In("config").With("document", baseName).Wrapf(ErrFileOperationsDisabled, "loading config")
	}

	_, baseName = s.resolve(baseName)
	hier := s.hier
	if opts.Platform != "" {
		hier = hier.WithPlatform(opts.Platform)
	}

	if !s.isHierarchical(baseName) {
		key := s.KeyFor(baseName)
		existing := s.find(key)
		if existing != nil && !opts.ForceReload {
			return key.Name, nil
		}
		sl, err := s.loadSingle(baseName, key, s.fallbacks[key.Name])
		if err != nil {
			return "", err
		}
		s.install(existing, sl)
		return key.Name, nil
	}

	key := s.keyInHierarchy(baseName, hier)
	existing := s.find(key)
	if existing != nil && !opts.ForceReload {
		return key.Name, nil
	}
	if existing != nil && existing.doc.Dirty() {
		log.WithField("document", existing.doc.Name).Warn("Reloading dirty document, unsaved changes are lost")
	}

	sl, err := s.loadHierarchy(s.displayName(baseName), key, hier, opts.RequireDefault)
	if err != nil {
		return "", err
	}
	s.install(existing, sl)
	return key.Name, nil
}

// install caches sl. When a slot was already cached, its document keeps its
// identity and takes the new contents.
func (s *Store) install(existing, sl *slot) {
	if existing == nil {
		s.insert(sl)
		return
	}
	existing.doc.ReplaceContents(sl.doc)
	existing.doc.Path = sl.doc.Path
	existing.stack = sl.stack
	existing.hier = sl.hier
	existing.hierarchical = sl.hierarchical
	s.unwatchSlot(existing)
	existing.watched = sl.watched
	s.watchSlot(existing)
	s.notifier.NotifyReload(existing.doc.Name, "load")
}

// keyInHierarchy is KeyFor evaluated against hier instead of the store's
// own hierarchy.
func (s *Store) keyInHierarchy(baseName string, hier layer.Context) Key {
	n := s.normalizeIn(baseName, hier)
	return Key{Name: n, Hash: xxhash.Sum64String(n)}
}

// LoadFile loads a single file into the cache under its path. When the
// file is missing, fallback is cloned instead; a nil fallback gives an
// empty document. The saved file of a known name loads that known name.
func (s *Store) LoadFile(path string, fallback *ini.Document) (*ini.Document, error) {
	s.mustBeReady()
	if s.fileOpsDisabled {
		return nil, oops.In("config").With("path", path).Wrapf(ErrFileOperationsDisabled, "loading config")
	}
	key, name := s.resolve(path)
	if sl := s.find(key); sl != nil {
		return sl.doc, nil
	}
	if name != path {
		sl, err := s.loadHierarchy(name, key, s.hier, false)
		if err != nil {
			return nil, err
		}
		s.insert(sl)
		return sl.doc, nil
	}
	if fallback == nil {
		fallback = s.fallbacks[key.Name]
	}
	sl, err := s.loadSingle(path, key, fallback)
	if err != nil {
		return nil, err
	}
	s.insert(sl)
	return sl.doc, nil
}

// loadSingle reads one file. Plain names are resolved to their saved file.
func (s *Store) loadSingle(name string, key Key, fallback *ini.Document) (*slot, error) {
	path := s.resolvePath(name)
	doc := ini.NewDocument(s.displayName(name))
	stack := layer.NewStack()

	raw, err := loader.ForPath(s.fs, path).Load(path)
	if err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "loading config file")
	}
	if raw != nil {
		l := layer.NewLayerWithRaw(filepath.Base(path), layer.SourceSaved, layer.PrioritySaved, raw)
		l.Path = path
		if info, err := s.fs.Stat(path); err == nil {
			l.ModTime = info.ModTime()
		}
		stack.Add(l)
		doc = stack.Merge(doc.Name)
	} else if fallback != nil {
		display := doc.Name
		doc = fallback.Clone()
		doc.Name = display
	}

	doc.Path = path
	doc.ClearDirty()
	return &slot{
		key:     key,
		doc:     doc,
		hier:    s.hier,
		stack:   stack,
		watched: []string{path},
	}, nil
}

// loadHierarchy merges every existing layer for name.
//
// The base source is the project Default file, or the engine Base file when
// no project directory is configured. Without a base source the result is
// the registered fallback (or an empty document) with only overrides
// applied. The Saved layer is dropped along with the others in that case,
// so values flushed for a name without a Default file (for example an
// ad-hoc "Foo" while a project directory is set) are not read back on the
// next load. A hierarchy with neither directory configured has no base
// source to require and merges whatever layers exist.
func (s *Store) loadHierarchy(name string, key Key, hier layer.Context, requireDefault bool) (*slot, error) {
	stack := layer.NewStack()
	var watched []string
	haveBase := false

	baseSource := layer.SourceProjectDefault
	if hier.ProjectDir == "" {
		baseSource = layer.SourceEngineBase
	}

	for _, c := range hier.Candidates(name) {
		want := absPath(s.workDir, c.Path)
		watched = append(watched, want)

		raw, found, err := loader.LoadLayer(s.fs, want)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"document": name,
				"layer":    c.Source,
				"path":     found,
			}).Warn("Skipping unreadable config layer")
			continue
		}
		if raw == nil {
			continue
		}
		if found != want {
			watched = append(watched, found)
		}

		l := layer.NewLayerWithRaw(layer.StandardLayerName(c.Source), c.Source, layer.DefaultPriority(c.Source), raw)
		l.Path = found
		if info, err := s.fs.Stat(found); err == nil {
			l.ModTime = info.ModTime()
		}
		stack.Add(l)
		if c.Source == baseSource {
			haveBase = true
		}
	}

	if hier.ProjectDir == "" && hier.EngineDir == "" && !requireDefault {
		haveBase = true
	}

	if !haveBase {
		if requireDefault {
			return nil, oops.In("config").
				With("document", name).
				With("path", hier.DefaultPath(name)).
				Wrapf(ErrBaseFileMissing, "loading config")
		}
		log.WithField("document", name).Debug("Base config file missing, using fallback")
		stack.Clear()
	}

	ov := layer.OverrideLayer(name, s.overrides)
	if ov != nil {
		stack.Add(ov)
	}

	var doc *ini.Document
	if !haveBase && s.fallbacks[key.Name] != nil {
		doc = s.fallbacks[key.Name].Clone()
		doc.Name = name
		if ov != nil {
			doc.Apply(ov.Raw)
		}
	} else {
		doc = stack.Merge(name)
	}

	doc.Path = ""
	if hier.SavedDir != "" {
		doc.Path = absPath(s.workDir, hier.SavedPath(name))
	}
	doc.ClearDirty()

	log.WithFields(logrus.Fields{
		"document": name,
		"layers":   stack.Len(),
		"sections": doc.Len(),
	}).Debug("Loaded config hierarchy")

	return &slot{
		key:          key,
		doc:          doc,
		hier:         hier,
		stack:        stack,
		hierarchical: true,
		watched:      watched,
	}, nil
}

// WhichLayer reports the highest-priority layer that provides key in
// section of the named document.
func (s *Store) WhichLayer(name, section, key string) (*layer.Layer, bool) {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil || sl.stack == nil {
		return nil, false
	}
	return sl.stack.Which(section, key)
}

// Layers returns the layers the named document was merged from, lowest
// priority first.
func (s *Store) Layers(name string) []*layer.Layer {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil || sl.stack == nil {
		return nil
	}
	return sl.stack.Layers()
}
