package config

import (
	"bytes"
	"errors"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/layer"
	"github.com/dshills/inicache/internal/config/loader"
)

// maxParallelWrites bounds concurrent file writes during a flush.
const maxParallelWrites = 4

// pendingWrite is one document scheduled to be written.
type pendingWrite struct {
	sl   *slot
	path string
	data []byte
	err  error
}

// Flush writes dirty documents to their saved paths. An empty name flushes
// every cached document. With removeFromCache, documents are evicted after
// they were written successfully.
//
// Temporary stores, detached documents and a store with file operations
// disabled write nothing.
func (s *Store) Flush(removeFromCache bool, name string) error {
	s.mustBeReady()

	var targets []*slot
	if name == "" {
		targets = s.slots()
	} else {
		sl := s.find(s.KeyFor(name))
		if sl == nil {
			return oops.In("config").With("document", name).Wrapf(ErrDocumentNotFound, "flushing config")
		}
		targets = []*slot{sl}
	}

	var writes []*pendingWrite
	for _, sl := range targets {
		if w, ok := s.prepareWrite(sl); ok {
			writes = append(writes, w)
		}
	}
	s.runWrites(writes)

	failed := make(map[*slot]bool)
	var errs []error
	for _, w := range writes {
		if w.err != nil {
			failed[w.sl] = true
			errs = append(errs, w.err)
		}
	}

	if removeFromCache {
		for _, sl := range targets {
			if !failed[sl] {
				s.remove(sl.key)
			}
		}
	}
	return errors.Join(errs...)
}

// prepareWrite serializes sl if it needs writing.
func (s *Store) prepareWrite(sl *slot) (*pendingWrite, bool) {
	if s.kind != DiskBacked || s.fileOpsDisabled {
		return nil, false
	}
	if !sl.doc.Dirty() || sl.doc.Path == "" {
		return nil, false
	}
	return &pendingWrite{
		sl:   sl,
		path: sl.doc.Path,
		data: serialize(sl),
	}, true
}

// runWrites writes the prepared documents in parallel. Each write records
// its own error. Successful writes clear the dirty flag and refresh the
// saved layer of the document.
func (s *Store) runWrites(writes []*pendingWrite) {
	if len(writes) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(maxParallelWrites)
	for _, w := range writes {
		w := w
		g.Go(func() error {
			if err := loader.WriteFileAtomic(s.fs, w.path, w.data, 0o644); err != nil {
				w.err = oops.In("config").
					With("document", w.sl.doc.Name).
					With("path", w.path).
					Wrapf(err, "writing config")
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, w := range writes {
		if w.err != nil {
			log.WithError(w.err).WithField("path", w.path).Warn("Failed to write config")
			continue
		}
		w.sl.doc.ClearDirty()
		refreshSavedLayer(w.sl, w.path, w.data)
		log.WithFields(logrus.Fields{
			"document": w.sl.doc.Name,
			"path":     w.path,
			"bytes":    len(w.data),
		}).Debug("Wrote config")
	}
}

// refreshSavedLayer replaces the saved layer of the slot's stack with what
// was just written.
func refreshSavedLayer(sl *slot, path string, data []byte) {
	if sl.stack == nil {
		return
	}
	raw, err := ini.ParseRaw(bytes.NewReader(data), path)
	if err != nil {
		sl.stack.Invalidate()
		return
	}
	name := layer.StandardLayerName(layer.SourceSaved)
	if old := sl.stack.BySource(layer.SourceSaved); old != nil {
		name = old.Name
		sl.stack.Remove(old.Name)
	}
	l := layer.NewLayerWithRaw(name, layer.SourceSaved, layer.PrioritySaved, raw)
	l.Path = path
	sl.stack.Add(l)
}

// serialize renders the document for its saved file. Keys and sections that
// lower layers define but the document no longer has are written as !Key=
// lines so they stay removed on the next load.
func serialize(sl *slot) []byte {
	doc := sl.doc
	lower := lowerLayers(sl)

	var buf bytes.Buffer
	first := true
	header := func(name string) {
		if !first {
			buf.WriteByte('\n')
		}
		first = false
		buf.WriteByte('[')
		buf.WriteString(name)
		buf.WriteString("]\n")
	}

	for _, sec := range doc.Sections() {
		header(sec.Name())
		for _, e := range sec.Entries() {
			buf.WriteString(e.Key)
			buf.WriteByte('=')
			buf.WriteString(ini.Quote(e.Value))
			buf.WriteByte('\n')
		}
		if lower == nil {
			continue
		}
		if ls, ok := lower.Section(sec.Name()); ok {
			for _, k := range ls.Keys() {
				if !sec.Has(k) {
					writeTombstone(&buf, k)
				}
			}
		}
	}

	if lower != nil {
		for _, ls := range lower.Sections() {
			if _, ok := doc.Section(ls.Name()); ok || ls.Len() == 0 {
				continue
			}
			header(ls.Name())
			for _, k := range ls.Keys() {
				writeTombstone(&buf, k)
			}
		}
	}
	return buf.Bytes()
}

func writeTombstone(buf *bytes.Buffer, key string) {
	buf.WriteByte('!')
	buf.WriteString(key)
	buf.WriteString("=\n")
}

// lowerLayers merges the layers below the saved file, or returns nil when
// there are none.
func lowerLayers(sl *slot) *ini.Document {
	if sl.stack == nil {
		return nil
	}
	below := layer.NewStack()
	for _, l := range sl.stack.Layers() {
		if l.Source < layer.SourceSaved {
			below.Add(l)
		}
	}
	if below.Len() == 0 {
		return nil
	}
	return below.Merge(sl.doc.Name)
}
