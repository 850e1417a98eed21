package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/layer"
	"github.com/dshills/inicache/internal/config/notify"
	"github.com/dshills/inicache/internal/config/watcher"
	"github.com/dshills/inicache/internal/logging"
)

var log = logging.For("config")

// slot is one cached document and what it was built from.
type slot struct {
	key  Key
	doc  *ini.Document
	hier layer.Context

	// stack is nil for documents installed with SetDocument.
	stack *layer.Stack

	// hierarchical documents reload from hier; others from doc.Path.
	hierarchical bool

	// watched holds the candidate files whose changes reload the document.
	watched []string
}

// Store owns the cached configuration documents.
//
// A Store is not safe for concurrent use; see SyncStore. Build one with New.
// Using a zero Store is a programming error and terminates the process.
type Store struct {
	ready       bool
	initialized bool
	closed      bool

	fs        afero.Fs
	hier      layer.Context
	kind      Type
	workDir   string
	overrides []layer.Override

	known      []string
	knownIndex map[string]string
	savedIndex map[string]string

	docs      map[uint64][]*slot
	fallbacks map[string]*ini.Document

	fileOpsDisabled bool

	notifyBuffer int
	notifier     *notify.Notifier

	enableWatcher bool
	watcher       *watcher.Watcher
	watchRefs     map[string]int
	pendingMu     sync.Mutex
	pending       map[string]watcher.Operation
}

// New creates a store. Call Initialize to load the known documents.
func New(opts ...Option) *Store {
	s := &Store{
		fs:        afero.NewOsFs(),
		known:     append([]string(nil), DefaultKnownNames...),
		docs:      make(map[uint64][]*slot),
		fallbacks: make(map[string]*ini.Document),
		watchRefs: make(map[string]int),
		pending:   make(map[string]watcher.Operation),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			log.WithError(err).Warn("Cannot determine working directory")
			wd = string(filepath.Separator)
		}
		s.workDir = wd
	}
	if abs, err := filepath.Abs(s.workDir); err == nil {
		s.workDir = abs
	}

	s.knownIndex = make(map[string]string, len(s.known))
	for _, name := range s.known {
		s.knownIndex[ini.Fold(name)] = name
	}
	s.indexSavedFiles()

	if s.notifyBuffer > 0 {
		s.notifier = notify.New(notify.WithAsync(s.notifyBuffer))
	} else {
		s.notifier = notify.New()
	}

	if s.enableWatcher {
		w, err := watcher.New()
		if err != nil {
			log.WithError(err).Warn("File watcher unavailable, live reload disabled")
		} else {
			w.OnChange(s.queueChange)
			s.watcher = w
		}
	}

	s.ready = true
	return s
}

// mustBeReady stops the process when the store was not built by New or
// was already closed.
func (s *Store) mustBeReady() {
	if s == nil || !s.ready {
		log.Fatal("config store used without New")
		return
	}
	if s.closed {
		log.Fatal("config store used after Close")
	}
}

// Initialize loads every known document. Documents whose files are all
// missing become empty documents. With file operations disabled nothing is
// loaded.
func (s *Store) Initialize(ctx context.Context) error {
	s.mustBeReady()
	if s.initialized {
		return nil
	}

	if s.fileOpsDisabled {
		log.Info("File operations disabled, skipping initial load")
		s.initialized = true
		return nil
	}

	for _, name := range s.known {
		if err := ctx.Err(); err != nil {
			return oops.In("config").With("document", name).Wrapf(err, "initializing config store")
		}
		key := s.KeyFor(name)
		if s.find(key) != nil {
			continue
		}
		sl, err := s.loadHierarchy(name, key, s.hier, false)
		if err != nil {
			return err
		}
		s.insert(sl)
	}

	if s.watcher != nil {
		s.watcher.Start()
	}

	s.initialized = true
	log.WithFields(logrus.Fields{
		"documents": len(s.known),
		"platform":  s.hier.Platform,
		"type":      s.kind,
	}).Debug("Config store initialized")
	return nil
}

// IsReadyForUse reports whether Initialize completed and Close was not
// called.
func (s *Store) IsReadyForUse() bool {
	return s != nil && s.ready && s.initialized && !s.closed
}

// Type returns the store type.
func (s *Store) Type() Type {
	return s.kind
}

// FS returns the file system the store reads and writes.
func (s *Store) FS() afero.Fs {
	return s.fs
}

// FindDocument returns the cached document for name. It never loads.
func (s *Store) FindDocument(name string) (*ini.Document, bool) {
	s.mustBeReady()
	if sl := s.find(s.KeyFor(name)); sl != nil {
		return sl.doc, true
	}
	return nil, false
}

// GetOrLoadDocument returns the cached document for name, loading and
// caching it first if needed.
//
// Known and plain names load through the hierarchy; paths load the single
// file. With file operations disabled an uncached name yields a fresh,
// detached document that is not cached.
func (s *Store) GetOrLoadDocument(name string) *ini.Document {
	s.mustBeReady()
	key, name := s.resolve(name)
	if sl := s.find(key); sl != nil {
		return sl.doc
	}

	if s.fileOpsDisabled {
		log.WithField("document", name).Debug("File operations disabled, returning detached document")
		return ini.NewDocument(s.displayName(name))
	}

	var sl *slot
	var err error
	if s.isHierarchical(name) {
		sl, err = s.loadHierarchy(s.displayName(name), key, s.hier, false)
	} else {
		sl, err = s.loadSingle(name, key, s.fallbacks[key.Name])
	}
	if err != nil {
		log.WithError(err).WithField("document", name).Warn("Loading config document failed")
		return ini.NewDocument(s.displayName(name))
	}
	s.insert(sl)
	return sl.doc
}

// SetDocument caches a copy of doc under name, replacing any cached
// document. The copy is not dirty.
func (s *Store) SetDocument(name string, doc *ini.Document) {
	s.mustBeReady()
	key, name := s.resolve(name)

	c := doc.Clone()
	c.Name = s.displayName(name)
	c.ClearDirty()

	s.remove(key)
	s.insert(&slot{key: key, doc: c, hier: s.hier})
	s.notifier.NotifyReload(c.Name, "set")
}

// RemoveDocument evicts the cached document for name.
func (s *Store) RemoveDocument(name string) bool {
	s.mustBeReady()
	return s.remove(s.KeyFor(name))
}

// SetFallback registers the document used when the base source of name
// is missing at load time.
func (s *Store) SetFallback(name string, doc *ini.Document) {
	s.mustBeReady()
	key := s.KeyFor(name)
	if doc == nil {
		delete(s.fallbacks, key.Name)
		return
	}
	s.fallbacks[key.Name] = doc.Clone()
}

// Detach clears the saved path of the cached document so it is never
// written.
func (s *Store) Detach(name string) bool {
	s.mustBeReady()
	sl := s.find(s.KeyFor(name))
	if sl == nil {
		return false
	}
	sl.doc.Path = ""
	return true
}

// ContainsDocument reports whether doc is one of the cached documents.
func (s *Store) ContainsDocument(doc *ini.Document) bool {
	s.mustBeReady()
	for _, bucket := range s.docs {
		for _, sl := range bucket {
			if sl.doc == doc {
				return true
			}
		}
	}
	return false
}

// Filenames returns the keys of all cached documents, sorted.
func (s *Store) Filenames() []string {
	s.mustBeReady()
	var names []string
	for _, sl := range s.slots() {
		names = append(names, sl.key.Name)
	}
	return names
}

// DisableFileOperations suppresses all file I/O for loads and flushes.
func (s *Store) DisableFileOperations() {
	s.mustBeReady()
	s.fileOpsDisabled = true
}

// EnableFileOperations re-enables file I/O.
func (s *Store) EnableFileOperations() {
	s.mustBeReady()
	s.fileOpsDisabled = false
}

// AreFileOperationsDisabled reports whether file I/O is suppressed.
func (s *Store) AreFileOperationsDisabled() bool {
	s.mustBeReady()
	return s.fileOpsDisabled
}

// Close flushes every document, then releases them and stops the watcher
// and notifier. A failure or panic while writing one document does not
// stop the others. It is safe to call Close multiple times.
func (s *Store) Close() error {
	if s == nil || !s.ready {
		log.Fatal("config store used without New")
		return nil
	}
	if s.closed {
		return nil
	}

	var errs []error
	for _, sl := range s.slots() {
		if err := s.flushSlotSafely(sl); err != nil {
			errs = append(errs, err)
		}
	}

	s.closed = true
	s.docs = make(map[uint64][]*slot)
	if s.watcher != nil {
		s.watcher.Stop()
	}
	s.notifier.Close()
	return errors.Join(errs...)
}

func (s *Store) flushSlotSafely(sl *slot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = oops.In("config").With("document", sl.doc.Name).Errorf("panic while flushing: %v", r)
		}
	}()
	w, ok := s.prepareWrite(sl)
	if !ok {
		return nil
	}
	s.runWrites([]*pendingWrite{w})
	return w.err
}

// isHierarchical reports whether name loads through the hierarchy.
func (s *Store) isHierarchical(name string) bool {
	if _, ok := s.knownName(name); ok {
		return true
	}
	return isPlainName(name)
}

// displayName is the Document.Name used for name.
func (s *Store) displayName(name string) string {
	if canon, ok := s.knownName(name); ok {
		return canon
	}
	if isPlainName(name) {
		return name
	}
	return absPath(s.workDir, name)
}

func (s *Store) find(key Key) *slot {
	for _, sl := range s.docs[key.Hash] {
		if sl.key.Name == key.Name {
			return sl
		}
	}
	return nil
}

func (s *Store) insert(sl *slot) {
	bucket := s.docs[sl.key.Hash]
	for i, existing := range bucket {
		if existing.key.Name == sl.key.Name {
			bucket[i] = sl
			return
		}
	}
	s.docs[sl.key.Hash] = append(bucket, sl)
	s.watchSlot(sl)
}

func (s *Store) remove(key Key) bool {
	bucket := s.docs[key.Hash]
	for i, sl := range bucket {
		if sl.key.Name != key.Name {
			continue
		}
		s.unwatchSlot(sl)
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(s.docs, key.Hash)
		} else {
			s.docs[key.Hash] = bucket
		}
		return true
	}
	return false
}

// slots returns every cached slot ordered by key name.
func (s *Store) slots() []*slot {
	var out []*slot
	for _, bucket := range s.docs {
		out = append(out, bucket...)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].key.Name < out[j].key.Name
	})
	return out
}
