package config

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/layer"
	"github.com/dshills/inicache/internal/config/notify"
)

// DefaultReloadInterval is how often SyncStore.Watch drains queued reloads.
const DefaultReloadInterval = 250 * time.Millisecond

// SyncStore makes a Store safe for concurrent use.
//
// Lookup keys are computed before any lock is taken. Reads of cached
// documents share a read lock; loads and mutations hold the write lock.
// Documents returned by SyncStore are copies.
type SyncStore struct {
	mu    sync.RWMutex
	store *Store
}

// NewSync wraps a new store built with opts.
func NewSync(opts ...Option) *SyncStore {
	return &SyncStore{store: New(opts...)}
}

// Wrap makes s safe for concurrent use. The caller must stop using s
// directly.
func Wrap(s *Store) *SyncStore {
	return &SyncStore{store: s}
}

// Initialize loads the known documents.
func (ss *SyncStore) Initialize(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.store.Initialize(ctx)
}

// read runs fn on the cached slot for key under the read lock.
func (ss *SyncStore) read(key Key, fn func(sl *slot)) bool {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	ss.store.mustBeReady()
	sl := ss.store.find(key)
	if sl == nil {
		return false
	}
	fn(sl)
	return true
}

func (ss *SyncStore) section(section, name string) func(fn func(sec *ini.Section)) bool {
	key := ss.store.KeyFor(name)
	return func(fn func(sec *ini.Section)) bool {
		found := false
		ss.read(key, func(sl *slot) {
			if sec, ok := sl.doc.Section(section); ok {
				found = true
				fn(sec)
			}
		})
		return found
	}
}

// FindDocument returns a copy of the cached document for name.
func (ss *SyncStore) FindDocument(name string) (*ini.Document, bool) {
	var doc *ini.Document
	ok := ss.read(ss.store.KeyFor(name), func(sl *slot) {
		doc = sl.doc.Clone()
	})
	return doc, ok
}

// GetString returns the first value of key.
func (ss *SyncStore) GetString(section, key, name string) (string, bool) {
	var v string
	var ok bool
	ss.section(section, name)(func(sec *ini.Section) {
		v, ok = sec.Get(key)
	})
	return v, ok
}

// GetInt returns key parsed as a 32-bit integer.
func (ss *SyncStore) GetInt(section, key, name string) (int, bool) {
	v, ok := ss.GetString(section, key, name)
	if !ok {
		return 0, false
	}
	n, ok := ini.ParseInt(v, 32)
	return int(n), ok
}

// GetFloat returns key parsed as a float32.
func (ss *SyncStore) GetFloat(section, key, name string) (float32, bool) {
	v, ok := ss.GetString(section, key, name)
	if !ok {
		return 0, false
	}
	f, ok := ini.ParseFloat(v, 32)
	return float32(f), ok
}

// GetBool returns key parsed as a boolean.
func (ss *SyncStore) GetBool(section, key, name string) (bool, bool) {
	v, ok := ss.GetString(section, key, name)
	if !ok {
		return false, false
	}
	return ini.ParseBool(v)
}

// GetArray returns every value of key.
func (ss *SyncStore) GetArray(section, key, name string) ([]string, bool) {
	var values []string
	ss.section(section, name)(func(sec *ini.Section) {
		values = sec.Values(key)
	})
	return values, len(values) > 0
}

// GetSectionNames returns the section names of the cached document.
func (ss *SyncStore) GetSectionNames(name string) ([]string, bool) {
	var names []string
	ok := ss.read(ss.store.KeyFor(name), func(sl *slot) {
		names = sl.doc.SectionNames()
	})
	return names, ok
}

// WhichLayer reports the layer that provides key.
func (ss *SyncStore) WhichLayer(name, section, key string) (*layer.Layer, bool) {
	k := ss.store.KeyFor(name)
	var l *layer.Layer
	var ok bool
	ss.read(k, func(sl *slot) {
		if sl.stack != nil {
			l, ok = sl.stack.Which(section, key)
		}
	})
	return l, ok
}

// Filenames returns the keys of the cached documents.
func (ss *SyncStore) Filenames() []string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.store.Filenames()
}

// LoadGlobalFile loads baseName through the hierarchy.
func (ss *SyncStore) LoadGlobalFile(baseName string, opts LoadOptions) (string, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.store.LoadGlobalFile(baseName, opts)
}

// Load makes sure name is cached.
func (ss *SyncStore) Load(name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.GetOrLoadDocument(name)
}

// SetDocument caches a copy of doc under name.
func (ss *SyncStore) SetDocument(name string, doc *ini.Document) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.SetDocument(name, doc)
}

// RemoveDocument evicts name.
func (ss *SyncStore) RemoveDocument(name string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.store.RemoveDocument(name)
}

// SetString replaces the values of key with value.
func (ss *SyncStore) SetString(section, key, value, name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.SetString(section, key, value, name)
}

// SetInt stores an integer.
func (ss *SyncStore) SetInt(section, key string, value int, name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.SetInt(section, key, value, name)
}

// SetFloat stores a float32.
func (ss *SyncStore) SetFloat(section, key string, value float32, name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.SetFloat(section, key, value, name)
}

// SetBool stores a boolean.
func (ss *SyncStore) SetBool(section, key string, value bool, name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.SetBool(section, key, value, name)
}

// SetArray replaces the values of key.
func (ss *SyncStore) SetArray(section, key string, values []string, name string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.store.SetArray(section, key, values, name)
}

// RemoveKey deletes key from a cached document.
func (ss *SyncStore) RemoveKey(section, key, name string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.store.RemoveKey(section, key, name)
}

// Subscribe registers an observer for every change.
func (ss *SyncStore) Subscribe(observer notify.Observer) *notify.Subscription {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.store.Subscribe(observer)
}

// Dump writes a cached document in the given format.
func (ss *SyncStore) Dump(w io.Writer, name string, format Format) error {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.store.Dump(w, name, format)
}

// Flush writes dirty documents. See Store.Flush.
func (ss *SyncStore) Flush(removeFromCache bool, name string) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.store.Flush(removeFromCache, name)
}

// ReloadChanged applies queued file changes. It does nothing once the store
// is closed.
func (ss *SyncStore) ReloadChanged() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if ss.store.closed {
		return 0
	}
	return ss.store.ReloadChanged()
}

// Watch applies queued file changes every interval until ctx is done. An
// interval of zero or less uses DefaultReloadInterval.
func (ss *SyncStore) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultReloadInterval
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			ss.mu.RLock()
			pending := !ss.store.closed && ss.store.PendingChanges() > 0
			ss.mu.RUnlock()
			if pending {
				ss.ReloadChanged()
			}
		}
	}
}

// Close flushes and releases the store.
func (ss *SyncStore) Close() error {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.store.Close()
}
