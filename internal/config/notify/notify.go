// Package notify provides change notification for configuration documents.
//
// Observers subscribe to every change or to one section of one document and
// receive a Change when a value is set, a key or section is removed, or a
// document is reloaded from disk.
package notify

import (
	"sync"

	"github.com/dshills/inicache/internal/config/ini"
)

// ChangeType represents the type of configuration change.
type ChangeType int

const (
	// ChangeSet indicates values were set or replaced.
	ChangeSet ChangeType = iota

	// ChangeDelete indicates a key or section was removed.
	ChangeDelete

	// ChangeReload indicates a whole document was reloaded.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change represents a configuration change event.
type Change struct {
	// Document is the name of the changed document.
	Document string

	// Section is the changed section. Empty for reload events.
	Section string

	// Key is the changed key. Empty when a whole section was removed.
	Key string

	// Type is the type of change.
	Type ChangeType

	// OldValues holds the previous values (may be nil).
	OldValues []string

	// NewValues holds the new values (nil for deletes).
	NewValues []string

	// Source identifies where the change came from.
	Source string
}

// Observer is called when configuration changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages configuration change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Global observers that receive all changes
	globalObservers map[uint64]Observer

	// Section observers keyed by folded "document\x00section"
	sectionObservers map[string]map[uint64]Observer

	nextID uint64

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup

	closed bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync enables asynchronous notification delivery.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// New creates a new Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		globalObservers:  make(map[uint64]Observer),
		sectionObservers: make(map[string]map[uint64]Observer),
		done:             make(chan struct{}),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}

	return n
}

func sectionKey(document, section string) string {
	return ini.Fold(document) + "\x00" + ini.Fold(section)
}

// Subscribe registers an observer for all changes.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.globalObservers[id] = observer

	return &Subscription{id: id, notifier: n}
}

// SubscribeSection registers an observer for changes to one section of one
// document. Reloads of the document are delivered too.
func (n *Notifier) SubscribeSection(document, section string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	key := sectionKey(document, section)
	if n.sectionObservers[key] == nil {
		n.sectionObservers[key] = make(map[uint64]Observer)
	}
	n.sectionObservers[key][id] = observer

	return &Subscription{id: id, notifier: n}
}

// Notify sends a change notification to all relevant observers.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	if n.closed {
		n.mu.RUnlock()
		return
	}
	n.mu.RUnlock()

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}

	n.deliverChange(change)
}

// NotifySet is a convenience method for set changes.
func (n *Notifier) NotifySet(document, section, key string, oldValues, newValues []string, source string) {
	n.Notify(Change{
		Document:  document,
		Section:   section,
		Key:       key,
		Type:      ChangeSet,
		OldValues: oldValues,
		NewValues: newValues,
		Source:    source,
	})
}

// NotifyDelete is a convenience method for delete changes.
func (n *Notifier) NotifyDelete(document, section, key string, oldValues []string, source string) {
	n.Notify(Change{
		Document:  document,
		Section:   section,
		Key:       key,
		Type:      ChangeDelete,
		OldValues: oldValues,
		Source:    source,
	})
}

// NotifyReload is a convenience method for reload events.
func (n *Notifier) NotifyReload(document, source string) {
	n.Notify(Change{
		Document: document,
		Type:     ChangeReload,
		Source:   source,
	})
}

// Close shuts down the notifier. It is safe to call Close multiple times.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.globalObservers, id)

	for key, observers := range n.sectionObservers {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.sectionObservers, key)
		}
	}
}

// deliverChange sends a change to all matching observers.
func (n *Notifier) deliverChange(change Change) {
	n.mu.RLock()

	var observers []Observer
	for _, obs := range n.globalObservers {
		observers = append(observers, obs)
	}

	if change.Type == ChangeReload {
		prefix := ini.Fold(change.Document) + "\x00"
		for key, secObs := range n.sectionObservers {
			if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
				for _, obs := range secObs {
					observers = append(observers, obs)
				}
			}
		}
	} else if secObs, ok := n.sectionObservers[sectionKey(change.Document, change.Section)]; ok {
		for _, obs := range secObs {
			observers = append(observers, obs)
		}
	}

	n.mu.RUnlock()

	// Call observers outside the lock
	for _, obs := range observers {
		obs(change)
	}
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliverChange(change)
		case <-n.done:
			// Drain remaining buffered changes
			for {
				select {
				case change := <-n.buffer:
					n.deliverChange(change)
				default:
					return
				}
			}
		}
	}
}

// Batch collects multiple changes and delivers them as a group.
type Batch struct {
	notifier *Notifier
	changes  []Change
	mu       sync.Mutex
}

// NewBatch creates a new batch for collecting changes.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Add adds a change to the batch.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Commit sends all batched changes to observers.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = nil
	b.mu.Unlock()

	for _, change := range changes {
		b.notifier.Notify(change)
	}
}

// Discard clears the batch without sending notifications.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = nil
}

// Len returns the number of pending changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}
