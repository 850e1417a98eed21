package config

import (
	"github.com/sirupsen/logrus"

	"github.com/dshills/inicache/internal/config/watcher"
)

// queueChange runs on the watcher goroutine. It only records the path;
// ReloadChanged applies it on the owner's goroutine.
func (s *Store) queueChange(ev watcher.Event) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	s.pending[ev.Path] = ev.Op
}

func (s *Store) watchSlot(sl *slot) {
	if s.watcher == nil {
		return
	}
	for _, p := range sl.watched {
		if s.watchRefs[p] == 0 {
			if err := s.watcher.Watch(p); err != nil {
				log.WithError(err).WithField("path", p).Debug("Cannot watch config file")
			}
		}
		s.watchRefs[p]++
	}
}

func (s *Store) unwatchSlot(sl *slot) {
	if s.watcher == nil {
		return
	}
	for _, p := range sl.watched {
		s.watchRefs[p]--
		if s.watchRefs[p] > 0 {
			continue
		}
		delete(s.watchRefs, p)
		if err := s.watcher.Unwatch(p); err != nil {
			log.WithError(err).WithField("path", p).Debug("Cannot unwatch config file")
		}
	}
}

// PendingChanges reports how many changed files are waiting for
// ReloadChanged.
func (s *Store) PendingChanges() int {
	s.mustBeReady()
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	return len(s.pending)
}

// ReloadChanged reloads every cached document with a source file that
// changed on disk since the last call. Dirty documents are skipped so
// unsaved changes are never lost. Reloaded documents keep their identity.
// It returns the number of documents reloaded.
func (s *Store) ReloadChanged() int {
	s.mustBeReady()
	if s.fileOpsDisabled {
		return 0
	}

	s.pendingMu.Lock()
	changed := s.pending
	s.pending = make(map[string]watcher.Operation)
	s.pendingMu.Unlock()
	if len(changed) == 0 {
		return 0
	}

	reloaded := 0
	for _, sl := range s.slots() {
		if sl.stack == nil || !touches(sl, changed) {
			continue
		}
		if sl.doc.Dirty() {
			log.WithField("document", sl.doc.Name).Warn("Config changed on disk but has unsaved changes, not reloading")
			continue
		}

		var fresh *slot
		var err error
		if sl.hierarchical {
			fresh, err = s.loadHierarchy(sl.doc.Name, sl.key, sl.hier, false)
		} else {
			fresh, err = s.loadSingle(sl.doc.Name, sl.key, s.fallbacks[sl.key.Name])
		}
		if err != nil {
			log.WithError(err).WithField("document", sl.doc.Name).Warn("Reloading config failed")
			continue
		}

		detached := sl.doc.Path == ""
		s.install(sl, fresh)
		if detached {
			sl.doc.Path = ""
		}
		reloaded++
	}

	if reloaded > 0 {
		log.WithFields(logrus.Fields{
			"files":     len(changed),
			"documents": reloaded,
		}).Info("Reloaded changed config")
	}
	return reloaded
}

func touches(sl *slot, changed map[string]watcher.Operation) bool {
	for _, p := range sl.watched {
		if _, ok := changed[p]; ok {
			return true
		}
	}
	return false
}
