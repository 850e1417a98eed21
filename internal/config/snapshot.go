package config

import (
	"bytes"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/dshills/inicache/internal/config/ini"
	"github.com/dshills/inicache/internal/config/loader"
)

const snapshotVersion = 1

type snapshot struct {
	Version   int           `yaml:"version"`
	Platform  string        `yaml:"platform,omitempty"`
	Documents []snapshotDoc `yaml:"documents"`
}

type snapshotDoc struct {
	Key          string            `yaml:"key"`
	Name         string            `yaml:"name"`
	Path         string            `yaml:"path,omitempty"`
	Hierarchical bool              `yaml:"hierarchical,omitempty"`
	Dirty        bool              `yaml:"dirty,omitempty"`
	Sections     []snapshotSection `yaml:"sections"`
}

type snapshotSection struct {
	Name    string      `yaml:"name"`
	Entries []ini.Entry `yaml:"entries"`
}

// SaveStateForBootstrap writes every cached document to a snapshot file at
// path. A store created from it with NewFromSaved starts with the same
// documents without reading the hierarchy.
func (s *Store) SaveStateForBootstrap(path string) error {
	s.mustBeReady()

	snap := snapshot{Version: snapshotVersion, Platform: s.hier.Platform}
	for _, sl := range s.slots() {
		d := snapshotDoc{
			Key:          sl.key.Name,
			Name:         sl.doc.Name,
			Path:         sl.doc.Path,
			Hierarchical: sl.hierarchical,
			Dirty:        sl.doc.Dirty(),
		}
		for _, sec := range sl.doc.Sections() {
			d.Sections = append(d.Sections, snapshotSection{Name: sec.Name(), Entries: sec.Entries()})
		}
		snap.Documents = append(snap.Documents, d)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&snap); err != nil {
		return oops.In("config").With("path", path).Wrapf(err, "encoding snapshot")
	}
	if err := enc.Close(); err != nil {
		return oops.In("config").With("path", path).Wrapf(err, "encoding snapshot")
	}
	if err := loader.WriteFileAtomic(s.fs, path, buf.Bytes(), 0o644); err != nil {
		return oops.In("config").With("path", path).Wrapf(err, "writing snapshot")
	}
	log.WithField("path", path).WithField("documents", len(snap.Documents)).Debug("Saved config snapshot")
	return nil
}

// NewFromSaved creates an initialized store holding the documents of a
// snapshot written by SaveStateForBootstrap. The snapshot is read from the
// store's file system, so WithFS applies to it.
func NewFromSaved(path string, opts ...Option) (*Store, error) {
	s := New(opts...)

	data, err := readAll(s, path)
	if err != nil {
		return nil, err
	}

	var snap snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "decoding snapshot")
	}
	if snap.Version != snapshotVersion {
		return nil, oops.In("config").
			With("path", path).
			With("version", snap.Version).
			Errorf("unsupported snapshot version %d", snap.Version)
	}

	for _, d := range snap.Documents {
		doc := ini.NewDocument(d.Name)
		doc.Path = d.Path
		for _, ss := range d.Sections {
			sec, _ := doc.FindOrAddSection(ss.Name)
			for _, e := range ss.Entries {
				sec.Add(e.Key, e.Value)
			}
		}
		if d.Dirty {
			doc.MarkDirty()
		}
		key := s.KeyFor(d.Key)
		s.insert(&slot{key: key, doc: doc, hier: s.hier, hierarchical: d.Hierarchical})
	}

	s.initialized = true
	return s, nil
}

func readAll(s *Store, path string) ([]byte, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "opening snapshot")
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(f); err != nil {
		return nil, oops.In("config").With("path", path).Wrapf(err, "reading snapshot")
	}
	return buf.Bytes(), nil
}
