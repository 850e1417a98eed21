// Package config provides the layered configuration cache for inicache.
//
// A Store owns named configuration documents. Each document is merged from
// a hierarchy of files and then read and written through typed accessors.
// Changes stay in memory until Flush writes dirty documents back to their
// saved path.
//
// # Hierarchy
//
// For a base name N, platform P and custom config C, layers apply from
// lowest to highest priority:
//
//	┌──────────────────────────────────────────────┐
//	│  7. Overrides (--ini, INICACHE_INI*)          │  ← Highest priority
//	├──────────────────────────────────────────────┤
//	│  6. {Saved}/{P}/{N}.ini                       │  ← Flush destination
//	├──────────────────────────────────────────────┤
//	│  5. {Project}/Custom/{C}/Default{N}.ini       │
//	├──────────────────────────────────────────────┤
//	│  4. {Project}/{P}/{P}{N}.ini                  │
//	├──────────────────────────────────────────────┤
//	│  3. {Engine}/{P}/{P}{N}.ini                   │
//	├──────────────────────────────────────────────┤
//	│  2. {Project}/Default{N}.ini                  │  ← Base source
//	├──────────────────────────────────────────────┤
//	│  1. {Engine}/Base{N}.ini                      │  ← Lowest priority
//	└──────────────────────────────────────────────┘
//
// Any .ini layer may be replaced by a .toml or .json file with the same
// stem. Lines prefixed with +, ., - and ! add unique, append, remove and
// clear values instead of replacing them.
//
// # Sub-packages
//
//   - ini: sections, documents, parsing and writing
//   - layer: layer stack, hierarchy paths and overrides
//   - loader: INI, TOML and JSON layer files over afero
//   - registry: console variables
//   - watcher: fsnotify-based live reload
//   - notify: change notification
//
// # Basic Usage
//
//	store := config.New(
//	    config.WithEngineDir("Engine/Config"),
//	    config.WithProjectDir("Game/Config"),
//	    config.WithSavedDir("Saved/Config"),
//	    config.WithPlatform("Linux"),
//	)
//	if err := store.Initialize(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	vol, ok := store.GetFloat("Audio", "Volume", "Game")
//	store.SetFloat("Audio", "Volume", 0.5, "Game")
//	err := store.Flush(false, "Game")
//
// A Store is not safe for concurrent use. Wrap it in a SyncStore to share
// it between goroutines.
package config
