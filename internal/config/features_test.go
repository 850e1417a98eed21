package config

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/dshills/inicache/internal/config/notify"
	"github.com/dshills/inicache/internal/config/registry"
	"github.com/dshills/inicache/internal/config/watcher"
)

const orderedGame = "[Zeta]\nB=2\nA=1\nList=x\nList=y\n\n[Alpha]\nK=v\n"

func TestSnapshot_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/DefaultGame.ini", orderedGame)
	s := newTestStore(t, fs)
	s.SetString("Alpha", "K", "changed", "Game")

	require.NoError(t, s.SaveStateForBootstrap("/boot/state.yaml"))

	restored, err := NewFromSaved("/boot/state.yaml", WithFS(fs), WithSavedDir("/s"), WithWorkingDir("/w"))
	require.NoError(t, err)
	t.Cleanup(func() {
		restored.DisableFileOperations()
		_ = restored.Close()
	})

	assert.True(t, restored.IsReadyForUse())
	assert.Equal(t, s.Filenames(), restored.Filenames())

	orig, _ := s.FindDocument("Game")
	got, ok := restored.FindDocument("Game")
	require.True(t, ok)
	assert.Equal(t, orig.String(), got.String())
	assert.Equal(t, orig.Path, got.Path)
	assert.True(t, got.Dirty())
}

func TestNewFromSaved_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := NewFromSaved("/missing.yaml", WithFS(fs))
	assert.Error(t, err)

	writeFile(t, fs, "/v2.yaml", "version: 2\ndocuments: []\n")
	_, err = NewFromSaved("/v2.yaml", WithFS(fs))
	assert.Error(t, err)
}

func TestDump_PreservesOrder(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/DefaultGame.ini", orderedGame)
	s := newTestStore(t, fs)

	t.Run("ini", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.Dump(&buf, "Game", FormatINI))
		assert.Equal(t, orderedGame, buf.String())
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.Dump(&buf, "Game", FormatJSON))
		out := buf.String()
		require.True(t, gjson.Valid(out))

		var sections []string
		gjson.Parse(out).ForEach(func(k, _ gjson.Result) bool {
			sections = append(sections, k.String())
			return true
		})
		assert.Equal(t, []string{"Zeta", "Alpha"}, sections)

		var keys []string
		gjson.Get(out, "Zeta").ForEach(func(k, _ gjson.Result) bool {
			keys = append(keys, k.String())
			return true
		})
		assert.Equal(t, []string{"B", "A", "List"}, keys)
		assert.Equal(t, "y", gjson.Get(out, "Zeta.List.1").String())
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.Dump(&buf, "Game", FormatYAML))

		var node yaml.Node
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &node))
		root := node.Content[0]
		require.Len(t, root.Content, 4)
		assert.Equal(t, "Zeta", root.Content[0].Value)
		assert.Equal(t, "Alpha", root.Content[2].Value)
		assert.Equal(t, "B", root.Content[1].Content[0].Value)
	})

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, s.Dump(&buf, "Game", FormatTOML))
		assert.Contains(t, buf.String(), "[Zeta]")

		var decoded map[string]map[string]any
		require.NoError(t, toml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "2", decoded["Zeta"]["B"])
		assert.Equal(t, []any{"x", "y"}, decoded["Zeta"]["List"])
	})

	t.Run("unknown", func(t *testing.T) {
		assert.ErrorIs(t, s.Dump(&bytes.Buffer{}, "Game", Format("xml")), ErrUnknownFormat)
		assert.ErrorIs(t, s.Dump(&bytes.Buffer{}, "Nope", FormatINI), ErrDocumentNotFound)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestStore_LoadConsoleVariables(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/DefaultEngine.ini",
		"[ConsoleVariables]\nr.VSync=1\nt.MaxFPS=notanumber\nr.Unknown=3\n\n[SystemSettings]\nr.ScreenPercentage=75\n")
	s := newTestStore(t, fs)

	reg := registry.NewWithDefaults()
	assert.Equal(t, 2, s.LoadConsoleVariables(reg))

	vsync, ok := reg.GetBool("r.VSync")
	require.True(t, ok)
	assert.True(t, vsync)
	assert.Equal(t, "SystemSettings", reg.Source("r.ScreenPercentage"))

	fps, ok := reg.GetInt("t.MaxFPS")
	require.True(t, ok)
	assert.Equal(t, 0, fps, "invalid value keeps the default")
}

func TestStore_Notifications(t *testing.T) {
	s := newTestStore(t, afero.NewMemMapFs())

	var all, scoped []notify.Change
	s.Subscribe(func(c notify.Change) { all = append(all, c) })
	sub := s.SubscribeSection("game", "audio", func(c notify.Change) { scoped = append(scoped, c) })

	s.SetString("Audio", "Volume", "0.5", "Game")
	s.SetString("Video", "Gamma", "2", "Game")
	s.RemoveKey("Audio", "Volume", "Game")

	require.Len(t, all, 3)
	assert.Equal(t, notify.ChangeSet, all[0].Type)
	assert.Equal(t, []string{"0.5"}, all[0].NewValues)
	assert.Equal(t, notify.ChangeDelete, all[2].Type)
	assert.Equal(t, []string{"0.5"}, all[2].OldValues)
	assert.Len(t, scoped, 2)

	sub.Unsubscribe()
	s.SetString("Audio", "Volume", "1", "Game")
	assert.Len(t, scoped, 2)
}

func TestStore_ReloadChanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/DefaultGame.ini", "[S]\nK=1\n")
	writeFile(t, fs, "/p/DefaultEngine.ini", "[S]\nK=1\n")
	s := newTestStore(t, fs)

	game := s.GetOrLoadDocument("Game")
	var reloads []string
	s.Subscribe(func(c notify.Change) {
		if c.Type == notify.ChangeReload {
			reloads = append(reloads, c.Document)
		}
	})

	assert.Zero(t, s.ReloadChanged())

	writeFile(t, fs, "/p/DefaultGame.ini", "[S]\nK=2\n")
	writeFile(t, fs, "/p/DefaultEngine.ini", "[S]\nK=2\n")
	s.SetString("S", "Local", "x", "Engine")
	s.queueChange(watcher.Event{Path: "/p/DefaultGame.ini", Op: watcher.OpWrite})
	s.queueChange(watcher.Event{Path: "/p/DefaultEngine.ini", Op: watcher.OpWrite})
	assert.Equal(t, 2, s.PendingChanges())

	assert.Equal(t, 1, s.ReloadChanged())
	assert.Zero(t, s.PendingChanges())
	assert.Same(t, game, s.GetOrLoadDocument("Game"))
	assert.Equal(t, "2", s.GetStringOrDefault("S", "K", "Game", ""))
	assert.Equal(t, "1", s.GetStringOrDefault("S", "K", "Engine", ""), "dirty documents are not reloaded")
	assert.Equal(t, []string{"Game"}, reloads)
}

func TestStore_ReloadChangedNewLayer(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/DefaultGame.ini", "[S]\nK=1\n")
	s := newTestStore(t, fs)

	writeFile(t, fs, "/s/Game.ini", "[S]\nK=saved\n")
	s.queueChange(watcher.Event{Path: "/s/Game.ini", Op: watcher.OpCreate})

	assert.Equal(t, 1, s.ReloadChanged())
	assert.Equal(t, "saved", s.GetStringOrDefault("S", "K", "Game", ""))
}

func TestSyncStore_ConcurrentAccess(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/p/DefaultGame.ini", "[S]\nK=0\n")

	ss := NewSync(WithFS(fs), WithProjectDir("/p"), WithSavedDir("/s"), WithWorkingDir("/w"), WithKnownNames("Game"))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, ss.Initialize(ctx))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ss.SetInt("S", fmt.Sprintf("W%d", i), j, "Game")
			}
		}()
		go func() {
			defer wg.Done()
			for k := 0; k < 50; k++ {
				_, ok := ss.GetString("S", "K", "Game")
				assert.True(t, ok)
				names, _ := ss.GetSectionNames("Game")
				assert.Equal(t, []string{"S"}, names)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		n, ok := ss.GetInt("S", fmt.Sprintf("W%d", i), "Game")
		assert.True(t, ok)
		assert.Equal(t, 49, n)
	}

	doc, ok := ss.FindDocument("Game")
	require.True(t, ok)
	doc.RemoveSection("S")
	_, ok = ss.GetString("S", "K", "Game")
	assert.True(t, ok, "FindDocument returns a copy")

	require.NoError(t, ss.Flush(false, ""))
	saved, err := afero.ReadFile(fs, "/s/Game.ini")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(saved), "[S]\nK=0\n"))

	require.NoError(t, ss.Close())
	assert.Zero(t, ss.ReloadChanged())
}
