package main

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func testFS(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/e/BaseEngine.ini":    "[ConsoleVariables]\nr.VSync=0\n",
		"/p/DefaultEngine.ini": "[ConsoleVariables]\nr.VSync=1\nsg.ShadowQuality=1\n",
		"/p/DefaultGame.ini":   "[Net]\nPort=7777\n+Server=a\n+Server=b\n\n[Maps]\nMap=One\nPkg=x\nPkg=y\nMap=Two\n",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

var baseArgs = []string{"--engine-dir", "/e", "--project-dir", "/p", "--saved-dir", "/s", "--working-dir", "/w"}

func execute(t *testing.T, fs afero.Fs, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd(fs, &out, &errOut)
	root.SetArgs(append(append([]string(nil), baseArgs...), args...))
	err := root.Execute()
	return out.String(), err
}

func TestGetCommand(t *testing.T) {
	fs := testFS(t)

	out, err := execute(t, fs, "get", "Game", "Net", "Port")
	require.NoError(t, err)
	assert.Equal(t, "7777\n", out)

	out, err = execute(t, fs, "get", "--all", "game", "net", "server")
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", out)

	_, err = execute(t, fs, "get", "Game", "Net", "Missing")
	assert.Error(t, err)
}

func TestSetCommandWritesSavedFile(t *testing.T) {
	fs := testFS(t)

	_, err := execute(t, fs, "set", "Game", "Net", "Port", "8888")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/s/Game.ini")
	require.NoError(t, err)
	assert.Contains(t, string(data), "Port=8888\n")

	out, err := execute(t, fs, "get", "Game", "Net", "Port")
	require.NoError(t, err)
	assert.Equal(t, "8888\n", out)

	out, err = execute(t, fs, "which", "Game", "Net", "Port")
	require.NoError(t, err)
	assert.Equal(t, "saved\tsaved\t/s/Game.ini\n", out)
}

func TestSetCommandRejectsInvalidKey(t *testing.T) {
	fs := testFS(t)

	_, err := execute(t, fs, "set", "Game", "Net", "+Port", "1")
	require.Error(t, err)

	exists, err := afero.Exists(fs, "/s/Game.ini")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFailedCommandClosesStore(t *testing.T) {
	fs := testFS(t)
	var out, errOut bytes.Buffer
	c := newCLI(fs, &out, &errOut)
	c.root.SetArgs(append(append([]string(nil), baseArgs...), "get", "Game", "Net", "Missing"))

	require.Error(t, c.root.Execute())
	assert.Nil(t, c.store)
}

func TestSetCommandNoWrite(t *testing.T) {
	fs := testFS(t)

	_, err := execute(t, fs, "--no-write", "set", "Game", "Net", "Port", "1")
	require.NoError(t, err)

	exists, err := afero.Exists(fs, "/s/Game.ini")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestOverridesFlag(t *testing.T) {
	fs := testFS(t)

	out, err := execute(t, fs, "--ini", "Game:[Net]:Port=1", "get", "Game", "Net", "Port")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = execute(t, fs, "--ini", "bogus", "get", "Game", "Net", "Port")
	assert.Error(t, err)
}

func TestEnvironmentBinding(t *testing.T) {
	fs := testFS(t)
	t.Setenv("INICACHE_PLATFORM", "Linux")
	require.NoError(t, afero.WriteFile(fs, "/p/Linux/LinuxGame.ini", []byte("[Net]\nPort=2\n"), 0o644))

	out, err := execute(t, fs, "get", "Game", "Net", "Port")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestSettingsFile(t *testing.T) {
	fs := testFS(t)
	require.NoError(t, afero.WriteFile(fs, "/settings.yaml", []byte("custom: Test\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/p/Custom/Test/DefaultGame.ini", []byte("[Net]\nPort=3\n"), 0o644))

	out, err := execute(t, fs, "--settings", "/settings.yaml", "get", "Game", "Net", "Port")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestSectionsAndMapCommands(t *testing.T) {
	fs := testFS(t)

	out, err := execute(t, fs, "sections", "Game")
	require.NoError(t, err)
	assert.Equal(t, "Net\nMaps\n", out)

	out, err = execute(t, fs, "map", "Game", "Maps", "Map", "Pkg")
	require.NoError(t, err)
	assert.Equal(t, "One: x, y\nTwo: \n", out)
}

func TestDumpCommand(t *testing.T) {
	fs := testFS(t)

	out, err := execute(t, fs, "dump", "-f", "json", "Game")
	require.NoError(t, err)
	assert.Equal(t, "7777", gjson.Get(out, "Net.Port").String())
	assert.Equal(t, "b", gjson.Get(out, "Net.Server.1").String())

	_, err = execute(t, fs, "dump", "-f", "xml", "Game")
	assert.Error(t, err)
}

func TestSnapshotCommand(t *testing.T) {
	fs := testFS(t)

	_, err := execute(t, fs, "snapshot", "/out/state.yaml", "Game", "Engine")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/out/state.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "name: Game")
	assert.Contains(t, string(data), "name: Engine")
}

func TestCvarsCommand(t *testing.T) {
	fs := testFS(t)

	out, err := execute(t, fs, "cvars")
	require.NoError(t, err)
	assert.Contains(t, out, "r.VSync = True (ConsoleVariables)\n")
	assert.Contains(t, out, "sg.ShadowQuality = 1 (ConsoleVariables)\n")
	assert.Contains(t, out, "t.MaxFPS = 0 (default)\n")
}
