package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) has(path string, op Operation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Path == path && e.Op == op {
			return true
		}
	}
	return false
}

func (r *recorder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestOperation_String(t *testing.T) {
	tests := []struct {
		op   Operation
		want string
	}{
		{OpWrite, "write"},
		{OpCreate, "create"},
		{OpRemove, "remove"},
		{OpRename, "rename"},
		{Operation(99), "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.String())
	}
}

func TestWatcher_WatchAndUnwatch(t *testing.T) {
	dir := tempDir(t)
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	a := filepath.Join(dir, "Game.ini")
	b := filepath.Join(dir, "Engine.ini")
	require.NoError(t, w.Watch(a))
	require.NoError(t, w.Watch(b))
	require.NoError(t, w.Watch(a))
	assert.ElementsMatch(t, []string{a, b}, w.WatchedFiles())

	require.NoError(t, w.Unwatch(a))
	assert.Equal(t, []string{b}, w.WatchedFiles())

	// Missing directory is tolerated.
	require.NoError(t, w.Watch(filepath.Join(dir, "missing", "Input.ini")))
}

func TestWatcher_StopIdempotent(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	w.Start()
	assert.True(t, w.IsRunning())
	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
	assert.ErrorIs(t, w.Watch("/tmp/x.ini"), ErrWatcherClosed)
}

func TestWatcher_DetectsTrackedChanges(t *testing.T) {
	dir := tempDir(t)
	tracked := filepath.Join(dir, "Game.ini")
	other := filepath.Join(dir, "Other.ini")

	w, err := New(WithDebounce(0))
	require.NoError(t, err)
	defer w.Stop()

	rec := &recorder{}
	w.OnChange(rec.handle)
	require.NoError(t, w.Watch(tracked))
	w.Start()

	require.NoError(t, os.WriteFile(other, []byte("[S]\n"), 0o644))
	require.NoError(t, os.WriteFile(tracked, []byte("[S]\nK=1\n"), 0o644))

	require.Eventually(t, func() bool {
		return rec.has(tracked, OpCreate) || rec.has(tracked, OpWrite)
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	for _, e := range rec.events {
		assert.Equal(t, tracked, e.Path, "untracked file reported")
	}
	rec.mu.Unlock()

	require.NoError(t, os.Remove(tracked))
	require.Eventually(t, func() bool {
		return rec.has(tracked, OpRemove)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatcher_QueueCoalesces(t *testing.T) {
	w, err := New(WithDebounce(50 * time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	rec := &recorder{}
	w.OnChange(rec.handle)

	t0 := time.Now()
	w.queueEvent(Event{Path: "/a", Op: OpCreate, Time: t0})
	w.queueEvent(Event{Path: "/a", Op: OpWrite, Time: t0.Add(time.Millisecond)})
	w.queueEvent(Event{Path: "/b", Op: OpWrite, Time: t0})
	w.queueEvent(Event{Path: "/b", Op: OpRemove, Time: t0.Add(time.Millisecond)})

	// Not yet stable.
	w.processPendingEvents(t0.Add(10 * time.Millisecond))
	assert.Equal(t, 0, rec.len())

	w.processPendingEvents(t0.Add(time.Second))
	assert.Equal(t, 2, rec.len())
	assert.True(t, rec.has("/a", OpCreate))
	assert.True(t, rec.has("/b", OpRemove))
}

func TestWatcher_HandlerPanicRecovered(t *testing.T) {
	w, err := New()
	require.NoError(t, err)
	defer w.Stop()

	rec := &recorder{}
	w.OnChange(func(Event) { panic("boom") })
	w.OnChange(rec.handle)

	assert.NotPanics(t, func() {
		w.emitEvent(Event{Path: "/a", Op: OpWrite})
	})
	assert.Equal(t, 1, rec.len())
}
