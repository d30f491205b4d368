package refdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_HandleFsEvent(t *testing.T) {
	dir := t.TempDir()
	w := &Watcher{dir: dir}

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"write markers", filepath.Join(dir, MarkersFile), fsnotify.Write, true},
		{"create thresholds", filepath.Join(dir, ThresholdsFile), fsnotify.Create, true},
		{"remove markers", filepath.Join(dir, MarkersFile), fsnotify.Remove, true},
		{"rename thresholds", filepath.Join(dir, ThresholdsFile), fsnotify.Rename, true},
		{"write and chmod", filepath.Join(dir, MarkersFile), fsnotify.Write | fsnotify.Chmod, true},
		{"chmod only", filepath.Join(dir, MarkersFile), fsnotify.Chmod, false},
		{"temp file", filepath.Join(dir, MarkersFile+".tmp"), fsnotify.Write, false},
		{"other file", filepath.Join(dir, "notes.txt"), fsnotify.Write, false},
		{"other directory", filepath.Join(dir, "sub", MarkersFile), fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.handleFsEvent(fsnotify.Event{Name: tt.path, Op: tt.op}))
		})
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	src := NewDirSource(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	data, err := Default()
	require.NoError(t, err)
	data.Version = "v1"
	require.NoError(t, src.Save(ctx, data))

	m, err := NewManager(ctx, src)
	require.NoError(t, err)
	require.Equal(t, "v1", m.Current().Version())

	w, err := NewWatcher(m, dir, 20*time.Millisecond)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	data.Version = "v2"
	require.NoError(t, src.Save(ctx, data))

	assert.Eventually(t, func() bool {
		return m.Current().Version() == "v2"
	}, 5*time.Second, 20*time.Millisecond)

	// A broken file leaves v2 active.
	require.NoError(t, os.WriteFile(filepath.Join(dir, MarkersFile), []byte("not toml ["), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, "v2", m.Current().Version())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewWatcher_MissingDir(t *testing.T) {
	m, err := NewManager(context.Background(), nil)
	require.NoError(t, err)

	_, err = NewWatcher(m, filepath.Join(t.TempDir(), "missing"), 0)
	assert.Error(t, err)
}
