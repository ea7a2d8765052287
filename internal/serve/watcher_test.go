package serve

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s signal", what)
	}
}

func TestWatcherSignalsRebuildOnDocChange(t *testing.T) {
	docs := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.md"), []byte("# Hi\n"), 0o644))

	w, err := NewWatcher([]string{docs}, "", 20*time.Millisecond, discard())
	require.NoError(t, err)
	defer w.Close()

	stop := make(chan struct{})
	defer close(stop)
	go w.Run(stop)

	require.NoError(t, os.WriteFile(filepath.Join(docs, "index.md"), []byte("# Changed\n"), 0o644))
	waitSignal(t, w.Rebuild, "rebuild")
}

func TestWatcherPicksUpNewSubdirectories(t *testing.T) {
	docs := t.TempDir()
	w, err := NewWatcher([]string{docs}, "", 20*time.Millisecond, discard())
	require.NoError(t, err)
	defer w.Close()

	stop := make(chan struct{})
	defer close(stop)
	go w.Run(stop)

	sub := filepath.Join(docs, "guides")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitSignal(t, w.Rebuild, "rebuild after mkdir")

	// the new directory must itself be watched now
	require.NoError(t, os.WriteFile(filepath.Join(sub, "intro.md"), []byte("# Intro\n"), 0o644))
	waitSignal(t, w.Rebuild, "rebuild in new subdirectory")
}

func TestWatcherSignalsConfigChange(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "mkpages.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("site_name: Test\n"), 0o644))
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.Mkdir(docs, 0o755))

	w, err := NewWatcher([]string{docs}, cfgPath, 20*time.Millisecond, discard())
	require.NoError(t, err)
	defer w.Close()

	stop := make(chan struct{})
	defer close(stop)
	go w.Run(stop)

	require.NoError(t, os.WriteFile(cfgPath, []byte("site_name: Renamed\n"), 0o644))
	waitSignal(t, w.ConfigChange, "config change")
}

func TestShouldIgnore(t *testing.T) {
	ignored := []string{
		"/docs/.hidden.md",
		"/docs/index.md~",
		"/docs/.index.md.swp",
		"/docs/.index.md.swx",
		"/docs/#index.md#",
		"/docs/Thumbs.db",
	}
	for _, p := range ignored {
		assert.True(t, shouldIgnore(p), p)
	}
	kept := []string{
		"/docs/index.md",
		"/docs/guide/setup.md",
		"/docs/assets/logo.png",
	}
	for _, p := range kept {
		assert.False(t, shouldIgnore(p), p)
	}
}
