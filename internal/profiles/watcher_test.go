package profiles

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsNewProfiles(t *testing.T) {
	dir := makeProfilesDir(t, "default")
	changes := make(chan []string, 4)
	w := NewWatcher(dir, 20*time.Millisecond, func(profiles []string) {
		changes <- profiles
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	waitReady(t, w)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "work"), 0o755))
	select {
	case got := <-changes:
		assert.Equal(t, []string{"default", "work"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("new profile not reported")
	}

	require.NoError(t, os.Remove(filepath.Join(dir, "work")))
	select {
	case got := <-changes:
		assert.Equal(t, []string{"default"}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("profile removal not reported")
	}
}

func TestWatcher_IgnoresHiddenEntries(t *testing.T) {
	dir := makeProfilesDir(t, "default")
	changes := make(chan []string, 4)
	w := NewWatcher(dir, 10*time.Millisecond, func(profiles []string) {
		changes <- profiles
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	waitReady(t, w)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "_lima"), 0o755))

	select {
	case got := <-changes:
		t.Fatalf("unexpected change %v", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_NoChangesAfterRunReturns(t *testing.T) {
	dir := makeProfilesDir(t, "default")
	changes := make(chan []string, 4)
	w := NewWatcher(dir, 100*time.Millisecond, func(profiles []string) {
		changes <- profiles
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitReady(t, w)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "work"), 0o755))
	w.schedule()
	cancel()
	require.NoError(t, <-done)

	select {
	case got := <-changes:
		t.Fatalf("change %v reported after Run returned", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing"), time.Millisecond, func([]string) {})
	assert.NoError(t, w.Run(context.Background()))
}

func waitReady(t *testing.T, w *Watcher) {
	t.Helper()
	select {
	case <-w.ready:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never started")
	}
}
