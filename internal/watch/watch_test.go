// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startWatcher(t *testing.T, path string, onChange ChangeFunc, opts ...Option) {
	t.Helper()
	w, err := New(path, onChange, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: []\n"), 0644))

	var calls atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithDebounce(100*time.Millisecond), WithMinInterval(0))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("commands: []\n"), 0644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load(), "a burst of writes reloads once")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: []\n"), 0644))

	var calls atomic.Int32
	startWatcher(t, path, func(context.Context) error {
		calls.Add(1)
		return nil
	}, WithDebounce(10*time.Millisecond))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestWatcherSeesRenameOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("commands: []\n"), 0644))

	changed := make(chan struct{}, 10)
	startWatcher(t, path, func(context.Context) error {
		changed <- struct{}{}
		return nil
	}, WithDebounce(10*time.Millisecond))

	tmp := filepath.Join(dir, ".commands.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("commands:\n  - name: g\n    target: x\n"), 0644))
	require.NoError(t, os.Rename(tmp, path))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("rename over the watched file was not seen")
	}
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "absent", "commands.yaml"), func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "commands.yaml"), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
