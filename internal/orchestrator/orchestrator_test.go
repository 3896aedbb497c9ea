// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/executor"
)

// recordingLauncher captures invocations instead of starting processes.
type recordingLauncher struct {
	mu    sync.Mutex
	calls []executor.Invocation
}

func (l *recordingLauncher) Launch(_ context.Context, inv executor.Invocation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, inv)
	return nil
}

func (l *recordingLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// swapLoader returns whatever entries/err currently hold.
type swapLoader struct {
	mu      sync.Mutex
	entries []config.CommandEntry
	err     error
	calls   int
}

func (s *swapLoader) Load(context.Context) ([]config.CommandEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]config.CommandEntry(nil), s.entries...), nil
}

func (s *swapLoader) set(entries []config.CommandEntry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.err = err
}

func newTestOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *recordingLauncher) {
	t.Helper()
	reg := commands.NewRegistry()
	launcher := &recordingLauncher{}
	return New(reg, executor.New(reg, launcher), opts...), launcher
}

var baseEntries = []config.CommandEntry{
	{Name: "g", Target: "https://example.com"},
	{Name: "x", Target: "x.exe"},
	{Name: "rl", Target: "!reload"},
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestInitialize(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	assert.Equal(t, StateUninitialized, o.State())

	require.NoError(t, o.Initialize(context.Background(), &swapLoader{entries: baseEntries}))
	assert.Equal(t, StateReady, o.State())
	assert.Equal(t, 3, o.Registry().Len())
	assert.Equal(t, []string{"g", "rl", "x"}, o.Registry().Completer().Candidates(""))
}

func TestInitializeFailureLeavesRegistryUntouched(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	loadErr := errors.New("disk on fire")

	err := o.Initialize(context.Background(), &swapLoader{err: loadErr})
	require.ErrorIs(t, err, commands.ErrInitializationFailed)
	assert.ErrorIs(t, err, loadErr)
	assert.Equal(t, StateUninitialized, o.State())
	assert.Equal(t, 0, o.Registry().Len())

	err = o.Initialize(context.Background(), &swapLoader{entries: []config.CommandEntry{{Name: " ", Target: "x"}}})
	require.ErrorIs(t, err, commands.ErrInitializationFailed)
	assert.ErrorIs(t, err, commands.ErrInvalidArgument)
}

func TestInitializeNilSource(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	assert.ErrorIs(t, o.Initialize(context.Background(), nil), commands.ErrInitializationFailed)
}

func TestInitializeKeepsLastDuplicate(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(context.Background(), config.LoaderFunc(func(context.Context) ([]config.CommandEntry, error) {
		return []config.CommandEntry{
			{Name: "Code", Target: "old.exe"},
			{Name: "other", Target: "o.exe"},
			{Name: "code", Target: "new.exe"},
		}, nil
	})))

	cmd, ok := o.Registry().Get("CODE")
	require.True(t, ok)
	assert.Equal(t, "new.exe", cmd.Target)
	assert.Equal(t, 2, o.Registry().Len())
}

func TestReloadBeforeInitialize(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	err := o.Reload(context.Background())
	require.ErrorIs(t, err, commands.ErrInvalidOperation)
	assert.Contains(t, err.Error(), "not initialized")
}

func TestReloadRemovesVanishedCommands(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	src := &swapLoader{entries: baseEntries}
	require.NoError(t, o.Initialize(context.Background(), src))

	src.set([]config.CommandEntry{{Name: "g", Target: "https://example.org"}}, nil)
	require.NoError(t, o.Reload(context.Background()))

	assert.False(t, o.Registry().Has("x"))
	assert.Equal(t, []string{"g"}, o.Registry().Completer().Candidates(""))
	cmd, _ := o.Registry().Get("g")
	assert.Equal(t, "https://example.org", cmd.Target)
}

func TestReloadFailureKeepsPreviousCommands(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	src := &swapLoader{entries: baseEntries}
	require.NoError(t, o.Initialize(context.Background(), src))

	src.set(nil, errors.New("bad yaml"))
	err := o.Reload(context.Background())
	require.ErrorIs(t, err, commands.ErrReloadFailed)
	assert.Equal(t, 3, o.Registry().Len())
	assert.True(t, o.Registry().Has("x"))
	assert.Equal(t, StateReady, o.State())
}

func TestReloadFailureClearsWhenConfigured(t *testing.T) {
	o, _ := newTestOrchestrator(t, WithKeepOnFailure(false))
	src := &swapLoader{entries: baseEntries}
	require.NoError(t, o.Initialize(context.Background(), src))

	src.set(nil, errors.New("bad yaml"))
	require.ErrorIs(t, o.Reload(context.Background()), commands.ErrReloadFailed)
	assert.Equal(t, 0, o.Registry().Len())
	assert.Empty(t, o.Registry().Completer().Candidates(""))

	// A later good reload repopulates
	src.set(baseEntries, nil)
	require.NoError(t, o.Reload(context.Background()))
	assert.Equal(t, 3, o.Registry().Len())
}

func TestRefreshInitializesThenReloads(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	src := &swapLoader{entries: baseEntries}

	require.NoError(t, o.Refresh(context.Background(), src))
	assert.Equal(t, StateReady, o.State())
	assert.Equal(t, 3, o.Registry().Len())

	src.set(nil, errors.New("bad yaml"))
	require.ErrorIs(t, o.Refresh(context.Background(), src), commands.ErrReloadFailed)
	assert.Equal(t, 3, o.Registry().Len())

	fresh, _ := newTestOrchestrator(t)
	require.ErrorIs(t, fresh.Refresh(context.Background(), src), commands.ErrInitializationFailed)
	assert.Equal(t, StateUninitialized, fresh.State())
}

func TestRefreshConcurrentCallersInitializeOnce(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	first := config.LoaderFunc(func(context.Context) ([]config.CommandEntry, error) {
		once.Do(func() {
			close(entered)
			<-release
		})
		return baseEntries, nil
	})
	second := &swapLoader{entries: []config.CommandEntry{{Name: "other", Target: "o.exe"}}}

	errs := make(chan error, 2)
	go func() { errs <- o.Refresh(context.Background(), first) }()
	<-entered
	go func() { errs <- o.Refresh(context.Background(), second) }()

	// The second caller must wait for the first load, then reload its source.
	assert.Never(t, func() bool {
		second.mu.Lock()
		defer second.mu.Unlock()
		return second.calls > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
	close(release)

	require.NoError(t, <-errs)
	require.NoError(t, <-errs)
	assert.Equal(t, 0, second.calls, "only one caller initializes")
	assert.True(t, o.Registry().Has("g"))
	assert.False(t, o.Registry().Has("other"))
}

// =============================================================================
// CONTROL COMMAND TESTS
// =============================================================================

func TestHandleSpecialReload(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	src := &swapLoader{entries: baseEntries}
	require.NoError(t, o.Initialize(context.Background(), src))

	msg, err := o.HandleSpecial(context.Background(), "!RELOAD")
	require.NoError(t, err)
	assert.Equal(t, "Configuration reloaded (3 commands)", msg)
	assert.Equal(t, 2, src.calls)
}

func TestHandleSpecialVersion(t *testing.T) {
	o, _ := newTestOrchestrator(t, WithVersion(VersionInfo{Name: "runbox", Version: "1.2.3", Commit: "abc123", BuildDate: "2025-01-01"}))
	src := &swapLoader{entries: baseEntries}
	require.NoError(t, o.Initialize(context.Background(), src))
	before := o.Registry().All()

	msg, err := o.HandleSpecial(context.Background(), "!version")
	require.NoError(t, err)
	assert.Equal(t, "runbox 1.2.3 (commit abc123, built 2025-01-01)", msg)
	assert.Equal(t, before, o.Registry().All())
	assert.Equal(t, 1, src.calls, "version must not reload")
}

func TestHandleSpecialVersionDefaults(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	msg, err := o.HandleSpecial(context.Background(), "!version")
	require.NoError(t, err)
	assert.NotEmpty(t, msg)
	assert.Contains(t, msg, "runbox dev")
}

func TestHandleSpecialExit(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.HandleSpecial(context.Background(), "!exit")
	assert.True(t, commands.IsExit(err))
}

func TestHandleSpecialUnknown(t *testing.T) {
	o, _ := newTestOrchestrator(t)

	_, err := o.HandleSpecial(context.Background(), "!bogus")
	require.ErrorIs(t, err, commands.ErrUnknownCommand)
	assert.Equal(t, "!bogus", commands.SubjectOf(err))

	_, err = o.HandleSpecial(context.Background(), "reload")
	assert.ErrorIs(t, err, commands.ErrInvalidArgument)
}

func TestHandleSpecialReloadBeforeInitialize(t *testing.T) {
	o, _ := newTestOrchestrator(t)
	_, err := o.HandleSpecial(context.Background(), "!reload")
	assert.ErrorIs(t, err, commands.ErrInvalidOperation)
}

// =============================================================================
// DISPATCH TESTS
// =============================================================================

func TestDispatchLaunches(t *testing.T) {
	o, launcher := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(context.Background(), &swapLoader{entries: baseEntries}))

	msg, err := o.Dispatch(context.Background(), "g")
	require.NoError(t, err)
	assert.Equal(t, "Launched https://example.com", msg)
	assert.Equal(t, 1, launcher.count())
}

func TestDispatchControlAlias(t *testing.T) {
	o, launcher := newTestOrchestrator(t)
	src := &swapLoader{entries: baseEntries}
	require.NoError(t, o.Initialize(context.Background(), src))

	msg, err := o.Dispatch(context.Background(), "RL")
	require.NoError(t, err)
	assert.Equal(t, "Configuration reloaded (3 commands)", msg)
	assert.Equal(t, 0, launcher.count(), "control aliases never launch")
	assert.Equal(t, 2, src.calls)
}

func TestDispatchErrors(t *testing.T) {
	o, launcher := newTestOrchestrator(t)
	require.NoError(t, o.Initialize(context.Background(), &swapLoader{entries: baseEntries}))

	_, err := o.Dispatch(context.Background(), "unknown-cmd")
	assert.ErrorIs(t, err, commands.ErrNotFound)

	_, err = o.Dispatch(context.Background(), "")
	assert.ErrorIs(t, err, commands.ErrInvalidArgument)

	_, err = o.Dispatch(context.Background(), "!exit")
	assert.True(t, commands.IsExit(err))

	assert.Equal(t, 0, launcher.count())
}
