// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package executor

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/runbox/internal/commands"
)

// recordingLauncher captures invocations instead of starting processes.
type recordingLauncher struct {
	mu    sync.Mutex
	calls []Invocation
	err   error
}

func (l *recordingLauncher) Launch(_ context.Context, inv Invocation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, inv)
	return l.err
}

func (l *recordingLauncher) last(t *testing.T) Invocation {
	t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	require.NotEmpty(t, l.calls, "launcher was not called")
	return l.calls[len(l.calls)-1]
}

func newTestExecutor(t *testing.T, cmds ...commands.Command) (*Executor, *recordingLauncher) {
	t.Helper()
	reg := commands.NewRegistry()
	for _, cmd := range cmds {
		require.NoError(t, reg.Register(cmd))
	}
	launcher := &recordingLauncher{}
	return New(reg, launcher), launcher
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestExecuteRegisteredURL(t *testing.T) {
	exec, launcher := newTestExecutor(t, commands.Command{Name: "g", Target: "https://example.com"})

	require.NoError(t, exec.Execute(context.Background(), "g"))

	inv := launcher.last(t)
	assert.Equal(t, "https://example.com", inv.Target)
	assert.Empty(t, inv.Args)
	assert.Equal(t, "", inv.ArgLine())
	assert.Equal(t, "g", inv.Command)
	assert.False(t, inv.Direct)
}

func TestExecuteArgumentOrder(t *testing.T) {
	exec, launcher := newTestExecutor(t, commands.Command{
		Name:      "cmd",
		Target:    "app.exe --flag",
		Arguments: "--default",
	})

	require.NoError(t, exec.Execute(context.Background(), "cmd extra"))

	inv := launcher.last(t)
	assert.Equal(t, "app.exe", inv.Target)
	assert.Equal(t, []string{"--flag", "--default", "extra"}, inv.Args)
	assert.Equal(t, "--flag --default extra", inv.ArgLine())
}

func TestExecuteQuotedArguments(t *testing.T) {
	exec, launcher := newTestExecutor(t, commands.Command{
		Name:      "code",
		Target:    `"C:\Program Files\Code\code.exe" -n`,
		Arguments: `--title 'my title'`,
	})

	require.NoError(t, exec.Execute(context.Background(), `CODE "two words" arg3`))

	inv := launcher.last(t)
	assert.Equal(t, `C:\Program Files\Code\code.exe`, inv.Target)
	assert.Equal(t, []string{"-n", "--title", "my title", "two words", "arg3"}, inv.Args)
	assert.Equal(t, `-n --title "my title" "two words" arg3`, inv.ArgLine())
}

func TestExecuteDirectTargets(t *testing.T) {
	tests := []struct {
		input  string
		target string
		args   []string
	}{
		{"https://example.com", "https://example.com", []string{}},
		{"HTTP://EXAMPLE.COM/x a b", "HTTP://EXAMPLE.COM/x", []string{"a", "b"}},
		{"ftp://files.example.com", "ftp://files.example.com", []string{}},
		{`C:\Windows\notepad.exe readme.txt`, `C:\Windows\notepad.exe`, []string{"readme.txt"}},
		{`d:\games`, `d:\games`, []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			exec, launcher := newTestExecutor(t)
			require.NoError(t, exec.Execute(context.Background(), tc.input))

			inv := launcher.last(t)
			assert.True(t, inv.Direct)
			assert.Equal(t, tc.target, inv.Target)
			assert.Equal(t, tc.args, inv.Args)
		})
	}
}

func TestIsDirectTarget(t *testing.T) {
	assert.True(t, IsDirectTarget("https://x"))
	assert.True(t, IsDirectTarget("Ftp://x"))
	assert.True(t, IsDirectTarget(`Z:\`))
	assert.False(t, IsDirectTarget("notepad"))
	assert.False(t, IsDirectTarget("mailto:someone@example.com"))
	assert.False(t, IsDirectTarget(`C:relative`))
}

// =============================================================================
// REFUSAL TESTS
// =============================================================================

func TestExecuteRefusesControlAliases(t *testing.T) {
	exec, launcher := newTestExecutor(t,
		commands.Command{Name: "!reload", Target: "https://example.com"},
		commands.Command{Name: "rl", Target: "!reload"},
	)

	for _, input := range []string{"!reload", "!RELOAD now", "!anything", "rl"} {
		err := exec.Execute(context.Background(), input)
		require.Error(t, err, input)
		assert.ErrorIs(t, err, commands.ErrNotSupported, input)
	}
	assert.Empty(t, launcher.calls, "control aliases must never reach the launcher")
}

func TestExecuteInvalidInput(t *testing.T) {
	exec, launcher := newTestExecutor(t)

	for _, input := range []string{"", "   ", "\t\n", `""`} {
		err := exec.Execute(context.Background(), input)
		assert.ErrorIs(t, err, commands.ErrInvalidArgument, "input %q", input)
	}
	assert.Empty(t, launcher.calls)
}

func TestExecuteNotFound(t *testing.T) {
	exec, _ := newTestExecutor(t)

	err := exec.Execute(context.Background(), "unknown-cmd")
	require.ErrorIs(t, err, commands.ErrNotFound)
	assert.Equal(t, "unknown-cmd", commands.SubjectOf(err))
	assert.Contains(t, err.Error(), "unknown-cmd")
}

func TestExecuteEmptyTarget(t *testing.T) {
	exec, _ := newTestExecutor(t, commands.Command{Name: "blank", Target: "  "})

	err := exec.Execute(context.Background(), "blank")
	assert.ErrorIs(t, err, commands.ErrInvalidArgument)
}

// =============================================================================
// LAUNCH FAILURE TESTS
// =============================================================================

func TestExecuteWrapsLaunchErrors(t *testing.T) {
	exec, launcher := newTestExecutor(t, commands.Command{Name: "np", Target: "notepad.exe"})
	launcher.err = &fs.PathError{Op: "launch", Path: "notepad.exe", Err: fs.ErrNotExist}

	err := exec.Execute(context.Background(), "np")
	require.ErrorIs(t, err, commands.ErrExecutionFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist, "original OS error is preserved")
	assert.Equal(t, "notepad.exe", commands.SubjectOf(err))
}

func TestInvocationURLAppendsEscapedArgs(t *testing.T) {
	exec, launcher := newTestExecutor(t, commands.Command{Name: "g", Target: "https://www.google.com/search?q="})

	require.NoError(t, exec.Execute(context.Background(), "g golang generics"))
	assert.Equal(t, "https://www.google.com/search?q=golang+generics", launcher.last(t).URL())

	require.NoError(t, exec.Execute(context.Background(), "g"))
	assert.Equal(t, "https://www.google.com/search?q=", launcher.last(t).URL())

	require.NoError(t, exec.Execute(context.Background(), "g c&a"))
	assert.Equal(t, "https://www.google.com/search?q=c%26a", launcher.last(t).URL())
}

func TestExecuteRecoversLauncherPanic(t *testing.T) {
	reg := commands.NewRegistry()
	require.NoError(t, reg.Register(commands.Command{Name: "boom", Target: "boom.exe"}))
	exec := New(reg, LauncherFunc(func(context.Context, Invocation) error {
		panic("launcher exploded")
	}))

	err := exec.Execute(context.Background(), "boom")
	require.ErrorIs(t, err, commands.ErrExecutionFailed)
	assert.Contains(t, err.Error(), "launcher exploded")
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	exec, _ := newTestExecutor(t)

	assert.NoError(t, exec.Validate(commands.Command{Name: "g", Target: "https://google.com"}))
	assert.NoError(t, exec.Validate(commands.Command{Name: "rl", Target: "!reload"}))

	err := exec.Validate(commands.Command{Name: "bad", Target: "!nope"})
	assert.ErrorIs(t, err, commands.ErrUnknownCommand)

	err = exec.Validate(commands.Command{Name: "empty", Target: ""})
	assert.ErrorIs(t, err, commands.ErrInvalidArgument)

	err = exec.Validate(commands.Command{Name: "", Target: "x"})
	assert.True(t, errors.Is(err, commands.ErrInvalidArgument))
}
