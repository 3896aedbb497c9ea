// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows
// +build !windows

package executor

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/runbox/internal/commands"
)

// recordScript writes its arguments, each followed by "|", to <script>.out.
// The rename keeps readers from seeing a half-written file.
const recordScript = `#!/bin/sh
printf '%s|' "$@" > "$0.tmp" && mv "$0.tmp" "$0.out"
`

func writeRecorder(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(recordScript), 0755))
	return path
}

// recorded waits for the detached child to write its arguments.
func recorded(t *testing.T, script string) []string {
	t.Helper()
	var data []byte
	require.Eventually(t, func() bool {
		var err error
		data, err = os.ReadFile(script + ".out")
		return err == nil
	}, 5*time.Second, 10*time.Millisecond, "%s was not run", filepath.Base(script))
	return strings.Split(strings.TrimSuffix(string(data), "|"), "|")
}

func newShellExecutor(t *testing.T, cmds ...commands.Command) (*Executor, string) {
	t.Helper()
	dir := t.TempDir()
	opener := writeRecorder(t, dir, "opener")

	reg := commands.NewRegistry()
	for _, cmd := range cmds {
		require.NoError(t, reg.Register(cmd))
	}
	return New(reg, NewShellLauncher(opener, nil)), opener
}

func TestShellLauncherURLWithArgs(t *testing.T) {
	exec, opener := newShellExecutor(t, commands.Command{Name: "g", Target: "https://www.google.com/search?q="})

	require.NoError(t, exec.Execute(context.Background(), "g golang generics"))
	assert.Equal(t, []string{"https://www.google.com/search?q=golang+generics"}, recorded(t, opener))
}

func TestShellLauncherDirectURL(t *testing.T) {
	exec, opener := newShellExecutor(t)

	require.NoError(t, exec.Execute(context.Background(), "https://go.dev"))
	assert.Equal(t, []string{"https://go.dev"}, recorded(t, opener))
}

func TestShellLauncherExecutableWithArgs(t *testing.T) {
	exec, opener := newShellExecutor(t)
	program := writeRecorder(t, t.TempDir(), "program")

	require.NoError(t, exec.Execute(context.Background(), program+` a "b c"`))
	assert.Equal(t, []string{"a", "b c"}, recorded(t, program))
	assert.NoFileExists(t, opener+".out", "executables start directly")
}

func TestShellLauncherDocument(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("notes"), 0644))
	exec, opener := newShellExecutor(t, commands.Command{Name: "notes", Target: doc})

	require.NoError(t, exec.Execute(context.Background(), "notes"))
	assert.Equal(t, []string{doc}, recorded(t, opener))
}

func TestShellLauncherDocumentRejectsArgs(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("notes"), 0644))
	exec, opener := newShellExecutor(t, commands.Command{Name: "notes", Target: doc})

	err := exec.Execute(context.Background(), "notes --readonly")
	require.ErrorIs(t, err, commands.ErrExecutionFailed)
	assert.True(t, errors.Is(err, errDocumentArgs))
	assert.Equal(t, doc, commands.SubjectOf(err))
	assert.Contains(t, err.Error(), "--readonly")
	assert.NoFileExists(t, opener+".out", "nothing is started")
}

func TestShellLauncherMissingTarget(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.exe")
	exec, opener := newShellExecutor(t)

	err := exec.Execute(context.Background(), missing)
	require.ErrorIs(t, err, commands.ErrExecutionFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Equal(t, missing, commands.SubjectOf(err))
	assert.NoFileExists(t, opener+".out")
}

func TestOpenerCommand(t *testing.T) {
	want := "xdg-open"
	if runtime.GOOS == "darwin" {
		want = "open"
	}
	assert.Equal(t, want, NewShellLauncher("", nil).OpenerCommand())
	assert.Equal(t, "/usr/local/bin/opener", NewShellLauncher("/usr/local/bin/opener", nil).OpenerCommand())
}
