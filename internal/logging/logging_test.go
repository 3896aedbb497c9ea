// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"info", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{" warn ", zapcore.WarnLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "runbox.log")

	logger, err := New(Options{Level: "debug", Path: path})
	require.NoError(t, err)

	logger.Debug("launching", zap.String("target", "notepad.exe"))
	logger.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"target":"notepad.exe"`)
	assert.Contains(t, string(data), `"msg":"launching"`)
}

func TestLevelFiltersEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runbox.log")

	logger, err := New(Options{Level: "warn", Path: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("visible")
	logger.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "visible")
}

func TestVerboseOverridesLevel(t *testing.T) {
	logger, err := New(Options{Level: "error", Path: filepath.Join(t.TempDir(), "x.log"), Verbose: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty", Path: Stderr})
	assert.Error(t, err)
}
