// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Line-mode launcher with history and tab completion.

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/runbox/internal/app"
	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/ui"
)

const promptText = "runbox> "

var (
	promptStyle  = lipgloss.NewStyle().Foreground(ui.Cyan).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(ui.Emerald)
)

// =============================================================================
// LINE INPUT
// =============================================================================

// lineReader reads one line of input per call. io.EOF ends the session.
type lineReader interface {
	Prompt(prompt string) (string, error)
	Close()
}

// historyReader provides input history and line editing on a terminal.
type historyReader struct {
	line        *liner.State
	historyFile string
}

// newHistoryReader creates a liner-backed reader whose tab completion
// offers command names for the first word.
func newHistoryReader(completer *commands.Completer) *historyReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)
	line.SetCompleter(func(input string) []string {
		if strings.ContainsAny(input, " \t") {
			return nil
		}
		return completer.Candidates(input)
	})

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	r := &historyReader{
		line:        line,
		historyFile: filepath.Join(configDir, "history"),
	}
	r.loadHistory()
	return r
}

func (r *historyReader) loadHistory() {
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line. Ctrl+C and Ctrl+D both end the session.
func (r *historyReader) Prompt(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// saveHistory persists history with owner-only permissions.
func (r *historyReader) saveHistory() {
	if err := config.EnsureConfigDir(); err != nil {
		return
	}
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	r.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (r *historyReader) Close() {
	r.saveHistory()
	r.line.Close()
}

// scanReader reads lines from a pipe or file. The prompt is written only when
// out is set.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newScanReader(in io.Reader, out io.Writer) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(in), out: out}
}

func (r *scanReader) Prompt(prompt string) (string, error) {
	if r.out != nil {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() {}

// =============================================================================
// PROMPT LOOP
// =============================================================================

func (s *session) newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt",
		Short: "Read commands line by line",
		Long: `Read commands line by line with history and tab completion.

Each line is dispatched like input to the launcher box. Ctrl+D, Ctrl+C or
!exit ends the session.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return s.runPrompt(cmd)
		},
	}
}

// runPrompt runs the line loop alongside the reload watcher.
func (s *session) runPrompt(cmd *cobra.Command) error {
	a, err := s.newApp(cmd.Context())
	if err != nil {
		return err
	}

	var reader lineReader
	if s.opts.Stdin == nil && IsTTY() {
		reader = newHistoryReader(a.Completer())
	} else {
		reader = newScanReader(cmd.InOrStdin(), nil)
	}
	defer reader.Close()

	return a.Run(cmd.Context(), func(ctx context.Context) error {
		return promptLoop(ctx, a, reader, cmd.OutOrStdout(), cmd.ErrOrStderr())
	})
}

// promptLoop dispatches each line until EOF or !exit. Dispatch errors are
// displayed and the loop continues.
func promptLoop(ctx context.Context, a *app.App, reader lineReader, stdout, stderr io.Writer) error {
	prompt := promptText
	if ColorsEnabled() {
		prompt = promptStyle.Render(promptText)
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		input, err := reader.Prompt(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		msg, err := a.Dispatch(ctx, input)
		if err != nil {
			if commands.IsExit(err) {
				return nil
			}
			DisplayError(stderr, err)
			continue
		}
		printMessage(stdout, msg)
	}
}

func printMessage(w io.Writer, msg string) {
	if msg == "" {
		return
	}
	if ColorsEnabled() {
		msg = successStyle.Render(msg)
	}
	fmt.Fprintln(w, msg)
}
