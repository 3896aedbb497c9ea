// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - One-shot subcommands: run, list, complete, init and version.

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/util"
)

// =============================================================================
// RUN
// =============================================================================

func (s *session) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <input...>",
		Short: "Dispatch one input and exit",
		Long: `Dispatch one input exactly as if it were typed into the launcher box.

Arguments are re-quoted so that "runbox run code 'my file.txt'" passes
"my file.txt" as a single argument.`,
		Example: `  runbox run g
  runbox run code ~/notes.md
  runbox run https://go.dev
  runbox run '!version'`,
		Args: usageArgs(cobra.MinimumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp(cmd.Context())
			if err != nil {
				return err
			}
			input := args[0]
			if len(args) > 1 {
				input = commands.JoinArgs(args)
			}
			msg, err := a.Dispatch(cmd.Context(), input)
			if err != nil {
				return err
			}
			printMessage(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

// =============================================================================
// LIST
// =============================================================================

// newListCmd honors the persistent --plain flag.
func (s *session) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered commands",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := s.newApp(cmd.Context())
			if err != nil {
				return err
			}
			cmds := a.Registry().All()
			out := cmd.OutOrStdout()

			if !s.flags.plain && isTerminalWriter(out) {
				rendered, err := renderMarkdownList(cmds, GetTerminalWidth())
				if err == nil {
					fmt.Fprint(out, rendered)
					return nil
				}
			}
			writePlainList(out, cmds)
			return nil
		},
	}
}

// renderMarkdownList renders the command table with glamour.
func renderMarkdownList(cmds []commands.Command, width int) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Commands (%d)\n\n", len(cmds))
	if len(cmds) == 0 {
		b.WriteString("_No commands registered._\n")
	} else {
		b.WriteString("| Name | Target | Description |\n")
		b.WriteString("|------|--------|-------------|\n")
		for _, c := range cmds {
			fmt.Fprintf(&b, "| `%s` | %s | %s |\n",
				escapeCell(c.Name), escapeCell(c.Target), escapeCell(c.Description))
		}
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(b.String())
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// maxTargetWidth bounds the target column in plain output.
const maxTargetWidth = 48

// writePlainList prints one command per line in aligned columns.
func writePlainList(w io.Writer, cmds []commands.Command) {
	nameWidth := 0
	targetWidth := 0
	for _, c := range cmds {
		nameWidth = max(nameWidth, runewidth.StringWidth(c.Name))
		targetWidth = max(targetWidth, min(runewidth.StringWidth(c.Target), maxTargetWidth))
	}

	for _, c := range cmds {
		target := util.TruncateWidth(c.Target, maxTargetWidth)
		line := runewidth.FillRight(c.Name, nameWidth) + "  " + runewidth.FillRight(target, targetWidth)
		if c.Description != "" {
			line += "  " + c.Description
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

// =============================================================================
// COMPLETE
// =============================================================================

func (s *session) newCompleteCmd() *cobra.Command {
	var common bool
	cmd := &cobra.Command{
		Use:   "complete [prefix]",
		Short: "Print command names starting with prefix",
		Long: `Print every command name starting with prefix, one per line. Matching
ignores case. With --common, print only the longest shared completion.`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.newApp(cmd.Context())
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			out := cmd.OutOrStdout()
			if common {
				fmt.Fprintln(out, a.Completer().Complete(prefix))
				return nil
			}
			for _, name := range a.Completer().Candidates(prefix) {
				fmt.Fprintln(out, name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&common, "common", false, "print the longest common completion only")
	return cmd
}

// =============================================================================
// INIT
// =============================================================================

func (s *session) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default settings file and a sample commands file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := config.ExpandPath(s.flags.configPath)
			if cfgPath == "" {
				var err error
				if cfgPath, err = config.ConfigPath(); err != nil {
					return &ConfigError{Err: err}
				}
			}

			cfg := config.Default()
			if s.flags.commandsFile != "" {
				cfg.CommandsFile = s.flags.commandsFile
			}

			out := cmd.OutOrStdout()
			if err := writeIfAbsent(cfgPath, force, func() error { return config.Save(cfg, cfgPath) }); err != nil {
				return &ConfigError{Path: cfgPath, Err: err}
			}
			fmt.Fprintf(out, "Wrote %s\n", cfgPath)

			cmdsPath := cfg.CommandsPath()
			if err := config.WriteSampleCommands(cmdsPath, force); err != nil {
				return &ConfigError{Path: cmdsPath, Err: err}
			}
			fmt.Fprintf(out, "Wrote %s\n", cmdsPath)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")
	return cmd
}

func writeIfAbsent(path string, force bool, write func() error) error {
	if !force && util.FileExists(path) {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	return write()
}

// =============================================================================
// VERSION
// =============================================================================

func (s *session) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), s.info.versionInfo().String())
		},
	}
}
