// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/runbox/internal/app"
	"github.com/jeranaias/runbox/internal/config"
	"github.com/jeranaias/runbox/internal/executor"
	"github.com/jeranaias/runbox/internal/logging"
	"github.com/jeranaias/runbox/internal/orchestrator"
	"github.com/jeranaias/runbox/internal/ui"
)

// =============================================================================
// BUILD INFO
// =============================================================================

// BuildInfo is set from main via -ldflags.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

func (b BuildInfo) versionInfo() orchestrator.VersionInfo {
	return orchestrator.VersionInfo{
		Name:      "runbox",
		Version:   b.Version,
		Commit:    b.GitCommit,
		BuildDate: b.BuildDate,
	}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// Options allow tests to replace the process launcher and standard streams.
type Options struct {
	Launcher executor.Launcher
	Stdin    io.Reader
	Stdout   io.Writer
	Stderr   io.Writer
}

// flags holds the persistent flag values.
type flags struct {
	configPath   string
	commandsFile string
	logLevel     string
	verbose      bool
	plain        bool
}

// session is the per-invocation state shared by subcommands.
type session struct {
	info   BuildInfo
	opts   Options
	flags  flags
	cfg    *config.Config
	logger *logging.Logger
}

// Execute runs the CLI and returns the process exit code.
func Execute(info BuildInfo) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code, _ := newSession(info, Options{}).execute(ctx, os.Args[1:])
	return code
}

func newSession(info BuildInfo, opts Options) *session {
	return &session{info: info, opts: opts}
}

// execute runs one invocation, reports its error and returns the exit code.
// The logger is closed on every path, failures included.
func (s *session) execute(ctx context.Context, args []string) (int, error) {
	defer s.close()

	cmd := s.rootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	DisplayError(cmd.ErrOrStderr(), err)
	return GetExitCode(err), err
}

// rootCmd builds the command tree.
func (s *session) rootCmd() *cobra.Command {
	info, opts := s.info, s.opts

	root := &cobra.Command{
		Use:   "runbox",
		Short: "Keyboard-driven command launcher",
		Long: `runbox resolves short names to programs, documents, folders and URLs.

Type a name (with optional arguments), a URL, or an absolute path. Control
commands start with "!": !reload re-reads the commands file, !version shows
build information and !exit quits.

Run without arguments to open the launcher box (or a line prompt when not
attached to a terminal).`,
		Version:       info.versionInfo().String(),
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !s.flags.plain && s.opts.Stdin == nil && IsTTY() && IsStdoutTTY() {
				return s.runBox(cmd)
			}
			return s.runPrompt(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	if opts.Stdin != nil {
		root.SetIn(opts.Stdin)
	}
	if opts.Stdout != nil {
		root.SetOut(opts.Stdout)
	}
	if opts.Stderr != nil {
		root.SetErr(opts.Stderr)
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&s.flags.configPath, "config", "c", "", "settings file (default ~/.runbox/config.toml)")
	pf.StringVar(&s.flags.commandsFile, "commands", "", "commands file (overrides commands_file)")
	pf.StringVar(&s.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVarP(&s.flags.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&s.flags.plain, "plain", false, "line prompt instead of the launcher box; unstyled list output")

	root.AddCommand(
		s.newRunCmd(),
		s.newPromptCmd(),
		s.newListCmd(),
		s.newCompleteCmd(),
		s.newInitCmd(),
		s.newDoctorCmd(),
		s.newVersionCmd(),
	)
	return root
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// =============================================================================
// SESSION SETUP
// =============================================================================

// loadConfig reads settings and applies flag overrides.
func (s *session) loadConfig() (*config.Config, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if s.flags.configPath != "" {
		cfg, err = config.LoadFromPath(config.ExpandPath(s.flags.configPath))
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Path: s.flags.configPath, Err: err}
	}

	if s.flags.commandsFile != "" {
		cfg.CommandsFile = s.flags.commandsFile
	}
	if s.flags.logLevel != "" {
		cfg.Log.Level = s.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: s.flags.configPath, Err: err}
	}

	s.cfg = cfg
	return cfg, nil
}

// newApp loads settings, starts logging and loads the commands.
func (s *session) newApp(ctx context.Context) (*app.App, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, err
	}

	if s.logger == nil {
		logger, err := logging.New(logging.Options{
			Level:   cfg.Log.Level,
			Path:    cfg.LogPath(),
			Verbose: s.flags.verbose,
		})
		if err != nil {
			return nil, &ConfigError{Path: s.flags.configPath, Err: err}
		}
		s.logger = logger
	}

	a := app.New(app.Options{
		Config:   cfg,
		Logger:   s.logger.Logger,
		Launcher: s.opts.Launcher,
		Version:  s.info.versionInfo(),
	})
	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}
	s.logger.Debug("session ready",
		zap.String("commands_file", cfg.CommandsPath()),
		zap.Int("commands", a.Registry().Len()))
	return a, nil
}

func (s *session) close() {
	if s.logger != nil {
		s.logger.Close()
		s.logger = nil
	}
}

// runBox opens the interactive launcher box.
func (s *session) runBox(cmd *cobra.Command) error {
	a, err := s.newApp(cmd.Context())
	if err != nil {
		return err
	}

	// NO_COLOR applies to the box too.
	lipgloss.SetColorProfile(GetColorProfile())
	opts := ui.Options{
		Theme:         ui.NewTheme(a.Config().UI.Theme),
		MaxCandidates: a.Config().UI.MaxCandidates,
	}
	return a.Run(cmd.Context(), func(ctx context.Context) error {
		return ui.Run(ctx, a, opts)
	})
}
