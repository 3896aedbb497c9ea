// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/runbox/internal/commands"
	"github.com/jeranaias/runbox/internal/tasks"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is what the launcher box needs from the application.
type Backend interface {
	Registry() *commands.Registry
	Submit(input string) (string, error)
	Cancel(id string) bool
	Notifications() <-chan tasks.TaskNotification
}

// =============================================================================
// MESSAGES
// =============================================================================

// notificationMsg carries a finished task into Update.
type notificationMsg tasks.TaskNotification

// waitForNotification blocks on the backend's notification channel.
func waitForNotification(ch <-chan tasks.TaskNotification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Options configure the launcher box.
type Options struct {
	Theme         *Theme
	MaxCandidates int
	Title         string
}

// pendingTask is a submitted input whose notification has not arrived.
type pendingTask struct {
	id    string
	input string
}

// Model is the bubbletea model for the launcher box.
type Model struct {
	backend Backend
	theme   *Theme
	input   textinput.Model

	candidates    []string
	selected      int // -1 = none
	maxCandidates int

	status    string
	statusErr bool
	pending   []pendingTask // submission order

	title    string
	width    int
	quitting bool
}

// NewModel creates the launcher box model.
func NewModel(backend Backend, opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = NewTheme("auto")
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 8
	}
	title := opts.Title
	if title == "" {
		title = "runbox"
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.Prompt
	ti.Placeholder = "type a command, URL or !reload"
	ti.CharLimit = 1024
	ti.Focus()

	m := Model{
		backend:       backend,
		theme:         theme,
		input:         ti,
		selected:      -1,
		maxCandidates: maxCandidates,
		title:         title,
		width:         60,
	}
	m.refreshCandidates()
	return m
}

// Init starts the cursor blink and the notification listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForNotification(m.backend.Notifications()))
}

// Update handles keys, window size changes and task notifications.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(10, msg.Width-8)
		return m, nil

	case notificationMsg:
		return m.handleNotification(tasks.TaskNotification(msg))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEsc:
			if m.input.Value() != "" {
				m.input.SetValue("")
				m.refreshCandidates()
				return m, nil
			}
			if len(m.pending) > 0 {
				return m.cancelLatest(), nil
			}
			m.quitting = true
			return m, tea.Quit

		case tea.KeyTab:
			m.complete()
			return m, nil

		case tea.KeyUp:
			m.moveSelection(-1)
			return m, nil

		case tea.KeyDown:
			m.moveSelection(1)
			return m, nil

		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.refreshCandidates()
	}
	return m, cmd
}

// Input returns the current input text.
func (m Model) Input() string { return m.input.Value() }

// Candidates returns the visible candidate list.
func (m Model) Candidates() []string { return m.candidates }

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) { return m.status, m.statusErr }

// Quitting reports whether the model asked the program to quit.
func (m Model) Quitting() bool { return m.quitting }

// =============================================================================
// ACTIONS
// =============================================================================

// head splits the input into the command token and the remainder.
func (m Model) head() (string, string) {
	value := strings.TrimLeft(m.input.Value(), " \t")
	if i := strings.IndexAny(value, " \t"); i >= 0 {
		return value[:i], value[i:]
	}
	return value, ""
}

func (m *Model) refreshCandidates() {
	head, rest := m.head()
	m.selected = -1
	if rest != "" {
		m.candidates = nil
		return
	}
	all := m.backend.Registry().Completer().Candidates(head)
	if len(all) > m.maxCandidates {
		all = all[:m.maxCandidates]
	}
	m.candidates = all
}

// complete accepts the selected candidate, or extends the head to the
// longest common prefix of all candidates.
func (m *Model) complete() {
	head, rest := m.head()
	if rest != "" {
		return
	}
	completed := m.backend.Registry().Completer().Complete(head)
	if m.selected >= 0 && m.selected < len(m.candidates) {
		completed = m.candidates[m.selected]
	}
	m.input.SetValue(completed)
	m.input.CursorEnd()
	m.refreshCandidates()
}

func (m *Model) moveSelection(delta int) {
	if len(m.candidates) == 0 {
		m.selected = -1
		return
	}
	m.selected += delta
	if m.selected < 0 {
		m.selected = len(m.candidates) - 1
	} else if m.selected >= len(m.candidates) {
		m.selected = 0
	}
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if m.selected >= 0 && m.selected < len(m.candidates) {
		_, rest := m.head()
		input = strings.TrimSpace(m.candidates[m.selected] + rest)
	}
	if input == "" {
		return m, nil
	}

	id, err := m.backend.Submit(input)
	if err != nil {
		m.status, m.statusErr = err.Error(), true
		return m, nil
	}
	m.pending = append(m.pending, pendingTask{id: id, input: input})
	m.status, m.statusErr = "Running "+input+"...", false
	m.input.SetValue("")
	m.refreshCandidates()
	return m, nil
}

// cancelLatest cancels the most recent unfinished task. Its notification
// still arrives and sets the final status.
func (m Model) cancelLatest() Model {
	last := m.pending[len(m.pending)-1]
	m.pending = m.pending[:len(m.pending)-1]
	if m.backend.Cancel(last.id) {
		m.status, m.statusErr = "Canceling "+last.input+"...", false
	}
	return m
}

func (m Model) handleNotification(n tasks.TaskNotification) (tea.Model, tea.Cmd) {
	m.pending = slices.DeleteFunc(slices.Clone(m.pending), func(p pendingTask) bool { return p.id == n.TaskID })
	next := waitForNotification(m.backend.Notifications())

	switch {
	case commands.IsExit(n.Err):
		m.quitting = true
		return m, tea.Quit
	case errors.Is(n.Err, context.Canceled):
		m.status, m.statusErr = "Canceled "+n.Input, true
	case n.Err != nil:
		m.status, m.statusErr = FormatError(n.Err), true
	default:
		m.status, m.statusErr = n.Message, false
	}
	// Reload may have changed the word list
	m.refreshCandidates()
	return m, next
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the launcher box.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Prompt.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.input.View())

	if len(m.candidates) > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderCandidates())
	}

	box := m.theme.Box.Width(max(20, m.width-2)).Render(b.String())

	var footer string
	if m.status != "" {
		style := m.theme.Status
		if m.statusErr {
			style = m.theme.StatusError
		}
		footer = style.Render(runewidth.Truncate(m.status, max(10, m.width-2), "..."))
	} else {
		footer = m.theme.Help.Render("tab complete  ↑/↓ select  enter run  esc clear/cancel/quit")
	}
	return box + "\n" + footer + "\n"
}

func (m Model) renderCandidates() string {
	reg := m.backend.Registry()

	nameWidth := 0
	for _, c := range m.candidates {
		nameWidth = max(nameWidth, runewidth.StringWidth(c))
	}

	descWidth := max(0, m.width-nameWidth-10)
	lines := make([]string, 0, len(m.candidates))
	for i, name := range m.candidates {
		line := runewidth.FillRight(name, nameWidth)
		if cmd, ok := reg.Get(name); ok && cmd.Description != "" && descWidth > 3 {
			line += "  " + m.theme.Description.Render(runewidth.Truncate(cmd.Description, descWidth, "..."))
		}
		if i == m.selected {
			lines = append(lines, m.theme.CandidateSelected.Render(line))
		} else {
			lines = append(lines, m.theme.Candidate.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// PROGRAM
// =============================================================================

// Run shows the launcher box until the user quits or ctx is done.
func Run(ctx context.Context, backend Backend, opts Options) error {
	program := tea.NewProgram(NewModel(backend, opts), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
