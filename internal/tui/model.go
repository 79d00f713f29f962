// Lexicographus - Document Relatedness Analysis and Content Routing
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lexicographus

// Package tui is the interactive action menu.
//
// The menu lists the pipeline actions in their canonical order; enter
// runs the selected action on the same runner methods the CLI flags
// dispatch to. Action logging is redirected into an in-memory buffer
// rendered by the viewport, so the terminal stays owned by the UI while
// an action runs.
package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Actions is the TUI-facing subset of the pipeline runner.
type Actions interface {
	ExtractText(ctx context.Context) error
	GenerateTokenFrequencies(ctx context.Context) error
	ComputeRelationalDistance(ctx context.Context) error
	UpdateDatabaseInformation(ctx context.Context) error
	ComputeTFIDF(ctx context.Context) error
	MapItemMatrix(ctx context.Context) error
	ProcessPrompt(ctx context.Context, topN int) error
	CreateRoutes(ctx context.Context, startTitle string) error
}

type menuItem struct {
	name string
	hint string
}

// menuItems lists the actions in canonical pipeline order.
var menuItems = []menuItem{
	{name: "Extract text", hint: "chunk source PDFs into the store"},
	{name: "Generate token frequencies", hint: "stem stored chunks into token maps"},
	{name: "Compute relational distance", hint: "ingest token maps as fingerprints"},
	{name: "Update database information", hint: "refresh the document catalog"},
	{name: "Compute TF-IDF", hint: "weight terms across the corpus"},
	{name: "Map item matrix", hint: "build the pairwise similarity matrix"},
	{name: "Process prompt", hint: "score the query buffer, top N applies"},
	{name: "Create routes", hint: "walk reading routes over the matrix"},
}

// promptIndex is the menu position of the prompt scorer, the one action
// that consumes the top-N input.
const promptIndex = 6

type (
	// actionDoneMsg reports a finished action back to the update loop.
	actionDoneMsg struct {
		name string
		err  error
	}

	// tickMsg refreshes the log viewport while an action runs.
	tickMsg time.Time
)

// logBuffer collects action log output for the viewport. Actions run
// off the update loop, so writes and reads race without the lock.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *logBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *logBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Model is the Bubble Tea model for the action menu.
type Model struct {
	actions  Actions
	logs     *logBuffer
	input    textinput.Model
	viewport viewport.Model
	cursor   int
	running  bool
	failed   bool
	status   string
	ready    bool
}

var _ tea.Model = Model{}

// New creates the menu model over the given action set.
func New(actions Actions) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "top N"
	ti.CharLimit = 6
	ti.Width = 10

	return Model{
		actions:  actions,
		logs:     &logBuffer{},
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "ready",
	}
}

// LogWriter is the sink action logging should be redirected into while
// the menu owns the terminal.
func (m Model) LogWriter() io.Writer {
	return m.logs
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, size, and action completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, frameHeight := logBoxStyle.GetFrameSize()
		// title block + menu + hint + input + status + help
		reserved := 3 + len(menuItems) + 1 + 2 + 2 + frameHeight
		height := msg.Height - reserved
		if height < 3 {
			height = 3
		}
		m.viewport.Width = maxInt(20, msg.Width-4)
		m.viewport.Height = height
		m.viewport.SetContent(m.logs.String())
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch msg.String() {
		case "q":
			if !m.input.Focused() {
				return m, tea.Quit
			}
		case "up":
			m.moveCursor(-1)
			return m, nil
		case "down":
			m.moveCursor(1)
			return m, nil
		case "enter":
			return m.startAction()
		}

	case actionDoneMsg:
		m.running = false
		m.failed = msg.err != nil
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.name, msg.err)
		} else {
			m.status = msg.name + " finished"
		}
		m.refreshLogs()
		return m, nil

	case tickMsg:
		if !m.running {
			return m, nil
		}
		m.refreshLogs()
		return m, tick()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	m.cursor = (m.cursor + delta + len(menuItems)) % len(menuItems)
	if m.cursor == promptIndex {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m Model) startAction() (tea.Model, tea.Cmd) {
	if m.running {
		m.status = "an action is already running"
		return m, nil
	}

	topN := 0
	if raw := strings.TrimSpace(m.input.Value()); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			m.failed = true
			m.status = "top N must be a positive number"
			return m, nil
		}
		topN = n
	}

	m.running = true
	m.failed = false
	m.status = "running " + menuItems[m.cursor].name
	return m, tea.Batch(m.runAction(m.cursor, topN), tick())
}

// runAction executes the selected action off the update loop and
// reports completion as a message.
func (m Model) runAction(index, topN int) tea.Cmd {
	run := m.dispatch(index, topN)
	name := menuItems[index].name
	return func() tea.Msg {
		return actionDoneMsg{name: name, err: run(context.Background())}
	}
}

func (m Model) dispatch(index, topN int) func(context.Context) error {
	switch index {
	case 0:
		return m.actions.ExtractText
	case 1:
		return m.actions.GenerateTokenFrequencies
	case 2:
		return m.actions.ComputeRelationalDistance
	case 3:
		return m.actions.UpdateDatabaseInformation
	case 4:
		return m.actions.ComputeTFIDF
	case 5:
		return m.actions.MapItemMatrix
	case promptIndex:
		return func(ctx context.Context) error { return m.actions.ProcessPrompt(ctx, topN) }
	default:
		return func(ctx context.Context) error { return m.actions.CreateRoutes(ctx, "") }
	}
}

func (m *Model) refreshLogs() {
	m.viewport.SetContent(m.logs.String())
	m.viewport.GotoBottom()
}

// View renders the menu, the top-N input, the log viewport, and the
// status and help lines.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Lexicographus"))
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render("document relatedness analysis"))
	b.WriteString("\n\n")

	for i, item := range menuItems {
		if i == m.cursor {
			b.WriteString("> " + selectedStyle.Render(item.name))
		} else {
			b.WriteString("  " + item.name)
		}
		b.WriteByte('\n')
	}
	b.WriteString(dimStyle.Render(menuItems[m.cursor].hint))
	b.WriteString("\n\n")

	b.WriteString("Top N: " + m.input.View())
	b.WriteByte('\n')
	b.WriteString(logBoxStyle.Render(m.viewport.View()))
	b.WriteByte('\n')

	style := statusStyle
	if m.failed {
		style = errorStyle
	}
	b.WriteString(style.Render(m.status))
	b.WriteByte('\n')
	b.WriteString(dimStyle.Render("up/down move · enter run · q quit"))
	return b.String()
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	logBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func tick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
