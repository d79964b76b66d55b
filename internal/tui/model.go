// Package tui hosts the banking session controller in a two-panel terminal
// screen.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cleared-dev/bankdesk/internal/importer"
	"github.com/cleared-dev/bankdesk/internal/session"
	"github.com/cleared-dev/bankdesk/internal/view"
)

// Alerts collects notifier messages raised while a request runs. It
// implements session.Notifier.
type Alerts struct {
	mu   sync.Mutex
	msgs []string
}

// NewAlerts returns an empty queue.
func NewAlerts() *Alerts {
	return &Alerts{}
}

// Alert queues message.
func (a *Alerts) Alert(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, message)
}

func (a *Alerts) drain() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.msgs
	a.msgs = nil
	return out
}

type focus int

const (
	focusAccounts focus = iota
	focusRows
)

const (
	fieldDate = iota
	fieldBalance
	fieldNotes
	numFields
)

// opDoneMsg reports that a controller call finished.
type opDoneMsg struct {
	op  string
	err error
}

// Model is the Bubble Tea model of the banking screen.
type Model struct {
	ctx    context.Context
	ctl    *session.Controller
	alerts *Alerts
	logger *slog.Logger
	r      *view.Renderer
	keys   keyMap
	help   help.Model

	width, height int

	focus         focus
	accountCursor int
	rowCursor     int

	fileInput textinput.Model
	recInputs [numFields]textinput.Model
	recField  int

	alert   string
	pending []string
}

// New returns a screen driving ctl. alerts must be the notifier ctl was built with.
func New(ctx context.Context, ctl *session.Controller, alerts *Alerts, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := Model{
		ctx:       ctx,
		ctl:       ctl,
		alerts:    alerts,
		logger:    logger,
		r:         view.New(),
		keys:      defaultKeyMap(),
		help:      help.New(),
		fileInput: newInput("path/to/statement.csv"),
	}
	m.recInputs[fieldDate] = newInput("YYYY-MM-DD")
	m.recInputs[fieldBalance] = newInput("0.00")
	m.recInputs[fieldNotes] = newInput("Optional reconciliation notes...")
	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.CharLimit = 512
	_ = ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

// Run starts the screen in the alternate buffer and blocks until it quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running terminal screen: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// run executes a controller call off the UI goroutine.
func (m Model) run(op string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: op, err: fn(ctx)}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case opDoneMsg:
		if msg.err != nil {
			m.logger.Debug("screen action failed", slog.String("op", msg.op), slog.String("error", msg.err.Error()))
		}
		m.collectAlerts()
		m.clampCursors()
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) collectAlerts() {
	m.pending = append(m.pending, m.alerts.drain()...)
	if m.alert == "" && len(m.pending) > 0 {
		m.alert, m.pending = m.pending[0], m.pending[1:]
	}
}

func (m *Model) clampCursors() {
	st := m.ctl.State()
	if m.accountCursor >= len(st.Accounts) {
		m.accountCursor = max(len(st.Accounts)-1, 0)
	}
	if n := m.rowCount(st); m.rowCursor >= n {
		m.rowCursor = max(n-1, 0)
	}
}

func (m Model) rowCount(st session.State) int {
	switch st.Tab {
	case session.TabFeeds:
		return len(st.BankTransactions)
	case session.TabReconcile:
		return len(st.Reconciliations)
	default:
		return 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.alert != "" {
		m.alert = ""
		if len(m.pending) > 0 {
			m.alert, m.pending = m.pending[0], m.pending[1:]
		}
		return m, nil
	}

	st := m.ctl.State()
	switch {
	case st.ImportOpen:
		return m.handleImportKey(msg, st)
	case st.ReconcileOpen:
		return m.handleReconcileKey(msg, st)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.NextTab):
		m.switchTab(st.Tab, 1)
		return m, nil
	case key.Matches(msg, m.keys.PrevTab):
		m.switchTab(st.Tab, -1)
		return m, nil
	case key.Matches(msg, m.keys.Tab1, m.keys.Tab2, m.keys.Tab3, m.keys.Tab4):
		idx := int(msg.Runes[0] - '1')
		m.setTab(session.Tabs[idx])
		return m, nil
	case key.Matches(msg, m.keys.Left):
		m.focus = focusAccounts
		return m, nil
	case key.Matches(msg, m.keys.Right):
		if st.SelectedAccount != nil {
			m.focus = focusRows
		}
		return m, nil
	case key.Matches(msg, m.keys.Import):
		if err := m.ctl.OpenImport(); err != nil {
			return m, nil
		}
		m.fileInput.Reset()
		cmd := m.fileInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Start):
		if err := m.ctl.OpenReconcile(); err != nil {
			return m, nil
		}
		for i := range m.recInputs {
			m.recInputs[i].Reset()
			m.recInputs[i].Blur()
		}
		m.recField = fieldDate
		cmd := m.recInputs[fieldDate].Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Complete):
		if !st.HasActiveReconciliation() {
			return m, nil
		}
		return m, m.run("complete", m.ctl.CompleteReconciliation)
	}

	if m.focus == focusAccounts {
		return m.handleAccountKey(msg, st)
	}
	return m.handleRowKey(msg, st)
}

func (m *Model) switchTab(current session.Tab, delta int) {
	idx := 0
	for i, t := range session.Tabs {
		if t == current {
			idx = i
		}
	}
	n := len(session.Tabs)
	m.setTab(session.Tabs[(idx+delta+n)%n])
}

func (m *Model) setTab(t session.Tab) {
	if err := m.ctl.SetTab(t); err == nil {
		m.rowCursor = 0
	}
}

func (m Model) handleAccountKey(msg tea.KeyMsg, st session.State) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.accountCursor > 0 {
			m.accountCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.accountCursor < len(st.Accounts)-1 {
			m.accountCursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.accountCursor >= len(st.Accounts) {
			return m, nil
		}
		id := st.Accounts[m.accountCursor].ID
		m.rowCursor = 0
		return m, m.run("select", func(ctx context.Context) error {
			return m.ctl.SelectAccount(ctx, id)
		})
	}
	return m, nil
}

func (m Model) handleRowKey(msg tea.KeyMsg, st session.State) (tea.Model, tea.Cmd) {
	n := m.rowCount(st)
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.rowCursor > 0 {
			m.rowCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.rowCursor < n-1 {
			m.rowCursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if st.Tab != session.TabFeeds || !st.HasActiveReconciliation() || m.rowCursor >= n {
			return m, nil
		}
		row := st.BankTransactions[m.rowCursor]
		return m, m.run("toggle", func(ctx context.Context) error {
			return m.ctl.ToggleReconciled(ctx, row.ID, !row.Reconciled)
		})
	case key.Matches(msg, m.keys.Select):
		if st.Tab != session.TabReconcile || m.rowCursor >= n {
			return m, nil
		}
		if err := m.ctl.ResumeReconciliation(st.Reconciliations[m.rowCursor].ID); err == nil {
			m.rowCursor = 0
		}
	}
	return m, nil
}

func (m Model) handleImportKey(msg tea.KeyMsg, st session.State) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		m.ctl.CloseImport()
		m.fileInput.Blur()
		return m, nil
	}

	if st.Preview != nil {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.run("confirm", m.ctl.ConfirmImport)
		case key.Matches(msg, m.keys.Back):
			m.ctl.BackToFile()
			m.fileInput.Reset()
			cmd := m.fileInput.Focus()
			return m, cmd
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.Select) {
		path := strings.TrimSpace(m.fileInput.Value())
		if path == "" {
			return m, nil
		}
		stmt, err := importer.StatementFromPath(path)
		if err != nil {
			m.alert = "Error importing file: " + err.Error()
			return m, nil
		}
		m.ctl.ChooseFile(stmt)
		return m, m.run("preview", m.ctl.PreviewImport)
	}

	var cmd tea.Cmd
	m.fileInput, cmd = m.fileInput.Update(msg)
	return m, cmd
}

func (m Model) handleReconcileKey(msg tea.KeyMsg, st session.State) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.ctl.CloseReconcile()
		m.recInputs[m.recField].Blur()
		return m, nil
	case key.Matches(msg, m.keys.NextTab):
		cmd := m.focusField((m.recField + 1) % numFields)
		return m, cmd
	case key.Matches(msg, m.keys.PrevTab):
		cmd := m.focusField((m.recField + numFields - 1) % numFields)
		return m, cmd
	case key.Matches(msg, m.keys.Select):
		if m.recField < fieldNotes {
			cmd := m.focusField(m.recField + 1)
			return m, cmd
		}
		if st.Loading {
			return m, nil
		}
		form := session.ReconcileForm{
			StatementDate: m.recInputs[fieldDate].Value(),
			EndingBalance: m.recInputs[fieldBalance].Value(),
			Notes:         m.recInputs[fieldNotes].Value(),
		}
		return m, m.run("start", func(ctx context.Context) error {
			_, err := m.ctl.StartReconciliation(ctx, form)
			return err
		})
	}

	var cmd tea.Cmd
	m.recInputs[m.recField], cmd = m.recInputs[m.recField].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.recInputs[m.recField].Blur()
	m.recField = i
	return m.recInputs[i].Focus()
}

// View implements tea.Model.
func (m Model) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 120
	}
	if height == 0 {
		height = 40
	}
	st := m.ctl.State()
	s := m.r.Styles()

	switch {
	case m.alert != "":
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, m.r.Alert(m.alert))
	case st.ImportOpen:
		modal := m.r.ImportModal(st, m.fileInput.View(), min(width-10, 90))
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
	case st.ReconcileOpen:
		modal := m.r.ReconcileModal(m.recInputs[fieldDate].View(), m.recInputs[fieldBalance].View(), m.recInputs[fieldNotes].View(), st.Loading)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
	}

	leftWidth := max(width/3, 30)
	rightWidth := max(width-leftWidth-4, 40)

	accountCursor, rowCursor := -1, -1
	leftPanel, rightPanel := s.Panel, s.Panel
	if m.focus == focusAccounts {
		accountCursor = m.accountCursor
		leftPanel = s.FocusPanel
	} else {
		rowCursor = m.rowCursor
		rightPanel = s.FocusPanel
	}

	left := leftPanel.Width(leftWidth).Render(
		s.PanelTitle.Render(view.LeftTitle(st)) + "\n\n" + m.r.AccountList(st, accountCursor, leftWidth-4),
	)
	right := rightPanel.Width(rightWidth).Render(
		s.PanelTitle.Render(view.RightTitle(st)) + "\n\n" + m.r.RightPanel(st, rowCursor, rightWidth-4),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.help.View(m.keys),
	)
}
