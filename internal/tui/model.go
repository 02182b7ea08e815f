// Package tui is the terminal interface of agent-chat: a chat pane, the artifact table, the thread
// history, and a dialog for interrupts.
package tui

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/table"
)

type focus int

const (
	focusInput focus = iota
	focusTable
	focusHistory
	focusInterrupt
)

// Options configures the interface
type Options struct {
	Runner *chat.Runner
	// Store persists the view state under Profile. It may be nil.
	Store   chat.ViewStateStore
	Profile string
	// ThreadID opens a thread at startup, overriding the persisted one
	ThreadID string
	// LockAfterFirst refuses input once the conversation has a message
	LockAfterFirst bool
	// Context is sent along with every submission
	Context map[string]any
}

// Model is the bubbletea model of the interface
type Model struct {
	ctx    context.Context
	runner *chat.Runner
	store  chat.ViewStateStore
	opts   Options

	state    chat.State
	view     chat.ViewState
	notifier chat.ErrorNotifier
	status   string
	isError  bool

	// gen increases on every thread switch; results of older generations are dropped
	gen       int
	cancelRun context.CancelFunc
	runCh     <-chan tea.Msg

	tableView *table.View
	tableSort *table.Sort

	threads       []langgraph.Thread
	historyCursor int

	focus              focus
	interruptDismissed bool
	newBelow           bool

	width  int
	height int

	input    textinput.Model
	feedback textinput.Model
	chat     viewport.Model
	grid     btable.Model
	spinner  spinner.Model

	theme theme
}

// New creates the model. ctx bounds every request the interface makes.
func New(ctx context.Context, opts Options) Model {
	input := textinput.New()
	input.Prompt = "❯ "
	input.Placeholder = "Type your message..."
	input.CharLimit = 8000
	input.Focus()

	feedback := textinput.New()
	feedback.Prompt = "feedback ❯ "
	feedback.Placeholder = "Tell the agent what to change"

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	grid := btable.New(btable.WithFocused(false))

	m := Model{
		ctx:      ctx,
		runner:   opts.Runner,
		store:    opts.Store,
		opts:     opts,
		input:    input,
		feedback: feedback,
		chat:     viewport.New(0, 0),
		grid:     grid,
		spinner:  sp,
		theme:    newTheme(),
		status:   "ready",
	}
	m.chat.MouseWheelEnabled = true

	if m.store != nil {
		saved, err := m.store.Get(opts.Profile)
		if err != nil {
			zap.S().Warnf("Failed to read view state: %v", err)
		} else if saved != nil {
			m.view = *saved
		}
	}
	if opts.ThreadID != "" {
		m.view.ThreadID = opts.ThreadID
	}
	m.state.Apply(chat.ThreadSelected{ThreadID: m.view.ThreadID})
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick}
	if m.state.ThreadID != "" {
		cmds = append(cmds, m.loadThreadCmd(m.state.ThreadID))
	}
	if m.view.HistoryOpen {
		cmds = append(cmds, m.listThreadsCmd())
	}
	return tea.Batch(cmds...)
}

// State returns the conversation state the interface shows
func (m Model) State() chat.State {
	return m.state
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.refresh()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
		if m.state.AwaitingFirstToken() {
			m.refresh()
		}
	case threadLoadedMsg:
		if msg.gen != m.gen {
			break
		}
		if msg.err != nil {
			m.reportError(msg.err)
			break
		}
		m.state.Apply(msg.loaded)
		m.onStateChanged()
	case threadsListedMsg:
		if msg.err != nil {
			m.reportError(msg.err)
			break
		}
		m.threads = msg.threads
		m.historyCursor = min(m.historyCursor, max(0, len(m.threads)-1))
	case runEventMsg:
		cmds = append(cmds, waitRunEvent(msg.ch))
		if msg.gen != m.gen {
			break
		}
		cmds = append(cmds, m.applyRunEvent(msg.event))
	case cancelDoneMsg:
		if msg.err != nil {
			m.reportError(msg.err)
		} else {
			m.setStatus("run cancelled")
		}
	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)
		if m.chat.AtBottom() {
			m.newBelow = false
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) applyRunEvent(ev chat.Event) tea.Cmd {
	m.state.Apply(ev)
	var cmd tea.Cmd
	switch ev := ev.(type) {
	case chat.ThreadCreated:
		m.view.ThreadID = ev.ThreadID
		m.saveView()
	case chat.RunFinished:
		m.cancelRun = nil
		if ev.Err != nil {
			m.reportError(ev.Err)
		} else {
			m.notifier.Notify(nil)
			m.setStatus("ready")
			// The stored state carries the parent checkpoint and any task interrupts
			cmd = m.loadThreadCmd(m.state.ThreadID)
			if m.view.HistoryOpen {
				cmd = tea.Batch(cmd, m.listThreadsCmd())
			}
		}
	}
	m.onStateChanged()
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		m.stopRun()
		return tea.Quit
	case "ctrl+h":
		return m.toggleHistory()
	case "ctrl+t":
		m.view.HideToolCalls = !m.view.HideToolCalls
		m.saveView()
		m.refresh()
		return nil
	case "ctrl+n":
		return m.selectThread("")
	case "ctrl+r":
		return m.regenerate()
	case "ctrl+x":
		return m.cancel()
	}

	switch m.focus {
	case focusHistory:
		return m.handleHistoryKey(msg)
	case focusInterrupt:
		return m.handleInterruptKey(msg)
	case focusTable:
		return m.handleTableKey(msg)
	default:
		return m.handleInputKey(msg)
	}
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab":
		if m.tableView != nil && !m.tableView.Empty() {
			m.setFocus(focusTable)
		}
		return nil
	case "esc":
		if m.interruptPending() && m.interruptDismissed {
			m.interruptDismissed = false
			m.setFocus(focusInterrupt)
			m.refresh()
		}
		return nil
	case "enter":
		return m.submit()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat, cmd = m.chat.Update(msg)
		if m.chat.AtBottom() {
			m.newBelow = false
		}
		return cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleTableKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	switch key {
	case "tab", "esc":
		m.setFocus(focusInput)
		return nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		i, _ := strconv.Atoi(key)
		m.sortColumn(i - 1)
		return nil
	}
	var cmd tea.Cmd
	m.grid, cmd = m.grid.Update(msg)
	return cmd
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		return m.toggleHistory()
	case "up", "k":
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case "down", "j":
		if m.historyCursor < len(m.threads)-1 {
			m.historyCursor++
		}
	case "enter":
		if len(m.threads) == 0 {
			return nil
		}
		m.setFocus(focusInput)
		return m.selectThread(m.threads[m.historyCursor].ThreadID)
	}
	return nil
}

func (m *Model) handleInterruptKey(msg tea.KeyMsg) tea.Cmd {
	if m.feedback.Focused() {
		switch msg.String() {
		case "esc":
			m.feedback.Blur()
			m.feedback.Reset()
			return nil
		case "enter":
			value, err := chat.FeedbackResume(m.feedback.Value())
			if err != nil {
				return nil
			}
			m.feedback.Blur()
			m.feedback.Reset()
			return m.resume(value)
		}
		var cmd tea.Cmd
		m.feedback, cmd = m.feedback.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "a":
		return m.resume(chat.ApproveResume())
	case "f":
		return m.feedback.Focus()
	case "esc":
		m.interruptDismissed = true
		m.setFocus(focusInput)
		m.refresh()
	}
	return nil
}

func (m *Model) submit() tea.Cmd {
	if m.state.InputLocked(m.opts.LockAfterFirst) {
		return nil
	}
	sub, err := chat.BuildSubmission(m.state.Messages(), m.input.Value(), m.opts.Context, nil)
	if err != nil {
		return nil
	}
	m.input.Reset()
	m.state.Apply(chat.SubmitStarted{Optimistic: sub.Optimistic, Context: sub.Input.Context})
	m.setStatus("sending...")
	m.chat.GotoBottom()
	m.onStateChanged()

	threadID, runner := m.state.ThreadID, m.runner
	return m.startRun(func(ctx context.Context, emit func(chat.Event)) error {
		return runner.Submit(ctx, threadID, sub, emit)
	})
}

func (m *Model) resume(value map[string]any) tea.Cmd {
	if m.state.Interrupt == nil || m.state.Loading {
		return nil
	}
	m.state.Apply(chat.ResumeStarted{})
	m.setFocus(focusInput)
	m.setStatus("resuming...")
	m.onStateChanged()

	threadID, runner := m.state.ThreadID, m.runner
	return m.startRun(func(ctx context.Context, emit func(chat.Event)) error {
		return runner.Resume(ctx, threadID, value, emit)
	})
}

func (m *Model) regenerate() tea.Cmd {
	if m.state.Loading || m.state.ThreadID == "" || m.state.ParentCheckpoint == nil {
		return nil
	}
	m.state.Apply(chat.Regenerating{})
	m.setStatus("regenerating...")
	m.onStateChanged()

	threadID, checkpoint, runner := m.state.ThreadID, m.state.ParentCheckpoint, m.runner
	return m.startRun(func(ctx context.Context, emit func(chat.Event)) error {
		return runner.Regenerate(ctx, threadID, checkpoint, emit)
	})
}

func (m *Model) cancel() tea.Cmd {
	if !m.state.Loading {
		return nil
	}
	threadID, runID := m.state.ThreadID, m.state.RunID
	m.stopRun()
	m.setStatus("cancelling...")
	if runID == "" {
		return nil
	}
	return m.cancelCmd(threadID, runID)
}

// selectThread switches to threadID, or to a new thread when it is empty
func (m *Model) selectThread(threadID string) tea.Cmd {
	m.stopRun()
	m.gen++
	m.state.Apply(chat.ThreadSelected{ThreadID: threadID})
	m.notifier.Notify(nil)
	m.tableSort = nil
	m.interruptDismissed = false
	m.view.ThreadID = threadID
	m.saveView()
	m.input.Reset()
	if m.focus != focusHistory {
		m.setFocus(focusInput)
	}
	m.onStateChanged()
	if threadID == "" {
		m.setStatus("new thread")
		return nil
	}
	m.setStatus("loading thread...")
	return m.loadThreadCmd(threadID)
}

func (m *Model) toggleHistory() tea.Cmd {
	if m.view.HistoryOpen && m.focus != focusHistory {
		m.setFocus(focusHistory)
		return m.listThreadsCmd()
	}
	m.view.HistoryOpen = !m.view.HistoryOpen
	m.saveView()
	if !m.view.HistoryOpen {
		m.setFocus(focusInput)
		return nil
	}
	m.setFocus(focusHistory)
	return m.listThreadsCmd()
}

func (m *Model) sortColumn(i int) {
	if m.tableView == nil || i >= len(m.tableView.Columns()) {
		return
	}
	m.tableView.RequestSort(m.tableView.Columns()[i])
	m.tableSort = m.tableView.CurrentSort()
	m.refreshTable()
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	m.input.Blur()
	m.grid.Blur()
	switch f {
	case focusInput:
		m.input.Focus()
	case focusTable:
		m.grid.Focus()
	case focusInterrupt:
		m.feedback.Blur()
	}
}

func (m *Model) interruptPending() bool {
	return m.state.Interrupt != nil && !m.state.Loading
}

// onStateChanged brings derived views up to date after the conversation state changed
func (m *Model) onStateChanged() {
	if m.interruptPending() && !m.interruptDismissed && m.focus != focusHistory && m.focus != focusInterrupt {
		m.setFocus(focusInterrupt)
	} else if !m.interruptPending() && m.focus == focusInterrupt {
		m.setFocus(focusInput)
	}
	if !m.interruptPending() {
		m.interruptDismissed = false
	}

	view, err := m.state.Table()
	if err != nil {
		zap.S().Warnf("Ignoring malformed table: %v", err)
		view = nil
	}
	if view != nil {
		view.SetSort(m.tableSort)
	}
	m.tableView = view
	if m.focus == focusTable && (view == nil || view.Empty()) {
		m.setFocus(focusInput)
	}
	m.refresh()
}

func (m *Model) reportError(err error) {
	if msg, ok := m.notifier.Notify(err); ok {
		m.status = msg
		m.isError = true
	}
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.isError = false
}

func (m *Model) saveView() {
	if m.store == nil {
		return
	}
	if err := m.store.Set(m.opts.Profile, m.view); err != nil {
		zap.S().Warnf("Failed to save view state: %v", err)
	}
}
