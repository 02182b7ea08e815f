package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/langgraph"
)

// historyLimit is how many threads the history overlay lists
const historyLimit = 50

type threadLoadedMsg struct {
	gen    int
	loaded chat.StateLoaded
	err    error
}

type threadsListedMsg struct {
	threads []langgraph.Thread
	err     error
}

// runEventMsg carries an event of the run started in generation gen. ch is the run's event channel,
// re-armed after every message until the run closes it.
type runEventMsg struct {
	gen   int
	event chat.Event
	ch    <-chan tea.Msg
}

type cancelDoneMsg struct {
	err error
}

func (m Model) loadThreadCmd(threadID string) tea.Cmd {
	ctx, runner, gen := m.ctx, m.runner, m.gen
	return func() tea.Msg {
		loaded, err := runner.LoadThread(ctx, threadID)
		return threadLoadedMsg{gen: gen, loaded: loaded, err: err}
	}
}

func (m Model) listThreadsCmd() tea.Cmd {
	ctx, runner := m.ctx, m.runner
	return func() tea.Msg {
		threads, err := runner.ListThreads(ctx, historyLimit)
		return threadsListedMsg{threads: threads, err: err}
	}
}

func (m Model) cancelCmd(threadID string, runID string) tea.Cmd {
	ctx, runner := m.ctx, m.runner
	return func() tea.Msg {
		return cancelDoneMsg{err: runner.Cancel(ctx, threadID, runID)}
	}
}

// startRun runs start in its own goroutine and returns the command that listens for its events. The
// run's context is cancelled by cancelRun, on thread switches, and on quit.
func (m *Model) startRun(start func(ctx context.Context, emit func(chat.Event)) error) tea.Cmd {
	m.stopRun()
	ctx, cancel := context.WithCancel(m.ctx)
	ch := make(chan tea.Msg, 64)
	gen := m.gen
	m.cancelRun = cancel
	m.runCh = ch

	go func() {
		defer close(ch)
		defer cancel()
		_ = start(ctx, func(ev chat.Event) {
			ch <- runEventMsg{gen: gen, event: ev, ch: ch}
		})
	}()
	return waitRunEvent(ch)
}

func (m *Model) stopRun() {
	if m.cancelRun != nil {
		m.cancelRun()
		m.cancelRun = nil
	}
}

func waitRunEvent(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
