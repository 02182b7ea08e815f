package tui

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/message"
	"github.com/cchalm/agent-chat/internal/table"
)

type fakeBackend struct {
	events []langgraph.Event
	runs   []langgraph.RunRequest
}

func (f *fakeBackend) CreateThread(ctx context.Context, metadata map[string]any) (*langgraph.Thread, error) {
	return &langgraph.Thread{ThreadID: "t-new"}, nil
}

func (f *fakeBackend) GetState(ctx context.Context, threadID string) (*langgraph.ThreadState, error) {
	return &langgraph.ThreadState{}, nil
}

func (f *fakeBackend) SearchThreads(ctx context.Context, params langgraph.SearchParams) ([]langgraph.Thread, error) {
	return nil, nil
}

func (f *fakeBackend) Run(ctx context.Context, threadID string, req langgraph.RunRequest, handle func(langgraph.Event) error) error {
	f.runs = append(f.runs, req)
	for _, ev := range f.events {
		if err := handle(ev); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) CancelRun(ctx context.Context, threadID string, runID string) error {
	return nil
}

func (f *fakeBackend) AssistantMetadata() map[string]any {
	return nil
}

func newTestModel(t *testing.T, backend *fakeBackend, opts Options) Model {
	opts.Runner = chat.NewRunner(backend)
	m := New(context.Background(), opts)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return updated.(Model)
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func typeText(text string) tea.Msg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

// drainRun feeds every event of the current run back into the model
func drainRun(t *testing.T, m Model) Model {
	t.Helper()
	require.NotNil(t, m.runCh)
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-m.runCh:
			if !ok {
				return m
			}
			m = update(t, m, msg)
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

func valuesEvent(t *testing.T, values map[string]any) langgraph.Event {
	b, err := json.Marshal(values)
	require.NoError(t, err)
	return langgraph.Event{Kind: langgraph.EventValues, Data: b}
}

func TestSubmit(t *testing.T) {
	backend := &fakeBackend{events: []langgraph.Event{
		{Kind: langgraph.EventMetadata, Data: json.RawMessage(`{"run_id": "r-1"}`)},
	}}
	backend.events = append(backend.events, valuesEvent(t, map[string]any{"messages": []message.Message{
		message.NewText("h1", message.TypeHuman, "hello"),
		message.NewText("a1", message.TypeAI, "hi there"),
	}}))
	m := newTestModel(t, backend, Options{})

	m = update(t, m, typeText("hello"), tea.KeyMsg{Type: tea.KeyEnter})

	state := m.State()
	assert.True(t, state.Loading)
	require.Len(t, state.Messages(), 1)
	assert.Equal(t, "hello", state.Messages()[0].Text())
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.chat.View(), "hello")

	m = drainRun(t, m)

	state = m.State()
	assert.False(t, state.Loading)
	assert.Equal(t, "t-new", state.ThreadID)
	assert.Equal(t, "t-new", m.view.ThreadID)
	require.Len(t, state.Messages(), 2)
	assert.Contains(t, m.chat.View(), "hi there")
	require.Len(t, backend.runs, 1)
	assert.Equal(t, "hello", backend.runs[0].Input.Messages[0].Text())
}

func TestSubmit_EmptyInputIsIgnored(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{})

	m = update(t, m, typeText("   "), tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.State().Loading)
	assert.Nil(t, m.runCh)
}

func TestSubmit_LockAfterFirst(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend, Options{LockAfterFirst: true})

	m = update(t, m, typeText("one"), tea.KeyMsg{Type: tea.KeyEnter})
	m = drainRun(t, m)
	m = update(t, m, typeText("two"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Len(t, backend.runs, 1)
	assert.Contains(t, m.View(), "accepts a single message")
}

func TestToggleHideToolCallsPersists(t *testing.T) {
	store := chat.NewFileSystemViewStateStore(t.TempDir())
	m := newTestModel(t, &fakeBackend{}, Options{Store: store, Profile: "work"})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	assert.True(t, m.view.HideToolCalls)
	saved, err := store.Get("work")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, saved.HideToolCalls)
}

func TestNewRestoresViewState(t *testing.T) {
	store := chat.NewFileSystemViewStateStore(t.TempDir())
	require.NoError(t, store.Set("default", chat.ViewState{ThreadID: "t-7", HistoryOpen: true}))

	m := New(context.Background(), Options{Runner: chat.NewRunner(&fakeBackend{}), Store: store, Profile: "default"})
	assert.Equal(t, "t-7", m.State().ThreadID)
	assert.True(t, m.view.HistoryOpen)

	m = New(context.Background(), Options{Runner: chat.NewRunner(&fakeBackend{}), Store: store, Profile: "default", ThreadID: "t-9"})
	assert.Equal(t, "t-9", m.State().ThreadID)
}

func TestNewThreadDropsStaleRunEvents(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{ThreadID: "t-1"})
	staleGen := m.gen

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Empty(t, m.State().ThreadID)

	m = update(t, m, runEventMsg{gen: staleGen, event: chat.ValuesReceived{Values: langgraph.Values{
		Messages: []message.Message{message.NewText("h1", message.TypeHuman, "old")},
	}}})
	state := m.State()
	assert.Empty(t, state.Messages())

	m = update(t, m, threadLoadedMsg{gen: staleGen, loaded: chat.StateLoaded{ThreadID: "t-1", State: &langgraph.ThreadState{}}})
	assert.Empty(t, m.State().ThreadID)
}

func TestInterruptApprove(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend, Options{ThreadID: "t-1"})

	m = update(t, m, threadLoadedMsg{gen: m.gen, loaded: chat.StateLoaded{
		ThreadID: "t-1",
		State: &langgraph.ThreadState{Tasks: []langgraph.Task{{
			Interrupts: []langgraph.Interrupt{{Value: map[string]any{"plan": []any{"step 1"}}}},
		}}},
	}})
	require.Equal(t, focusInterrupt, m.focus)
	assert.Contains(t, m.View(), "waiting for your input")
	assert.Contains(t, m.View(), "step 1")

	m = update(t, m, typeText("a"))
	assert.Nil(t, m.State().Interrupt)
	assert.Equal(t, focusInput, m.focus)
	m = drainRun(t, m)

	require.Len(t, backend.runs, 1)
	require.NotNil(t, backend.runs[0].Command)
	assert.Equal(t, map[string]any{"action": "approve"}, backend.runs[0].Command.Resume)
}

func TestInterruptFeedback(t *testing.T) {
	backend := &fakeBackend{}
	m := newTestModel(t, backend, Options{ThreadID: "t-1"})
	m = update(t, m, threadLoadedMsg{gen: m.gen, loaded: chat.StateLoaded{
		ThreadID: "t-1",
		State:    &langgraph.ThreadState{},
		Values:   langgraph.Values{Interrupts: []langgraph.Interrupt{{Value: "Proceed?"}}},
	}})
	require.Equal(t, focusInterrupt, m.focus)

	m = update(t, m, typeText("f"))
	require.True(t, m.feedback.Focused())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, backend.runs, "empty feedback is not sent")

	m = update(t, m, typeText("add a total row"), tea.KeyMsg{Type: tea.KeyEnter})
	m = drainRun(t, m)

	require.Len(t, backend.runs, 1)
	assert.Equal(t, map[string]any{"action": "feedback", "feedback": "add a total row"}, backend.runs[0].Command.Resume)
}

func TestInterruptDismissAndReopen(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{ThreadID: "t-1"})
	m = update(t, m, threadLoadedMsg{gen: m.gen, loaded: chat.StateLoaded{
		ThreadID: "t-1",
		State:    &langgraph.ThreadState{},
		Values:   langgraph.Values{Interrupts: []langgraph.Interrupt{{Value: "Proceed?"}}},
	}})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusInput, m.focus)
	assert.Contains(t, m.chat.View(), "waiting for your input")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusInterrupt, m.focus)
}

func TestTableSortSurvivesUpdates(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{ThreadID: "t-1"})
	raw := json.RawMessage(`{"finalTable": [{"name": "b", "n": 2}, {"name": "a", "n": 1}]}`)
	m = update(t, m, threadLoadedMsg{gen: m.gen, loaded: chat.StateLoaded{
		ThreadID: "t-1",
		State:    &langgraph.ThreadState{},
		Values:   langgraph.Values{Raw: raw},
	}})
	require.NotNil(t, m.tableView)
	assert.Equal(t, "b", m.grid.Rows()[0][0])

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusTable, m.focus)
	m = update(t, m, typeText("1"))

	assert.Equal(t, &table.Sort{Column: "name", Direction: table.Ascending}, m.tableView.CurrentSort())
	assert.Equal(t, "a", m.grid.Rows()[0][0])
	assert.Contains(t, m.grid.Columns()[0].Title, "↑")

	m = update(t, m, runEventMsg{gen: m.gen, event: chat.ValuesReceived{Values: langgraph.Values{
		Raw: json.RawMessage(`{"finalTable": [{"name": "d"}, {"name": "c"}]}`),
	}}})
	assert.Equal(t, "c", m.grid.Rows()[0][0])

	m = update(t, m, typeText("1"))
	assert.Equal(t, "d", m.grid.Rows()[0][0])
	m = update(t, m, typeText("1"))
	assert.Nil(t, m.tableView.CurrentSort())
}

func TestStickToBottom(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{ThreadID: "t-1"})
	var msgs []message.Message
	for i := 0; i < 60; i++ {
		msgs = append(msgs, message.NewText("", message.TypeHuman, "line"))
	}
	m = update(t, m, runEventMsg{gen: m.gen, event: chat.ValuesReceived{Values: langgraph.Values{Messages: msgs}}})
	assert.True(t, m.chat.AtBottom())

	m.chat.SetYOffset(0)
	offset := m.chat.YOffset
	m = update(t, m, runEventMsg{gen: m.gen, event: chat.ValuesReceived{Values: langgraph.Values{
		Messages: append(msgs, message.NewText("", message.TypeAI, "more")),
	}}})

	assert.Equal(t, offset, m.chat.YOffset)
	assert.True(t, m.newBelow)
	assert.Contains(t, m.View(), "new messages")
}

func TestErrorsAreReportedOnce(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{})

	m = update(t, m, threadsListedMsg{err: assert.AnError})
	assert.True(t, m.isError)
	assert.Equal(t, assert.AnError.Error(), m.status)

	m.setStatus("ready")
	m = update(t, m, threadsListedMsg{err: assert.AnError})
	assert.Equal(t, "ready", m.status)
}

func TestHistorySelect(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{})

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlH})
	require.True(t, m.view.HistoryOpen)
	require.Equal(t, focusHistory, m.focus)

	m = update(t, m, threadsListedMsg{threads: []langgraph.Thread{{ThreadID: "t-1"}, {ThreadID: "t-2"}}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "t-2", m.State().ThreadID)
	assert.Equal(t, focusInput, m.focus)
	assert.Contains(t, m.View(), "History")
}

func TestThreadLabel(t *testing.T) {
	assert.Equal(t, "abcdefgh", threadLabel(langgraph.Thread{ThreadID: "abcdefgh-1234"}))

	values := json.RawMessage(`{"messages": [{"type": "human", "content": "Build a\n table"}]}`)
	assert.Equal(t, "Build a table", threadLabel(langgraph.Thread{ThreadID: "t", Values: values}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hél…", truncate("héllo", 4))
	assert.Equal(t, "…", truncate("héllo", 1))
	assert.Equal(t, "", truncate("héllo", 0))
}

func TestColumnTitle(t *testing.T) {
	assert.Equal(t, "1·name ↕", columnTitle(0, "name", "↕"))
	assert.Equal(t, "extra ↓", columnTitle(9, "extra", "↓"))
}

func TestStandaloneInterruptIsShownAsAssistantEntry(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{ThreadID: "t-1"})
	m = update(t, m, threadLoadedMsg{gen: m.gen, loaded: chat.StateLoaded{
		ThreadID: "t-1",
		State:    &langgraph.ThreadState{},
		Values: langgraph.Values{
			Messages:   []message.Message{message.NewText("h1", message.TypeHuman, "build a moons table")},
			Interrupts: []langgraph.Interrupt{{Value: map[string]any{"columns": []any{"name", "radius"}}}},
		},
	}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	view := m.chat.View()
	assert.Contains(t, view, "build a moons table")
	assert.Contains(t, view, "Assistant")
	assert.Contains(t, view, `"columns"`)
	assert.Contains(t, view, `"radius"`)
}

func TestInterruptAfterAssistantTurnIsNotRepeated(t *testing.T) {
	m := newTestModel(t, &fakeBackend{}, Options{ThreadID: "t-1"})
	m = update(t, m, threadLoadedMsg{gen: m.gen, loaded: chat.StateLoaded{
		ThreadID: "t-1",
		State:    &langgraph.ThreadState{},
		Values: langgraph.Values{
			Messages: []message.Message{
				message.NewText("h1", message.TypeHuman, "build a moons table"),
				message.NewText("a1", message.TypeAI, "Here is my plan."),
			},
			Interrupts: []langgraph.Interrupt{{Value: "Proceed with the plan?"}},
		},
	}})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})

	view := m.chat.View()
	assert.Equal(t, 1, strings.Count(view, "Assistant"))
	assert.NotContains(t, view, "Proceed with the plan?")
	assert.Contains(t, view, "waiting for your input")
}
