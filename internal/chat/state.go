// Package chat holds the presentation-independent side of a conversation with the agent service:
// thread state, optimistic updates, submissions, and the runner that drives remote runs.
package chat

import (
	"github.com/cchalm/agent-chat/internal/interrupt"
	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/message"
	"github.com/cchalm/agent-chat/internal/table"
)

// Event is a change to a conversation's State
type Event interface {
	isEvent()
}

// ThreadSelected switches to another thread, or to a new one when ThreadID is empty
type ThreadSelected struct{ ThreadID string }

// ThreadCreated records the id of a thread the runner created for a first submission. Unlike
// ThreadSelected it keeps the optimistic messages.
type ThreadCreated struct{ ThreadID string }

// StateLoaded replaces the canonical state with a thread's stored state
type StateLoaded struct {
	ThreadID string
	State    *langgraph.ThreadState
	Values   langgraph.Values
}

// SubmitStarted shows a submission before the service confirms it
type SubmitStarted struct {
	Optimistic []message.Message
	Context    map[string]any
}

// ResumeStarted marks a pending interrupt as answered
type ResumeStarted struct{}

// Regenerating marks a replay from the parent checkpoint
type Regenerating struct{}

// RunStarted carries the id of the run the service created
type RunStarted struct{ RunID string }

// ValuesReceived carries an authoritative state update streamed by the run
type ValuesReceived struct{ Values langgraph.Values }

// RunFinished ends a run. Err is nil for runs that completed or were cancelled.
type RunFinished struct{ Err error }

func (ThreadSelected) isEvent() {}
func (ThreadCreated) isEvent()  {}
func (StateLoaded) isEvent()    {}
func (SubmitStarted) isEvent()  {}
func (ResumeStarted) isEvent()  {}
func (Regenerating) isEvent()   {}
func (RunStarted) isEvent()     {}
func (ValuesReceived) isEvent() {}
func (RunFinished) isEvent()    {}

// State is the local mirror of a thread. Apply is its only mutator and must be called from a single
// goroutine.
type State struct {
	ThreadID         string
	RunID            string
	Values           langgraph.Values
	Interrupt        *langgraph.Interrupt
	ParentCheckpoint *langgraph.Checkpoint
	// Context is side-context sent along with the next submission
	Context            map[string]any
	Loading            bool
	FirstTokenReceived bool
	Err                error

	optimistic       []message.Message
	prevMessageCount int
}

// Apply folds ev into the state
func (s *State) Apply(ev Event) {
	switch ev := ev.(type) {
	case ThreadSelected:
		*s = State{ThreadID: ev.ThreadID}
	case ThreadCreated:
		s.ThreadID = ev.ThreadID
	case StateLoaded:
		s.ThreadID = ev.ThreadID
		s.Values = ev.Values
		s.optimistic = nil
		s.ParentCheckpoint = ev.State.ParentCheckpoint
		s.Interrupt = firstInterrupt(ev.Values.Interrupts, ev.State.Interrupts())
	case SubmitStarted:
		s.optimistic = ev.Optimistic
		s.Context = ev.Context
		s.Loading = true
		s.FirstTokenReceived = false
		s.Err = nil
	case ResumeStarted:
		s.Interrupt = nil
		s.Loading = true
		s.FirstTokenReceived = false
		s.Err = nil
	case Regenerating:
		// One fewer message than before, so the replayed ai message counts as a first token
		s.prevMessageCount--
		s.Loading = true
		s.FirstTokenReceived = false
		s.Err = nil
		return
	case RunStarted:
		s.RunID = ev.RunID
	case ValuesReceived:
		s.Values = ev.Values
		s.optimistic = nil
		s.Interrupt = firstInterrupt(ev.Values.Interrupts)
	case RunFinished:
		s.Loading = false
		s.RunID = ""
		s.Err = ev.Err
		if ev.Err != nil {
			s.optimistic = nil
		}
	}
	s.trackFirstToken()
}

// trackFirstToken flags the arrival of a new ai message since the last change in message count
func (s *State) trackFirstToken() {
	msgs := s.Messages()
	if len(msgs) != s.prevMessageCount && len(msgs) > 0 && msgs[len(msgs)-1].Type == message.TypeAI {
		s.FirstTokenReceived = true
	}
	s.prevMessageCount = len(msgs)
}

// Messages returns the optimistic sequence while a submission is unconfirmed, else the canonical one
func (s *State) Messages() []message.Message {
	if s.optimistic != nil {
		return s.optimistic
	}
	return s.Values.Messages
}

// Visible returns the messages to display: placeholders are always hidden, tool traffic only when
// hideToolCalls is set
func (s *State) Visible(hideToolCalls bool) []message.Message {
	msgs := message.Renderable(s.Messages())
	if !hideToolCalls {
		return msgs
	}
	out := make([]message.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Type == message.TypeTool {
			continue
		}
		if len(m.ToolCalls) > 0 {
			m = m.Clone()
			m.ToolCalls = nil
			if m.Text() == "" {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

// Started reports whether there is a conversation to show
func (s *State) Started() bool {
	return s.ThreadID != "" || len(s.Messages()) > 0
}

// AwaitingFirstToken reports whether a run is in flight with nothing from the assistant yet
func (s *State) AwaitingFirstToken() bool {
	return s.Loading && !s.FirstTokenReceived
}

// StandaloneInterrupt reports whether a pending interrupt has no assistant turn to attach to
func (s *State) StandaloneInterrupt() bool {
	if s.Interrupt == nil {
		return false
	}
	for _, m := range s.Messages() {
		if m.Type == message.TypeAI || m.Type == message.TypeTool {
			return false
		}
	}
	return true
}

// InterruptPayload classifies the pending interrupt's value
func (s *State) InterruptPayload() (interrupt.Payload, bool) {
	if s.Interrupt == nil {
		return interrupt.Payload{}, false
	}
	return interrupt.Classify(s.Interrupt.Value), true
}

// InputLocked reports whether new input is refused. With lockAfterFirst the conversation accepts a
// single human message.
func (s *State) InputLocked(lockAfterFirst bool) bool {
	if s.Loading {
		return true
	}
	return lockAfterFirst && len(s.Messages()) > 0
}

// Table builds the artifact table view from the current values
func (s *State) Table() (*table.View, error) {
	return table.FromValues(s.Values.Raw)
}

func firstInterrupt(sources ...[]langgraph.Interrupt) *langgraph.Interrupt {
	for _, interrupts := range sources {
		if len(interrupts) > 0 {
			i := interrupts[0]
			return &i
		}
	}
	return nil
}
