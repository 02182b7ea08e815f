package langgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cchalm/agent-chat/internal/message"
)

// Thread is a persistent conversation on the service
type Thread struct {
	ThreadID  string          `json:"thread_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Status    string          `json:"status"`
	Metadata  map[string]any  `json:"metadata"`
	Values    json.RawMessage `json:"values,omitempty"`
}

// Checkpoint identifies a saved state of a thread that runs can be replayed from
type Checkpoint struct {
	ThreadID     string `json:"thread_id,omitempty"`
	CheckpointNS string `json:"checkpoint_ns"`
	CheckpointID string `json:"checkpoint_id,omitempty"`
}

// Interrupt is a pause point raised by a run. Value has no fixed schema.
type Interrupt struct {
	Value     any      `json:"value"`
	ID        string   `json:"id,omitempty"`
	When      string   `json:"when,omitempty"`
	Resumable bool     `json:"resumable,omitempty"`
	NS        []string `json:"ns,omitempty"`
}

// Task is a pending node execution in a thread's state
type Task struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Interrupts []Interrupt `json:"interrupts"`
}

// ThreadState is the current state of a thread
type ThreadState struct {
	Values           json.RawMessage `json:"values"`
	Next             []string        `json:"next"`
	Checkpoint       *Checkpoint     `json:"checkpoint"`
	ParentCheckpoint *Checkpoint     `json:"parent_checkpoint"`
	Tasks            []Task          `json:"tasks"`
	CreatedAt        string          `json:"created_at"`
}

// Interrupts collects the interrupts of all pending tasks
func (s ThreadState) Interrupts() []Interrupt {
	var out []Interrupt
	for _, t := range s.Tasks {
		out = append(out, t.Interrupts...)
	}
	return out
}

// Values is the graph state as streamed in values mode. Raw keeps the full document for consumers
// that read other keys, such as the artifact table.
type Values struct {
	Messages   []message.Message
	Interrupts []Interrupt
	Raw        json.RawMessage
}

// ParseValues decodes the fields of the state the client understands. Graphs whose state is not an
// object yield Values with only Raw set.
func ParseValues(raw json.RawMessage) (Values, error) {
	v := Values{Raw: raw}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return v, nil
	}
	var known struct {
		Messages   []message.Message `json:"messages"`
		Interrupts []Interrupt       `json:"__interrupt__"`
	}
	if err := json.Unmarshal(raw, &known); err != nil {
		return Values{}, fmt.Errorf("failed to decode state values: %w", err)
	}
	v.Messages = known.Messages
	v.Interrupts = known.Interrupts
	return v, nil
}

// RunInput is the input of a run that continues the conversation
type RunInput struct {
	Messages []message.Message `json:"messages"`
	Context  map[string]any    `json:"context,omitempty"`
}

// Command resumes an interrupted run
type Command struct {
	Resume any `json:"resume,omitempty"`
}

// RunRequest describes a run to create. A run has either Input, Command, or neither when replaying
// from Checkpoint.
type RunRequest struct {
	AssistantID string      `json:"assistant_id"`
	Input       *RunInput   `json:"input,omitempty"`
	Command     *Command    `json:"command,omitempty"`
	StreamMode  []string    `json:"stream_mode,omitempty"`
	Checkpoint  *Checkpoint `json:"checkpoint,omitempty"`
}

// SearchParams filters SearchThreads
type SearchParams struct {
	Metadata map[string]any `json:"metadata,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
	SortBy   string         `json:"sort_by,omitempty"`
	Order    string         `json:"sort_order,omitempty"`
}
