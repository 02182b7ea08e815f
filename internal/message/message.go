// Package message models conversation turns exchanged with the remote agent service.
package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type is the role of a message in a thread
type Type string

const (
	TypeHuman  Type = "human"
	TypeAI     Type = "ai"
	TypeTool   Type = "tool"
	TypeSystem Type = "system"
)

// Message is a single conversation turn as serialised by the remote service
type Message struct {
	ID         string     `json:"id,omitempty"`
	Type       Type       `json:"type"`
	Content    []Part     `json:"-"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a tool invocation requested by an ai message
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// Part is one element of a message's content. Text parts carry Text; any other block type keeps its
// raw JSON so it round-trips unchanged.
type Part struct {
	Type string
	Text string
	Raw  json.RawMessage
}

// TextPart returns a plain text content part
func TextPart(text string) Part {
	return Part{Type: "text", Text: text}
}

// NewText returns a message of the given type with a single text part
func NewText(id string, typ Type, text string) Message {
	return Message{ID: id, Type: typ, Content: []Part{TextPart(text)}}
}

// Text concatenates the text parts of the message content
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Clone returns a deep-enough copy of m that slices can be appended to independently
func (m Message) Clone() Message {
	c := m
	c.Content = append([]Part(nil), m.Content...)
	c.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	return c
}

type messageJSON struct {
	ID         string          `json:"id,omitempty"`
	Type       Type            `json:"type"`
	Content    json.RawMessage `json:"content"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Name       string          `json:"name,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	content, err := marshalContent(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(messageJSON{
		ID:         m.ID,
		Type:       m.Type,
		Content:    content,
		ToolCalls:  m.ToolCalls,
		ToolCallID: m.ToolCallID,
		Name:       m.Name,
	})
}

func (m *Message) UnmarshalJSON(b []byte) error {
	var raw messageJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	content, err := unmarshalContent(raw.Content)
	if err != nil {
		return fmt.Errorf("failed to decode content of message '%s': %w", raw.ID, err)
	}
	*m = Message{
		ID:         raw.ID,
		Type:       raw.Type,
		Content:    content,
		ToolCalls:  raw.ToolCalls,
		ToolCallID: raw.ToolCallID,
		Name:       raw.Name,
	}
	return nil
}

// marshalContent writes a single text part as a bare string, which is what the service itself emits
// for simple messages. Anything else is written as an array of blocks.
func marshalContent(parts []Part) (json.RawMessage, error) {
	if len(parts) == 0 {
		return json.RawMessage(`""`), nil
	}
	if len(parts) == 1 && parts[0].Type == "text" && parts[0].Raw == nil {
		return json.Marshal(parts[0].Text)
	}
	blocks := make([]json.RawMessage, 0, len(parts))
	for _, p := range parts {
		if p.Raw != nil {
			blocks = append(blocks, p.Raw)
			continue
		}
		b, err := json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: p.Type, Text: p.Text})
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return json.Marshal(blocks)
}

func unmarshalContent(raw json.RawMessage) ([]Part, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []Part{TextPart(s)}, nil
	case '[':
		var blocks []json.RawMessage
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return nil, err
		}
		parts := make([]Part, 0, len(blocks))
		for _, block := range blocks {
			part, err := unmarshalPart(block)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		}
		return parts, nil
	default:
		return nil, fmt.Errorf("unexpected content encoding %q", raw[:1])
	}
}

func unmarshalPart(block json.RawMessage) (Part, error) {
	// Some providers emit bare strings inside the content array
	if len(block) > 0 && block[0] == '"' {
		var s string
		if err := json.Unmarshal(block, &s); err != nil {
			return Part{}, err
		}
		return TextPart(s), nil
	}
	var head struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(block, &head); err != nil {
		return Part{}, err
	}
	if head.Type == "text" {
		return TextPart(head.Text), nil
	}
	return Part{Type: head.Type, Raw: append(json.RawMessage(nil), block...)}, nil
}
