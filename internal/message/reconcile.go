package message

import "strings"

// DoNotRenderIDPrefix marks locally synthesized messages that must never be displayed. The remote
// service is assumed never to emit ids with this prefix; nothing verifies that.
const DoNotRenderIDPrefix = "do-not-render-"

// PlaceholderContent is the result body carried by a synthesized tool response
const PlaceholderContent = "Successfully handled tool call."

// Reconcile returns messages followed by a placeholder tool response for every tool call that has no
// result yet. The input is not modified, and reconciling an already reconciled sequence adds nothing.
func Reconcile(messages []Message) []Message {
	missing := MissingToolResponses(messages)
	out := make([]Message, 0, len(messages)+len(missing))
	out = append(out, messages...)
	return append(out, missing...)
}

// MissingToolResponses returns only the placeholders Reconcile would append, ordered by the first
// appearance of each unanswered call id
func MissingToolResponses(messages []Message) []Message {
	var pending []ToolCall
	introduced := map[string]bool{}
	answered := map[string]bool{}

	for _, m := range messages {
		switch m.Type {
		case TypeAI:
			for _, tc := range m.ToolCalls {
				if tc.ID == "" || introduced[tc.ID] {
					continue
				}
				introduced[tc.ID] = true
				pending = append(pending, tc)
			}
		case TypeTool:
			// A result only answers a call that was already asked for
			if introduced[m.ToolCallID] {
				answered[m.ToolCallID] = true
			}
		}
	}

	var placeholders []Message
	for _, tc := range pending {
		if answered[tc.ID] {
			continue
		}
		placeholders = append(placeholders, Placeholder(tc))
	}
	return placeholders
}

// Placeholder builds the stand-in result for an unanswered tool call
func Placeholder(tc ToolCall) Message {
	return Message{
		ID:         DoNotRenderIDPrefix + tc.ID,
		Type:       TypeTool,
		Content:    []Part{TextPart(PlaceholderContent)},
		ToolCallID: tc.ID,
		Name:       tc.Name,
	}
}

// IsPlaceholder reports whether m was synthesized locally and should be hidden
func IsPlaceholder(m Message) bool {
	return strings.HasPrefix(m.ID, DoNotRenderIDPrefix)
}

// Renderable filters out locally synthesized messages
func Renderable(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if IsPlaceholder(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}
