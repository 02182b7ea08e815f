package message

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal_StringContent(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"id":"h1","type":"human","content":"hello"}`), &m)
	require.NoError(t, err)

	assert.Equal(t, TypeHuman, m.Type)
	assert.Equal(t, "hello", m.Text())
}

func TestUnmarshal_BlockContentKeepsUnknownBlocks(t *testing.T) {
	raw := `{
		"id": "a1",
		"type": "ai",
		"content": [
			{"type": "text", "text": "Here is "},
			{"type": "image_url", "image_url": {"url": "http://x"}},
			"the table"
		],
		"tool_calls": [{"id": "c1", "name": "build_table", "args": {"rows": 3}, "type": "tool_call"}]
	}`
	var m Message
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	require.Len(t, m.Content, 3)
	assert.Equal(t, "image_url", m.Content[1].Type)
	assert.JSONEq(t, `{"type": "image_url", "image_url": {"url": "http://x"}}`, string(m.Content[1].Raw))
	assert.Equal(t, "Here is the table", m.Text())
	require.Len(t, m.ToolCalls, 1)
	assert.Equal(t, "build_table", m.ToolCalls[0].Name)
	assert.Equal(t, float64(3), m.ToolCalls[0].Args["rows"])
}

func TestUnmarshal_NullContent(t *testing.T) {
	var m Message
	require.NoError(t, json.Unmarshal([]byte(`{"type":"ai","content":null}`), &m))
	assert.Empty(t, m.Content)
}

func TestUnmarshal_InvalidContent(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"id":"x","type":"ai","content":12}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'x'")
}

func TestMarshal_SingleTextPartIsBareString(t *testing.T) {
	b, err := json.Marshal(NewText("h1", TypeHuman, "hi"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"h1","type":"human","content":"hi"}`, string(b))
}

func TestMarshal_ToolMessage(t *testing.T) {
	b, err := json.Marshal(Placeholder(ToolCall{ID: "c1", Name: "search"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "do-not-render-c1",
		"type": "tool",
		"content": "Successfully handled tool call.",
		"tool_call_id": "c1",
		"name": "search"
	}`, string(b))
}

func TestMarshal_MixedBlocks(t *testing.T) {
	m := Message{
		Type: TypeHuman,
		Content: []Part{
			TextPart("look"),
			{Type: "image_url", Raw: json.RawMessage(`{"type":"image_url","image_url":"u"}`)},
		},
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"human","content":[{"type":"text","text":"look"},{"type":"image_url","image_url":"u"}]}`, string(b))
}
