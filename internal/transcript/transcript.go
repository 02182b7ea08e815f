// Package transcript renders a thread as a Markdown document
package transcript

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/cchalm/agent-chat/internal/message"
)

// MaxToolResult caps how many bytes of a tool result are written
const MaxToolResult = 5000

//go:embed transcript.tmpl
var transcriptTemplate string

var tmpl = template.Must(template.New("transcript").Funcs(template.FuncMap{
	"prettifyJSON": func(args map[string]any) string {
		if len(args) == 0 {
			return "{}"
		}
		b, err := json.MarshalIndent(args, "", "  ")
		if err != nil {
			return fmt.Sprint(args)
		}
		return string(b)
	},
	"truncateContent": truncateContent,
	"indent": func(prefix string, text string) string {
		prefixed := strings.Builder{}
		for line := range strings.Lines(text) {
			prefixed.WriteString(prefix)
			prefixed.WriteString(line)
		}
		return prefixed.String()
	},
}).Parse(transcriptTemplate))

// truncateContent cuts content to at most MaxToolResult bytes without splitting a rune
func truncateContent(content string) string {
	if len(content) <= MaxToolResult {
		return content
	}
	cut := MaxToolResult
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "\n... (content truncated)"
}

type transcriptData struct {
	ThreadID   string
	ExportedAt string
	Entries    []entry
}

type entry struct {
	Kind       string
	Text       string
	ToolCalls  []message.ToolCall
	ToolCallID string
	Name       string
}

// now is replaced in tests
var now = time.Now

// Render writes the messages of a thread as Markdown. Placeholder tool responses are never written;
// other tool traffic is left out when hideToolCalls is set.
func Render(threadID string, messages []message.Message, hideToolCalls bool) (string, error) {
	data := transcriptData{
		ThreadID:   threadID,
		ExportedAt: now().Format("2006-01-02 15:04:05 MST"),
	}
	for _, m := range message.Renderable(messages) {
		e := entry{
			Kind:       string(m.Type),
			Text:       m.Text(),
			ToolCalls:  m.ToolCalls,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		if hideToolCalls {
			if m.Type == message.TypeTool {
				continue
			}
			e.ToolCalls = nil
			if e.Text == "" {
				continue
			}
		}
		data.Entries = append(data.Entries, e)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute transcript template: %w", err)
	}
	return buf.String(), nil
}
