package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	btable "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/cchalm/agent-chat/internal/interrupt"
	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/message"
)

const (
	historyWidth      = 34
	maxColumnWidth    = 32
	maxToolResultRows = 3
	maxInterruptRows  = 14
)

func (m Model) View() string {
	if m.width == 0 {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderBody(),
		m.renderBottom(),
		m.renderFooter(),
	)
}

func (m *Model) resize() {
	m.input.Width = max(10, m.width-8)
	m.feedback.Width = max(10, m.width-24)
}

// paneWidths splits the terminal width among the history, table and chat panes
func (m *Model) paneWidths() (history int, tbl int, chat int) {
	w := max(20, m.width)
	if m.view.HistoryOpen {
		history = historyWidth
		w -= history
	}
	if m.tableView != nil && !m.tableView.Empty() {
		tbl = w * 6 / 10
		w -= tbl
	}
	return history, tbl, w
}

func (m *Model) bodyHeight() int {
	used := lipgloss.Height(m.renderHeader()) + lipgloss.Height(m.renderBottom()) + lipgloss.Height(m.renderFooter())
	return max(4, m.height-used)
}

// refresh re-renders the chat pane and the table. The chat stays pinned to the bottom if it was there;
// otherwise its offset is kept and new content below is flagged.
func (m *Model) refresh() {
	_, _, chatWidth := m.paneWidths()
	m.chat.Width = max(10, chatWidth-2)
	// Borders, plus a row for the new-messages hint
	m.chat.Height = max(1, m.bodyHeight()-3)

	prevAtBottom := m.chat.AtBottom()
	prevOffset := m.chat.YOffset
	prevLines := m.chat.TotalLineCount()

	m.chat.SetContent(m.renderMessages())
	if prevAtBottom {
		m.chat.GotoBottom()
		m.newBelow = false
	} else {
		m.chat.SetYOffset(prevOffset)
		if m.chat.TotalLineCount() > prevLines {
			m.newBelow = true
		}
	}
	m.refreshTable()
}

func (m *Model) refreshTable() {
	m.grid.SetRows(nil)
	if m.tableView == nil || m.tableView.Empty() {
		m.grid.SetColumns(nil)
		return
	}
	_, tableWidth, _ := m.paneWidths()

	names := m.tableView.Columns()
	widths := make([]int, len(names))
	titles := make([]string, len(names))
	for i, name := range names {
		titles[i] = columnTitle(i, name, m.tableView.SortIndicator(name))
		widths[i] = lipgloss.Width(titles[i])
	}
	sorted := m.tableView.Sorted()
	rows := make([]btable.Row, len(sorted))
	for j, row := range sorted {
		cells := m.tableView.Cells(row)
		for i, c := range cells {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
		rows[j] = cells
	}
	columns := make([]btable.Column, len(names))
	for i := range names {
		columns[i] = btable.Column{Title: titles[i], Width: min(widths[i], maxColumnWidth)}
	}

	m.grid.SetColumns(columns)
	m.grid.SetRows(rows)
	m.grid.SetWidth(max(10, tableWidth-2))
	m.grid.SetHeight(max(2, m.bodyHeight()-3))
}

// columnTitle labels a column with its sort key and sort state
func columnTitle(i int, name string, indicator string) string {
	if i < 9 {
		return fmt.Sprintf("%d·%s %s", i+1, name, indicator)
	}
	return name + " " + indicator
}

func (m *Model) renderHeader() string {
	thread := "new thread"
	if m.state.ThreadID != "" {
		thread = "thread " + m.state.ThreadID
	}
	parts := []string{"agent-chat", thread}
	if m.view.HideToolCalls {
		parts = append(parts, "tool calls hidden")
	}
	return m.theme.header.Render(strings.Join(parts, " · "))
}

func (m *Model) renderBody() string {
	historyW, tableW, chatW := m.paneWidths()
	height := m.bodyHeight()

	var panes []string
	if historyW > 0 {
		panes = append(panes, m.renderHistory(historyW, height))
	}
	if tableW > 0 {
		style := m.theme.panel
		if m.focus == focusTable {
			style = m.theme.panelFocus
		}
		panes = append(panes, style.Width(tableW-2).Height(height-2).Render(m.grid.View()))
	}

	hint := ""
	if m.newBelow {
		hint = m.theme.hint.Render("↓ new messages")
	}
	style := m.theme.panel
	if m.focus == focusInput {
		style = m.theme.panelFocus
	}
	panes = append(panes, style.Width(chatW-2).Height(height-2).Render(m.chat.View()+"\n"+hint))

	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

func (m *Model) renderMessages() string {
	width := max(10, m.chat.Width)
	if !m.state.Started() {
		return m.theme.helpText.Render("Start a conversation by typing a message below.")
	}

	var b strings.Builder
	for _, msg := range m.state.Visible(m.view.HideToolCalls) {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}
	if m.state.StandaloneInterrupt() {
		b.WriteString(m.renderStandaloneInterrupt(width))
		b.WriteString("\n\n")
	}
	if m.interruptPending() && m.focus != focusInterrupt {
		b.WriteString(m.theme.hint.Render("⏸ The agent is waiting for your input (esc to answer)"))
		b.WriteString("\n")
	}
	if m.state.AwaitingFirstToken() {
		b.WriteString(m.spinner.View() + " thinking...")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderMessage(msg message.Message, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var lines []string
	switch msg.Type {
	case message.TypeHuman:
		lines = append(lines, m.theme.human.Render("You"), wrap.Render(msg.Text()))
	case message.TypeAI:
		lines = append(lines, m.theme.assistant.Render("Assistant"))
		if text := msg.Text(); text != "" {
			lines = append(lines, wrap.Render(text))
		}
		for _, tc := range msg.ToolCalls {
			lines = append(lines, m.theme.toolCall.Render(truncate("🔧 "+tc.Name+" "+compactArgs(tc.Args), width)))
		}
	case message.TypeTool:
		name := msg.Name
		if name == "" {
			name = "tool"
		}
		lines = append(lines, m.theme.toolResult.Render("↳ "+name))
		for _, line := range firstLines(msg.Text(), maxToolResultRows) {
			lines = append(lines, m.theme.toolResult.Render("  "+truncate(line, width-2)))
		}
	default:
		lines = append(lines, m.theme.other.Render(string(msg.Type)), wrap.Render(msg.Text()))
	}
	return strings.Join(lines, "\n")
}

// renderStandaloneInterrupt shows an interrupt raised before the assistant said anything as an
// assistant entry of its own
func (m *Model) renderStandaloneInterrupt(width int) string {
	payload, _ := m.state.InterruptPayload()
	body := strings.Join(firstLines(payload.Render(), maxInterruptRows), "\n")
	if payload.Kind == interrupt.Structured {
		body = m.theme.toolResult.Render(body)
	} else {
		body = lipgloss.NewStyle().Width(width).Render(body)
	}
	return m.theme.assistant.Render("Assistant") + "\n" + body
}

func (m *Model) renderHistory(width int, height int) string {
	style := m.theme.panel
	if m.focus == focusHistory {
		style = m.theme.panelFocus
	}
	inner := width - 4
	lines := []string{m.theme.panelTitle.Render("History"), ""}
	if len(m.threads) == 0 {
		lines = append(lines, m.theme.helpText.Render("No threads yet"))
	}

	visible := max(1, height-4)
	start := max(0, m.historyCursor-visible+1)
	for i := start; i < len(m.threads) && i < start+visible; i++ {
		t := m.threads[i]
		marker := "  "
		if t.ThreadID == m.state.ThreadID {
			marker = "● "
		}
		label := truncate(marker+threadLabel(t), inner)
		if i == m.historyCursor && m.focus == focusHistory {
			label = m.theme.selected.Render(label)
		}
		lines = append(lines, label)
	}
	return style.Width(width - 2).Height(height - 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderBottom() string {
	if m.focus == focusInterrupt {
		return m.renderInterrupt()
	}
	width := max(10, m.width-2)
	if m.state.InputLocked(m.opts.LockAfterFirst) && !m.state.Loading {
		return m.theme.panel.Width(width).Render(m.theme.helpText.Render("This conversation accepts a single message. ctrl+n starts a new one."))
	}
	view := m.input.View()
	if m.state.Loading {
		view = m.spinner.View() + " " + view
	}
	return m.theme.panel.Width(width).Render(view)
}

func (m *Model) renderInterrupt() string {
	payload, _ := m.state.InterruptPayload()
	body := strings.Join(firstLines(payload.Render(), maxInterruptRows), "\n")
	if payload.Kind == interrupt.Structured {
		body = m.theme.toolResult.Render(body)
	}

	help := m.theme.helpText.Render("a approve · f give feedback · esc dismiss")
	if m.feedback.Focused() {
		help = m.feedback.View() + "\n" + m.theme.helpText.Render("enter send · esc back")
	}
	content := strings.Join([]string{
		m.theme.modalTitle.Render("The agent is waiting for your input"),
		"",
		body,
		"",
		help,
	}, "\n")
	return m.theme.modal.Width(max(20, m.width-6)).Render(content)
}

func (m *Model) renderFooter() string {
	statusStyle := m.theme.status
	if m.isError {
		statusStyle = m.theme.errorStatus
	}
	hints := "enter send · tab table · 1-9 sort · ctrl+h history · ctrl+t tools · ctrl+n new · ctrl+r regenerate · ctrl+x cancel · ctrl+c quit"
	width := max(10, m.width)
	return statusStyle.Render(truncate(m.status, width)) + "\n" + m.theme.helpText.Render(truncate(hints, width))
}

// threadLabel names a thread by its first human message, falling back to its id
func threadLabel(t langgraph.Thread) string {
	label := t.ThreadID
	if len(label) > 8 {
		label = label[:8]
	}
	if values, err := langgraph.ParseValues(t.Values); err == nil {
		for _, msg := range values.Messages {
			if msg.Type == message.TypeHuman && strings.TrimSpace(msg.Text()) != "" {
				label = strings.Join(strings.Fields(msg.Text()), " ")
				break
			}
		}
	}
	if !t.UpdatedAt.IsZero() {
		label = t.UpdatedAt.Local().Format("Jan 2 15:04") + " " + label
	}
	return label
}

func compactArgs(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprint(args)
	}
	return string(b)
}

func firstLines(text string, n int) []string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "…")
	}
	return lines
}

// truncate shortens s to at most width runes, marking the cut with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}
