package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/message"
	"github.com/cchalm/agent-chat/internal/transcript"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Inspect conversation threads",
}

var threadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent threads of the assistant",
	Args:  cobra.NoArgs,
	RunE:  runThreadsList,
}

var threadsShowCmd = &cobra.Command{
	Use:   "show THREAD_ID",
	Short: "Print a thread as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runThreadsShow,
}

func init() {
	threadsListCmd.Flags().IntVar(&opts.Limit, "limit", 20, "Maximum number of threads to list")
	threadsShowCmd.Flags().BoolVar(&opts.HideToolCalls, "hide-tool-calls", false, "Leave tool calls and their results out")

	threadsCmd.AddCommand(threadsListCmd, threadsShowCmd)
	rootCmd.AddCommand(threadsCmd)
}

func runThreadsList(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	threads, err := createRunner(cfg).ListThreads(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No threads")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("THREAD", "UPDATED", "STATUS", "FIRST MESSAGE")
	for _, thread := range threads {
		updated := ""
		if !thread.UpdatedAt.IsZero() {
			updated = thread.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		t.Row(thread.ThreadID, updated, thread.Status, firstHumanMessage(thread, 48))
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func runThreadsShow(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	loaded, err := createRunner(cfg).LoadThread(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	md, err := transcript.Render(args[0], loaded.Values.Messages, opts.HideToolCalls)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), md)
	return nil
}

// firstHumanMessage returns the opening message of a thread on one line, cut to width runes
func firstHumanMessage(thread langgraph.Thread, width int) string {
	values, err := langgraph.ParseValues(thread.Values)
	if err != nil {
		return ""
	}
	for _, m := range values.Messages {
		if m.Type != message.TypeHuman {
			continue
		}
		text := []rune(strings.Join(strings.Fields(m.Text()), " "))
		if len(text) > width {
			return string(text[:width-1]) + "…"
		}
		return string(text)
	}
	return ""
}
