package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/message"
)

var sendCmd = &cobra.Command{
	Use:   "send MESSAGE...",
	Short: "Send a message and print the reply",
	Long: `Sends one message, waits for the run to finish, and prints the assistant's last reply.
Without --thread a new thread is created. If the run pauses for human input, the pending
interrupt is printed and the command exits with status 2; answer it with 'resume'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&opts.ThreadID, "thread", "", "Thread to continue")
	sendCmd.Flags().StringArrayVar(&opts.ContextPairs, "context", nil, "Context sent with the message, as key=value")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := setupContext()
	runner := createRunner(cfg)

	submitContext, err := parseContextPairs(opts.ContextPairs)
	if err != nil {
		return err
	}

	var state chat.State
	if opts.ThreadID != "" {
		loaded, err := runner.LoadThread(ctx, opts.ThreadID)
		if err != nil {
			return fmt.Errorf("failed to load thread: %w", err)
		}
		state.Apply(loaded)
	}

	sub, err := chat.BuildSubmission(state.Messages(), strings.Join(args, " "), submitContext, nil)
	if err != nil {
		return err
	}
	state.Apply(chat.SubmitStarted{Optimistic: sub.Optimistic, Context: sub.Input.Context})

	if err := runner.Submit(ctx, state.ThreadID, sub, state.Apply); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return reportOutcome(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), runner, &state)
}

// reportOutcome prints the result of a finished run: the pending interrupt if the run paused, else the
// assistant's last reply
func reportOutcome(ctx context.Context, stdout io.Writer, stderr io.Writer, runner *chat.Runner, state *chat.State) error {
	// The stored state also reports interrupts raised by pending tasks
	loaded, err := runner.LoadThread(ctx, state.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	state.Apply(loaded)
	fmt.Fprintf(stderr, "thread: %s\n", state.ThreadID)

	if payload, ok := state.InterruptPayload(); ok {
		fmt.Fprintln(stdout, payload.Render())
		fmt.Fprintf(stderr, "answer with: agent-chat resume --thread %s (--approve | --feedback TEXT)\n", state.ThreadID)
		return ErrInterrupted
	}

	if reply, ok := lastReply(state.Messages()); ok {
		fmt.Fprintln(stdout, reply)
	}
	return nil
}

func lastReply(messages []message.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.Type == message.TypeAI && strings.TrimSpace(m.Text()) != "" {
			return m.Text(), true
		}
	}
	return "", false
}
