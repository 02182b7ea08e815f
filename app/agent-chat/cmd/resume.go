package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cchalm/agent-chat/internal/chat"
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Answer the pending interrupt of a thread",
	Args:  cobra.NoArgs,
	RunE:  runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&opts.ThreadID, "thread", "", "Thread whose run is paused")
	resumeCmd.Flags().BoolVar(&opts.Approve, "approve", false, "Approve and let the run continue")
	resumeCmd.Flags().StringVar(&opts.Feedback, "feedback", "", "Send feedback to the agent instead of approving")

	_ = resumeCmd.MarkFlagRequired("thread")
	resumeCmd.MarkFlagsMutuallyExclusive("approve", "feedback")
	resumeCmd.MarkFlagsOneRequired("approve", "feedback")

	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	ctx := setupContext()
	runner := createRunner(cfg)

	value := chat.ApproveResume()
	if !opts.Approve {
		var err error
		value, err = chat.FeedbackResume(opts.Feedback)
		if err != nil {
			return err
		}
	}

	var state chat.State
	loaded, err := runner.LoadThread(ctx, opts.ThreadID)
	if err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}
	state.Apply(loaded)
	if state.Interrupt == nil {
		return fmt.Errorf("thread %s has no pending interrupt", opts.ThreadID)
	}

	state.Apply(chat.ResumeStarted{})
	if err := runner.Resume(ctx, state.ThreadID, value, state.Apply); err != nil {
		return fmt.Errorf("failed to resume run: %w", err)
	}
	return reportOutcome(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), runner, &state)
}
