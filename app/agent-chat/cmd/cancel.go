package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Cancel a run",
	Args:  cobra.NoArgs,
	RunE:  runCancel,
}

func init() {
	cancelCmd.Flags().StringVar(&opts.ThreadID, "thread", "", "Thread the run belongs to")
	cancelCmd.Flags().StringVar(&opts.RunID, "run", "", "Run to cancel")

	_ = cancelCmd.MarkFlagRequired("thread")
	_ = cancelCmd.MarkFlagRequired("run")

	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	if err := createRunner(cfg).Cancel(ctx, opts.ThreadID, opts.RunID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cancelled run %s\n", opts.RunID)
	return nil
}
