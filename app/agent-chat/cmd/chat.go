package cmd

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat",
	Long: `Opens the terminal interface: the conversation, the table the agent builds, and the
history of threads. The last open thread and view settings are restored per profile.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&opts.ThreadID, "thread", "", "Thread to open instead of the last one")
	chatCmd.Flags().BoolVar(&opts.LockAfterFirst, "lock-after-first", false, "Accept a single message per thread")
	chatCmd.Flags().StringArrayVar(&opts.ContextPairs, "context", nil, "Context sent with every message, as key=value")

	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	submitContext, err := parseContextPairs(opts.ContextPairs)
	if err != nil {
		return err
	}

	client := createClient(cfg)
	zap.S().Infof("Starting chat with %s at %s", client.AssistantID(), cfg.APIURL)

	model := tui.New(ctx, tui.Options{
		Runner:         chat.NewRunner(client),
		Store:          chat.NewFileSystemViewStateStore(cfg.StateDir),
		Profile:        cfg.Profile,
		ThreadID:       opts.ThreadID,
		LockAfterFirst: opts.LockAfterFirst,
		Context:        submitContext,
	})
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run chat: %w", err)
	}
	return nil
}
