package cmd

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cchalm/agent-chat/internal/config"
	"github.com/cchalm/agent-chat/internal/logging"
)

// ErrInterrupted is returned when a run pauses for human input
var ErrInterrupted = errors.New("run paused for human input")

var rootCmd = &cobra.Command{
	Use:   "agent-chat",
	Short: "Chat with a LangGraph agent from the terminal",
	Long: `agent-chat is a client for agents served through the LangGraph API. It streams runs,
answers interrupts, and shows the table the agent builds alongside the conversation.`,
	PersistentPreRunE: loadRootConfig,
	SilenceUsage:      true,
}

// Settings given on the command line, applied over the environment
var overrides struct {
	APIURL      string
	AssistantID string
	Profile     string
	Timeout     time.Duration
	Verbose     bool
}

// cleanups run once the command has finished, in reverse order
var cleanups []func()

func Execute() error {
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		cleanups = nil
	}()
	return rootCmd.Execute()
}

func loadRootConfig(cmd *cobra.Command, _ []string) error {
	// Load .env file
	envErr := godotenv.Load()

	cfg = config.Load()
	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL = overrides.APIURL
	}
	if flags.Changed("assistant") {
		cfg.AssistantID = overrides.AssistantID
	}
	if flags.Changed("profile") {
		cfg.Profile = overrides.Profile
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeout = overrides.Timeout
	}

	logOpts := logging.Options{Level: zapcore.WarnLevel}
	if overrides.Verbose {
		logOpts.Level = zapcore.DebugLevel
	}
	if cmd == chatCmd {
		// The terminal belongs to the interface
		logOpts.File = cfg.LogFile
		logOpts.Level = zapcore.InfoLevel
	}
	done, err := logging.Setup(logOpts)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, done)
	if envErr != nil {
		zap.S().Debugf("No .env file found, using environment variables")
	}

	shutdown, err := setupTelemetry(cmd.Context())
	if err != nil {
		return err
	}
	cleanups = append(cleanups, shutdown)

	if cmd == versionCmd {
		return nil
	}
	return cfg.Validate()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&overrides.APIURL, "api-url", "", "Base URL of the agent service (AGENT_CHAT_API_URL)")
	rootCmd.PersistentFlags().StringVar(&overrides.AssistantID, "assistant", "", "Assistant or graph id runs are submitted to (AGENT_CHAT_ASSISTANT_ID)")
	rootCmd.PersistentFlags().StringVar(&overrides.Profile, "profile", "", "Name under which the interface state is saved (AGENT_CHAT_PROFILE)")
	rootCmd.PersistentFlags().DurationVar(&overrides.Timeout, "timeout", config.DefaultTimeout, "Timeout of requests other than run streams (AGENT_CHAT_TIMEOUT)")
	rootCmd.PersistentFlags().BoolVarP(&overrides.Verbose, "verbose", "v", false, "Log debug output to stderr")
}
