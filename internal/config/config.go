// Package config provides configuration management for agent-chat.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrMissingConfig is returned by Validate when a required setting is absent
var ErrMissingConfig = errors.New("missing required configuration")

const (
	DefaultAssistantID = "agent"
	DefaultTimeout     = 30 * time.Second
	DefaultProfile     = "default"
)

// Config holds the configuration for the client
type Config struct {
	APIURL      string // Base URL of the agent service
	AssistantID string // Graph or assistant the runs are submitted to
	APIKey      string // Sent as X-Api-Key
	BearerToken string // Sent as an OAuth2 bearer token, for deployments behind an auth proxy

	RequestTimeout time.Duration // Timeout for non-streaming requests

	StateDir string // Where view state and logs are kept
	LogFile  string
	Profile  string // Key of the persisted view state

	TelemetryEnabled bool
	OTLPEndpoint     string

	GitHubToken string // Optional; raises the rate limit of the update check
}

// Load loads configuration from environment variables
func Load() Config {
	config := Config{
		APIURL:         os.Getenv("AGENT_CHAT_API_URL"),
		AssistantID:    DefaultAssistantID,
		APIKey:         os.Getenv("LANGSMITH_API_KEY"),
		BearerToken:    os.Getenv("AGENT_CHAT_BEARER_TOKEN"),
		RequestTimeout: DefaultTimeout,
		StateDir:       os.Getenv("AGENT_CHAT_STATE_DIR"),
		LogFile:        os.Getenv("AGENT_CHAT_LOG_FILE"),
		Profile:        DefaultProfile,
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
	}

	if id := os.Getenv("AGENT_CHAT_ASSISTANT_ID"); id != "" {
		config.AssistantID = id
	}
	if profile := os.Getenv("AGENT_CHAT_PROFILE"); profile != "" {
		config.Profile = profile
	}
	// Ignore unparseable values and keep the defaults, as with the other optional settings
	if timeout := os.Getenv("AGENT_CHAT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.RequestTimeout = d
		}
	}
	if enabled := os.Getenv("AGENT_CHAT_TELEMETRY"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.TelemetryEnabled = b
		}
	}
	if config.StateDir == "" {
		config.StateDir = defaultStateDir()
	}
	if config.LogFile == "" && config.StateDir != "" {
		config.LogFile = filepath.Join(config.StateDir, "agent-chat.log")
	}

	return config
}

// Validate checks if the required configuration is present
func (c Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: AGENT_CHAT_API_URL or --api-url", ErrMissingConfig)
	}
	if c.AssistantID == "" {
		return fmt.Errorf("%w: AGENT_CHAT_ASSISTANT_ID or --assistant", ErrMissingConfig)
	}
	return nil
}

func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "agent-chat")
}
