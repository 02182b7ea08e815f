//go:build e2e

package testutil

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cchalm/agent-chat/internal/chat"
	"github.com/cchalm/agent-chat/internal/config"
	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/transport"
)

// TestConfig holds configuration for end-to-end tests
type TestConfig struct {
	APIURL      string
	AssistantID string
	APIKey      string
	Iterations  int
	Timeout     time.Duration
}

// LoadTestConfig loads test configuration from environment variables
func LoadTestConfig() TestConfig {
	config := TestConfig{
		AssistantID: config.DefaultAssistantID,
		Iterations:  3,
		Timeout:     300 * time.Second,
	}

	if id := os.Getenv("E2E_ASSISTANT_ID"); id != "" {
		config.AssistantID = id
	}

	if iterations := os.Getenv("E2E_ITERATIONS"); iterations != "" {
		if val, err := strconv.Atoi(iterations); err == nil {
			config.Iterations = val
		}
	}

	if timeout := os.Getenv("E2E_TIMEOUT"); timeout != "" {
		if val, err := strconv.Atoi(timeout); err == nil {
			config.Timeout = time.Duration(val) * time.Second
		}
	}

	config.APIURL = os.Getenv("E2E_API_URL")
	config.APIKey = os.Getenv("LANGSMITH_API_KEY")

	return config
}

// TestHarness provides utilities for end-to-end testing against a running agent service
type TestHarness struct {
	t      *testing.T
	config TestConfig
	client *langgraph.Client
	runner *chat.Runner
}

// NewTestHarness creates a new test harness
func NewTestHarness(t *testing.T) *TestHarness {
	config := LoadTestConfig()

	require.NotEmpty(t, config.APIURL, "E2E_API_URL environment variable is required for e2e tests")

	var rt http.RoundTripper = transport.WithRateLimiting(nil)
	if config.APIKey != "" {
		rt = transport.WithHeader(rt, "X-Api-Key", config.APIKey)
	}
	client := langgraph.NewClient(config.APIURL, config.AssistantID, &http.Client{Transport: rt})

	return &TestHarness{
		t:      t,
		config: config,
		client: client,
		runner: chat.NewRunner(client),
	}
}

// Config returns the test configuration
func (h *TestHarness) Config() TestConfig {
	return h.config
}

// Client returns the API client
func (h *TestHarness) Client() *langgraph.Client {
	return h.client
}

// Runner returns the runner the CLI and the interface drive runs with
func (h *TestHarness) Runner() *chat.Runner {
	return h.runner
}

// Send submits text on threadID, or on a new thread when threadID is empty, and returns the state
// after the run
func (h *TestHarness) Send(ctx context.Context, threadID string, text string) (chat.State, error) {
	var state chat.State
	if threadID != "" {
		loaded, err := h.runner.LoadThread(ctx, threadID)
		if err != nil {
			return state, err
		}
		state.Apply(loaded)
	}

	sub, err := chat.BuildSubmission(state.Messages(), text, nil, nil)
	if err != nil {
		return state, err
	}
	state.Apply(chat.SubmitStarted{Optimistic: sub.Optimistic})
	if err := h.runner.Submit(ctx, state.ThreadID, sub, state.Apply); err != nil {
		return state, err
	}

	loaded, err := h.runner.LoadThread(ctx, state.ThreadID)
	if err != nil {
		return state, err
	}
	state.Apply(loaded)
	return state, nil
}

// RunIterations runs a test function multiple times and reports results
func (h *TestHarness) RunIterations(testName string, testFunc func(iteration int) error) {
	h.t.Helper()

	successCount := 0
	var lastError error

	for i := 0; i < h.config.Iterations; i++ {
		h.t.Logf("Running iteration %d/%d of %s", i+1, h.config.Iterations, testName)

		err := testFunc(i)
		if err != nil {
			h.t.Logf("Iteration %d failed: %v", i+1, err)
			lastError = err
		} else {
			successCount++
			h.t.Logf("Iteration %d succeeded", i+1)
		}
	}

	h.t.Logf("Test %s: %d/%d iterations succeeded", testName, successCount, h.config.Iterations)

	// Agents are nondeterministic; require a 2/3 success rate
	minSuccessCount := (h.config.Iterations*2 + 2) / 3
	if successCount < minSuccessCount {
		require.NoErrorf(h.t, lastError, "Test %s failed with %d/%d successes (minimum %d required)",
			testName, successCount, h.config.Iterations, minSuccessCount)
	}
}

// WithTimeout runs a function with the configured timeout
func (h *TestHarness) WithTimeout(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	return fn(ctx)
}
