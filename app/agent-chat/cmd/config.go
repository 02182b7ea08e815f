package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cchalm/agent-chat/internal/config"
)

var cfg config.Config

// Command options
var opts struct {
	// Thread options
	ThreadID     string
	ContextPairs []string

	// Chat options
	LockAfterFirst bool

	// Resume options
	Approve  bool
	Feedback string

	// Cancel options
	RunID string

	// Thread listing options
	Limit         int
	HideToolCalls bool

	// Version options
	CheckUpdate bool
}

// parseContextPairs turns key=value flags into the context sent with a submission. Values that are
// valid JSON keep their type; anything else is a string.
func parseContextPairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context '%s', expected key=value", pair)
		}
		var value any
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			value = raw
		}
		out[key] = value
	}
	return out, nil
}
