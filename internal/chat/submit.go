package chat

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/cchalm/agent-chat/internal/langgraph"
	"github.com/cchalm/agent-chat/internal/message"
)

// ErrEmptyInput is returned for blank human input
var ErrEmptyInput = errors.New("input is empty")

// Submission is a new human turn ready to be sent
type Submission struct {
	Human message.Message
	// Input is what the service receives: placeholders for unanswered tool calls, then the human
	// message. The service appends it to the thread's messages.
	Input langgraph.RunInput
	// Optimistic is the full sequence to display until the service confirms the submission
	Optimistic []message.Message
}

// BuildSubmission prepares text as the next human turn after current. Unanswered tool calls in
// current are answered with placeholders first, so the run never sees a dangling tool call. An empty
// context is not sent. newID generates the human message id and defaults to random UUIDs.
func BuildSubmission(current []message.Message, text string, context map[string]any, newID func() string) (Submission, error) {
	if strings.TrimSpace(text) == "" {
		return Submission{}, ErrEmptyInput
	}
	if newID == nil {
		newID = uuid.NewString
	}

	human := message.NewText(newID(), message.TypeHuman, text)
	placeholders := message.MissingToolResponses(current)

	input := make([]message.Message, 0, len(placeholders)+1)
	input = append(input, placeholders...)
	input = append(input, human)

	optimistic := make([]message.Message, 0, len(current)+len(input))
	optimistic = append(optimistic, current...)
	optimistic = append(optimistic, input...)

	if len(context) == 0 {
		context = nil
	}

	return Submission{
		Human:      human,
		Input:      langgraph.RunInput{Messages: input, Context: context},
		Optimistic: optimistic,
	}, nil
}

// ApproveResume is the resume value that approves a pending interrupt
func ApproveResume() map[string]any {
	return map[string]any{"action": "approve"}
}

// FeedbackResume is the resume value that answers a pending interrupt with feedback
func FeedbackResume(feedback string) (map[string]any, error) {
	if strings.TrimSpace(feedback) == "" {
		return nil, ErrEmptyInput
	}
	return map[string]any{"action": "feedback", "feedback": feedback}, nil
}
