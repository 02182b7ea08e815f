package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cchalm/agent-chat/internal/langgraph"
)

// Backend is the part of the agent service a Runner needs. *langgraph.Client implements it.
type Backend interface {
	CreateThread(ctx context.Context, metadata map[string]any) (*langgraph.Thread, error)
	GetState(ctx context.Context, threadID string) (*langgraph.ThreadState, error)
	SearchThreads(ctx context.Context, params langgraph.SearchParams) ([]langgraph.Thread, error)
	Run(ctx context.Context, threadID string, req langgraph.RunRequest, handle func(langgraph.Event) error) error
	CancelRun(ctx context.Context, threadID string, runID string) error
	AssistantMetadata() map[string]any
}

// Runner drives runs against a Backend and reports their progress as Events. The emit callback is
// called from the goroutine running the method; it must not block for long.
type Runner struct {
	backend Backend
}

// NewRunner creates a runner
func NewRunner(backend Backend) *Runner {
	return &Runner{backend: backend}
}

// LoadThread fetches a thread's stored state
func (r *Runner) LoadThread(ctx context.Context, threadID string) (StateLoaded, error) {
	state, err := r.backend.GetState(ctx, threadID)
	if err != nil {
		return StateLoaded{}, err
	}
	values, err := langgraph.ParseValues(state.Values)
	if err != nil {
		return StateLoaded{}, fmt.Errorf("failed to parse state of thread %s: %w", threadID, err)
	}
	return StateLoaded{ThreadID: threadID, State: state, Values: values}, nil
}

// ListThreads returns the most recently updated threads of the backend's assistant
func (r *Runner) ListThreads(ctx context.Context, limit int) ([]langgraph.Thread, error) {
	return r.backend.SearchThreads(ctx, langgraph.SearchParams{
		Metadata: r.backend.AssistantMetadata(),
		Limit:    limit,
	})
}

// Submit sends a submission on threadID, creating a thread first when threadID is empty. It emits
// ThreadCreated for a new thread, then the run's events, and always finishes with RunFinished. The
// caller applies SubmitStarted itself before calling Submit.
func (r *Runner) Submit(ctx context.Context, threadID string, sub Submission, emit func(Event)) error {
	if threadID == "" {
		thread, err := r.backend.CreateThread(ctx, r.backend.AssistantMetadata())
		if err != nil {
			return r.finish(emit, err)
		}
		threadID = thread.ThreadID
		zap.S().Infof("Created thread %s", threadID)
		emit(ThreadCreated{ThreadID: threadID})
	}
	input := sub.Input
	return r.run(ctx, threadID, langgraph.RunRequest{Input: &input}, emit)
}

// Resume answers the pending interrupt of threadID with value
func (r *Runner) Resume(ctx context.Context, threadID string, value any, emit func(Event)) error {
	if threadID == "" {
		return r.finish(emit, errors.New("cannot resume without a thread"))
	}
	return r.run(ctx, threadID, langgraph.RunRequest{Command: &langgraph.Command{Resume: value}}, emit)
}

// Regenerate replays the thread from checkpoint, the parent of the message being regenerated. The
// caller applies Regenerating itself before calling Regenerate.
func (r *Runner) Regenerate(ctx context.Context, threadID string, checkpoint *langgraph.Checkpoint, emit func(Event)) error {
	if threadID == "" || checkpoint == nil {
		return r.finish(emit, errors.New("nothing to regenerate"))
	}
	return r.run(ctx, threadID, langgraph.RunRequest{Checkpoint: checkpoint}, emit)
}

// Cancel stops a run. Cancelling with no run in flight is a no-op.
func (r *Runner) Cancel(ctx context.Context, threadID string, runID string) error {
	if threadID == "" || runID == "" {
		return nil
	}
	if err := r.backend.CancelRun(ctx, threadID, runID); err != nil {
		return err
	}
	zap.S().Infof("Cancelled run %s on thread %s", runID, threadID)
	return nil
}

func (r *Runner) run(ctx context.Context, threadID string, req langgraph.RunRequest, emit func(Event)) error {
	err := r.backend.Run(ctx, threadID, req, func(ev langgraph.Event) error {
		switch ev.Kind {
		case langgraph.EventMetadata:
			var meta struct {
				RunID string `json:"run_id"`
			}
			if err := json.Unmarshal(ev.Data, &meta); err == nil && meta.RunID != "" {
				emit(RunStarted{RunID: meta.RunID})
			}
		case langgraph.EventValues:
			values, err := ev.Values()
			if err != nil {
				return fmt.Errorf("failed to parse streamed values: %w", err)
			}
			emit(ValuesReceived{Values: values})
		default:
			zap.S().Debugf("Ignoring %s event", ev.Kind)
		}
		return nil
	})
	return r.finish(emit, err)
}

// finish emits RunFinished. Cancellation by the caller ends a run without an error.
func (r *Runner) finish(emit func(Event), err error) error {
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		zap.S().Warnf("Run failed: %v", err)
	}
	emit(RunFinished{Err: err})
	return err
}
