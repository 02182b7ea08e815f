package langgraph

import (
	"encoding/json"
	"net/http"
	"path"
	"strings"

	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Event kinds emitted by a run stream
const (
	EventMetadata = "metadata"
	EventValues   = "values"
	EventError    = "error"
	EventEnd      = "end"
)

// Event is one server-sent event of a run
type Event struct {
	Kind string
	Data json.RawMessage
}

// Values decodes a values event
func (e Event) Values() (Values, error) {
	return ParseValues(e.Data)
}

// RunStream iterates the events of a streaming run. It follows the Next/Current/Err pattern of the
// anthropic SDK streams it is built on.
type RunStream struct {
	decoder ssestream.Decoder
	resp    *http.Response
	span    trace.Span

	runID   string
	current Event
	err     error
	done    bool
}

func newRunStream(resp *http.Response, span trace.Span) *RunStream {
	s := &RunStream{
		decoder: ssestream.NewDecoder(resp),
		resp:    resp,
		span:    span,
		runID:   runIDFromLocation(resp.Header.Get("Content-Location")),
	}
	if s.runID != "" {
		span.SetAttributes(attribute.String("run.id", s.runID))
	}
	return s
}

// Next advances to the next event. It returns false at the end of the run or on error.
func (s *RunStream) Next() bool {
	if s.done || s.decoder == nil {
		return false
	}
	for s.decoder.Next() {
		ev := s.decoder.Event()
		switch ev.Type {
		case EventEnd:
			s.done = true
			return false
		case EventError:
			runErr := &RunError{}
			if err := json.Unmarshal(ev.Data, runErr); err != nil || (runErr.Name == "" && runErr.Message == "") {
				runErr = &RunError{Message: string(ev.Data)}
			}
			s.err = runErr
			s.done = true
			return false
		case EventMetadata:
			var meta struct {
				RunID string `json:"run_id"`
			}
			if err := json.Unmarshal(ev.Data, &meta); err == nil && meta.RunID != "" && meta.RunID != s.runID {
				s.runID = meta.RunID
				s.span.SetAttributes(attribute.String("run.id", s.runID))
			}
		case "":
			// Comment-only frames carry no payload
			continue
		}
		s.current = Event{Kind: ev.Type, Data: json.RawMessage(ev.Data)}
		return true
	}
	s.done = true
	if err := s.decoder.Err(); err != nil {
		s.err = err
	}
	return false
}

// Current returns the event Next advanced to
func (s *RunStream) Current() Event {
	return s.current
}

// Err returns the error that ended the stream, if any
func (s *RunStream) Err() error {
	return s.err
}

// RunID returns the id of the run, once the service has announced it
func (s *RunStream) RunID() string {
	return s.runID
}

// Close releases the connection and ends the run's span
func (s *RunStream) Close() error {
	defer s.span.End()
	if s.err != nil {
		spanError(s.span, s.err)
	}
	var err error
	if s.decoder != nil {
		err = s.decoder.Close()
	} else {
		err = s.resp.Body.Close()
	}
	if err != nil {
		zap.S().Debugf("Failed to close run stream: %v", err)
	}
	return err
}

// runIDFromLocation extracts the run id from a Content-Location of the form /threads/{id}/runs/{run_id}
func runIDFromLocation(location string) string {
	if !strings.Contains(location, "/runs/") {
		return ""
	}
	return path.Base(strings.TrimRight(location, "/"))
}
