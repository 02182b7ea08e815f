// Package langgraph is a client for a LangGraph-compatible agent service: threads, their state, and
// streamed runs.
package langgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cchalm/agent-chat/internal/telemetry"
)

// DefaultStreamMode is used when a RunRequest does not name one
var DefaultStreamMode = []string{"values"}

// maxErrorBody caps how much of an error response is kept in an APIError
const maxErrorBody = 4096

// Client talks to the agent service over HTTP
type Client struct {
	baseURL        string
	assistantID    string
	httpClient     *http.Client
	requestTimeout time.Duration
	tracer         trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithRequestTimeout bounds every request except run streams, which last as long as the run
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = d
	}
}

// WithTracer overrides the tracer spans are created with
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// NewClient creates a client for the service at baseURL that submits runs to assistantID. A nil
// httpClient means http.DefaultClient.
func NewClient(baseURL string, assistantID string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		assistantID: assistantID,
		httpClient:  httpClient,
		tracer:      telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AssistantID returns the assistant runs are submitted to
func (c *Client) AssistantID() string {
	return c.assistantID
}

// CreateThread creates an empty thread
func (c *Client) CreateThread(ctx context.Context, metadata map[string]any) (*Thread, error) {
	ctx, span := c.tracer.Start(ctx, "langgraph.CreateThread")
	defer span.End()

	body := map[string]any{}
	if len(metadata) > 0 {
		body["metadata"] = metadata
	}
	var thread Thread
	if err := c.do(ctx, http.MethodPost, "/threads", body, &thread); err != nil {
		return nil, spanError(span, fmt.Errorf("failed to create thread: %w", err))
	}
	span.SetAttributes(attribute.String("thread.id", thread.ThreadID))
	return &thread, nil
}

// GetThread fetches a thread by id
func (c *Client) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	ctx, span := c.tracer.Start(ctx, "langgraph.GetThread", trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	var thread Thread
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID), nil, &thread); err != nil {
		return nil, spanError(span, fmt.Errorf("failed to get thread %s: %w", threadID, err))
	}
	return &thread, nil
}

// SearchThreads lists threads, most recently updated first unless params say otherwise
func (c *Client) SearchThreads(ctx context.Context, params SearchParams) ([]Thread, error) {
	ctx, span := c.tracer.Start(ctx, "langgraph.SearchThreads")
	defer span.End()

	if params.SortBy == "" {
		params.SortBy = "updated_at"
		params.Order = "desc"
	}
	var threads []Thread
	if err := c.do(ctx, http.MethodPost, "/threads/search", params, &threads); err != nil {
		return nil, spanError(span, fmt.Errorf("failed to search threads: %w", err))
	}
	span.SetAttributes(attribute.Int("threads.count", len(threads)))
	return threads, nil
}

// AssistantMetadata returns the metadata filter selecting threads of this client's assistant. The
// service records assistant ids as assistant_id and graph names as graph_id.
func (c *Client) AssistantMetadata() map[string]any {
	if _, err := uuid.Parse(c.assistantID); err == nil {
		return map[string]any{"assistant_id": c.assistantID}
	}
	return map[string]any{"graph_id": c.assistantID}
}

// GetState fetches the current state of a thread
func (c *Client) GetState(ctx context.Context, threadID string) (*ThreadState, error) {
	ctx, span := c.tracer.Start(ctx, "langgraph.GetState", trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	var state ThreadState
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/state", nil, &state); err != nil {
		return nil, spanError(span, fmt.Errorf("failed to get state of thread %s: %w", threadID, err))
	}
	return &state, nil
}

// CancelRun asks the service to stop a run
func (c *Client) CancelRun(ctx context.Context, threadID string, runID string) error {
	ctx, span := c.tracer.Start(ctx, "langgraph.CancelRun", trace.WithAttributes(
		attribute.String("thread.id", threadID),
		attribute.String("run.id", runID),
	))
	defer span.End()

	path := fmt.Sprintf("/threads/%s/runs/%s/cancel", url.PathEscape(threadID), url.PathEscape(runID))
	if err := c.do(ctx, http.MethodPost, path, nil, nil); err != nil {
		return spanError(span, fmt.Errorf("failed to cancel run %s: %w", runID, err))
	}
	return nil
}

// StreamRun creates a run on the thread and streams its events. The caller must Close the stream.
func (c *Client) StreamRun(ctx context.Context, threadID string, req RunRequest) (*RunStream, error) {
	if req.AssistantID == "" {
		req.AssistantID = c.assistantID
	}
	if len(req.StreamMode) == 0 {
		req.StreamMode = DefaultStreamMode
	}

	ctx, span := c.tracer.Start(ctx, "langgraph.StreamRun", trace.WithAttributes(
		attribute.String("thread.id", threadID),
		attribute.String("assistant.id", req.AssistantID),
		attribute.StringSlice("stream.mode", req.StreamMode),
	))

	path := "/threads/" + url.PathEscape(threadID) + "/runs/stream"
	httpReq, err := c.newRequest(ctx, http.MethodPost, path, req)
	if err != nil {
		span.End()
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		err = spanError(span, fmt.Errorf("failed to start run: %w", err))
		span.End()
		return nil, err
	}
	if err := checkResponse(resp, http.MethodPost, path); err != nil {
		resp.Body.Close()
		err = spanError(span, fmt.Errorf("failed to start run: %w", err))
		span.End()
		return nil, err
	}

	return newRunStream(resp, span), nil
}

// Run creates a run and hands every event to handle until the run ends. An error from handle stops
// the stream and is returned.
func (c *Client) Run(ctx context.Context, threadID string, req RunRequest, handle func(Event) error) error {
	stream, err := c.StreamRun(ctx, threadID, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for stream.Next() {
		if err := handle(stream.Current()); err != nil {
			return err
		}
	}
	return stream.Err()
}

func (c *Client) newRequest(ctx context.Context, method string, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do performs a JSON request and decodes the response into out, if out is non-nil
func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp, method, path); err != nil {
		return err
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", method, path, err)
	}
	return nil
}

func checkResponse(resp *http.Response, method string, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		StatusCode: resp.StatusCode,
		Method:     method,
		Path:       path,
		Body:       strings.TrimSpace(string(b)),
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
