package langgraph

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches API errors for missing threads or runs
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the service
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// RunError is an error event emitted by a streaming run
type RunError struct {
	Name    string `json:"error"`
	Message string `json:"message"`
}

func (e *RunError) Error() string {
	switch {
	case e.Name == "":
		return fmt.Sprintf("run failed: %s", e.Message)
	case e.Message == "":
		return fmt.Sprintf("run failed: %s", e.Name)
	default:
		return fmt.Sprintf("run failed: %s: %s", e.Name, e.Message)
	}
}
