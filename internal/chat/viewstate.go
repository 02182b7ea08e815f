package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ViewState is the part of the interface that survives restarts
type ViewState struct {
	ThreadID      string `json:"threadId,omitempty"`
	HistoryOpen   bool   `json:"chatHistoryOpen,omitempty"`
	HideToolCalls bool   `json:"hideToolCalls,omitempty"`
}

// ViewStateStore manages persistent storage of view states
type ViewStateStore interface {
	// Get returns the view state stored at the given key, or nil if there is nothing stored at that key
	Get(key string) (*ViewState, error)
	// Set stores a view state with a key
	Set(key string, value ViewState) error
	// Delete deletes the view state stored with a key
	Delete(key string) error
}

// FileSystemViewStateStore implements ViewStateStore with one JSON file per key
type FileSystemViewStateStore struct {
	dir string // The directory keys will be relative to
}

// NewFileSystemViewStateStore creates a new file system view state store
func NewFileSystemViewStateStore(dir string) *FileSystemViewStateStore {
	return &FileSystemViewStateStore{dir: dir}
}

// ErrInvalidKey is returned for keys that do not name a file directly inside the store's directory
var ErrInvalidKey = errors.New("invalid view state key")

func (s *FileSystemViewStateStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || key != filepath.Base(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *FileSystemViewStateStore) Get(key string) (*ViewState, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		// Nothing stored at this key
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	var value ViewState
	err = json.Unmarshal(b, &value)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal view state: %w", err)
	}
	return &value, nil
}

func (s *FileSystemViewStateStore) Set(key string, value ViewState) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal view state: %w", err)
	}
	err = os.MkdirAll(s.dir, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	err = os.WriteFile(path, b, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *FileSystemViewStateStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
