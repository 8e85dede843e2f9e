package topology

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/flowboardhq/flowboard/pkg/errors"
)

// FileStore is a file-backed DiagramStore for standalone runs without a
// database. Each diagram is stored as one JSON file under the base
// directory, named by its ID.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-backed diagram store rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/flowboard/diagrams.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "flowboard", "diagrams")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create diagram dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) diagramPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

// Save writes the diagram to disk, assigning a fresh ID if empty.
func (s *FileStore) Save(_ context.Context, d Diagram) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d.ID == "" {
		d.ID = NewID()
	}
	if strings.ContainsAny(d.ID, `/\`) {
		return "", errors.New(errors.ErrCodeInvalidInput, "diagram ID %q is not a valid file name", d.ID)
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal diagram: %w", err)
	}
	if err := os.WriteFile(s.diagramPath(d.ID), data, 0o600); err != nil {
		return "", fmt.Errorf("write diagram file: %w", err)
	}
	return d.ID, nil
}

// Get loads a diagram by ID.
func (s *FileStore) Get(_ context.Context, id string) (Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.diagramPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Diagram{}, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", id)
		}
		return Diagram{}, fmt.Errorf("read diagram file: %w", err)
	}

	var d Diagram
	if err := json.Unmarshal(data, &d); err != nil {
		return Diagram{}, fmt.Errorf("parse diagram %q: %w", id, err)
	}
	return d, nil
}

// List returns all stored diagrams. Unreadable files are skipped.
func (s *FileStore) List(_ context.Context) ([]Diagram, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read diagram dir: %w", err)
	}

	out := make([]Diagram, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name()))
		if err != nil {
			continue
		}
		var d Diagram
		if err := json.Unmarshal(data, &d); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// Delete removes a diagram by ID. Deleting a missing diagram is not an
// error.
func (s *FileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.diagramPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove diagram file: %w", err)
	}
	return nil
}

// Close does nothing.
func (s *FileStore) Close(context.Context) error { return nil }

// Path returns the base directory for diagram files.
func (s *FileStore) Path() string { return s.baseDir }

var _ DiagramStore = (*FileStore)(nil)
