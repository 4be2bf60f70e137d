package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FileStore persists runs and artifacts as JSON files under a root
// directory, one subdirectory per run. It backs deployments that run
// without PostgreSQL and satisfies the same contract as DB.
type FileStore struct {
	root string
	mu   sync.Mutex
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Close is a no-op; it exists to mirror the database store.
func (fs *FileStore) Close() {}

func (fs *FileStore) runDir(runID uuid.UUID) string {
	return filepath.Join(fs.root, runID.String())
}

func (fs *FileStore) writeRun(run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	return os.WriteFile(filepath.Join(fs.runDir(run.ID), "run.json"), data, 0o644)
}

func (fs *FileStore) readRun(runID uuid.UUID) (*Run, error) {
	data, err := os.ReadFile(filepath.Join(fs.runDir(runID), "run.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode run: %w", err)
	}
	return &run, nil
}

// CreateRun creates a new run record and returns its ID.
func (fs *FileStore) CreateRun(_ context.Context, mode, oldDocument, newDocument string) (uuid.UUID, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	run := &Run{
		ID:          uuid.New(),
		Mode:        mode,
		OldDocument: oldDocument,
		NewDocument: newDocument,
		Status:      StatusRunning,
		CreatedAt:   time.Now().UTC(),
	}
	if err := os.MkdirAll(fs.runDir(run.ID), 0o755); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run directory: %w", err)
	}
	if err := fs.writeRun(run); err != nil {
		return uuid.Nil, err
	}
	return run.ID, nil
}

// CompleteRun marks a run as finished with the given status.
func (fs *FileStore) CompleteRun(_ context.Context, runID uuid.UUID, status string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	run, err := fs.readRun(runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}
	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now
	return fs.writeRun(run)
}

// SaveArtifact stores a JSON artifact for a run.
func (fs *FileStore) SaveArtifact(_ context.Context, runID uuid.UUID, step string, content any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return os.WriteFile(filepath.Join(fs.runDir(runID), step+".json"), data, 0o644)
}

// SaveTextArtifact stores a text artifact for a run.
func (fs *FileStore) SaveTextArtifact(_ context.Context, runID uuid.UUID, step, text string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	return os.WriteFile(filepath.Join(fs.runDir(runID), step+".txt"), []byte(text), 0o644)
}

// GetArtifact retrieves a JSON artifact. Returns nil bytes when missing.
func (fs *FileStore) GetArtifact(_ context.Context, runID uuid.UUID, step string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(fs.runDir(runID), step+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", step, err)
	}
	return data, nil
}

// GetTextArtifact retrieves a text artifact. Returns "" when missing.
func (fs *FileStore) GetTextArtifact(_ context.Context, runID uuid.UUID, step string) (string, error) {
	data, err := os.ReadFile(filepath.Join(fs.runDir(runID), step+".txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get text artifact %s: %w", step, err)
	}
	return string(data), nil
}

// GetRun retrieves a run by ID. Returns nil when the run does not exist.
func (fs *FileStore) GetRun(_ context.Context, runID uuid.UUID) (*Run, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.readRun(runID)
}

// ListRuns retrieves recent runs, newest first, with optional filters.
func (fs *FileStore) ListRuns(_ context.Context, filters RunFilters) ([]Run, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if filters.Limit == 0 {
		filters.Limit = 50
	}

	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var runs []Run
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := uuid.Parse(entry.Name())
		if err != nil {
			continue
		}
		run, err := fs.readRun(id)
		if err != nil || run == nil {
			continue
		}
		if filters.Mode != "" && run.Mode != filters.Mode {
			continue
		}
		if filters.Status != "" && run.Status != filters.Status {
			continue
		}
		runs = append(runs, *run)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	if len(runs) > filters.Limit {
		runs = runs[:filters.Limit]
	}
	return runs, nil
}

// DeleteRun deletes a run directory and everything in it.
func (fs *FileStore) DeleteRun(_ context.Context, runID uuid.UUID) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	dir := fs.runDir(runID)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("run not found: %s", runID)
	}
	return os.RemoveAll(dir)
}
