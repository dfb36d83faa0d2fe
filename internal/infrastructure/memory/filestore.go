// Package memory provides user-memory stores: one JSON file per user on disk,
// or one key per user in Redis.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/producelens/backend/internal/domain"
)

// FileStore keeps each user's memory in <dir>/<userID>.json.
type FileStore struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStore creates the memory directory if needed.
func NewFileStore(basePath string) (*FileStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create memory directory: %w", err)
	}
	return &FileStore{basePath: basePath}, nil
}

// Read returns the stored memory, or domain.ErrUserNotFound when the user has no file.
func (fs *FileStore) Read(ctx context.Context, userID string) (*domain.UserMemory, error) {
	path, err := fs.path(userID)
	if err != nil {
		return nil, err
	}

	fs.mu.RLock()
	defer fs.mu.RUnlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read memory file: %w", err)
	}

	var memory domain.UserMemory
	if err := json.Unmarshal(data, &memory); err != nil {
		return nil, fmt.Errorf("failed to parse memory file %s: %w", filepath.Base(path), err)
	}
	return &memory, nil
}

// Write replaces the user's file. The new content is written to a temporary
// file first and renamed into place.
func (fs *FileStore) Write(ctx context.Context, userID string, memory *domain.UserMemory) error {
	path, err := fs.path(userID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(memory, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal memory: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	tmp, err := os.CreateTemp(fs.basePath, ".memory-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write memory file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace memory file: %w", err)
	}
	return nil
}

func (fs *FileStore) path(userID string) (string, error) {
	if err := validateUserID(userID); err != nil {
		return "", err
	}
	return filepath.Join(fs.basePath, userID+".json"), nil
}

// validateUserID rejects ids that are empty or could escape the store directory.
func validateUserID(userID string) error {
	if userID == "" || userID == "." || userID == ".." ||
		strings.ContainsAny(userID, `/\`) || strings.ContainsRune(userID, 0) {
		return fmt.Errorf("%w: invalid user id %q", domain.ErrInvalidRequest, userID)
	}
	return nil
}
