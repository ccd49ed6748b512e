package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File stores each snapshot as a JSON file in a directory.
type File struct {
	BasePath string
	maxAge   time.Duration
}

// NewFile creates a store in basePath, by default ".cribbage/sessions".
func NewFile(basePath string, maxAge time.Duration) *File {
	if basePath == "" {
		basePath = filepath.Join(".cribbage", "sessions")
	}
	return &File{BasePath: basePath, maxAge: maxAge}
}

func (f *File) path(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(f.BasePath, sessionID+".json"), nil
}

// Save writes to a temporary file, syncs it and renames it over the
// previous snapshot.
func (f *File) Save(_ context.Context, s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	dest, err := f.path(s.SessionID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(f.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(f.BasePath, "tmp-"+s.SessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to rename snapshot: %w", err)
	}
	return nil
}

func (f *File) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	p, err := f.path(sessionID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if err := checkFresh(&s, f.maxAge); err != nil {
		_ = f.Delete(ctx, sessionID)
		return nil, err
	}
	return &s, nil
}

func (f *File) Delete(_ context.Context, sessionID string) error {
	p, err := f.path(sessionID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (f *File) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, "tmp-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
