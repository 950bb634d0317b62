package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const fileSuffix = ".checkpoint.json"

// FileStore persists one JSON checkpoint file per batch id under a
// directory. Writes go to a temp file and are renamed into place, so a
// reader never observes a partially written record.
type FileStore struct {
	dir     string
	logger  *zap.Logger
	writeMu sync.Mutex
}

// NewFileStore creates the checkpoint directory if needed
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) path(batchID string) string {
	return filepath.Join(s.dir, batchID+fileSuffix)
}

// Save atomically overwrites the checkpoint for the record's batch id
func (s *FileStore) Save(record *Record) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	record.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, record.BatchID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path(record.BatchID)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	return nil
}

// Load returns the committed checkpoint for a batch id, or nil when
// absent. A corrupted file is logged and treated as absent, since
// resumption is a convenience rather than a correctness requirement.
func (s *FileStore) Load(batchID string) (*Record, error) {
	data, err := os.ReadFile(s.path(batchID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("Checkpoint unreadable, starting fresh",
			zap.String("batch_id", batchID),
			zap.Error(err))
		return nil, nil
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("Checkpoint corrupted, starting fresh",
			zap.String("batch_id", batchID),
			zap.Error(err))
		return nil, nil
	}

	return &record, nil
}

// List enumerates all checkpoints in the directory, newest first
func (s *FileStore) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint dir: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}

		batchID := strings.TrimSuffix(entry.Name(), fileSuffix)
		record, err := s.Load(batchID)
		if err != nil || record == nil {
			continue
		}

		summaries = append(summaries, Summary{
			BatchID:   record.BatchID,
			Processed: record.Processed,
			Total:     record.Total,
			UpdatedAt: record.UpdatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].UpdatedAt.After(summaries[j].UpdatedAt)
	})

	return summaries, nil
}

// Clear removes the checkpoint for a batch id
func (s *FileStore) Clear(batchID string) error {
	err := os.Remove(s.path(batchID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear checkpoint: %w", err)
	}
	return nil
}
