package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"poolWatch/internal/model"
)

// JsonlStorage appends snapshots to one JSON-lines file per UTC day,
// named snapshots_YYYYMMDD.jsonl under dir.
type JsonlStorage struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewJsonlStorage(dir string) *JsonlStorage {
	if dir == "" {
		dir = "."
	}
	return &JsonlStorage{dir: dir, now: time.Now}
}

func (s *JsonlStorage) path() string {
	day := s.now().UTC().Format("20060102")
	return filepath.Join(s.dir, fmt.Sprintf("snapshots_%s.jsonl", day))
}

// PutSnapshotBatch appends a batch of snapshots as JSON lines.
func (s *JsonlStorage) PutSnapshotBatch(snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, snap := range snapshots {
		line, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
