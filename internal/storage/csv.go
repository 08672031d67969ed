package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"poolWatch/internal/model"
)

var csvHeader = []string{
	"timestamp", "pool_address", "pool_name",
	"token0_symbol", "token0_amount", "token0_price_usd",
	"token1_symbol", "token1_amount", "token1_price_usd",
	"tvl_usd", "target_token", "target_token_amount", "target_token_price",
}

// CsvStorage appends snapshots to one CSV file per UTC day, named
// snapshots_YYYYMMDD.csv under dir. The header row is written once
// when the day's file is created.
type CsvStorage struct {
	dir string
	mu  sync.Mutex
	now func() time.Time
}

func NewCsvStorage(dir string) *CsvStorage {
	if dir == "" {
		dir = "."
	}
	return &CsvStorage{dir: dir, now: time.Now}
}

func (s *CsvStorage) path() string {
	day := s.now().UTC().Format("20060102")
	return filepath.Join(s.dir, fmt.Sprintf("snapshots_%s.csv", day))
}

// PutSnapshotBatch appends a batch of snapshots as CSV rows.
func (s *CsvStorage) PutSnapshotBatch(snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path()
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if fresh {
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, snap := range snapshots {
		if err := writer.Write(csvRow(snap)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(snap model.PoolSnapshot) []string {
	return []string{
		snap.TakenAt.UTC().Format(time.RFC3339),
		snap.PoolAddress,
		snap.PoolName,
		snap.Token0.Symbol,
		formatFloat(snap.Token0.Amount),
		formatFloat(snap.Token0.PriceUSD),
		snap.Token1.Symbol,
		formatFloat(snap.Token1.Amount),
		formatFloat(snap.Token1.PriceUSD),
		formatFloat(snap.TotalTVLUSD),
		snap.TargetToken,
		formatFloat(snap.TargetTokenAmount),
		formatFloat(snap.TargetTokenPrice),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
