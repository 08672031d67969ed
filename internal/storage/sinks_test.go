package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"poolWatch/internal/model"
)

func sampleSnapshot(address string, tvl float64, takenAt time.Time) model.PoolSnapshot {
	return model.PoolSnapshot{
		PoolAddress: address,
		PoolName:    "Monsterra MCH/WBNB",
		Token0: model.TokenLeg{
			Symbol: "MCH", Amount: 1000, PriceUSD: 0.04, ValueUSD: 40, SharePct: 2.44,
		},
		Token1: model.TokenLeg{
			Symbol: "WBNB", Amount: 5, PriceUSD: 320, ValueUSD: 1600, SharePct: 97.56,
		},
		TotalTVLUSD:       tvl,
		TargetToken:       "MCH",
		TargetTokenAmount: 1000,
		TargetTokenPrice:  0.04,
		TakenAt:           takenAt,
	}
}

func TestJsonlDailyFile(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	sink := NewJsonlStorage(dir)
	sink.now = func() time.Time { return day }

	batch := []model.PoolSnapshot{
		sampleSnapshot("0xaaa", 1640, day),
		sampleSnapshot("0xbbb", 900, day),
	}
	if err := sink.PutSnapshotBatch(batch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "snapshots_20240601.jsonl"))
	if err != nil {
		t.Fatalf("open daily file: %v", err)
	}
	defer file.Close()

	var lines int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var snap model.PoolSnapshot
		if err := json.Unmarshal(scanner.Bytes(), &snap); err != nil {
			t.Fatalf("line %d not valid json: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("daily file has %d lines, want 2", lines)
	}
}

func TestJsonlAppendsAcrossBatches(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	sink := NewJsonlStorage(dir)
	sink.now = func() time.Time { return day }

	for i := 0; i < 2; i++ {
		if err := sink.PutSnapshotBatch([]model.PoolSnapshot{sampleSnapshot("0xaaa", 1640, day)}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "snapshots_20240601.jsonl"))
	if err != nil {
		t.Fatalf("read daily file: %v", err)
	}
	if got := countLines(data); got != 2 {
		t.Fatalf("daily file has %d lines, want 2", got)
	}
}

func TestJsonlRotatesByDay(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)

	sink := NewJsonlStorage(dir)
	sink.now = func() time.Time { return day }

	if err := sink.PutSnapshotBatch([]model.PoolSnapshot{sampleSnapshot("0xaaa", 1640, day)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	day = day.Add(2 * time.Minute)
	if err := sink.PutSnapshotBatch([]model.PoolSnapshot{sampleSnapshot("0xaaa", 1650, day)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"snapshots_20240601.jsonl", "snapshots_20240602.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestJsonlEmptyBatch(t *testing.T) {
	dir := t.TempDir()
	sink := NewJsonlStorage(dir)

	if err := sink.PutSnapshotBatch(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("empty batch created %d files", len(entries))
	}
}

func TestCsvHeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	sink := NewCsvStorage(dir)
	sink.now = func() time.Time { return day }

	first := []model.PoolSnapshot{sampleSnapshot("0xaaa", 1640, day)}
	second := []model.PoolSnapshot{
		sampleSnapshot("0xaaa", 1650, day),
		sampleSnapshot("0xbbb", 900, day),
	}
	if err := sink.PutSnapshotBatch(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.PutSnapshotBatch(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "snapshots_20240601.csv"))
	if err != nil {
		t.Fatalf("open daily file: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("csv has %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "timestamp" || rows[0][1] != "pool_address" {
		t.Fatalf("first row is not the header: %v", rows[0])
	}
	if rows[1][0] == "timestamp" {
		t.Fatalf("header repeated in data rows")
	}
}

func TestCsvRowValues(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 6, 1, 12, 0, 30, 0, time.UTC)

	sink := NewCsvStorage(dir)
	sink.now = func() time.Time { return day }

	if err := sink.PutSnapshotBatch([]model.PoolSnapshot{sampleSnapshot("0xaaa", 1640, day)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, err := os.Open(filepath.Join(dir, "snapshots_20240601.csv"))
	if err != nil {
		t.Fatalf("open daily file: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	row := rows[1]
	if row[0] != "2024-06-01T12:00:30Z" {
		t.Fatalf("timestamp = %q", row[0])
	}
	if row[1] != "0xaaa" || row[3] != "MCH" || row[6] != "WBNB" {
		t.Fatalf("row fields wrong: %v", row)
	}
	if row[4] != "1000" || row[9] != "1640" {
		t.Fatalf("amount/tvl fields wrong: %v", row)
	}
}

func countLines(data []byte) int {
	var n int
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
