package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"marketsim/internal/domain"
)

// Compile-time interface check.
var _ BarStore = (*ParquetStore)(nil)

// ParquetStore implements BarStore using one Parquet file per named series:
//
//	<DataDir>/bars/<name>.parquet
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// barRecord is the on-disk Parquet schema for daily bars.
type barRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    int64   `parquet:"volume"`
}

// WriteBars merges the bars into the series file, deduplicating by timestamp
// with incoming bars winning, and keeps the file sorted by timestamp.
func (s *ParquetStore) WriteBars(_ context.Context, name string, bars []domain.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	path := s.seriesPath(name)
	existing, _ := readParquetFile[barRecord](path)

	seen := make(map[int64]barRecord, len(existing)+len(bars))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, b := range bars {
		seen[b.Timestamp.UnixMilli()] = barRecord{
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}

	merged := make([]barRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})

	if err := writeParquetFile(path, merged); err != nil {
		return fmt.Errorf("writing series %s: %w", name, err)
	}
	return nil
}

// ReadBars reads the series file and returns the bars within [start, end].
// A missing series yields no bars, not an error.
func (s *ParquetStore) ReadBars(_ context.Context, name string, start, end time.Time) ([]domain.Bar, error) {
	records, err := readParquetFile[barRecord](s.seriesPath(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading series %s: %w", name, err)
	}

	var bars []domain.Bar
	for _, r := range records {
		ts := time.UnixMilli(r.Timestamp).UTC()
		if ts.Before(start) || ts.After(end) {
			continue
		}
		bars = append(bars, domain.Bar{
			Timestamp: ts,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		})
	}
	return bars, nil
}

// ListSeries lists the names of all stored series, sorted.
func (s *ParquetStore) ListSeries(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.DataDir, "bars"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".parquet") {
			names = append(names, strings.TrimSuffix(e.Name(), ".parquet"))
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *ParquetStore) seriesPath(name string) string {
	return filepath.Join(s.DataDir, "bars", name+".parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}
