// Package load reads and writes bar series as CSV at the system boundary.
// Files carry a header row of date, open, high, low, close, volume; loaded
// data goes through the same validation as every other bar source.
package load

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"marketsim/internal/domain"
)

var requiredColumns = []string{"date", "open", "high", "low", "close", "volume"}

// dateFormats are tried in order when parsing the date column.
var dateFormats = []string{"2006-01-02", time.RFC3339}

// ReadFile loads a bar series from a CSV file.
func ReadFile(path string) (*domain.BarSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	series, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return series, nil
}

// Read loads a bar series from CSV data. Prices are parsed as decimals so
// values like "101.30" survive the trip exactly, then converted to floats
// for the simulation core. Any malformed row fails the whole load.
func Read(r io.Reader) (*domain.BarSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.ValidationError{Index: 0, Msg: "missing header row"}
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var bars []domain.Bar
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &domain.ValidationError{Index: row, Msg: err.Error()}
		}

		bar, err := parseBar(rec, cols, row)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}

	return domain.NewBarSeries(bars)
}

// WriteFile writes a bar series as CSV. Prices are rendered through
// decimals to avoid float formatting artifacts.
func WriteFile(path string, series *domain.BarSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(requiredColumns); err != nil {
		return err
	}
	for i := 0; i < series.Len(); i++ {
		b := series.At(i)
		rec := []string{
			b.Timestamp.UTC().Format("2006-01-02"),
			decimal.NewFromFloat(b.Open).String(),
			decimal.NewFromFloat(b.High).String(),
			decimal.NewFromFloat(b.Low).String(),
			decimal.NewFromFloat(b.Close).String(),
			fmt.Sprintf("%d", b.Volume),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, &domain.ValidationError{Index: 0, Msg: "missing column " + name}
		}
	}
	return cols, nil
}

func parseBar(rec []string, cols map[string]int, row int) (domain.Bar, error) {
	field := func(name string) (string, bool) {
		i := cols[name]
		if i >= len(rec) {
			return "", false
		}
		return strings.TrimSpace(rec[i]), true
	}

	dateRaw, ok := field("date")
	if !ok {
		return domain.Bar{}, &domain.ValidationError{Index: row, Msg: "short row"}
	}
	ts, err := parseDate(dateRaw)
	if err != nil {
		return domain.Bar{}, &domain.ValidationError{Index: row, Msg: "bad date " + dateRaw}
	}

	bar := domain.Bar{Timestamp: ts}
	for name, dst := range map[string]*float64{
		"open": &bar.Open, "high": &bar.High, "low": &bar.Low, "close": &bar.Close,
	} {
		raw, ok := field(name)
		if !ok {
			return domain.Bar{}, &domain.ValidationError{Index: row, Msg: "short row"}
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.Bar{}, &domain.ValidationError{Index: row, Msg: "non-numeric " + name + " " + raw}
		}
		*dst = d.InexactFloat64()
	}

	volRaw, ok := field("volume")
	if !ok {
		return domain.Bar{}, &domain.ValidationError{Index: row, Msg: "short row"}
	}
	vol, err := decimal.NewFromString(volRaw)
	if err != nil {
		return domain.Bar{}, &domain.ValidationError{Index: row, Msg: "non-numeric volume " + volRaw}
	}
	bar.Volume = vol.IntPart()
	return bar, nil
}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateFormats {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
