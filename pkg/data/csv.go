// Package data loads OHLC tables from external sources into bar slices.
// The matching engine never reads files itself; it consumes an already-loaded
// series.
package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
	"github.com/kabuist001/stock-pattern-matcher/pkg/series"
)

// timeLayouts are tried in order when the timestamp column is not numeric
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CSVProvider reads bars from a CSV file with a header row. Physical column
// names are resolved through a ColumnMap so non-default headers are supported
// without touching the core.
type CSVProvider struct {
	filePath string
	columns  series.ColumnMap
}

// NewCSVProvider creates a provider for the given file and column mapping
func NewCSVProvider(filePath string, columns series.ColumnMap) *CSVProvider {
	return &CSVProvider{
		filePath: filePath,
		columns:  columns.WithDefaults(),
	}
}

// Load reads and parses the whole file into bars in file order.
// Row-level parse failures abort the load: a silently dropped bar would shift
// every later position in the series.
func (p *CSVProvider) Load() ([]model.Bar, error) {
	file, err := os.Open(p.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for i, col := range header {
		colIdx[col] = i
	}
	for _, required := range []string{
		p.columns.Timestamp, p.columns.Open, p.columns.High,
		p.columns.Low, p.columns.Close,
	} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("CSV is missing column %q", required)
		}
	}

	var bars []model.Bar
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		bar, err := p.parseRecord(record, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, bar)
	}

	return bars, nil
}

// LoadSeries loads the file and validates it into a Series
func (p *CSVProvider) LoadSeries() (*series.Series, error) {
	bars, err := p.Load()
	if err != nil {
		return nil, err
	}
	return series.New(bars)
}

// parseRecord parses one CSV record into a Bar
func (p *CSVProvider) parseRecord(record []string, colIdx map[string]int) (model.Bar, error) {
	getValue := func(name string) string {
		if idx, ok := colIdx[name]; ok && idx < len(record) {
			return record[idx]
		}
		return ""
	}

	ts, err := parseTimestamp(getValue(p.columns.Timestamp))
	if err != nil {
		return model.Bar{}, err
	}

	open, err := strconv.ParseFloat(getValue(p.columns.Open), 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("invalid open: %w", err)
	}
	high, err := strconv.ParseFloat(getValue(p.columns.High), 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("invalid high: %w", err)
	}
	low, err := strconv.ParseFloat(getValue(p.columns.Low), 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("invalid low: %w", err)
	}
	closePrice, err := strconv.ParseFloat(getValue(p.columns.Close), 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("invalid close: %w", err)
	}

	// volume column is optional
	volume := 0.0
	if v := getValue(p.columns.Volume); v != "" {
		volume, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("invalid volume: %w", err)
		}
	}

	return model.Bar{
		Timestamp: ts,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
	}, nil
}

// parseTimestamp accepts unix milliseconds, unix seconds, or a date string
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// heuristic: values past year 2286 in seconds are milliseconds
		if n > 9_999_999_999 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
