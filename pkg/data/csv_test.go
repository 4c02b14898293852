package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuist001/stock-pattern-matcher/pkg/series"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestCSVProvider_Load parses a file using the default column names.
func TestCSVProvider_Load(t *testing.T) {
	path := writeCSV(t, `date,open,high,low,close,volume
2024-01-02,100.5,102,99.5,101,150000
2024-01-03,101,103,100,102.5,175000
`)

	bars, err := NewCSVProvider(path, series.DefaultColumnMap()).Load()
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, 100.5, bars[0].Open)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 175000.0, bars[1].Volume)
}

// TestCSVProvider_CustomColumns maps non-default headers, Yahoo Finance style.
func TestCSVProvider_CustomColumns(t *testing.T) {
	path := writeCSV(t, `Date,Open,High,Low,Adj Close
2024-01-02,100,102,99,101
`)

	cols := series.ColumnMap{
		Timestamp: "Date",
		Open:      "Open",
		High:      "High",
		Low:       "Low",
		Close:     "Adj Close",
	}
	bars, err := NewCSVProvider(path, cols).Load()
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 0.0, bars[0].Volume, "missing volume column defaults to 0")
}

// TestCSVProvider_MissingColumn rejects a file without a mapped price column.
func TestCSVProvider_MissingColumn(t *testing.T) {
	path := writeCSV(t, `date,open,high,low
2024-01-02,100,102,99
`)

	_, err := NewCSVProvider(path, series.DefaultColumnMap()).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "close"`)
}

// TestCSVProvider_BadRowAbortsLoad: one unparseable row fails the whole load
// so positions never silently shift.
func TestCSVProvider_BadRowAbortsLoad(t *testing.T) {
	path := writeCSV(t, `date,open,high,low,close,volume
2024-01-02,100,102,99,101,1000
2024-01-03,oops,103,100,102,1000
2024-01-04,102,104,101,103,1000
`)

	_, err := NewCSVProvider(path, series.DefaultColumnMap()).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "invalid open")
}

// TestCSVProvider_TimestampFormats accepts unix seconds, unix milliseconds,
// and the supported date layouts within one file.
func TestCSVProvider_TimestampFormats(t *testing.T) {
	path := writeCSV(t, `date,open,high,low,close,volume
1704153600,100,102,99,101,1000
1704240000000,101,103,100,102,1000
2024-01-04 00:00:00,102,104,101,103,1000
2024-01-05T00:00:00Z,103,105,102,104,1000
`)

	bars, err := NewCSVProvider(path, series.DefaultColumnMap()).Load()
	require.NoError(t, err)
	require.Len(t, bars, 4)

	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Timestamp)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), bars[1].Timestamp)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), bars[2].Timestamp)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), bars[3].Timestamp)
}

// TestCSVProvider_LoadSeries validates ordering on the way into a series.
func TestCSVProvider_LoadSeries(t *testing.T) {
	path := writeCSV(t, `date,open,high,low,close,volume
2024-01-03,101,103,100,102,1000
2024-01-02,100,102,99,101,1000
`)

	_, err := NewCSVProvider(path, series.DefaultColumnMap()).LoadSeries()
	assert.ErrorIs(t, err, series.ErrUnordered)
}
