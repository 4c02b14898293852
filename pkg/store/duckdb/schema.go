package duckdb

import "fmt"

// Schema contains table creation statements for all required tables

// CreateBarsTable creates the bars fact table
const CreateBarsTable = `
CREATE TABLE IF NOT EXISTS bars (
    symbol VARCHAR NOT NULL,
    timeframe VARCHAR NOT NULL,
    ts TIMESTAMP NOT NULL,
    open DOUBLE,
    high DOUBLE,
    low DOUBLE,
    close DOUBLE,
    volume DOUBLE,
    PRIMARY KEY (symbol, timeframe, ts)
);
`

// CreateScanRunsTable creates the scan run metadata table
const CreateScanRunsTable = `
CREATE TABLE IF NOT EXISTS scan_runs (
    scan_id VARCHAR PRIMARY KEY,
    symbol VARCHAR NOT NULL,
    timeframe VARCHAR NOT NULL,
    target_end TIMESTAMP NOT NULL,
    window_size INTEGER NOT NULL,
    lookahead INTEGER NOT NULL,
    metric VARCHAR NOT NULL,
    normalize VARCHAR NOT NULL,
    match_count INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scan_runs_symbol_tf ON scan_runs(symbol, timeframe);
`

// CreateScanMatchesTable creates the ranked match rows table
const CreateScanMatchesTable = `
CREATE TABLE IF NOT EXISTS scan_matches (
    scan_id VARCHAR NOT NULL,
    rank INTEGER NOT NULL,
    start_pos INTEGER NOT NULL,
    end_pos INTEGER NOT NULL,
    similarity DOUBLE NOT NULL,
    fwd_return DOUBLE,
    max_fwd_return DOUBLE,
    min_fwd_return DOUBLE,
    PRIMARY KEY (scan_id, rank)
);
`

// InitializeSchema creates all required tables
func InitializeSchema(c *Client) error {
	schemas := []string{
		CreateBarsTable,
		CreateScanRunsTable,
		CreateScanMatchesTable,
	}

	for _, schema := range schemas {
		if err := c.Exec(schema); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables (use with caution)
func DropAllTables(c *Client) error {
	tables := []string{"scan_matches", "scan_runs", "bars"}
	for _, table := range tables {
		if err := c.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
