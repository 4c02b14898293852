package duckdb

import (
	"context"
	"fmt"
	"time"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
)

// ResultRepo persists ranked scan results so past runs can be compared
// without rescanning
type ResultRepo struct {
	client *Client
}

// NewResultRepo creates a new scan result repository
func NewResultRepo(client *Client) *ResultRepo {
	return &ResultRepo{client: client}
}

// RunRecord describes one persisted scan invocation
type RunRecord struct {
	ScanID     string
	Symbol     string
	Timeframe  string
	TargetEnd  time.Time
	WindowSize int
	Lookahead  int
	Metric     string
	Normalize  string
}

// SaveRun writes the run metadata and its ranked matches in one transaction.
// The deterministic scan id makes re-saving the same run idempotent.
func (r *ResultRepo) SaveRun(ctx context.Context, run RunRecord, matches []model.Match) error {
	tx, err := r.client.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO scan_runs (scan_id, symbol, timeframe, target_end, window_size, lookahead, metric, normalize, match_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (scan_id) DO UPDATE SET match_count = EXCLUDED.match_count
	`,
		run.ScanID, run.Symbol, run.Timeframe, run.TargetEnd,
		run.WindowSize, run.Lookahead, run.Metric, run.Normalize, len(matches),
	)
	if err != nil {
		return fmt.Errorf("failed to insert scan run: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM scan_matches WHERE scan_id = ?", run.ScanID); err != nil {
		return fmt.Errorf("failed to clear previous matches: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO scan_matches (scan_id, rank, start_pos, end_pos, similarity, fwd_return, max_fwd_return, min_fwd_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, m := range matches {
		_, err := stmt.Exec(
			run.ScanID, i+1, m.Start, m.End,
			m.Similarity, m.FwdReturn, m.MaxFwdReturn, m.MinFwdReturn,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}

	return tx.Commit()
}

// LoadMatches retrieves the ranked matches of a persisted run, without
// forward bar paths (those are reconstructable from the bars table).
func (r *ResultRepo) LoadMatches(ctx context.Context, scanID string) ([]model.Match, error) {
	rows, err := r.client.Query(`
		SELECT start_pos, end_pos, similarity, fwd_return, max_fwd_return, min_fwd_return
		FROM scan_matches
		WHERE scan_id = ?
		ORDER BY rank ASC
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var m model.Match
		err := rows.Scan(&m.Start, &m.End, &m.Similarity, &m.FwdReturn, &m.MaxFwdReturn, &m.MinFwdReturn)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}

	return matches, nil
}
