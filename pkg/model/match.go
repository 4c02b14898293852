package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Match is a candidate window that cleared the similarity floor, paired with
// the forward bars that immediately followed it.
//
// Start and End are inclusive integer positions into the series the match was
// found in. Forward holds the Lookahead bars after End. The return fields are
// fractions relative to the match window's last close (0.05 == +5%).
type Match struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Similarity float64 `json:"similarity"`
	Forward    []Bar   `json:"forward,omitempty"`

	FwdReturn    float64 `json:"fwd_return"`     // last forward close vs match close
	MaxFwdReturn float64 `json:"max_fwd_return"` // best forward high vs match close
	MinFwdReturn float64 `json:"min_fwd_return"` // worst forward low vs match close
}

// ResultSet is the ranked sequence of matches plus the target window they
// were matched against. Read-only after construction.
type ResultSet struct {
	Target      []Bar   `json:"target"`
	TargetStart int     `json:"target_start"`
	TargetEnd   int     `json:"target_end"`
	Matches     []Match `json:"matches"`
}

// Len returns the number of matches in the set
func (rs *ResultSet) Len() int {
	return len(rs.Matches)
}

// TargetClose returns the last close of the target window, or 0 if empty
func (rs *ResultSet) TargetClose() float64 {
	if len(rs.Target) == 0 {
		return 0
	}
	return rs.Target[len(rs.Target)-1].Close
}

// ScanID creates a deterministic identifier for one scan invocation.
// Format: hash(symbol|tf|t_end|window|lookahead|metric|normalize)
// Identical inputs always produce the same ID, so persisted runs are
// idempotent.
func ScanID(symbol, timeframe string, tEnd time.Time, window, lookahead int, metric, normalize string) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d|%s|%s",
		symbol,
		timeframe,
		tEnd.Unix(),
		window,
		lookahead,
		metric,
		normalize,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}
