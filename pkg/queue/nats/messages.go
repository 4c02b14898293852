package nats

import (
	"encoding/json"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
	"github.com/kabuist001/stock-pattern-matcher/pkg/stats"
)

// Subject constants
const (
	SubjectScanRequest = "patterns.scan.request"
	SubjectScanResult  = "patterns.scan.result"
)

// ScanRequestMsg asks a worker to scan one symbol's stored series.
// Zero-valued numeric fields fall back to the engine defaults.
type ScanRequestMsg struct {
	Symbol        string  `json:"symbol"`
	Timeframe     string  `json:"timeframe"`
	TargetEnd     int     `json:"target_end"`
	WindowSize    int     `json:"window_size"`
	Lookahead     int     `json:"lookahead"`
	TopN          int     `json:"top_n"`
	MinSimilarity float64 `json:"min_similarity"`
	Metric        string  `json:"metric"`
	Normalize     string  `json:"normalize"`
	ExcludeRecent int     `json:"exclude_recent"`
}

// MatchSummary is the wire form of one ranked match, without forward bars
type MatchSummary struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Similarity float64 `json:"similarity"`
	FwdReturn  float64 `json:"fwd_return"`
}

// ScanResultMsg carries a completed scan back to subscribers.
// Statistics is nil when the scan matched nothing; inside a defined report,
// individual undefined metrics encode as null.
type ScanResultMsg struct {
	ScanID     string            `json:"scan_id"`
	Symbol     string            `json:"symbol"`
	Timeframe  string            `json:"timeframe"`
	MatchCount int               `json:"match_count"`
	Matches    []MatchSummary    `json:"matches"`
	Statistics *stats.Statistics `json:"statistics,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// SummarizeMatches converts ranked matches to their wire form
func SummarizeMatches(matches []model.Match) []MatchSummary {
	out := make([]MatchSummary, len(matches))
	for i, m := range matches {
		out[i] = MatchSummary{
			Start:      m.Start,
			End:        m.End,
			Similarity: m.Similarity,
			FwdReturn:  m.FwdReturn,
		}
	}
	return out
}

// Encode serializes a message to JSON bytes
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeScanRequest deserializes a ScanRequestMsg from JSON bytes
func DecodeScanRequest(data []byte) (*ScanRequestMsg, error) {
	var msg ScanRequestMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DecodeScanResult deserializes a ScanResultMsg from JSON bytes
func DecodeScanResult(data []byte) (*ScanResultMsg, error) {
	var msg ScanResultMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
