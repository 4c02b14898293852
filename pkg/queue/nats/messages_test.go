package nats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
	"github.com/kabuist001/stock-pattern-matcher/pkg/stats"
)

// TestScanResultMsg_SingleMatchEncodes: one match yields a defined report
// whose StdReturn is NaN. The result must still encode, otherwise the worker
// would Nak a perfectly valid scan and JetStream would redeliver it forever.
func TestScanResultMsg_SingleMatchEncodes(t *testing.T) {
	rs := &model.ResultSet{Matches: []model.Match{{
		Start:        5,
		End:          9,
		Similarity:   0.92,
		FwdReturn:    0.03,
		MaxFwdReturn: 0.05,
		MinFwdReturn: -0.01,
	}}}
	summary := stats.Aggregate(rs)
	require.True(t, summary.Defined())
	require.True(t, math.IsNaN(summary.StdReturn), "one observation has no dispersion estimate")

	msg := ScanResultMsg{
		ScanID:     "abc123",
		Symbol:     "SPY",
		Timeframe:  "1d",
		MatchCount: 1,
		Matches:    SummarizeMatches(rs.Matches),
		Statistics: &summary,
	}
	payload, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := DecodeScanResult(payload)
	require.NoError(t, err)
	require.NotNil(t, decoded.Statistics)
	assert.Equal(t, 1, decoded.Statistics.Count)
	assert.InDelta(t, 0.03, decoded.Statistics.MeanReturn, 1e-12)
	assert.True(t, math.IsNaN(decoded.Statistics.StdReturn))
}

// TestScanRequestMsg_RoundTrip: requests survive the wire unchanged.
func TestScanRequestMsg_RoundTrip(t *testing.T) {
	req := ScanRequestMsg{
		Symbol:        "QQQ",
		Timeframe:     "1h",
		TargetEnd:     -1,
		WindowSize:    15,
		MinSimilarity: 0.8,
		Metric:        "euclidean",
	}
	payload, err := Encode(req)
	require.NoError(t, err)

	decoded, err := DecodeScanRequest(payload)
	require.NoError(t, err)
	assert.Equal(t, req, *decoded)
}
