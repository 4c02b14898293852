package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/kabuist001/stock-pattern-matcher/pkg/config"
	"github.com/kabuist001/stock-pattern-matcher/pkg/data"
	"github.com/kabuist001/stock-pattern-matcher/pkg/indicator"
	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
	"github.com/kabuist001/stock-pattern-matcher/pkg/norm"
	"github.com/kabuist001/stock-pattern-matcher/pkg/rank"
	"github.com/kabuist001/stock-pattern-matcher/pkg/scan"
	"github.com/kabuist001/stock-pattern-matcher/pkg/series"
	"github.com/kabuist001/stock-pattern-matcher/pkg/similarity"
	"github.com/kabuist001/stock-pattern-matcher/pkg/stats"
	"github.com/kabuist001/stock-pattern-matcher/pkg/store/duckdb"
	"github.com/kabuist001/stock-pattern-matcher/pkg/store/milvus"
)

type flags struct {
	configPath string
	csvPath    string
	symbol     string
	timeframe  string

	targetEnd     int
	windowSize    int
	lookahead     int
	topN          int
	minSimilarity float64
	metric        string
	normalize     string
	excludeRecent int
	workers       int

	prefilter bool
	decay     float64
	noSave    bool
}

func main() {
	f := parseFlags()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	applyConfig(&f, cfg)

	ctx := context.Background()

	metric, err := similarity.ParseMetric(f.metric)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad metric")
	}
	method, err := norm.ParseMethod(f.normalize)
	if err != nil {
		logger.Fatal().Err(err).Msg("bad normalize method")
	}

	// Load the series: CSV directly, or the DuckDB bar store
	var (
		s          *series.Series
		resultRepo *duckdb.ResultRepo
	)
	if f.csvPath != "" {
		provider := data.NewCSVProvider(f.csvPath, cfg.Data.Columns)
		s, err = provider.LoadSeries()
		if err != nil {
			logger.Fatal().Err(err).Str("csv", f.csvPath).Msg("failed to load series")
		}
	} else {
		client, err := duckdb.NewClient(cfg.Database.DuckDBPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to duckdb")
		}
		defer client.Close()
		if err := duckdb.InitializeSchema(client); err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize schema")
		}
		s, err = duckdb.NewBarRepo(client).LoadSeries(ctx, f.symbol, f.timeframe)
		if err != nil {
			logger.Fatal().Err(err).Str("symbol", f.symbol).Msg("failed to load series")
		}
		if !f.noSave {
			resultRepo = duckdb.NewResultRepo(client)
		}
	}
	logger.Info().Int("bars", s.Len()).Str("symbol", f.symbol).Msg("series loaded")

	params := scan.Params{
		TargetEnd:     f.targetEnd,
		WindowSize:    f.windowSize,
		Lookahead:     f.lookahead,
		TopN:          f.topN,
		MinSimilarity: f.minSimilarity,
		Metric:        metric,
		Normalize:     method,
		ExcludeRecent: f.excludeRecent,
		Workers:       f.workers,
	}

	if f.prefilter {
		positions, err := prefilterPositions(ctx, cfg, s, params, f)
		if err != nil {
			logger.Fatal().Err(err).Msg("vector pre-filter failed")
		}
		logger.Info().Int("candidates", len(positions)).Msg("pre-filtered candidate positions")
		params.Positions = positions
	}

	rs, err := scan.New(s).Scan(params)
	if err != nil {
		logger.Fatal().Err(err).Msg("scan failed")
	}
	rank.Apply(rs, params.TopN)
	summary := stats.Aggregate(rs)

	printReport(s, rs, summary, f)

	if resultRepo != nil && rs.Len() > 0 {
		run := duckdb.RunRecord{
			ScanID: model.ScanID(f.symbol, f.timeframe,
				s.Bar(rs.TargetEnd).Timestamp, f.windowSize, f.lookahead, f.metric, f.normalize),
			Symbol:     f.symbol,
			Timeframe:  f.timeframe,
			TargetEnd:  s.Bar(rs.TargetEnd).Timestamp,
			WindowSize: f.windowSize,
			Lookahead:  f.lookahead,
			Metric:     f.metric,
			Normalize:  f.normalize,
		}
		if err := resultRepo.SaveRun(ctx, run, rs.Matches); err != nil {
			logger.Warn().Err(err).Msg("failed to persist scan results")
		} else {
			logger.Info().Str("scan_id", run.ScanID).Msg("scan results persisted")
		}
	}
}

// prefilterPositions normalizes the target window and asks the vector index
// for the approximate nearest candidate end positions
func prefilterPositions(ctx context.Context, cfg *config.Config, s *series.Series, p scan.Params, f flags) ([]int, error) {
	targetEnd, err := s.Resolve(p.TargetEnd)
	if err != nil {
		return nil, err
	}
	start := targetEnd - p.WindowSize + 1
	if start < 0 {
		return nil, fmt.Errorf("target window exceeds series bounds")
	}
	vec, err := norm.Normalize(s.Slice(start, targetEnd), p.Normalize)
	if err != nil {
		return nil, err
	}
	vec32 := make([]float32, len(vec))
	for i, v := range vec {
		vec32[i] = float32(v)
	}

	client, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.Milvus.Address})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.LoadCollection(ctx, cfg.Milvus.Collection); err != nil {
		return nil, err
	}
	hits, err := client.SearchPositions(ctx, cfg.Milvus.Collection, vec32, f.symbol, f.timeframe, cfg.Milvus.TopK)
	if err != nil {
		return nil, err
	}

	positions := make([]int, len(hits))
	for i, h := range hits {
		positions[i] = h.EndPos
	}
	return positions, nil
}

// printReport writes the human-readable match report to stdout
func printReport(s *series.Series, rs *model.ResultSet, summary stats.Statistics, f flags) {
	first := rs.Target[0].Timestamp
	last := rs.Target[len(rs.Target)-1].Timestamp
	fmt.Printf("Target window: %s .. %s (%d bars, close %.4f)\n",
		first.Format("2006-01-02"), last.Format("2006-01-02"), len(rs.Target), rs.TargetClose())

	snap := indicator.TakeSnapshot(s.Slice(0, rs.TargetEnd))
	fmt.Printf("Indicators: SMA20 %.4f | EMA20 %.4f | RSI14 %.2f | ATR14 %.4f | MACD %.4f/%.4f\n\n",
		snap.SMA20, snap.EMA20, snap.RSI14, snap.ATR14, snap.MACD, snap.MACDSignal)

	if rs.Len() == 0 {
		fmt.Println("No matches cleared the similarity floor.")
		return
	}

	fmt.Printf("%-5s %-12s %-12s %-10s %-10s %-10s %-10s\n",
		"Rank", "Start", "End", "Sim", "Fwd%", "Max%", "Min%")
	for i, m := range rs.Matches {
		fmt.Printf("%-5d %-12s %-12s %-10.4f %-+10.2f %-+10.2f %-+10.2f\n",
			i+1,
			s.Bar(m.Start).Timestamp.Format("2006-01-02"),
			s.Bar(m.End).Timestamp.Format("2006-01-02"),
			m.Similarity,
			m.FwdReturn*100, m.MaxFwdReturn*100, m.MinFwdReturn*100,
		)
	}
	fmt.Printf("\nForward statistics: %s\n", summary)

	if f.decay > 0 {
		fmt.Println("\nAge-decayed ordering:")
		for i, d := range rank.Rerank(rs, rank.DecayConfig{Lambda: f.decay}) {
			fmt.Printf("%-5d end %-12s score %.4f (weight %.3f, age %d bars)\n",
				i+1, s.Bar(d.End).Timestamp.Format("2006-01-02"), d.FinalScore, d.Weight, d.AgeBars)
		}
	}
}

// applyConfig fills flag values the user left at their sentinel defaults
func applyConfig(f *flags, cfg *config.Config) {
	if f.symbol == "" {
		f.symbol = cfg.Data.Symbol
	}
	if f.timeframe == "" {
		f.timeframe = cfg.Data.Timeframe
	}
	if f.windowSize == 0 {
		f.windowSize = cfg.Scan.WindowSize
	}
	if f.lookahead == 0 {
		f.lookahead = cfg.Scan.Lookahead
	}
	if f.topN == 0 {
		f.topN = cfg.Scan.TopN
	}
	// 0 is a meaningful floor (accept every candidate), so the unset
	// sentinel is negative
	if f.minSimilarity < 0 {
		f.minSimilarity = cfg.Scan.MinSimilarity
	}
	if f.metric == "" {
		f.metric = cfg.Scan.Metric
	}
	if f.normalize == "" {
		f.normalize = cfg.Scan.Normalize
	}
	if f.excludeRecent == 0 {
		f.excludeRecent = cfg.Scan.ExcludeRecent
	}
	if f.workers == 0 {
		f.workers = cfg.Scan.Workers
	}
	if !f.prefilter {
		f.prefilter = cfg.Milvus.Enabled
	}
}

func parseFlags() flags {
	f := flags{}

	flag.StringVar(&f.configPath, "config", "config.yaml", "Config file path")
	flag.StringVar(&f.csvPath, "csv", "", "Load series from CSV instead of DuckDB")
	flag.StringVar(&f.symbol, "symbol", "", "Symbol")
	flag.StringVar(&f.timeframe, "timeframe", "", "Timeframe")
	flag.IntVar(&f.targetEnd, "target", -1, "Target window end position (negative = from end)")
	flag.IntVar(&f.windowSize, "window", 0, "Window size in bars")
	flag.IntVar(&f.lookahead, "lookahead", 0, "Forward window in bars")
	flag.IntVar(&f.topN, "topn", 0, "Number of ranked matches")
	flag.Float64Var(&f.minSimilarity, "minsim", -1, "Similarity floor in [0,1], default from config")
	flag.StringVar(&f.metric, "metric", "", "Similarity metric: correlation|euclidean|weighted")
	flag.StringVar(&f.normalize, "normalize", "", "Normalization: relative|minmax")
	flag.IntVar(&f.excludeRecent, "exclude", 0, "Exclude candidates within this many bars of the target")
	flag.IntVar(&f.workers, "workers", 0, "Parallel scan workers")
	flag.BoolVar(&f.prefilter, "prefilter", false, "Use the Milvus vector index to pre-filter candidates")
	flag.Float64Var(&f.decay, "decay", 0, "Also print an age-decayed ordering with this lambda")
	flag.BoolVar(&f.noSave, "nosave", false, "Do not persist scan results to DuckDB")

	flag.Parse()
	return f
}
