package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/kabuist001/stock-pattern-matcher/pkg/config"
	"github.com/kabuist001/stock-pattern-matcher/pkg/model"
	"github.com/kabuist001/stock-pattern-matcher/pkg/norm"
	natsq "github.com/kabuist001/stock-pattern-matcher/pkg/queue/nats"
	"github.com/kabuist001/stock-pattern-matcher/pkg/rank"
	"github.com/kabuist001/stock-pattern-matcher/pkg/scan"
	"github.com/kabuist001/stock-pattern-matcher/pkg/similarity"
	"github.com/kabuist001/stock-pattern-matcher/pkg/stats"
	"github.com/kabuist001/stock-pattern-matcher/pkg/store/duckdb"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Config file path")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	duckClient, err := duckdb.NewClient(cfg.Database.DuckDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to duckdb")
	}
	defer duckClient.Close()
	if err := duckdb.InitializeSchema(duckClient); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize schema")
	}
	barRepo := duckdb.NewBarRepo(duckClient)
	resultRepo := duckdb.NewResultRepo(duckClient)

	natsClient, err := natsq.NewClient(natsq.Config{
		URL:        cfg.NATS.URL,
		StreamName: cfg.NATS.Stream,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer natsClient.Close()

	subjects := []string{natsq.SubjectScanRequest, natsq.SubjectScanResult}
	if err := natsClient.CreateStream(ctx, subjects); err != nil {
		logger.Fatal().Err(err).Msg("failed to create stream")
	}

	handler := func(msg jetstream.Msg) error {
		req, err := natsq.DecodeScanRequest(msg.Data())
		if err != nil {
			logger.Error().Err(err).Msg("failed to decode scan request")
			return nil // poison message, do not redeliver
		}

		result := execute(ctx, cfg, barRepo, resultRepo, req)
		if result.Error != "" {
			logger.Error().Str("error", result.Error).Str("symbol", req.Symbol).Msg("scan failed")
		} else {
			logger.Info().Str("scan_id", result.ScanID).Int("matches", result.MatchCount).Msg("scan complete")
		}

		payload, err := natsq.Encode(result)
		if err != nil {
			return err
		}
		return natsClient.Publish(ctx, natsq.SubjectScanResult, payload)
	}

	consumer, err := natsClient.Subscribe(ctx, natsq.SubjectScanRequest, "scan-worker", handler)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe to scan requests")
	}
	defer consumer.Stop()

	logger.Info().Msg("scan worker started, waiting for requests")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("shutting down scan worker")
}

// execute runs one scan request end to end and shapes the outcome into a
// result message. Request errors are reported in-band, never as redeliveries.
func execute(ctx context.Context, cfg *config.Config, barRepo *duckdb.BarRepo, resultRepo *duckdb.ResultRepo, req *natsq.ScanRequestMsg) natsq.ScanResultMsg {
	result := natsq.ScanResultMsg{Symbol: req.Symbol, Timeframe: req.Timeframe}

	fail := func(err error) natsq.ScanResultMsg {
		result.Error = err.Error()
		return result
	}

	params, err := buildParams(cfg, req)
	if err != nil {
		return fail(err)
	}

	s, err := barRepo.LoadSeries(ctx, req.Symbol, req.Timeframe)
	if err != nil {
		return fail(err)
	}

	rs, err := scan.New(s).Scan(params)
	if err != nil {
		return fail(err)
	}
	rank.Apply(rs, params.TopN)

	result.ScanID = model.ScanID(req.Symbol, req.Timeframe,
		s.Bar(rs.TargetEnd).Timestamp, params.WindowSize, params.Lookahead,
		params.Metric.String(), params.Normalize.String())
	result.MatchCount = rs.Len()
	result.Matches = natsq.SummarizeMatches(rs.Matches)
	if summary := stats.Aggregate(rs); summary.Defined() {
		result.Statistics = &summary
	}

	run := duckdb.RunRecord{
		ScanID:     result.ScanID,
		Symbol:     req.Symbol,
		Timeframe:  req.Timeframe,
		TargetEnd:  s.Bar(rs.TargetEnd).Timestamp,
		WindowSize: params.WindowSize,
		Lookahead:  params.Lookahead,
		Metric:     params.Metric.String(),
		Normalize:  params.Normalize.String(),
	}
	if err := resultRepo.SaveRun(ctx, run, rs.Matches); err != nil {
		return fail(err)
	}

	return result
}

// buildParams merges a request with the configured scan defaults
func buildParams(cfg *config.Config, req *natsq.ScanRequestMsg) (scan.Params, error) {
	p := scan.DefaultParams()
	p.WindowSize = cfg.Scan.WindowSize
	p.Lookahead = cfg.Scan.Lookahead
	p.TopN = cfg.Scan.TopN
	p.MinSimilarity = cfg.Scan.MinSimilarity
	p.ExcludeRecent = cfg.Scan.ExcludeRecent
	p.Workers = cfg.Scan.Workers

	p.TargetEnd = req.TargetEnd
	if req.TargetEnd == 0 {
		p.TargetEnd = -1
	}
	if req.WindowSize > 0 {
		p.WindowSize = req.WindowSize
	}
	if req.Lookahead > 0 {
		p.Lookahead = req.Lookahead
	}
	if req.TopN > 0 {
		p.TopN = req.TopN
	}
	if req.MinSimilarity > 0 {
		p.MinSimilarity = req.MinSimilarity
	}
	if req.ExcludeRecent > 0 {
		p.ExcludeRecent = req.ExcludeRecent
	}

	metricName := req.Metric
	if metricName == "" {
		metricName = cfg.Scan.Metric
	}
	metric, err := similarity.ParseMetric(metricName)
	if err != nil {
		return p, err
	}
	p.Metric = metric

	methodName := req.Normalize
	if methodName == "" {
		methodName = cfg.Scan.Normalize
	}
	method, err := norm.ParseMethod(methodName)
	if err != nil {
		return p, err
	}
	p.Normalize = method

	return p, nil
}
