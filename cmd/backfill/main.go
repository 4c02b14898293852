package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog"

	"github.com/kabuist001/stock-pattern-matcher/pkg/config"
	"github.com/kabuist001/stock-pattern-matcher/pkg/data"
	"github.com/kabuist001/stock-pattern-matcher/pkg/norm"
	"github.com/kabuist001/stock-pattern-matcher/pkg/series"
	"github.com/kabuist001/stock-pattern-matcher/pkg/store/duckdb"
	"github.com/kabuist001/stock-pattern-matcher/pkg/store/milvus"
)

type flags struct {
	configPath string
	csvPath    string
	symbol     string
	timeframe  string
	index      bool
	windowSize int
	normalize  string
}

func main() {
	f := parseFlags()
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(f.configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if f.symbol == "" {
		f.symbol = cfg.Data.Symbol
	}
	if f.timeframe == "" {
		f.timeframe = cfg.Data.Timeframe
	}
	if f.windowSize == 0 {
		f.windowSize = cfg.Scan.WindowSize
	}
	if f.normalize == "" {
		f.normalize = cfg.Scan.Normalize
	}

	ctx := context.Background()

	logger.Info().Str("csv", f.csvPath).Str("symbol", f.symbol).Msg("starting backfill")

	provider := data.NewCSVProvider(f.csvPath, cfg.Data.Columns)
	s, err := provider.LoadSeries()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load CSV")
	}
	logger.Info().Int("bars", s.Len()).Msg("series loaded and validated")

	client, err := duckdb.NewClient(cfg.Database.DuckDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to duckdb")
	}
	defer client.Close()

	if err := duckdb.InitializeSchema(client); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize schema")
	}

	barRepo := duckdb.NewBarRepo(client)
	if err := barRepo.InsertBatch(ctx, f.symbol, f.timeframe, s.Slice(0, s.Len()-1)); err != nil {
		logger.Fatal().Err(err).Msg("failed to insert bars")
	}
	count, err := barRepo.Count(ctx, f.symbol, f.timeframe)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to count bars")
	}
	logger.Info().Int64("stored", count).Msg("bars stored in DuckDB")

	if f.index {
		if err := buildVectorIndex(ctx, cfg, s, f, logger); err != nil {
			logger.Fatal().Err(err).Msg("failed to build vector index")
		}
	}
}

// buildVectorIndex normalizes every candidate window and stores the vectors
// in Milvus for approximate pre-filtering at search time
func buildVectorIndex(ctx context.Context, cfg *config.Config, s *series.Series, f flags, logger zerolog.Logger) error {
	method, err := norm.ParseMethod(f.normalize)
	if err != nil {
		return err
	}

	client, err := milvus.NewClient(ctx, milvus.Config{Address: cfg.Milvus.Address})
	if err != nil {
		return err
	}
	defer client.Close()

	collection := milvus.CollectionConfig{
		Name:      cfg.Milvus.Collection,
		Dimension: f.windowSize,
		Shards:    2,
	}
	if err := client.CreateCollection(ctx, collection); err != nil {
		return err
	}

	var batch []*milvus.WindowVector
	skipped := 0
	for pos := f.windowSize - 1; pos < s.Len(); pos++ {
		vec, err := norm.Normalize(s.Slice(pos-f.windowSize+1, pos), method)
		if err != nil {
			skipped++ // flat or incomplete windows are not indexable
			continue
		}
		vec32 := make([]float32, len(vec))
		for i, v := range vec {
			vec32[i] = float32(v)
		}
		batch = append(batch, &milvus.WindowVector{
			Symbol:    f.symbol,
			Timeframe: f.timeframe,
			EndPos:    pos,
			Vector:    vec32,
		})

		if len(batch) >= 1000 {
			if err := client.InsertBatch(ctx, collection.Name, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := client.InsertBatch(ctx, collection.Name, batch); err != nil {
		return err
	}

	if err := client.CreateIndex(ctx, collection.Name, "vector"); err != nil {
		return err
	}
	if err := client.Flush(ctx, collection.Name); err != nil {
		return err
	}

	logger.Info().Int("skipped", skipped).Msg("vector index built")
	return nil
}

func parseFlags() flags {
	f := flags{}

	flag.StringVar(&f.configPath, "config", "config.yaml", "Config file path")
	flag.StringVar(&f.csvPath, "csv", "", "CSV file to ingest (required)")
	flag.StringVar(&f.symbol, "symbol", "", "Symbol")
	flag.StringVar(&f.timeframe, "timeframe", "", "Timeframe")
	flag.BoolVar(&f.index, "index", false, "Also build the Milvus vector index")
	flag.IntVar(&f.windowSize, "window", 0, "Window size for the vector index")
	flag.StringVar(&f.normalize, "normalize", "", "Normalization for indexed vectors")

	flag.Parse()

	if f.csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	return f
}
