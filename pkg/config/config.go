// Package config loads tool configuration from a YAML file with environment
// variable overrides. The engine itself takes explicit parameters; config only
// feeds the CLIs and the worker.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kabuist001/stock-pattern-matcher/pkg/series"
)

// Config holds all tool configuration
type Config struct {
	Data struct {
		Symbol    string           `yaml:"symbol"`
		Timeframe string           `yaml:"timeframe"`
		Columns   series.ColumnMap `yaml:"columns"`
	} `yaml:"data"`
	Database struct {
		DuckDBPath string `yaml:"duckdb_path"`
	} `yaml:"database"`
	NATS struct {
		URL    string `yaml:"url"`
		Stream string `yaml:"stream"`
	} `yaml:"nats"`
	Milvus struct {
		Enabled    bool   `yaml:"enabled"`
		Address    string `yaml:"address"`
		Collection string `yaml:"collection"`
		TopK       int    `yaml:"top_k"`
	} `yaml:"milvus"`
	Scan struct {
		WindowSize    int     `yaml:"window_size"`
		Lookahead     int     `yaml:"lookahead"`
		TopN          int     `yaml:"top_n"`
		MinSimilarity float64 `yaml:"min_similarity"`
		Metric        string  `yaml:"metric"`
		Normalize     string  `yaml:"normalize"`
		ExcludeRecent int     `yaml:"exclude_recent"`
		Workers       int     `yaml:"workers"`
	} `yaml:"scan"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("DUCKDB_PATH"); v != "" {
		cfg.Database.DuckDBPath = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("MILVUS_ADDR"); v != "" {
		cfg.Milvus.Address = v
	}
	if v := os.Getenv("PATTERN_SYMBOL"); v != "" {
		cfg.Data.Symbol = v
	}

	// Defaults
	if cfg.Data.Symbol == "" {
		cfg.Data.Symbol = "SPY"
	}
	if cfg.Data.Timeframe == "" {
		cfg.Data.Timeframe = "1d"
	}
	cfg.Data.Columns = cfg.Data.Columns.WithDefaults()
	if cfg.Database.DuckDBPath == "" {
		cfg.Database.DuckDBPath = "patterns.duckdb"
	}
	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}
	if cfg.NATS.Stream == "" {
		cfg.NATS.Stream = "patterns"
	}
	if cfg.Milvus.Address == "" {
		cfg.Milvus.Address = "localhost:19530"
	}
	if cfg.Milvus.Collection == "" {
		cfg.Milvus.Collection = "pattern_windows"
	}
	if cfg.Milvus.TopK == 0 {
		cfg.Milvus.TopK = 200
	}
	if cfg.Scan.WindowSize == 0 {
		cfg.Scan.WindowSize = 10
	}
	if cfg.Scan.Lookahead == 0 {
		cfg.Scan.Lookahead = 10
	}
	if cfg.Scan.TopN == 0 {
		cfg.Scan.TopN = 20
	}
	if cfg.Scan.MinSimilarity == 0 {
		cfg.Scan.MinSimilarity = 0.7
	}
	if cfg.Scan.Metric == "" {
		cfg.Scan.Metric = "correlation"
	}
	if cfg.Scan.Normalize == "" {
		cfg.Scan.Normalize = "relative"
	}

	return cfg, nil
}
