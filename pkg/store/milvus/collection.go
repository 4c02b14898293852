package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

// DefaultCollectionName is the default collection for normalized windows
const DefaultCollectionName = "pattern_windows"

// CollectionConfig holds configuration for creating a collection
type CollectionConfig struct {
	Name      string
	Dimension int // vector dimension, equal to the scan window size
	Shards    int
}

// DefaultCollectionConfig returns defaults matching a 10-bar window
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Name:      DefaultCollectionName,
		Dimension: 10,
		Shards:    2,
	}
}

// CreateCollection creates the pattern_windows collection if missing
func (c *Client) CreateCollection(ctx context.Context, cfg CollectionConfig) error {
	exists, err := c.HasCollection(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	schema := &entity.Schema{
		CollectionName: cfg.Name,
		Description:    "Normalized OHLC window vectors for approximate pattern pre-filtering",
		Fields: []*entity.Field{
			{
				Name:       "window_key",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", cfg.Dimension),
				},
			},
			{
				Name:     "symbol",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "32",
				},
			},
			{
				Name:     "timeframe",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "8",
				},
			},
			{
				Name:     "end_pos",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	if err := c.conn.CreateCollection(ctx, schema, int32(cfg.Shards)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// WindowVector is one normalized candidate window keyed by its end position
type WindowVector struct {
	Symbol    string
	Timeframe string
	EndPos    int
	Vector    []float32
}

// Key builds the deterministic primary key for a window vector
func (w *WindowVector) Key() string {
	return fmt.Sprintf("%s|%s|%d", w.Symbol, w.Timeframe, w.EndPos)
}

// InsertBatch inserts normalized window vectors
func (c *Client) InsertBatch(ctx context.Context, collectionName string, vectors []*WindowVector) error {
	if len(vectors) == 0 {
		return nil
	}

	keys := make([]string, len(vectors))
	embeddings := make([][]float32, len(vectors))
	symbols := make([]string, len(vectors))
	timeframes := make([]string, len(vectors))
	endPositions := make([]int64, len(vectors))

	for i, v := range vectors {
		keys[i] = v.Key()
		embeddings[i] = v.Vector
		symbols[i] = v.Symbol
		timeframes[i] = v.Timeframe
		endPositions[i] = int64(v.EndPos)
	}

	columns := []entity.Column{
		entity.NewColumnVarChar("window_key", keys),
		entity.NewColumnFloatVector("vector", len(embeddings[0]), embeddings),
		entity.NewColumnVarChar("symbol", symbols),
		entity.NewColumnVarChar("timeframe", timeframes),
		entity.NewColumnInt64("end_pos", endPositions),
	}

	if _, err := c.conn.Insert(ctx, collectionName, "", columns...); err != nil {
		return fmt.Errorf("failed to insert: %w", err)
	}
	return nil
}

// PositionScore is one approximate search hit: a candidate end position with
// its COSINE score
type PositionScore struct {
	EndPos int
	Score  float32
}

// SearchPositions runs a TopK approximate search for the given normalized
// target vector and returns the matching candidate end positions.
func (c *Client) SearchPositions(ctx context.Context, collectionName string, vector []float32, symbol, timeframe string, topK int) ([]PositionScore, error) {
	vectors := []entity.Vector{entity.FloatVector(vector)}

	sp, err := entity.NewIndexIvfFlatSearchParam(16) // nprobe
	if err != nil {
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	filter := fmt.Sprintf("symbol == %q && timeframe == %q", symbol, timeframe)
	results, err := c.conn.Search(
		ctx,
		collectionName,
		nil,
		filter,
		[]string{"end_pos"},
		vectors,
		"vector",
		entity.COSINE,
		topK,
		sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	hits := make([]PositionScore, 0, results[0].ResultCount)
	for i := 0; i < results[0].ResultCount; i++ {
		hit := PositionScore{Score: results[0].Scores[i]}
		for _, field := range results[0].Fields {
			if field.Name() != "end_pos" {
				continue
			}
			if col, ok := field.(*entity.ColumnInt64); ok {
				val, _ := col.ValueByIdx(i)
				hit.EndPos = int(val)
			}
		}
		hits = append(hits, hit)
	}

	return hits, nil
}
