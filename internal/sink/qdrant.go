// Package sink persists the pipeline's output (chunks, entities, their
// code-to-text descriptions) to Qdrant. This adapts the original implementation's
// internal/vectordb/qdrant.go Client one-to-one in shape (NewClient,
// Initialize, UpsertChunks/Search, Close) but repurposes the payload and
// collection semantics for the parsing pipeline's graph output rather than
// the original implementation's embedding-indexed search chunks: embedding generation is
// explicitly out of scope for this system, so the sink accepts a
// caller-supplied vector (e.g. from an external embedding step) or falls
// back to a zero vector of the configured VectorSize (one dimension when
// unset), and stores the code-to-text
// description alongside the raw content so a caller can index on either.
package sink

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/normalize"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Client is a thin Qdrant-backed sink for parsed chunks and entities.
type Client struct {
	cfg        *config.SinkConfig
	client     *qdrant.Client
	collection string
}

// NewClient connects to Qdrant using the sink configuration.
func NewClient(cfg *config.SinkConfig) (*Client, error) {
	qdrantConfig := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: false,
	}

	client, err := qdrant.NewClient(qdrantConfig)
	if err != nil {
		return nil, fmt.Errorf("sink: connecting to qdrant: %w", err)
	}

	return &Client{cfg: cfg, client: client, collection: cfg.CollectionName}, nil
}

// Initialize creates the sink's collection if it doesn't already exist.
func (c *Client) Initialize(ctx context.Context) error {
	exists, err := c.client.CollectionExists(ctx, c.collection)
	if err != nil {
		return fmt.Errorf("sink: checking collection existence: %w", err)
	}
	if exists {
		log.Printf("sink: collection %s already exists", c.collection)
		return nil
	}

	size := c.cfg.VectorSize
	if size <= 0 {
		size = 1
	}

	err = c.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: c.collection,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(size),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sink: creating collection: %w", err)
	}

	log.Printf("sink: created collection %s (dim=%d)", c.collection, size)
	return nil
}

// UpsertChunks stores CodeChunks, each paired with an optional caller-supplied
// vector (nil yields a zero vector placeholder of the configured VectorSize,
// one dimension when unset).
func (c *Client) UpsertChunks(ctx context.Context, chunks []model.CodeChunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]*qdrant.Value{
			"file_path":  qdrant.NewValueString(chunk.FilePath),
			"chunk_type": qdrant.NewValueString(string(chunk.ChunkType)),
			"content":    qdrant.NewValueString(chunk.Content),
			"language":   qdrant.NewValueString(chunk.Language),
			"start_line": qdrant.NewValueInt(int64(chunk.StartLine)),
			"end_line":   qdrant.NewValueInt(int64(chunk.EndLine)),
			"strategy":   qdrant.NewValueString(chunk.StrategyName),
		}

		vector := zeroVector(c.cfg.VectorSize)
		if vectors != nil && i < len(vectors) && vectors[i] != nil {
			vector = vectors[i]
		}

		points[i] = &qdrant.PointStruct{
			Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.NewString()}},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vector}},
			},
			Payload: payload,
		}
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: c.collection, Points: points})
	if err != nil {
		return fmt.Errorf("sink: upserting chunks: %w", err)
	}
	log.Printf("sink: upserted %d chunks", len(chunks))
	return nil
}

// UpsertEntities stores Entities with their code-to-text description in the
// payload, so a caller can build a keyword or embedding index over either
// the raw content or the natural-language description.
func (c *Client) UpsertEntities(ctx context.Context, filePath string, entities []model.Entity) error {
	if len(entities) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(entities))
	for i, e := range entities {
		payload := map[string]*qdrant.Value{
			"file_path":   qdrant.NewValueString(filePath),
			"node_id":     qdrant.NewValueString(e.NodeId),
			"entity_type": qdrant.NewValueString(string(e.Type)),
			"name":        qdrant.NewValueString(e.Name),
			"content":     qdrant.NewValueString(e.Content),
			"description": qdrant.NewValueString(normalize.DescribeEntity(e)),
			"start_line":  qdrant.NewValueInt(int64(e.StartLine)),
			"end_line":    qdrant.NewValueInt(int64(e.EndLine)),
		}

		points[i] = &qdrant.PointStruct{
			Id: &qdrant.PointId{PointIdOptions: &qdrant.PointId_Uuid{Uuid: uuid.NewString()}},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: zeroVector(c.cfg.VectorSize)}},
			},
			Payload: payload,
		}
	}

	_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{CollectionName: c.collection, Points: points})
	if err != nil {
		return fmt.Errorf("sink: upserting entities: %w", err)
	}
	log.Printf("sink: upserted %d entities", len(entities))
	return nil
}

// Close closes the underlying Qdrant connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func zeroVector(size int) []float32 {
	if size <= 0 {
		size = 1
	}
	return make([]float32, size)
}
