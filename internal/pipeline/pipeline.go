// Package pipeline wires Layers 1-5 together behind the three external
// entry points spec.md §6 names: ParseFile, Normalize and MergeForQuery.
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/kkkqkx123/codegraph-parser/internal/cache"
	"github.com/kkkqkx123/codegraph-parser/internal/chunking"
	"github.com/kkkqkx123/codegraph-parser/internal/detection"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/normalize"
	"github.com/kkkqkx123/codegraph-parser/internal/perr"
	"github.com/kkkqkx123/codegraph-parser/internal/postprocess"
	"github.com/kkkqkx123/codegraph-parser/internal/querymerge"
	"github.com/kkkqkx123/codegraph-parser/internal/treesitter"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Pipeline orchestrates Layers 1-5 and owns the shared, concurrency-safe
// resources every file-level task draws on: the tree-sitter parser pool and
// the AST/normalize/adapter caches (spec.md §5).
type Pipeline struct {
	cfg *config.Config

	detector    *detection.Detector
	chunker     *chunking.Coordinator
	postproc    *postprocess.Pipeline
	normalizer  *normalize.Normalizer
	merger      *querymerge.Merger

	parserPool *treesitter.Pool
	astCache   *cache.ASTCache
}

// New builds a Pipeline from the full configuration tree.
func New(cfg *config.Config) (*Pipeline, error) {
	parserPool := treesitter.NewPool(cfg.Performance.ParserPoolSize)

	astCache, err := cache.NewASTCache(cfg.Normalization.ASTCacheCapacity)
	if err != nil {
		return nil, err
	}
	normCache, err := cache.NewNormalizeCache(cfg.Normalization.NormalizeCacheCapacity)
	if err != nil {
		return nil, err
	}
	adapterCache, err := cache.NewAdapterCache(cfg.Normalization.AdapterCacheCapacity)
	if err != nil {
		return nil, err
	}

	merger, err := querymerge.New(&cfg.QueryMerge)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:        cfg,
		detector:   detection.New(&cfg.Detection),
		chunker:    chunking.NewCoordinator(&cfg.Chunking, parserPool),
		postproc:   postprocess.New(&cfg.PostProcess, cfg.Chunking.MaxChunkLines),
		normalizer: normalize.NewNormalizer(adapterCache, normCache),
		merger:     merger,
		parserPool: parserPool,
		astCache:   astCache,
	}, nil
}

// ParseFile runs Layers 1-3 over a source file: detect, chunk (descending
// the fallback ladder as needed), then post-process. This is the
// `parse_file` entry point of spec.md §6.
func (p *Pipeline) ParseFile(ctx context.Context, path string, content []byte) (model.ProcessingResult, error) {
	detectionResult := p.detector.Detect(path, content)

	result, err := p.chunker.Chunk(ctx, chunking.Request{
		Path:      path,
		Content:   content,
		Language:  detectionResult.Language,
		Detection: detectionResult,
		Config:    &p.cfg.Chunking,
	})
	if err != nil {
		return result, perr.Wrap(perr.KindChunkingFallback, "parse_file", "%s: %w", path, err)
	}

	result.Chunks = p.postproc.Run(result.Chunks, content, detectionResult.Language)
	return result, nil
}

// Normalize runs Layer 4 over a source file: parse (or reuse a cached AST)
// and extract the entity/relationship graph. This is the `normalize` entry
// point of spec.md §6.
func (p *Pipeline) Normalize(ctx context.Context, path string, content []byte, language string) ([]model.Entity, []model.Relationship, error) {
	if !treesitter.Supported(language) {
		return []model.Entity{}, []model.Relationship{}, nil
	}
	key := cache.ASTKey(path, content)

	tree, ok := p.astCache.Get(key)
	if !ok {
		var err error
		tree, err = p.parserPool.Parse(ctx, language, content)
		if err != nil {
			return nil, nil, perr.Wrap(perr.KindNormalizationError, "normalize", "%s: %w", path, err)
		}
		p.astCache.Put(key, tree)
	}

	return p.normalizer.Normalize(key, tree)
}

// MergeForQuery runs Layer 5 over a set of retrieved chunks for a given
// query context. This is the `merge_for_query` entry point of spec.md §6.
func (p *Pipeline) MergeForQuery(chunks []model.RetrievedChunk, qctx model.QueryContext) ([]model.CodeChunk, error) {
	return p.merger.Merge(chunks, qctx)
}

// NewJobID returns a fresh job identifier for multi-file processing runs.
func NewJobID() string {
	return uuid.NewString()
}
