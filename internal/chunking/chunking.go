// Package chunking implements Layer 2: turning a detected source file into a
// sequence of CodeChunks via one of several strategies, descending a
// fixed fallback ladder (ast -> syntax-aware -> semantic -> markdown/xml-html
// -> symbol-balance -> universal-line) whenever a strategy fails or its
// output violates the line-coverage/line-bound invariants (spec.md §4.2,
// I1, I2). The ladder and per-strategy split logic generalize the original implementation's
// internal/indexer/ast_chunker.go (AST strategy) and
// internal/indexer/chunker.go (line-based strategy, now the emergency rung).
package chunking

import (
	"context"
	"fmt"
	"time"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/treesitter"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Strategy produces chunks for one file. A strategy may return an error or
// a FallbackReason to signal the coordinator should descend the ladder.
type Strategy interface {
	Name() string
	Chunk(ctx context.Context, req Request) (Result, error)
}

// Request is the input every strategy receives.
type Request struct {
	Path       string
	Content    []byte
	Language   string
	Detection  model.DetectionResult
	Config     *config.ChunkingConfig
}

// Result is what a strategy produces before invariant validation.
type Result struct {
	Chunks         []model.CodeChunk
	FallbackReason model.FallbackReason
}

// ladderOrder is the canonical fallback ladder (spec.md §4.2). A detector's
// RecommendedStrategy is tried first; the coordinator then continues down
// this list from wherever the recommendation sat.
var ladderOrder = []string{
	"ast",
	"syntax-aware",
	"semantic",
	"markdown",
	"xml-html",
	"symbol-balance",
	"universal-line",
}

// Coordinator owns a strategy registry and the shared tree-sitter pool, and
// implements the fallback ladder (spec.md §4.2, §9's "tagged result with an
// explicit FallbackReason").
type Coordinator struct {
	strategies map[string]Strategy
	cfg        *config.ChunkingConfig
}

// NewCoordinator builds a Coordinator with every built-in strategy registered.
func NewCoordinator(cfg *config.ChunkingConfig, pool *treesitter.Pool) *Coordinator {
	c := &Coordinator{
		strategies: make(map[string]Strategy),
		cfg:        cfg,
	}
	c.register(&ASTStrategy{pool: pool, cfg: cfg})
	c.register(&SyntaxAwareStrategy{cfg: cfg})
	c.register(&SemanticStrategy{cfg: cfg})
	c.register(&MarkdownStrategy{cfg: cfg})
	c.register(&XMLHTMLStrategy{cfg: cfg})
	c.register(&SymbolBalanceStrategy{cfg: cfg})
	c.register(&UniversalLineStrategy{cfg: cfg})
	return c
}

func (c *Coordinator) register(s Strategy) {
	c.strategies[s.Name()] = s
}

// ladderFrom returns the ladder starting at `start`, falling back to the
// full ladder if start isn't a recognized rung.
func ladderFrom(start string) []string {
	for i, name := range ladderOrder {
		if name == start {
			return ladderOrder[i:]
		}
	}
	return ladderOrder
}

// Chunk runs the fallback ladder starting from the detector's recommended
// strategy, descending on error or invariant violation. universal-line is
// the emergency rung: it has no preconditions and always succeeds, so the
// ladder is guaranteed to terminate with a non-empty chunk set (spec.md I1).
func (c *Coordinator) Chunk(ctx context.Context, req Request) (model.ProcessingResult, error) {
	start := time.Now()
	ladder := ladderFrom(req.Detection.RecommendedStrategy)

	var lastReason model.FallbackReason
	for i, name := range ladder {
		strategy, ok := c.strategies[name]
		if !ok {
			continue
		}

		result, err := strategy.Chunk(ctx, req)
		if err != nil {
			lastReason = reasonForError(name, err)
			continue
		}

		if reason := validate(result.Chunks, req.Content); reason != model.FallbackNone {
			lastReason = reason
			continue
		}

		applyComplexity(result.Chunks)

		fallback := result.FallbackReason
		if i > 0 && fallback == model.FallbackNone {
			fallback = lastReason
		}

		return model.ProcessingResult{
			Chunks:         result.Chunks,
			Success:        true,
			StrategyUsed:   name,
			ExecutionMs:    time.Since(start).Milliseconds(),
			FallbackReason: fallback,
		}, nil
	}

	return model.ProcessingResult{
		Success:        false,
		FallbackReason: model.FallbackNoChunks,
		ExecutionMs:    time.Since(start).Milliseconds(),
	}, fmt.Errorf("chunking: every strategy in the fallback ladder failed for %s", req.Path)
}

// applyComplexity fills in CodeChunk.Complexity (spec.md §4.4.3) for every
// chunk a strategy didn't already set it on.
func applyComplexity(chunks []model.CodeChunk) {
	for i := range chunks {
		if chunks[i].Complexity == 0 {
			chunks[i].Complexity = model.Complexity(chunks[i].Content)
		}
	}
}

func reasonForError(strategyName string, err error) model.FallbackReason {
	switch strategyName {
	case "ast":
		return model.FallbackParseError
	default:
		return model.FallbackNoChunks
	}
}

// validate enforces invariant I1 (every source line is covered by at least
// one chunk, with no gaps) and I2 (chunk line bounds are valid:
// 1 <= start <= end <= lineCount). Overlapping chunks are tolerated: I1 only
// requires monotonically non-decreasing coverage with no gap, not
// disjointness. An empty file is valid as a single chunk spanning line 1.
func validate(chunks []model.CodeChunk, content []byte) model.FallbackReason {
	if len(chunks) == 0 {
		return model.FallbackNoChunks
	}

	lineCount := countLines(content)
	if lineCount == 0 {
		if len(chunks) == 1 && chunks[0].StartLine == 1 && chunks[0].EndLine == 1 {
			return model.FallbackNone
		}
		return model.FallbackInvariantI2
	}
	expectedNext := 1
	for _, ch := range chunks {
		if ch.StartLine < 1 || ch.EndLine < ch.StartLine || ch.EndLine > lineCount {
			return model.FallbackInvariantI2
		}
		if ch.StartLine > expectedNext {
			return model.FallbackInvariantI1
		}
		if ch.EndLine+1 > expectedNext {
			expectedNext = ch.EndLine + 1
		}
	}
	if expectedNext-1 < lineCount {
		return model.FallbackInvariantI1
	}
	return model.FallbackNone
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := 1
	for _, b := range content {
		if b == '\n' {
			n++
		}
	}
	return n
}
