package chunking

import (
	"context"
	"fmt"

	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// SyntaxAwareStrategy chunks by greedily accumulating lines up to
// MaxChunkLines, then looking ahead up to BoundaryLookahead lines for the
// best-scoring split point above GoodSplitThreshold before cutting —
// generalizing the original implementation's createLineChunks/getFunctionBoundaryPattern
// (internal/indexer/chunker.go) from a fixed three-language switch to the
// internal/langspec registry.
type SyntaxAwareStrategy struct {
	cfg *config.ChunkingConfig
}

func (s *SyntaxAwareStrategy) Name() string { return "syntax-aware" }

func (s *SyntaxAwareStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	spec := langspec.Get(req.Language)
	if spec == nil {
		return Result{}, fmt.Errorf("syntax-aware strategy: unknown language %q", req.Language)
	}
	chunks := chunkLinesWithBoundary(req, spec, true)
	if len(chunks) == 0 {
		return Result{}, fmt.Errorf("syntax-aware strategy: empty file")
	}
	return Result{Chunks: chunks}, nil
}

// SymbolBalanceStrategy only cuts at lines where bracket/brace/paren depth
// returns to zero, guaranteeing no chunk ends mid-construct even without a
// parser. This is the rung below syntax-aware for languages/files where the
// boundary regex table doesn't apply cleanly.
type SymbolBalanceStrategy struct {
	cfg *config.ChunkingConfig
}

func (s *SymbolBalanceStrategy) Name() string { return "symbol-balance" }

func (s *SymbolBalanceStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	lines := splitLines(string(req.Content))
	if len(lines) == 0 {
		return Result{}, fmt.Errorf("symbol-balance strategy: empty file")
	}

	depths := make([]int, len(lines))
	depth := 0
	for i, line := range lines {
		depth += symbolDelta(line)
		depths[i] = depth
	}

	var chunks []model.CodeChunk
	start := 0
	for i := 0; i < len(lines); i++ {
		atBoundary := depths[i] == 0
		tooLong := i-start+1 >= req.Config.MaxChunkLines
		if (atBoundary && i-start+1 >= req.Config.MinChunkLines) || i == len(lines)-1 || (tooLong && atBoundary) {
			chunks = append(chunks, model.CodeChunk{
				Content:      joinLines(lines[start : i+1]),
				StartLine:    start + 1,
				EndLine:      i + 1,
				Language:     req.Language,
				FilePath:     req.Path,
				StrategyName: s.Name(),
				ChunkType:    model.ChunkTypeText,
			})
			start = i + 1
		}
	}
	if start < len(lines) {
		chunks = append(chunks, model.CodeChunk{
			Content:      joinLines(lines[start:]),
			StartLine:    start + 1,
			EndLine:      len(lines),
			Language:     req.Language,
			FilePath:     req.Path,
			StrategyName: s.Name(),
			ChunkType:    model.ChunkTypeText,
		})
	}
	return Result{Chunks: chunks}, nil
}

func symbolDelta(line string) int {
	d := 0
	for _, r := range line {
		switch r {
		case '{', '(', '[':
			d++
		case '}', ')', ']':
			d--
		}
	}
	return d
}

// UniversalLineStrategy is the emergency rung (spec.md §9): fixed-size line
// windows with a fixed overlap, no boundary analysis, no parser, no
// preconditions. It always produces a full-coverage chunk set and therefore
// always passes validation, guaranteeing the fallback ladder terminates.
type UniversalLineStrategy struct {
	cfg *config.ChunkingConfig
}

func (s *UniversalLineStrategy) Name() string { return "universal-line" }

func (s *UniversalLineStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	spec := langspec.Get(req.Language)
	chunks := chunkLinesWithBoundary(req, spec, false)
	if len(chunks) == 0 {
		chunks = []model.CodeChunk{{
			Content:      string(req.Content),
			StartLine:    1,
			EndLine:      1,
			Language:     req.Language,
			FilePath:     req.Path,
			StrategyName: s.Name(),
			ChunkType:    model.ChunkTypeText,
		}}
	}
	return Result{Chunks: chunks}, nil
}

// chunkLinesWithBoundary is the shared greedy-accumulate-then-lookahead
// line chunker used by both syntax-aware (boundary-seeking) and
// universal-line (pure fixed windows, useBoundary=false).
func chunkLinesWithBoundary(req Request, spec *langspec.Spec, useBoundary bool) []model.CodeChunk {
	lines := splitLines(string(req.Content))
	if len(lines) == 0 {
		return nil
	}

	maxLines := req.Config.MaxChunkLines
	if maxLines <= 0 {
		maxLines = 100
	}
	overlap := req.Config.OverlapLines
	threshold := req.Config.GoodSplitThreshold
	lookahead := req.Config.BoundaryLookahead
	depths := ComputeDepths(lines)

	var chunks []model.CodeChunk
	start := 0
	for start < len(lines) {
		end := start + maxLines
		if end > len(lines) {
			end = len(lines)
		} else if useBoundary && spec != nil {
			if split := findGoodSplitPoint(lines, end, lookahead, depths, spec, threshold); split != -1 {
				end = split + 1
			}
		}

		chunks = append(chunks, model.CodeChunk{
			Content:      joinLines(lines[start:end]),
			StartLine:    start + 1,
			EndLine:      end,
			Language:     req.Language,
			FilePath:     req.Path,
			StrategyName: strategyLabel(useBoundary),
			ChunkType:    model.ChunkTypeText,
		})

		if end >= len(lines) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func strategyLabel(useBoundary bool) string {
	if useBoundary {
		return "syntax-aware"
	}
	return "universal-line"
}
