// Package postprocess implements Layer 3: a fixed five-step pipeline that
// repairs and polishes the chunk set Layer 2 produced (spec.md §4.3):
// symbol-balance repair, filter+merge of undersized chunks, tail
// rebalancing, boundary optimization, and overlap injection. The steps
// always run in this order — post-processing is not pluggable the way
// chunking strategies are.
package postprocess

import (
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/chunking"
	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Pipeline runs the five post-processing steps over a chunk set.
type Pipeline struct {
	cfg           *config.PostProcessConfig
	maxChunkLines int
}

// New builds a Pipeline from the post_process config section. maxChunkLines
// comes from the chunking config section, since steps 2 and 5 both need to
// know the ceiling a merge or an overlap-padded chunk must not exceed.
func New(cfg *config.PostProcessConfig, maxChunkLines int) *Pipeline {
	return &Pipeline{cfg: cfg, maxChunkLines: maxChunkLines}
}

// Run applies all five steps in fixed order and returns the polished chunk
// set. content is the original file bytes, used to recover lines spanning a
// merge and to compute overlap windows.
func (p *Pipeline) Run(chunks []model.CodeChunk, content []byte, language string) []model.CodeChunk {
	lines := splitLines(string(content))

	chunks = repairSymbolBalance(chunks, lines)
	chunks = filterAndMergeSmall(chunks, lines, p.cfg.MergeSmallChunksBelow, p.maxChunkLines)
	chunks = rebalanceTail(chunks, lines, p.cfg.MinFinalRatio)
	chunks = optimizeBoundaries(chunks, lines, language)
	chunks = injectOverlap(chunks, lines, p.cfg, p.maxChunkLines)

	return chunks
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func rebuild(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// repairSymbolBalance extends any chunk whose bracket/paren/brace count is
// unbalanced forward until balance returns to zero or the file ends,
// absorbing whatever following chunk(s) it needs to. This is the first
// step because every later step assumes chunks end on a syntactically
// closed construct.
func repairSymbolBalance(chunks []model.CodeChunk, lines []string) []model.CodeChunk {
	var out []model.CodeChunk
	i := 0
	for i < len(chunks) {
		c := chunks[i]
		depth := balance(c.Content)
		j := i
		for depth != 0 && j+1 < len(chunks) {
			j++
			depth += balance(chunks[j].Content)
			c.EndLine = chunks[j].EndLine
		}
		if j > i {
			c.Content = rebuild(lines, c.StartLine, c.EndLine)
			c.ChunkType = model.ChunkTypeMerged
		}
		out = append(out, c)
		i = j + 1
	}
	return out
}

func balance(content string) int {
	d := 0
	for _, r := range content {
		switch r {
		case '{', '(', '[':
			d++
		case '}', ')', ']':
			d--
		}
	}
	return d
}

// filterAndMergeSmall drops zero-length chunks, then for every remaining
// undersized chunk merges it into whichever of its two neighbors is
// "lexically closer" — here, the neighbor with the smaller line gap when
// both merges fit within maxChunkLines, a tie going to the previous one —
// falling back to the one
// neighbor that fits if only one does, and leaving the chunk untouched if
// neither neighbor's merge would fit (spec.md §4.3 step 2).
func filterAndMergeSmall(chunks []model.CodeChunk, lines []string, threshold, maxChunkLines int) []model.CodeChunk {
	var filtered []model.CodeChunk
	for _, c := range chunks {
		if c.LineCount() > 0 {
			filtered = append(filtered, c)
		}
	}

	if maxChunkLines <= 0 {
		maxChunkLines = 1 << 30
	}

	out := make([]model.CodeChunk, len(filtered))
	copy(out, filtered)

	for i := 0; i < len(out); i++ {
		if out[i].LineCount() >= threshold {
			continue
		}

		prevOK := i > 0 && out[i-1].LineCount()+out[i].LineCount() <= maxChunkLines
		nextOK := i+1 < len(out) && out[i].LineCount()+out[i+1].LineCount() <= maxChunkLines

		switch {
		case prevOK && nextOK:
			// "Lexically closer" means smaller line-gap to the neighbor;
			// chunks coming out of Layer 2 are contiguous so this is almost
			// always a tie, which resolves to the previous chunk.
			gapPrev := out[i].StartLine - out[i-1].EndLine
			gapNext := out[i+1].StartLine - out[i].EndLine
			if gapNext < gapPrev {
				out = mergeInto(out, i, i+1, lines)
			} else {
				out = mergeInto(out, i-1, i, lines)
			}
			i--
		case prevOK:
			out = mergeInto(out, i-1, i, lines)
			i--
		case nextOK:
			out = mergeInto(out, i, i+1, lines)
			i--
		default:
			// Neither neighbor's merge fits under maxChunkLines: keep the
			// small chunk standing alone rather than violate the size cap.
		}
	}
	return out
}

// mergeInto folds chunk b into chunk a (a must precede b), rebuilding
// content verbatim from the original source lines, and returns the chunk
// slice with b removed.
func mergeInto(chunks []model.CodeChunk, a, b int, lines []string) []model.CodeChunk {
	merged := chunks[a]
	merged.EndLine = chunks[b].EndLine
	merged.Content = rebuild(lines, merged.StartLine, merged.EndLine)
	merged.ChunkType = model.ChunkTypeMerged

	out := make([]model.CodeChunk, 0, len(chunks)-1)
	out = append(out, chunks[:a]...)
	out = append(out, merged)
	out = append(out, chunks[b+1:]...)
	return out
}

// rebalanceTail merges the final chunk into its predecessor when it falls
// below minFinalRatio of the predecessor's size, since a short last chunk
// is almost always a dangling fragment (trailing comment, EOF newline)
// rather than meaningful content on its own (spec.md §4.3 step 3).
func rebalanceTail(chunks []model.CodeChunk, lines []string, minFinalRatio float64) []model.CodeChunk {
	if len(chunks) < 2 {
		return chunks
	}
	last := chunks[len(chunks)-1]
	prev := chunks[len(chunks)-2]
	if float64(last.LineCount()) >= minFinalRatio*float64(prev.LineCount()) {
		return chunks
	}

	merged := prev
	merged.EndLine = last.EndLine
	merged.Content = rebuild(lines, merged.StartLine, merged.EndLine)
	merged.ChunkType = model.ChunkTypeMerged

	out := make([]model.CodeChunk, len(chunks)-1)
	copy(out, chunks[:len(chunks)-2])
	out[len(out)-1] = merged
	return out
}

// optimizeBoundaries nudges each chunk's end line to the highest-scoring
// line within a small window, only when that line scores strictly higher
// than the current end line and the move doesn't cross into the next
// chunk's content, so chunk edges land on blank lines or
// construct starts rather than mid-statement. It shares chunking.BoundaryScore
// with Layer 2's syntax-aware strategy so a boundary means the same thing
// whether Layer 2 or Layer 3 found it.
func optimizeBoundaries(chunks []model.CodeChunk, lines []string, language string) []model.CodeChunk {
	spec := langspec.Get(language)
	if len(chunks) < 2 {
		return chunks
	}
	depths := chunking.ComputeDepths(lines)

	const window = 2
	for i := 0; i < len(chunks)-1; i++ {
		boundary := chunks[i].EndLine
		best := boundary
		bestScore := 0.0
		if idx := boundary - 1; idx >= 0 && idx < len(lines) {
			bestScore = chunking.BoundaryScore(lines, idx, depths, spec)
		}
		for delta := -window; delta <= window; delta++ {
			idx := boundary + delta - 1
			if idx < 0 || idx >= len(lines) {
				continue
			}
			if boundary+delta >= chunks[i+1].EndLine || boundary+delta < chunks[i].StartLine {
				continue
			}
			score := chunking.BoundaryScore(lines, idx, depths, spec)
			if score > bestScore {
				bestScore = score
				best = boundary + delta
			}
		}
		if best != boundary && bestScore > 0 {
			chunks[i].EndLine = best
			chunks[i].Content = rebuild(lines, chunks[i].StartLine, best)
			chunks[i+1].StartLine = best + 1
			chunks[i+1].Content = rebuild(lines, best+1, chunks[i+1].EndLine)
		}
	}
	return chunks
}

// injectOverlap prepends each chunk's leading context — the trailing lines
// of its predecessor — directly to its Content, per spec.md §4.3 step 5 and
// invariant I5's explicit carve-out for overlap prefixes. StartLine is left
// unchanged: the prefix is context, not a claim that the chunk now starts
// earlier. Disabled unless cfg.EnableOverlap is set, capped at
// cfg.MaxOverlapRatio * maxChunkLines lines, and never applied to heading
// chunks (P10).
func injectOverlap(chunks []model.CodeChunk, lines []string, cfg *config.PostProcessConfig, maxChunkLines int) []model.CodeChunk {
	if cfg == nil || !cfg.EnableOverlap || cfg.OverlapLines <= 0 {
		return chunks
	}

	overlapCap := cfg.OverlapLines
	if maxChunkLines > 0 {
		ratioCap := int(float64(maxChunkLines) * cfg.MaxOverlapRatio)
		if ratioCap > 0 && ratioCap < overlapCap {
			overlapCap = ratioCap
		}
	}
	if overlapCap <= 0 {
		return chunks
	}

	for i := 1; i < len(chunks); i++ {
		if chunks[i].ChunkType == model.ChunkTypeHeading {
			continue
		}
		prev := chunks[i-1]
		start := prev.EndLine - overlapCap + 1
		if start < prev.StartLine {
			start = prev.StartLine
		}
		overlap := rebuild(lines, start, prev.EndLine)
		if overlap == "" {
			continue
		}
		chunks[i].Content = overlap + "\n" + chunks[i].Content
		if chunks[i].Extras == nil {
			chunks[i].Extras = map[string]any{}
		}
		chunks[i].Extras["overlap_lines"] = prev.EndLine - start + 1
	}
	return chunks
}
