// Package querymerge implements Layer 5: merging retrieved, adjacent chunks
// at query time into larger contiguous context windows (spec.md §4.5).
// Token-budget accounting uses github.com/pkoukk/tiktoken-go, the same
// encoding the original implementation's internal/indexer/token_chunker.go uses for
// token-counted chunking — repurposed here for the context-window budget
// rather than the chunk-size budget, since "max_context_size" is naturally
// token-denominated for anything destined for an LLM prompt.
package querymerge

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/pkoukk/tiktoken-go"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Merger runs Layer 5 over a set of retrieved chunks plus a QueryContext.
type Merger struct {
	cfg *config.QueryMergeConfig
	enc *tiktoken.Tiktoken
}

// New builds a Merger, loading the configured tiktoken encoding.
func New(cfg *config.QueryMergeConfig) (*Merger, error) {
	enc, err := tiktoken.GetEncoding(cfg.TokenModel)
	if err != nil {
		return nil, fmt.Errorf("querymerge: loading token encoding %q: %w", cfg.TokenModel, err)
	}
	return &Merger{cfg: cfg, enc: enc}, nil
}

func (m *Merger) tokenCount(s string) int {
	return len(m.enc.Encode(s, nil, nil))
}

// Merge dispatches to the strategy named in either the QueryContext's
// MergeOptions or, if unset, the Merger's configured default.
func (m *Merger) Merge(chunks []model.RetrievedChunk, qctx model.QueryContext) ([]model.CodeChunk, error) {
	opts := qctx.MergeOptions
	strategy := opts.Strategy
	if strategy == "" {
		strategy = model.MergeStrategyName(m.cfg.Strategy)
	}

	gap := opts.ConservativeGapLines
	if gap == 0 {
		gap = m.cfg.ConservativeGapLines
	}
	maxContext := opts.MaxContextSize
	if maxContext == 0 {
		maxContext = m.cfg.MaxContextSize
	}
	maxCount := opts.MaxChunkCount
	if maxCount == 0 {
		maxCount = m.cfg.MaxChunkCount
	}
	threshold := opts.SimilarityThreshold
	if threshold == 0 {
		threshold = m.cfg.SimilarityThreshold
	}
	crossFile := opts.CrossFile || m.cfg.CrossFile

	switch strategy {
	case model.MergeAggressive:
		return m.mergeWithinFile(chunks, 1<<30, maxContext, maxCount, crossFile), nil
	case model.MergeSemantic:
		return m.mergeSemantic(chunks, threshold, maxContext, maxCount, crossFile), nil
	default:
		return m.mergeWithinFile(chunks, gap, maxContext, maxCount, crossFile), nil
	}
}

type byFileThenLine []model.RetrievedChunk

func (b byFileThenLine) Len() int      { return len(b) }
func (b byFileThenLine) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byFileThenLine) Less(i, j int) bool {
	if b[i].Chunk.FilePath != b[j].Chunk.FilePath {
		return b[i].Chunk.FilePath < b[j].Chunk.FilePath
	}
	return b[i].Chunk.StartLine < b[j].Chunk.StartLine
}

// mergeWithinFile implements both the conservative strategy (small gap) and
// the aggressive strategy (effectively unbounded gap): chunks from the same
// file are merged into a contiguous band whenever the line gap between them
// is <= maxGap, subject to the token and chunk-count budgets.
func (m *Merger) mergeWithinFile(chunks []model.RetrievedChunk, maxGap, maxContext, maxCount int, crossFile bool) []model.CodeChunk {
	sorted := append([]model.RetrievedChunk(nil), chunks...)
	sort.Sort(byFileThenLine(sorted))

	var result []model.CodeChunk
	i := 0
	for i < len(sorted) {
		group := []model.RetrievedChunk{sorted[i]}
		j := i + 1
		for j < len(sorted) {
			sameFile := sorted[j].Chunk.FilePath == group[len(group)-1].Chunk.FilePath
			if !sameFile && !crossFile {
				break
			}
			gapLines := sorted[j].Chunk.StartLine - group[len(group)-1].Chunk.EndLine
			if sameFile && gapLines > maxGap {
				break
			}
			if !sameFile && !crossFile {
				break
			}
			group = append(group, sorted[j])
			j++
		}
		result = append(result, m.collapse(group))
		i = j
		if len(result) >= maxCount {
			break
		}
	}
	return m.applyTokenBudget(result, maxContext)
}

// mergeSemantic implements spec.md §4.5's semantic strategy: consecutive
// chunks merge when their pairwise combinedSemanticSimilarity against the
// chunk already at the end of the current group clears threshold, rather
// than thresholding each chunk's own retrieval score in isolation.
func (m *Merger) mergeSemantic(chunks []model.RetrievedChunk, threshold float64, maxContext, maxCount int, crossFile bool) []model.CodeChunk {
	sorted := append([]model.RetrievedChunk(nil), chunks...)
	sort.Sort(byFileThenLine(sorted))

	var result []model.CodeChunk
	var group []model.RetrievedChunk
	flush := func() {
		if len(group) > 0 {
			result = append(result, m.collapse(group))
			group = nil
		}
	}

	for _, c := range sorted {
		if len(group) == 0 {
			group = append(group, c)
			continue
		}

		last := group[len(group)-1]
		sameFile := last.Chunk.FilePath == c.Chunk.FilePath
		if !sameFile && !crossFile {
			flush()
			group = append(group, c)
			continue
		}

		if combinedSemanticSimilarity(last, c) >= threshold {
			group = append(group, c)
		} else {
			flush()
			group = append(group, c)
		}

		if len(result) >= maxCount {
			break
		}
	}
	flush()

	return m.applyTokenBudget(result, maxContext)
}

// combinedSemanticSimilarity implements spec.md §4.5's semantic-merge score:
//
//	0.4*content_sim(a,b) + 0.4*(1-|score(a)-score(b)|) + 0.2*structure_sim(a,b)
func combinedSemanticSimilarity(a, b model.RetrievedChunk) float64 {
	contentSim := contentSimilarity(a.Chunk, b.Chunk)
	relSim := 1 - math.Abs(a.Score-b.Score)
	structSim := structureSimilarity(a.Chunk, b.Chunk)
	return 0.4*contentSim + 0.4*relSim + 0.2*structSim
}

// contentSimilarity is a Jaccard index over lowercased word tokens, a cheap
// stand-in for embedding cosine similarity that still discriminates
// genuinely unrelated content from near-duplicate content without calling
// out to an embedding model mid-merge.
func contentSimilarity(a, b model.CodeChunk) float64 {
	wa, wb := wordSet(a.Content), wordSet(b.Content)
	if len(wa) == 0 && len(wb) == 0 {
		return 1
	}
	intersection := 0
	for w := range wa {
		if wb[w] {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// structureSimilarity returns 1 when both chunks carry the same ChunkType
// (both functions, both headings...) and a low but nonzero baseline
// otherwise, since two chunks of different kinds can still belong in the
// same context window.
func structureSimilarity(a, b model.CodeChunk) float64 {
	if a.ChunkType == b.ChunkType {
		return 1.0
	}
	return 0.3
}

// collapse joins a group of retrieved chunks, in order, into one merged
// CodeChunk. Contents are joined with newlines as they are; overlap context
// that Layer 3 prefixed to a chunk is neither detected nor removed.
func (m *Merger) collapse(group []model.RetrievedChunk) model.CodeChunk {
	maxScore := group[0].Score
	for _, g := range group[1:] {
		if g.Score > maxScore {
			maxScore = g.Score
		}
	}

	if len(group) == 1 {
		c := group[0].Chunk
		if c.ChunkType != model.ChunkTypeMerged {
			c.Score = maxScore
			return c
		}
	}

	first := group[0].Chunk
	last := group[len(group)-1].Chunk

	var content string
	for i, g := range group {
		if i > 0 {
			content += "\n"
		}
		content += g.Chunk.Content
	}

	return model.CodeChunk{
		Content:      content,
		StartLine:    first.StartLine,
		EndLine:      last.EndLine,
		Language:     first.Language,
		FilePath:     first.FilePath,
		StrategyName: "query-merge",
		ChunkType:    model.ChunkTypeMerged,
		// Score carries the maximum retrieval similarity among the group's
		// components (spec.md §4.5 P11).
		Score: maxScore,
	}
}

// applyTokenBudget truncates the merged chunk list so the cumulative token
// count stays within maxContext, dropping lowest-priority (later) chunks
// first since the caller already ordered by file/line.
func (m *Merger) applyTokenBudget(chunks []model.CodeChunk, maxContext int) []model.CodeChunk {
	if maxContext <= 0 {
		return chunks
	}
	total := 0
	var kept []model.CodeChunk
	for _, c := range chunks {
		t := m.tokenCount(c.Content)
		if total+t > maxContext && len(kept) > 0 {
			break
		}
		total += t
		kept = append(kept, c)
	}
	return kept
}
