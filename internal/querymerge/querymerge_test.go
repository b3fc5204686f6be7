package querymerge

import (
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func testMerger(t *testing.T, cfg *config.QueryMergeConfig) *Merger {
	t.Helper()
	m, err := New(cfg)
	if err != nil {
		t.Skipf("tiktoken encoding unavailable in this environment: %v", err)
	}
	return m
}

func retrieved(path string, start, end int, score float64) model.RetrievedChunk {
	return model.RetrievedChunk{
		Chunk: model.CodeChunk{
			FilePath:  path,
			StartLine: start,
			EndLine:   end,
			Content:   "content",
			Language:  "go",
		},
		Score: score,
	}
}

func TestMergeConservativeJoinsAdjacentChunksInSameFile(t *testing.T) {
	cfg := &config.QueryMergeConfig{
		Strategy:             "conservative",
		ConservativeGapLines: 3,
		MaxContextSize:       0,
		MaxChunkCount:        10,
		TokenModel:           "cl100k_base",
	}
	m := testMerger(t, cfg)

	chunks := []model.RetrievedChunk{
		retrieved("a.go", 1, 10, 0.9),
		retrieved("a.go", 12, 20, 0.8), // gap of 1 line, within ConservativeGapLines
	}

	merged, err := m.Merge(chunks, model.QueryContext{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected adjacent chunks to merge into 1, got %d", len(merged))
	}
	if merged[0].StartLine != 1 || merged[0].EndLine != 20 {
		t.Errorf("merged range = %d-%d, want 1-20", merged[0].StartLine, merged[0].EndLine)
	}
}

func TestMergeConservativeKeepsDistantChunksSeparate(t *testing.T) {
	cfg := &config.QueryMergeConfig{
		Strategy:             "conservative",
		ConservativeGapLines: 3,
		MaxChunkCount:        10,
		TokenModel:           "cl100k_base",
	}
	m := testMerger(t, cfg)

	chunks := []model.RetrievedChunk{
		retrieved("a.go", 1, 10, 0.9),
		retrieved("a.go", 100, 110, 0.8), // far apart
	}

	merged, err := m.Merge(chunks, model.QueryContext{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected distant chunks to stay separate, got %d", len(merged))
	}
}

func TestMergeDoesNotCrossFilesByDefault(t *testing.T) {
	cfg := &config.QueryMergeConfig{
		Strategy:             "aggressive",
		ConservativeGapLines: 3,
		MaxChunkCount:        10,
		TokenModel:           "cl100k_base",
	}
	m := testMerger(t, cfg)

	chunks := []model.RetrievedChunk{
		retrieved("a.go", 1, 10, 0.9),
		retrieved("b.go", 11, 20, 0.9),
	}

	merged, err := m.Merge(chunks, model.QueryContext{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected cross-file merge to be disabled by default, got %d groups", len(merged))
	}
}

func retrievedWithContent(path string, start, end int, score float64, content string) model.RetrievedChunk {
	r := retrieved(path, start, end, score)
	r.Chunk.Content = content
	return r
}

func TestMergeSemanticSplitsOnLowScore(t *testing.T) {
	cfg := &config.QueryMergeConfig{
		Strategy:            "semantic",
		SimilarityThreshold: 0.7,
		MaxChunkCount:       10,
		TokenModel:          "cl100k_base",
	}
	m := testMerger(t, cfg)

	// chunk1 and chunk2 share no words (low content similarity) and a wide
	// score gap, so their combined_semantic_similarity falls below
	// threshold even though they're line-adjacent. chunk2 and chunk3 share
	// identical content, so high content similarity plus a narrower score
	// gap clears the threshold and merges them into one group.
	chunks := []model.RetrievedChunk{
		retrievedWithContent("a.go", 1, 10, 0.9, "alpha beta gamma delta function foo"),
		retrievedWithContent("a.go", 11, 20, 0.2, "lambda sigma theta omega method bar"),
		retrievedWithContent("a.go", 21, 30, 0.8, "lambda sigma theta omega method bar"),
	}

	merged, err := m.Merge(chunks, model.QueryContext{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(merged) != 2 {
		t.Fatalf("expected low-similarity chunk to split the group, got %d groups: %+v", len(merged), merged)
	}
}

func TestMergedChunksRetainMaxScore(t *testing.T) {
	cfg := &config.QueryMergeConfig{
		Strategy:             "conservative",
		ConservativeGapLines: 3,
		MaxChunkCount:        10,
		TokenModel:           "cl100k_base",
	}
	m := testMerger(t, cfg)

	chunks := []model.RetrievedChunk{
		retrieved("a.go", 1, 10, 0.4),
		retrieved("a.go", 12, 20, 0.95),
	}

	merged, err := m.Merge(chunks, model.QueryContext{})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected chunks to merge into 1, got %d", len(merged))
	}
	if merged[0].Score != 0.95 {
		t.Errorf("merged Score = %v, want max(0.4, 0.95) = 0.95", merged[0].Score)
	}
}
