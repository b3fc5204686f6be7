package chunking

import (
	"context"
	"strings"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func contentSymbolDelta(content string) int {
	d := 0
	for _, line := range strings.Split(content, "\n") {
		d += symbolDelta(line)
	}
	return d
}

func testChunkingConfig() *config.ChunkingConfig {
	return &config.ChunkingConfig{
		MaxChunkLines:      5,
		MinChunkLines:      1,
		OverlapLines:       1,
		BoundaryLookahead:  2,
		GoodSplitThreshold: 0.6,
	}
}

func TestUniversalLineStrategyAlwaysProducesChunks(t *testing.T) {
	content := strings.Repeat("line\n", 20)
	req := Request{
		Path:     "file.txt",
		Content:  []byte(content),
		Language: "text",
		Config:   testChunkingConfig(),
	}

	s := &UniversalLineStrategy{cfg: req.Config}
	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("UniversalLineStrategy.Chunk returned error: %v", err)
	}
	if len(result.Chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	if reason := validate(result.Chunks, req.Content); reason != model.FallbackNone {
		t.Errorf("universal-line output failed validation: %v", reason)
	}
}

func TestUniversalLineStrategyEmptyFileProducesSingleChunk(t *testing.T) {
	req := Request{
		Path:     "empty.txt",
		Content:  []byte(""),
		Language: "text",
		Config:   testChunkingConfig(),
	}
	s := &UniversalLineStrategy{cfg: req.Config}
	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Chunks) != 1 {
		t.Fatalf("expected emergency single-chunk fallback, got %d chunks", len(result.Chunks))
	}
}

func TestSymbolBalanceStrategyNeverCutsMidConstruct(t *testing.T) {
	content := "func f() {\n  if true {\n    return\n  }\n}\nfunc g() {\n  return\n}\n"
	req := Request{
		Path:     "file.go",
		Content:  []byte(content),
		Language: "go",
		Config:   testChunkingConfig(),
	}

	s := &SymbolBalanceStrategy{cfg: req.Config}
	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range result.Chunks {
		if contentSymbolDelta(c.Content) != 0 {
			t.Errorf("chunk %d-%d is not symbol-balanced:\n%s", c.StartLine, c.EndLine, c.Content)
		}
	}
}

func TestCoordinatorFallsBackToUniversalLine(t *testing.T) {
	cfg := testChunkingConfig()
	c := NewCoordinator(cfg, nil)

	content := strings.Repeat("x\n", 15)
	req := Request{
		Path:      "data.unknown",
		Content:   []byte(content),
		Language:  "unknown-language",
		Detection: model.DetectionResult{RecommendedStrategy: "universal-line"},
		Config:    cfg,
	}

	result, err := c.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("Chunk returned error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected success via the emergency rung")
	}
	if result.StrategyUsed != "universal-line" {
		t.Errorf("StrategyUsed = %q, want universal-line", result.StrategyUsed)
	}
}

func TestLadderFromUnknownStartReturnsFullLadder(t *testing.T) {
	ladder := ladderFrom("not-a-real-strategy")
	if len(ladder) != len(ladderOrder) {
		t.Fatalf("expected full ladder, got %v", ladder)
	}
}

func TestValidateRejectsGap(t *testing.T) {
	content := []byte("a\nb\nc\n")
	chunks := []model.CodeChunk{
		{StartLine: 1, EndLine: 1},
		{StartLine: 3, EndLine: 3}, // gap: line 2 uncovered
	}
	if reason := validate(chunks, content); reason != model.FallbackInvariantI1 {
		t.Errorf("expected FallbackInvariantI1 for a coverage gap, got %v", reason)
	}
}

func TestValidateRejectsOutOfBounds(t *testing.T) {
	content := []byte("a\nb\n")
	chunks := []model.CodeChunk{
		{StartLine: 1, EndLine: 5},
	}
	if reason := validate(chunks, content); reason != model.FallbackInvariantI2 {
		t.Errorf("expected FallbackInvariantI2 for an out-of-bounds chunk, got %v", reason)
	}
}
