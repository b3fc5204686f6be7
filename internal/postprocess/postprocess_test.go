package postprocess

import (
	"strings"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func chunkOf(lines []string, start, end int) model.CodeChunk {
	return model.CodeChunk{
		StartLine: start,
		EndLine:   end,
		Content:   strings.Join(lines[start-1:end], "\n"),
	}
}

func TestRunMergesSmallChunks(t *testing.T) {
	content := "line1\nline2\nline3\nline4\nline5\nline6\n"
	lines := strings.Split(content, "\n")

	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 3),
		chunkOf(lines, 4, 4), // below threshold, should merge into a fitting neighbor
		chunkOf(lines, 5, 6),
	}

	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 2, MinFinalRatio: 0}, 100)
	out := p.Run(chunks, []byte(content), "text")

	if len(out) != 2 {
		t.Fatalf("expected 2 chunks after merge, got %d: %+v", len(out), out)
	}
	if out[0].EndLine != 4 {
		t.Errorf("expected first chunk to absorb line 4, EndLine = %d", out[0].EndLine)
	}
}

func TestRunMergesSmallChunkWithCloserNeighborWhenBothFit(t *testing.T) {
	content := "l1\nl2\nl3\nl4\nl5\nl6\n"
	lines := strings.Split(content, "\n")

	// Chunk [5,5] is smaller than threshold. Its previous neighbor [1,2]
	// (itself at the threshold, so left alone) ends 2 lines before it but
	// its next neighbor [6,6] is immediately adjacent, so it must merge
	// with the lexically closer next neighbor, not always the previous one.
	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 2),
		chunkOf(lines, 5, 5),
		chunkOf(lines, 6, 6),
	}

	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 2, MinFinalRatio: 0}, 100)
	out := p.Run(chunks, []byte(content), "text")

	if len(out) != 2 {
		t.Fatalf("expected 2 chunks after merge, got %d: %+v", len(out), out)
	}
	if out[1].StartLine != 5 || out[1].EndLine != 6 {
		t.Errorf("expected the small chunk to merge with its closer next neighbor [6,6], got %d-%d", out[1].StartLine, out[1].EndLine)
	}
}

func TestRunKeepsSmallChunkWhenNoNeighborFits(t *testing.T) {
	content := "a\nb\nc\n"
	lines := strings.Split(content, "\n")

	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 1),
		chunkOf(lines, 2, 2),
		chunkOf(lines, 3, 3),
	}

	// maxChunkLines of 1 means no merge involving the small chunk can fit.
	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 2, MinFinalRatio: 0}, 1)
	out := p.Run(chunks, []byte(content), "text")

	if len(out) != 3 {
		t.Fatalf("expected small chunks to be left standing alone, got %d: %+v", len(out), out)
	}
}

func TestRunRepairsSymbolImbalance(t *testing.T) {
	content := "func f() {\nif true {\nreturn\n}\n}\n"
	lines := strings.Split(content, "\n")

	// First chunk's braces never close; the repair step must pull in the
	// rest of the file until balance returns to zero.
	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 2),
		chunkOf(lines, 3, 3),
		chunkOf(lines, 4, 5),
	}

	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 0, MinFinalRatio: 0}, 0)
	out := p.Run(chunks, []byte(content), "go")

	if len(out) != 1 {
		t.Fatalf("expected symbol-balance repair to merge all chunks, got %d: %+v", len(out), out)
	}
	if out[0].StartLine != 1 || out[0].EndLine != 5 {
		t.Errorf("expected repaired chunk to span lines 1-5, got %d-%d", out[0].StartLine, out[0].EndLine)
	}
}

func TestRunDropsZeroLengthChunks(t *testing.T) {
	content := "a\nb\nc\n"
	lines := strings.Split(content, "\n")

	chunks := []model.CodeChunk{
		{StartLine: 1, EndLine: 0}, // zero/negative length
		chunkOf(lines, 1, 3),
	}

	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 0, MinFinalRatio: 0}, 0)
	out := p.Run(chunks, []byte(content), "text")

	if len(out) != 1 {
		t.Fatalf("expected zero-length chunk to be dropped, got %d chunks", len(out))
	}
}

func TestRunRebalancesTailByRatio(t *testing.T) {
	content := "a\nb\nc\nd\ne\nf\ng\nh\n"
	lines := strings.Split(content, "\n")

	// Previous chunk spans 6 lines, last spans 2: ratio 2/6 < 0.5, so the
	// tail must fold into its predecessor.
	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 6),
		chunkOf(lines, 7, 8),
	}

	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 0, MinFinalRatio: 0.5}, 0)
	out := p.Run(chunks, []byte(content), "text")

	if len(out) != 1 {
		t.Fatalf("expected tail to merge into predecessor, got %d: %+v", len(out), out)
	}
	if out[0].EndLine != 8 {
		t.Errorf("expected merged chunk to span through line 8, got EndLine = %d", out[0].EndLine)
	}
}

func TestRunInjectsLeadingOverlapIntoContent(t *testing.T) {
	content := "a\nb\nc\nd\ne\nf\n"
	lines := strings.Split(content, "\n")

	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 3),
		chunkOf(lines, 4, 6),
	}

	p := New(&config.PostProcessConfig{
		MergeSmallChunksBelow: 0,
		MinFinalRatio:         0,
		EnableOverlap:         true,
		OverlapLines:          2,
		MaxOverlapRatio:       1.0,
	}, 10)
	out := p.Run(chunks, []byte(content), "text")

	if !strings.HasPrefix(out[1].Content, "b\nc\nd") {
		t.Fatalf("expected second chunk's content to be prefixed with overlap lines, got %q", out[1].Content)
	}
}

func TestRunDoesNotInjectOverlapWhenDisabled(t *testing.T) {
	content := "a\nb\nc\nd\ne\nf\n"
	lines := strings.Split(content, "\n")

	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 3),
		chunkOf(lines, 4, 6),
	}

	p := New(&config.PostProcessConfig{MergeSmallChunksBelow: 0, MinFinalRatio: 0}, 10)
	out := p.Run(chunks, []byte(content), "text")

	if out[1].Content != "d\ne\nf" {
		t.Errorf("expected no overlap prefix when disabled, got %q", out[1].Content)
	}
}

func TestRunDoesNotInjectOverlapOnHeadingChunk(t *testing.T) {
	content := "a\nb\nc\n# Heading\ne\nf\n"
	lines := strings.Split(content, "\n")

	heading := chunkOf(lines, 4, 6)
	heading.ChunkType = model.ChunkTypeHeading

	chunks := []model.CodeChunk{
		chunkOf(lines, 1, 3),
		heading,
	}

	p := New(&config.PostProcessConfig{
		MergeSmallChunksBelow: 0,
		MinFinalRatio:         0,
		EnableOverlap:         true,
		OverlapLines:          2,
		MaxOverlapRatio:       1.0,
	}, 10)
	out := p.Run(chunks, []byte(content), "text")

	if out[1].Content != "# Heading\ne\nf" {
		t.Errorf("expected no overlap prefix on a heading chunk, got %q", out[1].Content)
	}
}
