package chunking

import (
	"context"
	"strings"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
)

func TestMarkdownStrategyIsolatesFencedCodeBlock(t *testing.T) {
	content := "# Title\n\nSome prose.\n\n```ts\nfunction f() { return }}\n```\n\nMore prose.\n"
	req := Request{
		Path:     "doc.md",
		Content:  []byte(content),
		Language: "markdown",
		Config:   testChunkingConfig(),
	}

	s := &MarkdownStrategy{cfg: req.Config}
	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var codeBlock *model.CodeChunk
	for i := range result.Chunks {
		if result.Chunks[i].ChunkType == model.ChunkTypeCodeBlock {
			codeBlock = &result.Chunks[i]
			break
		}
	}
	if codeBlock == nil {
		t.Fatalf("expected a code-block chunk, got %+v", result.Chunks)
	}
	if codeBlock.Extras["lang"] != "ts" {
		t.Errorf("code-block lang = %v, want ts", codeBlock.Extras["lang"])
	}
	if !strings.Contains(codeBlock.Content, "function f()") {
		t.Errorf("code-block content missing fenced text: %q", codeBlock.Content)
	}

	if reason := validate(result.Chunks, req.Content); reason != model.FallbackNone {
		t.Errorf("markdown output with a fence failed validation: %v", reason)
	}
}

func TestMarkdownStrategyPlainDocumentHasNoCodeBlock(t *testing.T) {
	content := "# Title\n\nJust prose, no fences.\n"
	req := Request{
		Path:     "doc.md",
		Content:  []byte(content),
		Language: "markdown",
		Config:   testChunkingConfig(),
	}

	s := &MarkdownStrategy{cfg: req.Config}
	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range result.Chunks {
		if c.ChunkType == model.ChunkTypeCodeBlock {
			t.Fatalf("did not expect a code-block chunk in a fence-free document")
		}
	}
}
