package chunking

import (
	"context"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/treesitter"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func astTestConfig() *config.ChunkingConfig {
	cfg := testChunkingConfig()
	cfg.MaxChunkSizeBytes = 1 << 20
	cfg.MaxChunkLines = 200
	return cfg
}

// Three tiny top-level Go functions separated only by single blank lines
// must merge into one chunk under the Adjacency rule.
func TestASTStrategyMergesAdjacentSmallFunctions(t *testing.T) {
	content := "package p\n\nfunc a() {\n\treturn\n}\n\nfunc b() {\n\treturn\n}\n\nfunc c() {\n\treturn\n}\n"

	cfg := astTestConfig()
	cfg.ASTAdjacencyGapLines = 2
	pool := treesitter.NewPool(1)

	s := &ASTStrategy{pool: pool, cfg: cfg}
	req := Request{Path: "file.go", Content: []byte(content), Language: "go", Config: cfg}

	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var merged int
	for _, c := range result.Chunks {
		if c.ChunkType == model.ChunkTypeMerged {
			merged++
		}
	}
	if merged == 0 {
		t.Fatalf("expected the three adjacent functions to merge into a ChunkTypeMerged chunk, got %+v", result.Chunks)
	}

	if reason := validate(result.Chunks, req.Content); reason != model.FallbackNone {
		t.Errorf("merged AST output failed validation: %v", reason)
	}
}

// With the adjacency gap disabled, the same three functions must stay
// separate top-level chunks.
func TestASTStrategyLeavesFunctionsSeparateWhenAdjacencyDisabled(t *testing.T) {
	content := "package p\n\nfunc a() {\n\treturn\n}\n\nfunc b() {\n\treturn\n}\n\nfunc c() {\n\treturn\n}\n"

	cfg := astTestConfig()
	cfg.ASTAdjacencyGapLines = 0
	pool := treesitter.NewPool(1)

	s := &ASTStrategy{pool: pool, cfg: cfg}
	req := Request{Path: "file.go", Content: []byte(content), Language: "go", Config: cfg}

	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var funcs int
	for _, c := range result.Chunks {
		if c.ChunkType == model.ChunkTypeFunction {
			funcs++
		}
	}
	if funcs != 3 {
		t.Errorf("expected 3 separate function chunks with adjacency disabled, got %d: %+v", funcs, result.Chunks)
	}
}

// A class's methods are nested inside its class_declaration node; by default
// they must not also surface as separate top-level chunks, since they're
// still reachable through the class chunk's own content.
func TestASTStrategyContainmentHidesMembersByDefault(t *testing.T) {
	content := "class T {\n\tint x;\n\tvoid m() {\n\t\treturn;\n\t}\n}\n"

	cfg := astTestConfig()
	pool := treesitter.NewPool(1)

	s := &ASTStrategy{pool: pool, cfg: cfg}
	req := Request{Path: "T.java", Content: []byte(content), Language: "java", Config: cfg}

	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range result.Chunks {
		if c.ChunkType == model.ChunkTypeMethod {
			t.Errorf("expected the class's method not to surface as its own chunk by default, got %+v", c)
		}
	}
	if reason := validate(result.Chunks, req.Content); reason != model.FallbackNone {
		t.Errorf("containment output failed validation: %v", reason)
	}
}

// Opting into ASTNestedFunctions recovers the member-level chunks inside a
// container node.
func TestASTStrategyContainmentExposesMembersWhenOptedIn(t *testing.T) {
	content := "class T {\n\tint x;\n\tvoid m() {\n\t\treturn;\n\t}\n}\n"

	cfg := astTestConfig()
	cfg.ASTNestedFunctions = true
	pool := treesitter.NewPool(1)

	s := &ASTStrategy{pool: pool, cfg: cfg}
	req := Request{Path: "T.java", Content: []byte(content), Language: "java", Config: cfg}

	result, err := s.Chunk(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var methods int
	for _, c := range result.Chunks {
		if c.ChunkType == model.ChunkTypeMethod {
			methods++
		}
	}
	if methods == 0 {
		t.Errorf("expected the class's method to surface as its own chunk when ASTNestedFunctions is enabled, got %+v", result.Chunks)
	}
}
