package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Performance.ParserPoolSize = 1
	p, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestParseFileFallsBackForUnknownLanguage(t *testing.T) {
	p := testPipeline(t)

	content := []byte(strings.Repeat("some text\n", 10))
	result, err := p.ParseFile(context.Background(), "notes.txt", content)
	if err != nil {
		t.Fatalf("ParseFile returned error: %v", err)
	}
	if !result.Success {
		t.Fatal("expected the fallback ladder to still succeed via universal-line")
	}
	if len(result.Chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
}

func TestNewJobIDIsUnique(t *testing.T) {
	a := NewJobID()
	b := NewJobID()
	if a == b {
		t.Error("expected distinct job IDs across calls")
	}
	if a == "" {
		t.Error("expected a non-empty job ID")
	}
}
