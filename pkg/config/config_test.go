package config

import (
	"os"
	"testing"
)

func TestDefaultConfigIsPopulated(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Chunking.MaxChunkLines <= 0 {
		t.Error("expected a positive default MaxChunkLines")
	}
	if cfg.Performance.ParallelWorkers <= 0 {
		t.Error("expected a positive default ParallelWorkers")
	}
	if cfg.Server.Name == "" {
		t.Error("expected a default server name")
	}
	if cfg.QueryMerge.Strategy == "" {
		t.Error("expected a default query merge strategy")
	}
	if cfg.Chunking.ASTAdjacencyGapLines <= 0 {
		t.Error("expected a positive default ASTAdjacencyGapLines")
	}
	if cfg.Chunking.ASTNestedFunctions {
		t.Error("expected ASTNestedFunctions to default to false")
	}
	if cfg.PostProcess.MinFinalRatio <= 0 {
		t.Error("expected a positive default MinFinalRatio")
	}
	if cfg.PostProcess.EnableOverlap {
		t.Error("expected EnableOverlap to default to false")
	}
	if cfg.PostProcess.OverlapLines <= 0 {
		t.Error("expected a positive default OverlapLines")
	}
	if cfg.PostProcess.MaxOverlapRatio <= 0 {
		t.Error("expected a positive default MaxOverlapRatio")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CODEGRAPH_MAX_CHUNK_LINES", "250")
	t.Setenv("CODEGRAPH_PARALLEL_WORKERS", "4")
	t.Setenv("CODEGRAPH_QUERY_MERGE_STRATEGY", "aggressive")
	t.Setenv("CODEGRAPH_SINK_HOST", "qdrant.internal")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Chunking.MaxChunkLines != 250 {
		t.Errorf("MaxChunkLines = %d, want 250", cfg.Chunking.MaxChunkLines)
	}
	if cfg.Performance.ParallelWorkers != 4 {
		t.Errorf("ParallelWorkers = %d, want 4", cfg.Performance.ParallelWorkers)
	}
	if cfg.QueryMerge.Strategy != "aggressive" {
		t.Errorf("QueryMerge.Strategy = %q, want aggressive", cfg.QueryMerge.Strategy)
	}
	if cfg.Sink.Host != "qdrant.internal" {
		t.Errorf("Sink.Host = %q, want qdrant.internal", cfg.Sink.Host)
	}
}

func TestExpandPathExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory available: %v", err)
	}
	got := expandPath("~/logs")
	want := home + "/logs"
	if got != want {
		t.Errorf("expandPath(~/logs) = %q, want %q", got, want)
	}
}

func TestExpandPathLeavesAbsolutePathAlone(t *testing.T) {
	if got := expandPath("/var/log/codegraph"); got != "/var/log/codegraph" {
		t.Errorf("expandPath left alone = %q", got)
	}
}
