// Command index walks a repository once, runs Layers 1-4 over every file it
// finds via the worker pool (spec.md §5's "multi-threaded data parallelism
// at file granularity"), and upserts the results into the configured sink.
// This replaces the original implementation's cmd/index/main.go (which drove its
// embedding-and-vector-store indexer) with the equivalent one-shot batch
// driver for this module's own pipeline + sink.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/pipeline"
	"github.com/kkkqkx123/codegraph-parser/internal/scan"
	"github.com/kkkqkx123/codegraph-parser/internal/sink"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func main() {
	repoPath, err := os.Getwd()
	if err != nil {
		slog.Error("failed to get current directory", "error", err)
		os.Exit(1)
	}
	if len(os.Args) > 1 {
		repoPath = os.Args[1]
	}

	slog.Info("starting repository index", "repository", repoPath)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	scanner := scan.New(&cfg.Ignore)
	scanResult, err := scanner.Scan(repoPath)
	if err != nil {
		slog.Error("scan failed", "error", err)
		os.Exit(1)
	}
	slog.Info("scan complete", "files_found", len(scanResult.Files), "files_skipped", scanResult.SkippedFiles)

	p, err := pipeline.New(cfg)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	sinkClient, err := sink.NewClient(&cfg.Sink)
	if err != nil {
		slog.Error("failed to build sink client", "error", err)
		os.Exit(1)
	}
	defer sinkClient.Close()

	ctx := context.Background()
	if err := sinkClient.Initialize(ctx); err != nil {
		slog.Error("failed to initialize sink", "error", err)
		os.Exit(1)
	}

	tasks := make([]pipeline.FileTask, 0, len(scanResult.Files))
	for _, path := range scanResult.Files {
		content, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read file, skipping", "path", path, "error", err)
			continue
		}
		tasks = append(tasks, pipeline.FileTask{Path: path, Content: content})
	}

	start := time.Now()
	results := p.ProcessFiles(ctx, tasks)

	var filesIndexed, chunksTotal, filesFailed int
	for _, r := range results {
		if r.Err != nil {
			slog.Warn("failed to process file", "path", r.Path, "error", r.Err)
			filesFailed++
			continue
		}
		pr, ok := r.Result.(model.ProcessingResult)
		if !ok {
			continue
		}
		if err := sinkClient.UpsertChunks(ctx, pr.Chunks, nil); err != nil {
			slog.Warn("failed to upsert chunks", "path", r.Path, "error", err)
			filesFailed++
			continue
		}
		filesIndexed++
		chunksTotal += len(pr.Chunks)
	}

	slog.Info("indexing completed",
		"repository", repoPath,
		"files_total", len(tasks),
		"files_indexed", filesIndexed,
		"files_failed", filesFailed,
		"chunks_total", chunksTotal,
		"duration", time.Since(start))

	if filesFailed > 0 && filesIndexed == 0 {
		os.Exit(1)
	}
}
