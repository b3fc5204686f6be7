package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// FileTask is one file handed to ProcessFiles: its path and content.
type FileTask struct {
	Path    string
	Content []byte
}

// FileResult pairs a FileTask's path with its ParseFile outcome.
type FileResult struct {
	Path   string
	Result any
	Err    error
}

// ProcessFiles runs ParseFile over every task concurrently, bounded by
// ParallelWorkers. This adapts the original implementation's
// internal/embeddings/batcher.go ProcessChunks (semaphore-bounded
// WaitGroup fan-out over batches of embedding work) to the pipeline's own
// file-level parse tasks (spec.md §5's concurrency model) instead of
// Ollama embedding batches — same shape, different payload.
func (p *Pipeline) ProcessFiles(ctx context.Context, tasks []FileTask) []FileResult {
	if len(tasks) == 0 {
		return nil
	}

	workers := p.cfg.Performance.ParallelWorkers
	if workers <= 0 {
		workers = 1
	}

	log.Printf("pipeline: processing %d files with %d workers", len(tasks), workers)
	start := time.Now()

	results := make([]FileResult, len(tasks))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, task := range tasks {
		wg.Add(1)
		go func(idx int, t FileTask) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			res, err := p.ParseFile(ctx, t.Path, t.Content)
			if err != nil {
				results[idx] = FileResult{Path: t.Path, Err: fmt.Errorf("processing %s: %w", t.Path, err)}
				return
			}
			results[idx] = FileResult{Path: t.Path, Result: res}
		}(i, task)
	}

	wg.Wait()

	log.Printf("pipeline: processed %d files in %v", len(tasks), time.Since(start))
	return results
}
