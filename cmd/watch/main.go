// Command watch monitors a directory tree and re-runs the core pipeline
// (parse_file, then normalize) on every file that changes, upserting the
// result into the configured sink. This is the ambient CLI glue for the
// file-watcher collaborator spec.md §1 lists as an out-of-scope external
// interface: the watcher itself is never core pipeline logic, only the
// caller that drives it on change.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/kkkqkx123/codegraph-parser/internal/logging"
	"github.com/kkkqkx123/codegraph-parser/internal/pipeline"
	"github.com/kkkqkx123/codegraph-parser/internal/sink"
	"github.com/kkkqkx123/codegraph-parser/internal/watch"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func main() {
	root := "."
	if len(os.Args) > 1 {
		root = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logCtx, logCancel := context.WithCancel(context.Background())
	defer logCancel()
	if closer, err := logging.Setup(logCtx, "[codegraph-watch] ", cfg.Logging); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	} else if closer != nil {
		defer closer.Close()
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		log.Fatalf("failed to build pipeline: %v", err)
	}

	sinkClient, err := sink.NewClient(&cfg.Sink)
	if err != nil {
		log.Fatalf("failed to build sink client: %v", err)
	}
	defer sinkClient.Close()

	ctx := context.Background()
	if err := sinkClient.Initialize(ctx); err != nil {
		log.Fatalf("failed to initialize sink: %v", err)
	}

	handler := func(ctx context.Context, path string, event watch.Event) error {
		if event == watch.EventDelete {
			log.Printf("watch: %s deleted, skipping reparse", path)
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		result, err := p.ParseFile(ctx, path, content)
		if err != nil {
			return err
		}
		if err := sinkClient.UpsertChunks(ctx, result.Chunks, nil); err != nil {
			return err
		}

		language := ""
		if len(result.Chunks) > 0 {
			language = result.Chunks[0].Language
		}
		if language != "" {
			entities, _, err := p.Normalize(ctx, path, content, language)
			if err != nil {
				log.Printf("watch: normalize failed for %s: %v", path, err)
				return nil
			}
			if err := sinkClient.UpsertEntities(ctx, path, entities); err != nil {
				return err
			}
		}

		log.Printf("watch: reindexed %s (%d chunks, strategy=%s)", path, len(result.Chunks), result.StrategyUsed)
		return nil
	}

	watcher, err := watch.New(handler, 0)
	if err != nil {
		log.Fatalf("failed to build watcher: %v", err)
	}
	if err := watcher.AddPath(root); err != nil {
		log.Fatalf("failed to watch %s: %v", root, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("watch: received shutdown signal...")
		cancel()
	}()

	log.Printf("watch: watching %s", root)
	if err := watcher.Run(runCtx); err != nil {
		log.Fatalf("watch: error: %v", err)
	}
}
