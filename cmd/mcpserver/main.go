// Command mcpserver starts the MCP server that exposes parse_file, normalize
// and merge_for_query (spec.md §6) as tools over stdio. This adapts the
// original implementation's cmd/server/main.go (config load, file-backed logging setup,
// signal-driven shutdown) to the new internal/mcp.Server.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kkkqkx123/codegraph-parser/internal/logging"
	"github.com/kkkqkx123/codegraph-parser/internal/mcp"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logCtx, logCancel := context.WithCancel(context.Background())
	defer logCancel()

	logCloser, err := logging.Setup(logCtx, "[codegraph-parser] ", cfg.Logging)
	if err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}

	log.Printf("configuration loaded")
	if cfg.Logging.Enabled {
		log.Printf("logging to: %s", filepath.Join(cfg.Logging.Directory, "codegraph-parser.log"))
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		log.Fatalf("failed to create MCP server: %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("received shutdown signal...")
		cancel()
	}()

	log.Println("starting MCP server...")
	if err := server.Start(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
