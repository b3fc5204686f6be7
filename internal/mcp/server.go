// Package mcp exposes the parser core's three entry points (parse_file,
// normalize, merge_for_query — spec.md §6) as MCP tools. This adapts the
// original implementation's internal/mcp/server.go Server/NewServer/createToolHandler
// structure (stdio transport, tool-name switch dispatch) to the pipeline
// built in internal/pipeline, replacing the original implementation's
// semantic_search/index_codebase/clear_cache/get_index_status tool set —
// which depended on the embedding/vector-store collaborators spec.md §1
// places out of scope — with tools that return the core's own typed output.
package mcp

import (
	"context"
	"fmt"
	"log"

	mcpsdk "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kkkqkx123/codegraph-parser/internal/pipeline"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Server wraps an mcp-go server bound to a parser Pipeline.
type Server struct {
	cfg       *config.Config
	pipeline  *pipeline.Pipeline
	mcpServer *server.MCPServer
}

// NewServer builds the MCP server and registers its tools.
func NewServer(cfg *config.Config) (*Server, error) {
	p, err := pipeline.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("mcp: building pipeline: %w", err)
	}

	s := &Server{cfg: cfg, pipeline: p}

	mcpServer := server.NewMCPServer(cfg.Server.Name, cfg.Server.Version)
	for _, tool := range s.getTools() {
		mcpServer.AddTool(tool, s.createToolHandler(tool.Name))
	}
	s.mcpServer = mcpServer

	log.Printf("mcp: server initialized: %s v%s", cfg.Server.Name, cfg.Server.Version)
	return s, nil
}

func (s *Server) createToolHandler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		log.Printf("mcp: handling tool call: %s", name)

		var args map[string]interface{}
		if request.Params.Arguments != nil {
			var ok bool
			args, ok = request.Params.Arguments.(map[string]interface{})
			if !ok {
				return errorResult("invalid arguments format"), nil
			}
		} else {
			args = make(map[string]interface{})
		}

		switch name {
		case "parse_file":
			return s.handleParseFile(ctx, args)
		case "normalize":
			return s.handleNormalize(ctx, args)
		case "merge_for_query":
			return s.handleMergeForQuery(ctx, args)
		default:
			return errorResult(fmt.Sprintf("unknown tool: %s", name)), nil
		}
	}
}

// Start serves the MCP server over stdio.
func (s *Server) Start(ctx context.Context) error {
	log.Printf("mcp: starting stdio transport...")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("mcp: server error: %w", err)
	}
	return nil
}

// Close releases server resources.
func (s *Server) Close() error {
	log.Printf("mcp: shutting down")
	return nil
}
