package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	mcpsdk "github.com/mark3labs/mcp-go/mcp"

	"github.com/kkkqkx123/codegraph-parser/internal/detection"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
)

// getTools declares the three core entry points of spec.md §6 as MCP tools.
func (s *Server) getTools() []mcpsdk.Tool {
	return []mcpsdk.Tool{
		{
			Name:        "parse_file",
			Description: "Run Layers 1-3 over a source file: detect its language, chunk it via the fallback ladder (ast -> syntax-aware -> semantic -> markdown -> xml-html -> symbol-balance -> universal-line), then post-process the chunk set (symbol-balance repair, merge, rebalance, boundary optimization, overlap injection). Returns the ordered CodeChunk list plus which strategy was used and why it fell back, if it did.",
			InputSchema: mcpsdk.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the source file. Used for language/backup-suffix detection and reported back on each chunk.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Source text. If omitted, the file at path is read from disk.",
					},
				},
				Required: []string{"path"},
			},
		},
		{
			Name:        "normalize",
			Description: "Run Layer 4 over a source file: parse it into a syntax tree (reusing a cached tree for the same path+content) and extract the typed Entity/Relationship graph with deterministic node identity. Returns empty results, not an error, when the language has no registered grammar.",
			InputSchema: mcpsdk.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the source file.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Source text. If omitted, the file at path is read from disk.",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Language tag to parse as. If omitted, it is detected from path/content.",
					},
				},
				Required: []string{"path"},
			},
		},
		{
			Name:        "merge_for_query",
			Description: "Run Layer 5 over a list of retrieved chunks for a query: fuse adjacent or semantically related chunks per the conservative/aggressive/semantic strategy, preserving the maximum similarity score per merged group. Output is sorted by (file, start_line) ascending.",
			InputSchema: mcpsdk.ToolInputSchema{
				Type: "object",
				Properties: map[string]interface{}{
					"chunks": map[string]interface{}{
						"type":        "array",
						"description": "Retrieved chunks, each with file_path, start_line, end_line, content, language and score (similarity to the query, 0-1).",
					},
					"query": map[string]interface{}{
						"type":        "object",
						"description": "QueryContext: query_text, query_kind (semantic|keyword|hybrid), intent (definition|usage|explanation|example), language, max_results, and optional merge_options (strategy, conservative_gap_lines, max_context_size, max_chunk_count, similarity_threshold, cross_file).",
					},
				},
				Required: []string{"chunks"},
			},
		},
	}
}

func (s *Server) handleParseFile(ctx context.Context, args map[string]interface{}) (*mcpsdk.CallToolResult, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return errorResult("path is required and must be a string"), nil
	}

	content, err := resolveContent(path, args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	result, err := s.pipeline.ParseFile(ctx, path, content)
	if err != nil {
		return errorResult(fmt.Sprintf("parse_file failed: %v", err)), nil
	}

	return successResult(result), nil
}

func (s *Server) handleNormalize(ctx context.Context, args map[string]interface{}) (*mcpsdk.CallToolResult, error) {
	path, ok := args["path"].(string)
	if !ok || path == "" {
		return errorResult("path is required and must be a string"), nil
	}

	content, err := resolveContent(path, args)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	language, _ := args["language"].(string)
	if language == "" {
		det := detection.New(&s.cfg.Detection)
		language = det.Detect(path, content).Language
	}

	entities, relationships, err := s.pipeline.Normalize(ctx, path, content, language)
	if err != nil {
		return errorResult(fmt.Sprintf("normalize failed: %v", err)), nil
	}

	return successResult(map[string]interface{}{
		"entities":      entities,
		"relationships": relationships,
	}), nil
}

func (s *Server) handleMergeForQuery(ctx context.Context, args map[string]interface{}) (*mcpsdk.CallToolResult, error) {
	rawChunks, ok := args["chunks"].([]interface{})
	if !ok {
		return errorResult("chunks is required and must be an array"), nil
	}

	chunks, err := decodeRetrievedChunks(rawChunks)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	qctx, err := decodeQueryContext(args["query"])
	if err != nil {
		return errorResult(err.Error()), nil
	}

	merged, err := s.pipeline.MergeForQuery(chunks, qctx)
	if err != nil {
		return errorResult(fmt.Sprintf("merge_for_query failed: %v", err)), nil
	}

	return successResult(map[string]interface{}{"chunks": merged}), nil
}

// resolveContent returns args["content"] if present, else reads path from disk.
func resolveContent(path string, args map[string]interface{}) ([]byte, error) {
	if c, ok := args["content"].(string); ok && c != "" {
		return []byte(c), nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return content, nil
}

// decodeRetrievedChunks round-trips the loosely-typed MCP argument array
// through JSON into model.RetrievedChunk, since mcp-go hands tool arguments
// back as map[string]interface{}/[]interface{} rather than typed structs.
func decodeRetrievedChunks(raw []interface{}) ([]model.RetrievedChunk, error) {
	blob, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding chunks: %w", err)
	}

	type wireChunk struct {
		FilePath  string  `json:"file_path"`
		StartLine int     `json:"start_line"`
		EndLine   int     `json:"end_line"`
		Content   string  `json:"content"`
		Language  string  `json:"language"`
		ChunkType string  `json:"chunk_type"`
		Score     float64 `json:"score"`
	}
	var wire []wireChunk
	if err := json.Unmarshal(blob, &wire); err != nil {
		return nil, fmt.Errorf("decoding chunks: %w", err)
	}

	out := make([]model.RetrievedChunk, len(wire))
	for i, w := range wire {
		out[i] = model.RetrievedChunk{
			Chunk: model.CodeChunk{
				FilePath:  w.FilePath,
				StartLine: w.StartLine,
				EndLine:   w.EndLine,
				Content:   w.Content,
				Language:  w.Language,
				ChunkType: model.ChunkType(w.ChunkType),
			},
			Score: w.Score,
		}
	}
	return out, nil
}

func decodeQueryContext(raw interface{}) (model.QueryContext, error) {
	if raw == nil {
		return model.QueryContext{}, nil
	}

	blob, err := json.Marshal(raw)
	if err != nil {
		return model.QueryContext{}, fmt.Errorf("encoding query: %w", err)
	}

	type wireOptions struct {
		Strategy             string  `json:"strategy"`
		ConservativeGapLines int     `json:"conservative_gap_lines"`
		MaxContextSize       int     `json:"max_context_size"`
		MaxChunkCount        int     `json:"max_chunk_count"`
		SimilarityThreshold  float64 `json:"similarity_threshold"`
		CrossFile            bool    `json:"cross_file"`
	}
	type wireQuery struct {
		QueryText    string      `json:"query_text"`
		QueryKind    string      `json:"query_kind"`
		Intent       string      `json:"intent"`
		Language     string      `json:"language"`
		MaxResults   int         `json:"max_results"`
		MergeOptions wireOptions `json:"merge_options"`
	}
	var w wireQuery
	if err := json.Unmarshal(blob, &w); err != nil {
		return model.QueryContext{}, fmt.Errorf("decoding query: %w", err)
	}

	return model.QueryContext{
		QueryText:  w.QueryText,
		QueryKind:  model.QueryKind(w.QueryKind),
		Intent:     model.QueryIntent(w.Intent),
		Language:   w.Language,
		MaxResults: w.MaxResults,
		MergeOptions: model.MergeOptions{
			Strategy:             model.MergeStrategyName(w.MergeOptions.Strategy),
			ConservativeGapLines: w.MergeOptions.ConservativeGapLines,
			MaxContextSize:       w.MergeOptions.MaxContextSize,
			MaxChunkCount:        w.MergeOptions.MaxChunkCount,
			SimilarityThreshold:  w.MergeOptions.SimilarityThreshold,
			CrossFile:            w.MergeOptions.CrossFile,
		},
	}, nil
}

func successResult(data interface{}) *mcpsdk.CallToolResult {
	jsonData, _ := json.MarshalIndent(data, "", "  ")
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			mcpsdk.TextContent{Type: "text", Text: string(jsonData)},
		},
	}
}

func errorResult(message string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			mcpsdk.TextContent{Type: "text", Text: fmt.Sprintf("Error: %s", message)},
		},
		IsError: true,
	}
}
