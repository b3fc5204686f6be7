package chunking

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/treesitter"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// ASTStrategy chunks a file along tree-sitter node boundaries: one chunk per
// top-level semantic node (function, class, method...). A node over the
// byte cap is cut on line boundaries with a proportional overlap window, the
// way the original implementation's splitLargeChunk does
// (internal/indexer/ast_chunker.go); it is not split into a summary chunk
// plus one chunk per method.
type ASTStrategy struct {
	pool *treesitter.Pool
	cfg  *config.ChunkingConfig
}

func (s *ASTStrategy) Name() string { return "ast" }

func (s *ASTStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	spec := langspec.Get(req.Language)
	if spec == nil || !treesitter.Supported(req.Language) {
		return Result{}, fmt.Errorf("ast strategy: unsupported language %q", req.Language)
	}

	tree, err := s.pool.Parse(ctx, req.Language, req.Content)
	if err != nil {
		return Result{}, err
	}

	var nodes []*sitter.Node
	walkTopLevel(tree.Root, spec, s.cfg, &nodes)

	if len(nodes) == 0 {
		return Result{}, fmt.Errorf("ast strategy: no semantic nodes found")
	}

	var chunks []model.CodeChunk
	for _, n := range nodes {
		chunks = append(chunks, s.expandNode(n, tree, req, spec)...)
	}

	chunks = mergeAdjacentSameType(chunks, req.Content, s.cfg)
	chunks = fillGaps(chunks, req.Content, req.Language, req.Path)
	return Result{Chunks: chunks}, nil
}

// walkTopLevel collects every node whose type appears in the language's
// NodeTypeMap (the original implementation's walkTree callback-based traversal,
// generalized to data). Per spec.md §4.2.1's Containment rule, a container
// node (class/struct body) is emitted on its own and its members are NOT
// also emitted as separate chunks — they remain reachable through the
// container's own content — unless cfg.ASTNestedFunctions opts back into
// the old flatter behavior.
func walkTopLevel(n *sitter.Node, spec *langspec.Spec, cfg *config.ChunkingConfig, out *[]*sitter.Node) {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if _, ok := spec.NodeTypeMap[child.Type()]; ok {
			*out = append(*out, child)
			if isContainer(child.Type()) && cfg != nil && cfg.ASTNestedFunctions {
				walkTopLevel(child, spec, cfg, out)
			}
			continue
		}
		walkTopLevel(child, spec, cfg, out)
	}
}

func isContainer(nodeType string) bool {
	switch nodeType {
	case "class_declaration", "class_specifier", "struct_specifier", "interface_declaration",
		"struct_type", "impl_item", "object_declaration":
		return true
	default:
		return false
	}
}

// expandNode converts one tree-sitter node into one or more CodeChunks,
// splitting it further if it exceeds the configured byte cap.
func (s *ASTStrategy) expandNode(n *sitter.Node, tree *treesitter.SyntaxTree, req Request, spec *langspec.Spec) []model.CodeChunk {
	startLine := int(n.StartPoint().Row) + 1
	endLine := int(n.EndPoint().Row) + 1
	content := treesitter.NodeText(n, tree.Source)
	standardType := spec.NodeTypeMap[n.Type()]

	base := model.CodeChunk{
		Content:      content,
		StartLine:    startLine,
		EndLine:      endLine,
		Language:     req.Language,
		FilePath:     req.Path,
		StrategyName: s.Name(),
		ChunkType:    chunkTypeFor(standardType),
		Extras:       map[string]any{"node_type": n.Type(), "node_id": model.NodeId(n.Type(), int(n.StartPoint().Row), int(n.StartPoint().Column))},
	}

	if len(content) <= req.Config.MaxChunkSizeBytes {
		return []model.CodeChunk{base}
	}

	return splitOversizedChunk(base, req.Config)
}

func chunkTypeFor(t model.StandardType) model.ChunkType {
	switch t {
	case model.TypeFunction:
		return model.ChunkTypeFunction
	case model.TypeMethod:
		return model.ChunkTypeMethod
	case model.TypeClass:
		return model.ChunkTypeClass
	case model.TypeInterface:
		return model.ChunkTypeInterface
	case model.TypeVariable:
		return model.ChunkTypeVariable
	case model.TypeImport:
		return model.ChunkTypeImport
	case model.TypeEnum, model.TypeType, model.TypeUnion:
		return model.ChunkTypeStruct
	default:
		return model.ChunkTypeText
	}
}

// splitOversizedChunk cuts an overlong chunk into line-based windows with a
// proportional overlap, exactly as the original implementation's splitLargeChunk computes it:
// overlapLines = clamp(totalLines / OverlapLinesRatio, MinOverlapLines, MaxOverlapLines).
func splitOversizedChunk(chunk model.CodeChunk, cfg *config.ChunkingConfig) []model.CodeChunk {
	lines := splitLines(chunk.Content)
	total := len(lines)
	if total == 0 {
		return []model.CodeChunk{chunk}
	}

	overlap := total / cfg.OverlapLinesRatio
	if overlap < cfg.MinOverlapLines {
		overlap = cfg.MinOverlapLines
	}
	if overlap > cfg.MaxOverlapLines {
		overlap = cfg.MaxOverlapLines
	}

	maxLines := cfg.MaxChunkLines
	if maxLines <= 0 {
		maxLines = total
	}

	var result []model.CodeChunk
	start := 0
	for start < total {
		end := start + maxLines
		if end > total {
			end = total
		}
		piece := joinLines(lines[start:end])
		result = append(result, model.CodeChunk{
			Content:      piece,
			StartLine:    chunk.StartLine + start,
			EndLine:      chunk.StartLine + end - 1,
			Language:     chunk.Language,
			FilePath:     chunk.FilePath,
			StrategyName: chunk.StrategyName,
			ChunkType:    chunk.ChunkType,
			Extras:       chunk.Extras,
		})
		if end == total {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return result
}

// mergeAdjacentSameType implements spec.md §4.2.1's Adjacency rule: two
// chunks of the same ChunkType merge into one when the gap between them is
// at most cfg.ASTAdjacencyGapLines lines and their combined size (rebuilt
// verbatim from source, including any gap lines, to preserve invariant I5)
// still fits cfg.MaxChunkSizeBytes. A gap of zero merging is disabled.
func mergeAdjacentSameType(chunks []model.CodeChunk, content []byte, cfg *config.ChunkingConfig) []model.CodeChunk {
	if cfg == nil || cfg.ASTAdjacencyGapLines <= 0 || len(chunks) < 2 {
		return chunks
	}

	sortChunksByStart(chunks)
	lines := splitLines(string(content))

	out := make([]model.CodeChunk, 0, len(chunks))
	out = append(out, chunks[0])
	for _, next := range chunks[1:] {
		last := out[len(out)-1]
		gap := next.StartLine - last.EndLine - 1
		if last.ChunkType == next.ChunkType && gap >= 0 && gap <= cfg.ASTAdjacencyGapLines {
			combined := rebuildRange(lines, last.StartLine, next.EndLine)
			if len(combined) <= cfg.MaxChunkSizeBytes {
				last.EndLine = next.EndLine
				last.Content = combined
				last.ChunkType = model.ChunkTypeMerged
				out[len(out)-1] = last
				continue
			}
		}
		out = append(out, next)
	}
	return out
}

func rebuildRange(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return joinLines(lines[start-1 : end])
}

// fillGaps inserts "glue" text chunks covering any source lines the AST walk
// didn't assign to a node (top-level comments, blank lines, package clauses),
// so invariant I1 (full line coverage) holds without the coordinator having
// to fall back to a different strategy just because of unattributed lines.
func fillGaps(chunks []model.CodeChunk, content []byte, language, path string) []model.CodeChunk {
	if len(chunks) == 0 {
		return chunks
	}

	sortChunksByStart(chunks)
	lines := splitLines(string(content))
	total := len(lines)

	var filled []model.CodeChunk
	cursor := 1
	for _, c := range chunks {
		if c.StartLine > cursor {
			filled = append(filled, glueChunk(lines, cursor, c.StartLine-1, language, path))
		}
		filled = append(filled, c)
		if c.EndLine+1 > cursor {
			cursor = c.EndLine + 1
		}
	}
	if cursor <= total {
		filled = append(filled, glueChunk(lines, cursor, total, language, path))
	}
	return filled
}

func glueChunk(lines []string, start, end int, language, path string) model.CodeChunk {
	return model.CodeChunk{
		Content:      joinLines(lines[start-1 : end]),
		StartLine:    start,
		EndLine:      end,
		Language:     language,
		FilePath:     path,
		StrategyName: "ast",
		ChunkType:    model.ChunkTypeGlue,
	}
}

func sortChunksByStart(chunks []model.CodeChunk) {
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && chunks[j-1].StartLine > chunks[j].StartLine; j-- {
			chunks[j-1], chunks[j] = chunks[j], chunks[j-1]
		}
	}
}
