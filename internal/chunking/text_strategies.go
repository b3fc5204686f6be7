package chunking

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// SemanticStrategy groups blank-line-separated paragraphs up to
// MaxChunkLines, for content where no boundary-pattern table applies but
// blank lines still mark a meaningful break (prose, config files, generic
// structured text). It sits between syntax-aware and the markdown/xml-html
// specializations on the ladder.
type SemanticStrategy struct {
	cfg *config.ChunkingConfig
}

func (s *SemanticStrategy) Name() string { return "semantic" }

func (s *SemanticStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	lines := splitLines(string(req.Content))
	if len(lines) == 0 {
		return Result{}, fmt.Errorf("semantic strategy: empty file")
	}

	maxLines := req.Config.MaxChunkLines
	var chunks []model.CodeChunk
	start := 0
	for i := 0; i < len(lines); i++ {
		blank := strings.TrimSpace(lines[i]) == ""
		last := i == len(lines)-1
		tooLong := i-start+1 >= maxLines
		if (blank && i > start) || last || tooLong {
			end := i
			chunks = append(chunks, model.CodeChunk{
				Content:      joinLines(lines[start : end+1]),
				StartLine:    start + 1,
				EndLine:      end + 1,
				Language:     req.Language,
				FilePath:     req.Path,
				StrategyName: s.Name(),
				ChunkType:    model.ChunkTypeText,
			})
			start = end + 1
		}
	}
	return Result{Chunks: chunks}, nil
}

// headingPattern matches ATX-style markdown headings.
var headingPattern = regexp.MustCompile(`^#{1,6}\s+\S`)

// MarkdownStrategy starts a new chunk at every heading line, classifying
// fenced code blocks separately so downstream normalization can treat prose
// and embedded code differently.
type MarkdownStrategy struct {
	cfg *config.ChunkingConfig
}

func (s *MarkdownStrategy) Name() string { return "markdown" }

func (s *MarkdownStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	lines := splitLines(string(req.Content))
	if len(lines) == 0 {
		return Result{}, fmt.Errorf("markdown strategy: empty file")
	}

	var chunks []model.CodeChunk
	start := 0
	i := 0
	for i < len(lines) {
		if fenceLang, ok := fenceOpen(lines[i]); ok {
			if i > start {
				chunks = append(chunks, markdownChunk(lines, start, i-1, req))
			}
			fenceEnd := i
			for j := i + 1; j < len(lines); j++ {
				fenceEnd = j
				if isFenceClose(lines[j]) {
					break
				}
			}
			chunks = append(chunks, codeBlockChunk(lines, i, fenceEnd, req, fenceLang))
			start = fenceEnd + 1
			i = start
			continue
		}
		if headingPattern.MatchString(lines[i]) && i > start {
			chunks = append(chunks, markdownChunk(lines, start, i-1, req))
			start = i
		}
		i++
	}
	if start <= len(lines)-1 {
		chunks = append(chunks, markdownChunk(lines, start, len(lines)-1, req))
	}
	return Result{Chunks: chunks}, nil
}

// fenceOpen recognizes a ```-style fence opening line and returns the
// language tag that follows the backticks, if any.
func fenceOpen(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(trimmed, "```")), true
}

func isFenceClose(line string) bool {
	return strings.TrimSpace(line) == "```"
}

func markdownChunk(lines []string, start, end int, req Request) model.CodeChunk {
	chunkType := model.ChunkTypeText
	if start <= end && headingPattern.MatchString(lines[start]) {
		chunkType = model.ChunkTypeHeading
	}
	return model.CodeChunk{
		Content:      joinLines(lines[start : end+1]),
		StartLine:    start + 1,
		EndLine:      end + 1,
		Language:     req.Language,
		FilePath:     req.Path,
		StrategyName: "markdown",
		ChunkType:    chunkType,
	}
}

// codeBlockChunk isolates a fenced code span into its own chunk, tagged
// with the fence's language tag so downstream consumers know the content
// inside isn't markdown prose (spec.md §4.2.4 fenced-block handling).
func codeBlockChunk(lines []string, start, end int, req Request, lang string) model.CodeChunk {
	return model.CodeChunk{
		Content:      joinLines(lines[start : end+1]),
		StartLine:    start + 1,
		EndLine:      end + 1,
		Language:     req.Language,
		FilePath:     req.Path,
		StrategyName: "markdown",
		ChunkType:    model.ChunkTypeCodeBlock,
		Extras:       map[string]any{"lang": lang},
	}
}

// topLevelTagPattern matches an opening tag at column 0, the cheap proxy
// this strategy uses for "top-level element" without a full XML parser.
var topLevelTagPattern = regexp.MustCompile(`^<([a-zA-Z][\w:-]*)[ >]`)

// XMLHTMLStrategy splits on top-level tags, falling back to a fixed-size
// window inside any element whose body exceeds MaxChunkLines.
type XMLHTMLStrategy struct {
	cfg *config.ChunkingConfig
}

func (s *XMLHTMLStrategy) Name() string { return "xml-html" }

func (s *XMLHTMLStrategy) Chunk(ctx context.Context, req Request) (Result, error) {
	lines := splitLines(string(req.Content))
	if len(lines) == 0 {
		return Result{}, fmt.Errorf("xml-html strategy: empty file")
	}

	var boundaries []int
	for i, line := range lines {
		if topLevelTagPattern.MatchString(line) {
			boundaries = append(boundaries, i)
		}
	}
	if len(boundaries) == 0 {
		return Result{}, fmt.Errorf("xml-html strategy: no top-level elements found")
	}
	if boundaries[0] != 0 {
		boundaries = append([]int{0}, boundaries...)
	}

	var chunks []model.CodeChunk
	for i, b := range boundaries {
		end := len(lines) - 1
		if i+1 < len(boundaries) {
			end = boundaries[i+1] - 1
		}
		if end < b {
			continue
		}
		if end-b+1 > req.Config.MaxChunkLines {
			chunks = append(chunks, splitElementWindow(lines, b, end, req)...)
			continue
		}
		chunks = append(chunks, model.CodeChunk{
			Content:      joinLines(lines[b : end+1]),
			StartLine:    b + 1,
			EndLine:      end + 1,
			Language:     req.Language,
			FilePath:     req.Path,
			StrategyName: s.Name(),
			ChunkType:    model.ChunkTypeElement,
		})
	}
	return Result{Chunks: chunks}, nil
}

func splitElementWindow(lines []string, start, end int, req Request) []model.CodeChunk {
	var out []model.CodeChunk
	maxLines := req.Config.MaxChunkLines
	for s := start; s <= end; s += maxLines {
		e := s + maxLines - 1
		if e > end {
			e = end
		}
		out = append(out, model.CodeChunk{
			Content:      joinLines(lines[s : e+1]),
			StartLine:    s + 1,
			EndLine:      e + 1,
			Language:     req.Language,
			FilePath:     req.Path,
			StrategyName: "xml-html",
			ChunkType:    model.ChunkTypeElement,
		})
	}
	return out
}
