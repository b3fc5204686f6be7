// Package treesitter wraps github.com/smacker/go-tree-sitter behind a typed,
// concurrency-safe parser pool: one *sitter.Parser checked out per language
// tag for the duration of Parse, generalized to a sync.Pool per language so
// callers can parse many files of the same language concurrently.
package treesitter

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/csharp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// SyntaxTree is the parsed result: the tree-sitter root node plus the exact
// source bytes it was parsed from (offsets in the tree are byte offsets into
// this slice).
type SyntaxTree struct {
	Root     *sitter.Node
	Source   []byte
	Language string
}

// Capture is a single capture from a tree-sitter query match.
type Capture struct {
	Node        *sitter.Node
	CaptureName string
}

// Match groups the captures that belong to one query match.
type Match struct {
	Captures []Capture
}

var languageFactories = map[string]func() *sitter.Language{
	"go":         golang.GetLanguage,
	"java":       java.GetLanguage,
	"javascript": javascript.GetLanguage,
	"typescript": typescript.GetLanguage,
	"tsx":        tsx.GetLanguage,
	"python":     python.GetLanguage,
	"c":          c.GetLanguage,
	"cpp":        cpp.GetLanguage,
	"csharp":     csharp.GetLanguage,
	"rust":       rust.GetLanguage,
	"kotlin":     kotlin.GetLanguage,
}

// Supported reports whether a language has a registered tree-sitter grammar.
func Supported(language string) bool {
	_, ok := languageFactories[language]
	return ok
}

// Pool hands out a *sitter.Parser per language tag via sync.Pool, so many
// goroutines can parse the same language concurrently without contending on
// a single shared parser.
type Pool struct {
	mu    sync.Mutex
	pools map[string]*sync.Pool
}

// NewPool builds an empty parser pool. The size parameter documents the
// expected steady-state concurrency for callers; sync.Pool itself grows and
// shrinks on demand.
func NewPool(size int) *Pool {
	return &Pool{pools: make(map[string]*sync.Pool)}
}

func (p *Pool) poolFor(language string) (*sync.Pool, error) {
	factory, ok := languageFactories[language]
	if !ok {
		return nil, fmt.Errorf("treesitter: unsupported language %q", language)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.pools[language]
	if !ok {
		pool = &sync.Pool{
			New: func() any {
				parser := sitter.NewParser()
				parser.SetLanguage(factory())
				return parser
			},
		}
		p.pools[language] = pool
	}
	return pool, nil
}

// Parse parses source as the given language and returns the resulting tree.
func (p *Pool) Parse(ctx context.Context, language string, source []byte) (*SyntaxTree, error) {
	pool, err := p.poolFor(language)
	if err != nil {
		return nil, err
	}

	parser := pool.Get().(*sitter.Parser)
	defer pool.Put(parser)

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("treesitter: parse %s: %w", language, err)
	}

	return &SyntaxTree{Root: tree.RootNode(), Source: source, Language: language}, nil
}

// Query runs a tree-sitter query pattern against a syntax tree and returns
// every match, each carrying its named captures.
func Query(t *SyntaxTree, pattern string) ([]Match, error) {
	factory, ok := languageFactories[t.Language]
	if !ok {
		return nil, fmt.Errorf("treesitter: unsupported language %q", t.Language)
	}
	lang := factory()

	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil, fmt.Errorf("treesitter: compiling query: %w", err)
	}

	cursor := sitter.NewQueryCursor()
	cursor.Exec(q, t.Root)

	var matches []Match
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match := Match{Captures: make([]Capture, 0, len(m.Captures))}
		for _, c := range m.Captures {
			match.Captures = append(match.Captures, Capture{
				Node:        c.Node,
				CaptureName: q.CaptureNameForId(c.Index),
			})
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// NodeText returns the exact source bytes spanned by a node.
func NodeText(n *sitter.Node, source []byte) string {
	return string(source[n.StartByte():n.EndByte()])
}
