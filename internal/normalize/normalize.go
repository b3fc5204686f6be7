// Package normalize implements Layer 4: turning a parsed syntax tree into a
// typed Entity/Relationship graph with deterministic node identity
// (spec.md §4.4). A single generic Adapter, driven by the per-language
// tables in internal/langspec, replaces the original implementation's absence of this layer
// entirely — the original implementation only ever produced flat CodeChunks — and follows
// the "closed-set enum + adapter registry keyed by that enum" redesign
// spec.md §9 calls for, grounded on the LanguageSpec-driven extractor
// pattern in other_examples' suvaidkhan-code-search-mcp parser and the
// QueryMatch/QueryNode capture shapes in standardbeagle-lci's ast_store.go.
package normalize

import (
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/kkkqkx123/codegraph-parser/internal/cache"
	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/internal/treesitter"
)

// Adapter normalizes one language's syntax trees using its langspec.Spec.
// There is exactly one Adapter implementation; behavior varies entirely
// through the data table, not through per-language Go types.
type Adapter struct {
	spec *langspec.Spec
}

// NewAdapter builds the Adapter for a language, failing if the language has
// no registered langspec.Spec (spec.md §4.4's "unsupported language" failure
// mode).
func NewAdapter(language string) (*Adapter, error) {
	spec := langspec.Get(language)
	if spec == nil {
		return nil, fmt.Errorf("normalize: no langspec for language %q", language)
	}
	return &Adapter{spec: spec}, nil
}

// Normalizer runs Layer 4 over parsed trees, memoizing results by
// cache.NormalizeKey and caching Adapter instances by language.
type Normalizer struct {
	adapters  *cache.AdapterCache
	normCache *cache.NormalizeCache
}

// NewNormalizer builds a Normalizer backed by the given caches.
func NewNormalizer(adapters *cache.AdapterCache, normCache *cache.NormalizeCache) *Normalizer {
	return &Normalizer{adapters: adapters, normCache: normCache}
}

// Normalize returns the entity/relationship graph for a syntax tree,
// reusing a memoized result when the same AST key + language was normalized
// before (spec.md §4.4.5).
func (n *Normalizer) Normalize(astKey string, tree *treesitter.SyntaxTree) ([]model.Entity, []model.Relationship, error) {
	key := cache.NormalizeKey(astKey, tree.Language)
	if cached, ok := n.normCache.Get(key); ok {
		entities, _ := cached.Entities.([]model.Entity)
		relationships, _ := cached.Relationships.([]model.Relationship)
		return entities, relationships, nil
	}

	adapterAny := n.adapters.GetOrCreate(tree.Language, func() any {
		a, err := NewAdapter(tree.Language)
		if err != nil {
			return (*Adapter)(nil)
		}
		return a
	})
	adapter, _ := adapterAny.(*Adapter)
	if adapter == nil {
		return nil, nil, fmt.Errorf("normalize: unsupported language %q", tree.Language)
	}

	entities, relationships := adapter.Normalize(tree)
	n.normCache.Put(key, cache.NormalizeResult{Entities: entities, Relationships: relationships})
	return entities, relationships, nil
}

// Normalize walks the full tree, extracting one Entity per node whose type
// is in the language's NodeTypeMap, and the relationships each entity
// implies (calls, inheritance, import dependencies).
func (a *Adapter) Normalize(tree *treesitter.SyntaxTree) ([]model.Entity, []model.Relationship) {
	var entities []model.Entity
	var relationships []model.Relationship

	nodeToEntity := make(map[*sitter.Node]string)

	a.walk(tree.Root, tree.Source, "", &entities, &relationships, nodeToEntity)

	return entities, relationships
}

func (a *Adapter) walk(n *sitter.Node, source []byte, enclosingID string, entities *[]model.Entity, relationships *[]model.Relationship, nodeToEntity map[*sitter.Node]string) {
	currentEnclosing := enclosingID

	if standardType, ok := a.spec.NodeTypeMap[n.Type()]; ok {
		id := model.NodeId(n.Type(), int(n.StartPoint().Row), int(n.StartPoint().Column))
		content := treesitter.NodeText(n, source)
		entity := model.Entity{
			NodeId:    id,
			Type:      standardType,
			Name:      a.extractName(n, source),
			StartLine: int(n.StartPoint().Row) + 1,
			EndLine:   int(n.EndPoint().Row) + 1,
			Content:   content,
			Metadata: model.EntityMetadata{
				Language:   a.spec.Name,
				Complexity: model.Complexity(content),
			},
		}
		*entities = append(*entities, entity)
		nodeToEntity[n] = id
		currentEnclosing = id

		if enclosingID != "" && (standardType == model.TypeMethod || standardType == model.TypeFunction || standardType == model.TypeClass) {
			*relationships = append(*relationships, model.Relationship{
				NodeId:   model.NodeId("member-of:"+n.Type(), int(n.StartPoint().Row), int(n.StartPoint().Column)),
				Type:     model.RelDependency,
				SourceId: enclosingID,
				TargetId: id,
				Properties: map[string]any{
					"kind": "member",
				},
			})
		}

		a.extractInheritance(n, source, id, relationships)
	}

	if a.isCallNode(n.Type()) && currentEnclosing != "" {
		*relationships = append(*relationships, a.buildCallRelationship(n, source, currentEnclosing))
	}

	if a.isImportNode(n.Type()) && currentEnclosing != "" {
		*relationships = append(*relationships, model.Relationship{
			NodeId:   model.NodeId("import-of:"+n.Type(), int(n.StartPoint().Row), int(n.StartPoint().Column)),
			Type:     model.RelDependency,
			SourceId: currentEnclosing,
			TargetId: "ext:" + strings.TrimSpace(treesitter.NodeText(n, source)),
			Properties: map[string]any{
				"kind": "import",
			},
		})
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		a.walk(child, source, currentEnclosing, entities, relationships, nodeToEntity)
	}
}

func (a *Adapter) isCallNode(nodeType string) bool {
	for _, t := range a.spec.CallNodeTypes {
		if t == nodeType {
			return true
		}
	}
	return false
}

func (a *Adapter) isImportNode(nodeType string) bool {
	for _, t := range a.spec.ImportNodeTypes {
		if t == nodeType {
			return true
		}
	}
	return false
}

func (a *Adapter) buildCallRelationship(n *sitter.Node, source []byte, sourceID string) model.Relationship {
	callee := firstIdentifier(n, source)
	return model.Relationship{
		NodeId:   model.NodeId("call:"+n.Type(), int(n.StartPoint().Row), int(n.StartPoint().Column)),
		Type:     model.RelCall,
		SourceId: sourceID,
		TargetId: "ext:" + callee,
		Properties: map[string]any{
			"text": treesitter.NodeText(n, source),
		},
	}
}

// identifierPattern recovers a bare identifier from arbitrary node text
// when a precise tree-sitter field lookup isn't worth the per-grammar field
// table; this is a deliberate simplification.
var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

func firstIdentifier(n *sitter.Node, source []byte) string {
	text := treesitter.NodeText(n, source)
	loc := identifierPattern.FindString(text)
	return loc
}

// extractName recovers the declared identifier for an entity node. It
// prefers the tree-sitter "name" field (present on nearly every grammar's
// declaration nodes) and falls back to the first identifier token in the
// node's own text, per NameFieldByNodeType overrides when the field isn't
// literally "name".
func (a *Adapter) extractName(n *sitter.Node, source []byte) string {
	field := "name"
	if override, ok := a.spec.NameFieldByNodeType[n.Type()]; ok {
		field = override
	}
	if named := n.ChildByFieldName(field); named != nil {
		return treesitter.NodeText(named, source)
	}
	return firstIdentifier(n, source)
}

// extractInheritance looks for the language's inheritance keywords
// ("extends", "implements") in the node's own declaration line and emits an
// inheritance/implements relationship to the named supertype. This is a
// text-level simplification (spec.md's relationship model only requires a
// target identifier, not a resolved symbol), not a full field-based
// extraction.
func (a *Adapter) extractInheritance(n *sitter.Node, source []byte, entityID string, relationships *[]model.Relationship) {
	if len(a.spec.InheritanceKeywords) == 0 {
		return
	}
	headerEnd := n.StartByte()
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && (child.Type() == "class_body" || child.Type() == "{" ) {
			headerEnd = child.StartByte()
			break
		}
	}
	if headerEnd <= n.StartByte() {
		headerEnd = n.EndByte()
	}
	header := string(source[n.StartByte():headerEnd])

	for _, kw := range a.spec.InheritanceKeywords {
		idx := strings.Index(header, kw)
		if idx == -1 {
			continue
		}
		rest := header[idx+len(kw):]
		name := identifierPattern.FindString(rest)
		if name == "" {
			continue
		}
		relType := model.RelInheritance
		if kw == "implements" {
			relType = model.RelImplements
		}
		*relationships = append(*relationships, model.Relationship{
			NodeId:   model.NodeId("inherit:"+kw, int(n.StartPoint().Row), int(n.StartPoint().Column)),
			Type:     relType,
			SourceId: entityID,
			TargetId: "ext:" + name,
			Properties: map[string]any{
				"keyword": kw,
			},
		})
	}
}
