// Package model holds the data types shared by every pipeline layer:
// detection results, chunks, entities, relationships and the deterministic
// identity scheme that ties them together.
package model

import "fmt"

// FileType classifies how a file was detected (spec.md L1 backup-file rule).
type FileType string

const (
	FileTypeBackup       FileType = "backup"
	FileTypeExtensionless FileType = "extensionless"
	FileTypeNormal       FileType = "normal"
	FileTypeUnknown      FileType = "unknown"
)

// SourceFile is the immutable input to the pipeline: path, bytes and their hash.
type SourceFile struct {
	Path        string
	Bytes       []byte
	ContentHash string
}

// FileFeatures is the one-pass structural profile of a source file (spec.md §4.1).
type FileFeatures struct {
	HasImports         bool
	HasExports         bool
	HasFunctions       bool
	HasClasses         bool
	IsStructured       bool
	IsHighlyStructured bool
	LineCount          int
	ByteSize           int
	Complexity         int
}

// DetectionResult is the output of Layer 1 (spec.md §4.1).
type DetectionResult struct {
	Language            string
	Confidence           float64
	FileType             FileType
	Features              FileFeatures
	RecommendedStrategy string
	OriginalExtension    string // set when FileType == backup
}

// ChunkType tags the semantic kind of a chunk (spec.md §3 CodeChunk.chunk_type).
type ChunkType string

const (
	ChunkTypeImport      ChunkType = "import"
	ChunkTypeClass       ChunkType = "class"
	ChunkTypeFunction    ChunkType = "function"
	ChunkTypeMethod      ChunkType = "method"
	ChunkTypeInterface   ChunkType = "interface"
	ChunkTypeStruct      ChunkType = "struct"
	ChunkTypeVariable    ChunkType = "variable"
	ChunkTypePreprocessor ChunkType = "preprocessor"
	ChunkTypeHeading     ChunkType = "heading"
	ChunkTypeCodeBlock   ChunkType = "code-block"
	ChunkTypeTable       ChunkType = "table"
	ChunkTypeList        ChunkType = "list"
	ChunkTypeElement     ChunkType = "element"
	ChunkTypeMerged      ChunkType = "merged"
	ChunkTypeText        ChunkType = "text"
	ChunkTypeGlue        ChunkType = "glue"
)

// CodeChunk is a contiguous, 1-based inclusive line range of source plus metadata.
// Chunks are value objects: every mutation produces a new CodeChunk (spec.md §3).
type CodeChunk struct {
	Content      string
	StartLine    int
	EndLine      int
	Language     string
	FilePath     string
	StrategyName string
	ChunkType    ChunkType
	Complexity   int
	Hash         string
	Extras       map[string]any

	// Score carries the maximum retrieval similarity score among a merged
	// chunk's components (spec.md §4.5 P11: "merged chunks retain max(score)
	// of their components"). Zero for chunks that have not passed through
	// Layer 5's query-time merge.
	Score float64
}

// LineCount returns the number of lines the chunk spans.
func (c CodeChunk) LineCount() int {
	return c.EndLine - c.StartLine + 1
}

// NodeId computes the deterministic identity of a tree-sitter node position
// (spec.md §4.4.1). This is the ONLY source of node identity in the system;
// every adapter, extractor and cache key must call this function.
func NodeId(nodeType string, startRow, startCol int) string {
	return fmt.Sprintf("%s:%d:%d", nodeType, startRow, startCol)
}

// Complexity implements the complexity formula spec.md §4.4.3 specifies for
// both CodeChunk.Complexity and Entity.Metadata.Complexity: a size term (1 +
// lines/10, bounded at 10) plus a nesting-depth term (bounded at 5), the
// latter computed with a single iterative bracket-depth scan rather than a
// recursive AST walk, so it applies equally to AST-backed entities and
// line-based chunks that never produced a syntax tree.
func Complexity(content string) int {
	lines := 1
	depth, maxDepth := 0, 0
	for _, r := range content {
		switch r {
		case '\n':
			lines++
		case '{', '(', '[':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case '}', ')', ']':
			if depth > 0 {
				depth--
			}
		}
	}

	size := 1 + lines/10
	if size > 10 {
		size = 10
	}
	if maxDepth > 5 {
		maxDepth = 5
	}
	return size + maxDepth
}

// StandardType is the closed set of canonical entity/relationship categories
// (spec.md §4.4.2).
type StandardType string

const (
	// Entity types.
	TypeFunction  StandardType = "function"
	TypeClass     StandardType = "class"
	TypeMethod    StandardType = "method"
	TypeVariable  StandardType = "variable"
	TypeInterface StandardType = "interface"
	TypeType      StandardType = "type"
	TypeEnum      StandardType = "enum"
	TypeUnion     StandardType = "union"
	TypeImport    StandardType = "import"
	TypeExpression StandardType = "expression"

	// Relationship types.
	RelCall         StandardType = "call"
	RelDataFlow     StandardType = "data-flow"
	RelInheritance  StandardType = "inheritance"
	RelImplements   StandardType = "implements"
	RelAnnotation   StandardType = "annotation"
	RelCreation     StandardType = "creation"
	RelDependency   StandardType = "dependency"
	RelReference    StandardType = "reference"
	RelConcurrency  StandardType = "concurrency"
	RelLifecycle    StandardType = "lifecycle"
	RelSemantic     StandardType = "semantic"
	RelControlFlow  StandardType = "control-flow"
)

// EntityTypes lists the closed set of entity StandardTypes.
var EntityTypes = map[StandardType]bool{
	TypeFunction: true, TypeClass: true, TypeMethod: true, TypeVariable: true,
	TypeInterface: true, TypeType: true, TypeEnum: true, TypeUnion: true,
	TypeImport: true, TypeExpression: true,
}

// RelationshipTypes lists the closed set of relationship StandardTypes.
var RelationshipTypes = map[StandardType]bool{
	RelCall: true, RelDataFlow: true, RelInheritance: true, RelImplements: true,
	RelAnnotation: true, RelCreation: true, RelDependency: true, RelReference: true,
	RelConcurrency: true, RelLifecycle: true, RelSemantic: true, RelControlFlow: true,
}

// EntityMetadata carries language-specific extras alongside the canonical fields.
type EntityMetadata struct {
	Language   string
	Modifiers  []string
	Complexity int
	Extra      map[string]any
}

// Entity is a node in the code graph (spec.md §3, §4.4.3).
type Entity struct {
	NodeId    string
	Type      StandardType
	Name      string
	StartLine int
	EndLine   int
	Content   string
	Metadata  EntityMetadata
}

// Relationship is an edge in the code graph (spec.md §3, §4.4.4).
type Relationship struct {
	NodeId     string
	Type       StandardType
	SourceId   string
	TargetId   string
	Properties map[string]any
}

// QueryKind is the closed set of L5 query kinds (spec.md §3 QueryContext).
type QueryKind string

const (
	QueryKindSemantic QueryKind = "semantic"
	QueryKindKeyword  QueryKind = "keyword"
	QueryKindHybrid   QueryKind = "hybrid"
)

// QueryIntent is the closed set of L5 query intents.
type QueryIntent string

const (
	IntentDefinition  QueryIntent = "definition"
	IntentUsage       QueryIntent = "usage"
	IntentExplanation QueryIntent = "explanation"
	IntentExample     QueryIntent = "example"
)

// MergeStrategyName selects one of the three L5 merge strategies.
type MergeStrategyName string

const (
	MergeConservative MergeStrategyName = "conservative"
	MergeAggressive   MergeStrategyName = "aggressive"
	MergeSemantic     MergeStrategyName = "semantic"
)

// MergeOptions configures L5 adjacent-chunk merging (spec.md §4.5, §6).
type MergeOptions struct {
	Strategy               MergeStrategyName
	ConservativeGapLines   int
	MaxContextSize         int
	MaxChunkCount          int
	SimilarityThreshold    float64
	CrossFile              bool
}

// QueryContext is the caller-supplied context for L5 merging (spec.md §3).
type QueryContext struct {
	QueryText    string
	QueryKind    QueryKind
	Intent       QueryIntent
	Language     string
	MaxResults   int
	MergeOptions MergeOptions
}

// RetrievedChunk is a chunk as returned by the vector store at query time:
// a CodeChunk plus its similarity score relative to a QueryContext.
type RetrievedChunk struct {
	Chunk CodeChunk
	Score float64
}

// FallbackReason tags why the chunking coordinator descended the ladder
// (spec.md §9: "a tagged result with an explicit FallbackReason").
type FallbackReason string

const (
	FallbackNone             FallbackReason = ""
	FallbackNoChunks         FallbackReason = "no_chunks"
	FallbackInvariantI1      FallbackReason = "invariant_i1_violation"
	FallbackInvariantI2      FallbackReason = "invariant_i2_violation"
	FallbackSymbolImbalance  FallbackReason = "symbol_imbalance"
	FallbackTimeout          FallbackReason = "timeout"
	FallbackMemoryExceeded   FallbackReason = "memory_exceeded"
	FallbackParseError       FallbackReason = "parse_error"
	FallbackUnsupportedLang  FallbackReason = "unsupported_language"
)

// ProcessingResult is the output of the core parse_file entry point (spec.md §6).
type ProcessingResult struct {
	Chunks         []CodeChunk
	Entities       []Entity
	Relationships  []Relationship
	Success        bool
	StrategyUsed   string
	ExecutionMs    int64
	FallbackReason FallbackReason
}
