// Package langspec holds the per-language data tables that drive detection,
// chunking and normalization. Every layer asks langspec "what does this
// language call a function" instead of hard-coding per-language branches;
// this follows the LanguageSpec/NamedChunkExtractor table design used by the
// suvaidkhan-code-search-mcp reference parser, adapted to the node-type to
// StandardType mapping spec.md §4.4.2 requires, and generalizes the
// original implementation's getSemanticNodeTypes/getFunctionBoundaryPattern switch statements
// (internal/indexer/ast_chunker.go, internal/indexer/chunker.go) into data.
package langspec

import (
	"regexp"
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
)

// BoundaryWeights holds the per-language category weights spec.md §4.2.5's
// boundary-scoring formula multiplies against its per-line predicates.
type BoundaryWeights struct {
	Syntactic float64
	Function  float64
	Class     float64
	Method    float64
	Import    float64
	Logical   float64
	Comment   float64
}

// ContentSignature is one ordered rule of the §4.1 content-detection step:
// when Pattern matches an extensionless or unknown-extension file's text,
// the file scores as Language with weight Score (pre-clamp).
type ContentSignature struct {
	Language string
	Pattern  *regexp.Regexp
	Score    float64
}

// Spec is the full per-language data table consulted by every layer.
type Spec struct {
	Name       string
	Extensions []string

	// NodeTypeMap maps a tree-sitter node type to its canonical StandardType.
	// Node types absent from this map are not extracted as entities.
	NodeTypeMap map[string]model.StandardType

	// Boundary holds this language's category weights for the §4.2.5
	// boundary-scoring formula.
	Boundary BoundaryWeights

	// ImportNodeTypes lists node types that represent import/include statements.
	ImportNodeTypes []string

	// NameFieldByNodeType gives the tree-sitter field name holding the
	// identifier for a given node type, when it isn't simply "name".
	NameFieldByNodeType map[string]string

	// FunctionBoundaryPattern recognizes a probable function/method start
	// line, used by detection's feature scan and by the boundary-scoring
	// formula, mirroring the original implementation's getFunctionBoundaryPattern.
	FunctionBoundaryPattern *regexp.Regexp

	// ClassBoundaryPattern recognizes a probable class/struct/interface
	// start line, used by the boundary-scoring formula's is_class_end check.
	ClassBoundaryPattern *regexp.Regexp

	// ImportLinePattern recognizes a single import/include/using line, used
	// by the boundary-scoring formula's is_import_end check.
	ImportLinePattern *regexp.Regexp

	// CommentPrefixes lists single-line comment markers used by the
	// structural-feature scan in detection (spec.md §4.1).
	CommentPrefixes []string

	// CallNodeTypes lists node types representing a function/method call
	// expression, consulted by Layer 4 to build "call" relationships.
	CallNodeTypes []string

	// InheritanceKeywords lists source keywords ("extends", "implements",
	// ":") that precede a supertype/interface name, used by Layer 4's
	// text-level inheritance relationship extraction for container nodes.
	InheritanceKeywords []string
}

var registry = map[string]*Spec{}
var byExtension = map[string]string{}

// contentSignatures is the ordered list of §4.1 content-rule patterns,
// consulted by DetectByContent for extensionless/unknown-extension files.
var contentSignatures []ContentSignature

// shebangInterpreters maps a shebang line's interpreter basename to a
// registered language name, per spec.md §4.1's "shebang" content-rule step.
var shebangInterpreters = map[string]string{
	"python":  "python",
	"python3": "python",
	"node":    "javascript",
	"bash":    "text",
	"sh":      "text",
}

func register(s *Spec) {
	registry[s.Name] = s
	for _, ext := range s.Extensions {
		byExtension[ext] = s.Name
	}
}

// registerSignature adds one ordered content-detection rule. Rules are
// tried in registration order; the highest-scoring match wins, and a tie
// goes to the earlier rule.
func registerSignature(language, pattern string, score float64) {
	contentSignatures = append(contentSignatures, ContentSignature{
		Language: language,
		Pattern:  regexp.MustCompile(pattern),
		Score:    score,
	})
}

// Get returns the Spec for a language name, or nil if unknown.
func Get(language string) *Spec {
	return registry[language]
}

// DetectByExtension returns the language name registered for a file extension
// (including the leading dot), or "" if none matches.
func DetectByExtension(ext string) string {
	return byExtension[ext]
}

// Supported lists every registered language name.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}

// detectShebang recognizes a "#!/usr/bin/env python3"-style first line and
// returns the language its interpreter maps to (spec.md §4.1 content rule,
// shebang step).
func detectShebang(text string) (string, bool) {
	nl := strings.IndexByte(text, '\n')
	first := text
	if nl >= 0 {
		first = text[:nl]
	}
	first = strings.TrimSpace(first)
	if !strings.HasPrefix(first, "#!") {
		return "", false
	}
	fields := strings.Fields(first[2:])
	if len(fields) == 0 {
		return "", false
	}
	interpreter := fields[0]
	if interpreter == "/usr/bin/env" && len(fields) > 1 {
		interpreter = fields[1]
	}
	base := interpreter
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	lang, ok := shebangInterpreters[base]
	return lang, ok
}

// DetectByContent implements spec.md §4.1's content rule: a shebang line
// wins outright, otherwise every registered ContentSignature is scored and
// the highest-scoring language is returned (score clamped to 0.75, the
// content rule's maximum confidence). Callers must still check the
// returned score against the rule's acceptance floor (0.5) themselves,
// since DetectByContent only reports what it found.
func DetectByContent(content []byte) (string, float64) {
	text := string(content)
	if lang, ok := detectShebang(text); ok {
		return lang, 0.75
	}

	best := ""
	bestScore := 0.0
	for _, sig := range contentSignatures {
		if !sig.Pattern.MatchString(text) {
			continue
		}
		if sig.Score > bestScore {
			bestScore = sig.Score
			best = sig.Language
		}
	}
	if best == "" {
		return "", 0
	}
	if bestScore > 0.75 {
		bestScore = 0.75
	}
	return best, bestScore
}

func init() {
	register(&Spec{
		Name:       "go",
		Extensions: []string{".go"},
		NodeTypeMap: map[string]model.StandardType{
			"function_declaration": model.TypeFunction,
			"method_declaration":   model.TypeMethod,
			"type_declaration":     model.TypeType,
			"type_spec":            model.TypeType,
			"interface_type":       model.TypeInterface,
			"struct_type":          model.TypeClass,
			"var_declaration":      model.TypeVariable,
			"const_declaration":    model.TypeVariable,
			"import_declaration":   model.TypeImport,
			"call_expression":      model.TypeExpression,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_declaration"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*func\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*type\s+\w+\s+(struct|interface)\s*\{?\s*$`),
		ImportLinePattern:       regexp.MustCompile(`^\s*(import\s+"|"[\w./-]+"\s*$)`),
		CommentPrefixes:         []string{"//"},
		CallNodeTypes:           []string{"call_expression"},
	})

	register(&Spec{
		Name:       "java",
		Extensions: []string{".java"},
		NodeTypeMap: map[string]model.StandardType{
			"class_declaration":       model.TypeClass,
			"interface_declaration":   model.TypeInterface,
			"enum_declaration":        model.TypeEnum,
			"method_declaration":      model.TypeMethod,
			"constructor_declaration": model.TypeMethod,
			"field_declaration":       model.TypeVariable,
			"import_declaration":      model.TypeImport,
			"annotation":              model.TypeExpression,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.35, Class: 0.40, Method: 0.40,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_declaration"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(public|private|protected|static|\s)*\s*[\w<>\[\]]+\s+\w+\s*\([^)]*\)\s*(throws\s+[\w,\s]+)?\s*\{?\s*$`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(public|private|protected|\s)*\s*(class|interface|enum)\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*import\s+[\w.]+\s*;\s*$`),
		CommentPrefixes:         []string{"//"},
		CallNodeTypes:           []string{"method_invocation", "object_creation_expression"},
		InheritanceKeywords:     []string{"extends", "implements"},
	})

	register(&Spec{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		NodeTypeMap: map[string]model.StandardType{
			"function_declaration": model.TypeFunction,
			"function":             model.TypeFunction,
			"arrow_function":       model.TypeFunction,
			"class_declaration":    model.TypeClass,
			"method_definition":    model.TypeMethod,
			"variable_declaration": model.TypeVariable,
			"lexical_declaration":  model.TypeVariable,
			"import_statement":     model.TypeImport,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_statement"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(export\s+)?(async\s+)?function\s+|^\s*(export\s+)?(default\s+)?class\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?class\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*import\s+.*from\s+['"].*['"];?\s*$`),
		CommentPrefixes:         []string{"//"},
		CallNodeTypes:           []string{"call_expression", "new_expression"},
		InheritanceKeywords:     []string{"extends"},
	})

	register(&Spec{
		Name:       "typescript",
		Extensions: []string{".ts"},
		NodeTypeMap: map[string]model.StandardType{
			"function_declaration":   model.TypeFunction,
			"arrow_function":         model.TypeFunction,
			"class_declaration":      model.TypeClass,
			"interface_declaration":  model.TypeInterface,
			"method_definition":      model.TypeMethod,
			"enum_declaration":       model.TypeEnum,
			"type_alias_declaration": model.TypeType,
			"variable_declaration":   model.TypeVariable,
			"lexical_declaration":    model.TypeVariable,
			"import_statement":       model.TypeImport,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_statement"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(export\s+)?(async\s+)?function\s+|^\s*(export\s+)?(default\s+)?class\s+|^\s*(export\s+)?interface\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?(class|interface)\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*import\s+.*from\s+['"].*['"];?\s*$`),
		CommentPrefixes:         []string{"//"},
		CallNodeTypes:           []string{"call_expression", "new_expression"},
		InheritanceKeywords:     []string{"extends", "implements"},
	})

	register(&Spec{
		Name:       "tsx",
		Extensions: []string{".tsx"},
		NodeTypeMap: map[string]model.StandardType{
			"function_declaration":  model.TypeFunction,
			"arrow_function":        model.TypeFunction,
			"class_declaration":     model.TypeClass,
			"interface_declaration": model.TypeInterface,
			"method_definition":     model.TypeMethod,
			"import_statement":      model.TypeImport,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_statement"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(export\s+)?(async\s+)?function\s+|^\s*(export\s+)?(default\s+)?class\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(export\s+)?(default\s+)?class\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*import\s+.*from\s+['"].*['"];?\s*$`),
		CommentPrefixes:         []string{"//"},
	})

	register(&Spec{
		Name:       "python",
		Extensions: []string{".py"},
		NodeTypeMap: map[string]model.StandardType{
			"function_definition":    model.TypeFunction,
			"class_definition":       model.TypeClass,
			"import_statement":       model.TypeImport,
			"import_from_statement":  model.TypeImport,
			"decorated_definition":   model.TypeExpression,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_statement", "import_from_statement"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(async\s+)?def\s+|^\s*class\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*class\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*(import\s+\w|from\s+[\w.]+\s+import\s+)`),
		CommentPrefixes:         []string{"#"},
		CallNodeTypes:           []string{"call"},
	})

	register(&Spec{
		Name:       "c",
		Extensions: []string{".c", ".h"},
		NodeTypeMap: map[string]model.StandardType{
			"function_definition": model.TypeFunction,
			"struct_specifier":    model.TypeClass,
			"enum_specifier":      model.TypeEnum,
			"preproc_include":     model.TypeImport,
			"declaration":         model.TypeVariable,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.30, Method: 0,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"preproc_include"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*[\w\*]+\s+\w+\s*\([^;]*\)\s*\{?\s*$`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*struct\s+\w+\s*\{?\s*$`),
		ImportLinePattern:       regexp.MustCompile(`^\s*#include\s*[<"][\w./]+[>"]\s*$`),
		CommentPrefixes:         []string{"//"},
	})

	register(&Spec{
		Name:       "cpp",
		Extensions: []string{".cpp", ".cc", ".hpp", ".cxx"},
		NodeTypeMap: map[string]model.StandardType{
			"function_definition":  model.TypeFunction,
			"class_specifier":      model.TypeClass,
			"struct_specifier":     model.TypeClass,
			"enum_specifier":       model.TypeEnum,
			"preproc_include":      model.TypeImport,
			"namespace_definition": model.TypeType,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"preproc_include"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*[\w:<>\*&]+\s+\w+\s*\([^;]*\)\s*\{?\s*$`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(class|struct)\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*#include\s*[<"][\w./]+[>"]\s*$`),
		CommentPrefixes:         []string{"//"},
	})

	register(&Spec{
		Name:       "csharp",
		Extensions: []string{".cs"},
		NodeTypeMap: map[string]model.StandardType{
			"class_declaration":     model.TypeClass,
			"interface_declaration": model.TypeInterface,
			"method_declaration":    model.TypeMethod,
			"enum_declaration":      model.TypeEnum,
			"using_directive":       model.TypeImport,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.35, Class: 0.40, Method: 0.40,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"using_directive"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(public|private|protected|internal|static|\s)*\s*[\w<>\[\]]+\s+\w+\s*\([^)]*\)\s*\{?\s*$`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(public|private|protected|internal|\s)*\s*(class|interface)\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*using\s+[\w.]+\s*;\s*$`),
		CommentPrefixes:         []string{"//"},
	})

	register(&Spec{
		Name:       "rust",
		Extensions: []string{".rs"},
		NodeTypeMap: map[string]model.StandardType{
			"function_item":   model.TypeFunction,
			"struct_item":     model.TypeClass,
			"enum_item":       model.TypeEnum,
			"trait_item":      model.TypeInterface,
			"impl_item":       model.TypeType,
			"use_declaration": model.TypeImport,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.30, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"use_declaration"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(pub\s+)?(async\s+)?fn\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(pub\s+)?(struct|trait|enum)\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*use\s+[\w:]+\s*;\s*$`),
		CommentPrefixes:         []string{"//"},
	})

	register(&Spec{
		Name:       "kotlin",
		Extensions: []string{".kt", ".kts"},
		NodeTypeMap: map[string]model.StandardType{
			"class_declaration":    model.TypeClass,
			"function_declaration": model.TypeFunction,
			"object_declaration":   model.TypeClass,
			"import_header":        model.TypeImport,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Function: 0.40, Class: 0.40, Method: 0.35,
			Import: 0.20, Logical: 0.50, Comment: 0.10,
		},
		ImportNodeTypes:         []string{"import_header"},
		FunctionBoundaryPattern: regexp.MustCompile(`^\s*(public|private|internal|\s)*\s*fun\s+|^\s*class\s+`),
		ClassBoundaryPattern:    regexp.MustCompile(`^\s*(public|private|internal|\s)*\s*class\s+\w+`),
		ImportLinePattern:       regexp.MustCompile(`^\s*import\s+[\w.]+\s*$`),
		CommentPrefixes:         []string{"//"},
	})

	register(&Spec{
		Name:       "markdown",
		Extensions: []string{".md", ".markdown"},
		NodeTypeMap: map[string]model.StandardType{
			"atx_heading":       model.TypeExpression,
			"fenced_code_block": model.TypeExpression,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Logical: 0.50,
		},
		CommentPrefixes: nil,
	})

	register(&Spec{
		Name:       "html",
		Extensions: []string{".html", ".htm"},
		NodeTypeMap: map[string]model.StandardType{
			"element": model.TypeExpression,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Logical: 0.40,
		},
	})

	register(&Spec{
		Name:       "css",
		Extensions: []string{".css", ".scss"},
		NodeTypeMap: map[string]model.StandardType{
			"rule_set": model.TypeExpression,
		},
		Boundary: BoundaryWeights{
			Syntactic: 0.3, Logical: 0.40,
		},
		CommentPrefixes: []string{"/*"},
	})

	// Content-rule signatures (spec.md §4.1 step 3), tried in order for
	// extensionless or unknown-extension files. Shebangs are checked first
	// by DetectByContent and win outright; these signatures cover files
	// with no shebang at all (e.g. a headerless Go or Python source pasted
	// without its extension).
	registerSignature("go", `^package\s+\w+`, 0.7)
	registerSignature("python", `^\s*(import\s+\w|from\s+[\w.]+\s+import\s+|def\s+\w+\s*\(|class\s+\w+\s*[:(])`, 0.6)
	registerSignature("java", `\b(public|private)\s+class\s+\w+`, 0.6)
	registerSignature("c", `#include\s*[<"]`, 0.5)
	registerSignature("javascript", `\b(function\s+\w+\s*\(|const\s+\w+\s*=\s*require\()`, 0.55)
	registerSignature("rust", `^\s*(pub\s+)?fn\s+\w+\s*\(|^\s*use\s+\w+::`, 0.6)
}
