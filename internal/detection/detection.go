// Package detection implements Layer 1: language detection and the
// structural feature scan that recommends a chunking strategy for Layer 2.
// It generalizes the original implementation's internal/indexer/languages.go LanguageDetector
// (extension-to-language map, IsSupported/Detect) from a fixed three-language
// switch into a data-driven lookup over internal/langspec, and adds the
// backup-suffix and structural-feature rules spec.md §4.1 specifies, which
// the original implementation's detector does not have.
package detection

import (
	"path/filepath"
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

// Confidence levels spec.md §4.1 assigns to each detection rule: the
// extension rule is the most reliable (0.8), the content rule's score is
// capped below it (0.75) and only accepted above its floor (0.5), and the
// final text fallback carries just enough confidence to be distinguishable
// from "no information" (0.1).
const (
	extensionConfidence      = 0.8
	contentRuleMaxConfidence = 0.75
	contentRuleMinScore      = 0.5
	fallbackConfidence       = 0.1
)

// Detector runs Layer 1 over a source file.
type Detector struct {
	cfg *config.DetectionConfig
}

// New builds a Detector from the detection section of the pipeline config.
func New(cfg *config.DetectionConfig) *Detector {
	return &Detector{cfg: cfg}
}

// Detect classifies a file's language, file type and structural features,
// and recommends a Layer 2 strategy name (spec.md §4.1).
func (d *Detector) Detect(path string, content []byte) model.DetectionResult {
	fileType, cleanPath, originalExt := d.classifyFileType(path)
	ext := filepath.Ext(cleanPath)

	language := langspec.DetectByExtension(ext)
	confidence := extensionConfidence
	if language == "" {
		if contentLang, score := langspec.DetectByContent(content); score >= contentRuleMinScore {
			language = contentLang
			confidence = score
			if confidence > contentRuleMaxConfidence {
				confidence = contentRuleMaxConfidence
			}
		}
	}
	if language == "" {
		language = "text"
		confidence = fallbackConfidence
		if fileType == model.FileTypeNormal {
			fileType = model.FileTypeUnknown
		}
	}

	features := d.extractFeatures(language, content)

	result := model.DetectionResult{
		Language:    language,
		Confidence:  confidence,
		FileType:    fileType,
		Features:    features,
		OriginalExtension: originalExt,
	}
	result.RecommendedStrategy = d.recommendStrategy(language, fileType, features)
	return result
}

// classifyFileType detects backup suffixes (spec.md §4.1: "path.go.bak"
// recovers language from the stripped extension) and extensionless files.
func (d *Detector) classifyFileType(path string) (model.FileType, string, string) {
	for _, suffix := range d.cfg.BackupSuffixes {
		if strings.HasSuffix(path, suffix) {
			stripped := strings.TrimSuffix(path, suffix)
			return model.FileTypeBackup, stripped, filepath.Ext(stripped)
		}
	}
	if filepath.Ext(path) == "" {
		return model.FileTypeExtensionless, path, ""
	}
	return model.FileTypeNormal, path, ""
}

// extractFeatures performs the single-pass structural scan spec.md §4.1
// describes: import/export/function/class presence and a structuredness
// score equal to the share of non-empty lines that are indented. Comment
// lines count only toward Complexity.
func (d *Detector) extractFeatures(language string, content []byte) model.FileFeatures {
	text := string(content)
	lines := strings.Split(text, "\n")

	spec := langspec.Get(language)

	f := model.FileFeatures{
		LineCount: len(lines),
		ByteSize:  len(content),
	}

	if spec == nil {
		return f
	}

	indentedLines := 0
	commentLines := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			indentedLines++
		}
		for _, prefix := range spec.CommentPrefixes {
			if strings.HasPrefix(trimmed, prefix) {
				commentLines++
				break
			}
		}
		if spec.FunctionBoundaryPattern != nil && spec.FunctionBoundaryPattern.MatchString(line) {
			f.HasFunctions = true
		}
	}

	for nodeType := range spec.NodeTypeMap {
		if strings.Contains(text, "class") && nodeType == "class_declaration" {
			f.HasClasses = true
		}
	}
	f.HasImports = len(spec.ImportNodeTypes) > 0 && hasImportKeyword(language, text)
	f.HasExports = strings.Contains(text, "export ") || strings.Contains(text, "public ")

	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			nonEmpty++
		}
	}
	if nonEmpty > 0 {
		structureScore := float64(indentedLines) / float64(nonEmpty)
		f.IsStructured = structureScore >= d.cfg.StructuredMin
		f.IsHighlyStructured = structureScore >= d.cfg.HighlyStructuredMin
	}
	f.Complexity = commentLines + indentedLines
	return f
}

func hasImportKeyword(language, text string) bool {
	switch language {
	case "go":
		return strings.Contains(text, "import ") || strings.Contains(text, "import(")
	case "python":
		return strings.Contains(text, "import ") || strings.Contains(text, "from ")
	case "c", "cpp":
		return strings.Contains(text, "#include")
	default:
		return strings.Contains(text, "import ")
	}
}

// recommendStrategy picks the Layer 2 entry strategy: backup files start at
// symbol-balance, unknown files at universal-line, markdown at markdown and
// html at xml-html; otherwise highly-structured code starts at AST,
// structured code at syntax-aware, and everything else at symbol-balance.
func (d *Detector) recommendStrategy(language string, fileType model.FileType, f model.FileFeatures) string {
	if fileType == model.FileTypeBackup {
		// spec.md §4.1 rule 1: a backup file recovers its language from the
		// stripped suffix but is never trusted enough to hand to a parser;
		// "symbol-balance" is this codebase's strategy id for bracket-balance
		// repair.
		return "symbol-balance"
	}
	if fileType == model.FileTypeUnknown {
		return "universal-line"
	}
	if language == "markdown" {
		return "markdown"
	}
	if language == "html" {
		return "xml-html"
	}
	if f.IsHighlyStructured {
		return "ast"
	}
	if f.IsStructured {
		return "syntax-aware"
	}
	return "symbol-balance"
}
