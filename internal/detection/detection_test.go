package detection

import (
	"strings"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/internal/model"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func newTestDetector() *Detector {
	return New(&config.DetectionConfig{
		BackupSuffixes:      []string{".bak", ".orig", ".old", "~"},
		HighlyStructuredMin: 0.8,
		StructuredMin:       0.5,
	})
}

func TestDetectByExtension(t *testing.T) {
	d := newTestDetector()

	tests := []struct {
		path     string
		wantLang string
	}{
		{"main.go", "go"},
		{"Service.java", "java"},
		{"index.ts", "typescript"},
		{"README.md", "markdown"},
	}

	for _, tt := range tests {
		result := d.Detect(tt.path, []byte("package main\n"))
		if result.Language != tt.wantLang {
			t.Errorf("Detect(%q).Language = %q, want %q", tt.path, result.Language, tt.wantLang)
		}
	}
}

func TestDetectBackupSuffix(t *testing.T) {
	d := newTestDetector()

	result := d.Detect("main.go.bak", []byte("package main\n"))
	if result.FileType != model.FileTypeBackup {
		t.Errorf("FileType = %q, want backup", result.FileType)
	}
	if result.Language != "go" {
		t.Errorf("Language = %q, want go (recovered from stripped extension)", result.Language)
	}
	if result.OriginalExtension != ".go" {
		t.Errorf("OriginalExtension = %q, want .go", result.OriginalExtension)
	}
}

func TestDetectUnknownExtension(t *testing.T) {
	d := newTestDetector()

	result := d.Detect("data.xyz123", []byte("whatever"))
	if result.Language != "text" {
		t.Errorf("Language = %q, want text", result.Language)
	}
	if result.Confidence != fallbackConfidence {
		t.Errorf("Confidence = %v, want %v", result.Confidence, fallbackConfidence)
	}
	if result.FileType != model.FileTypeUnknown {
		t.Errorf("FileType = %q, want unknown", result.FileType)
	}
	if result.RecommendedStrategy != "universal-line" {
		t.Errorf("RecommendedStrategy = %q, want universal-line", result.RecommendedStrategy)
	}
}

func TestDetectContentRuleRecognizesShebang(t *testing.T) {
	d := newTestDetector()

	result := d.Detect("runme", []byte("#!/usr/bin/env python3\nprint('hi')\n"))
	if result.Language != "python" {
		t.Errorf("Language = %q, want python", result.Language)
	}
	if result.Confidence != contentRuleMaxConfidence {
		t.Errorf("Confidence = %v, want %v", result.Confidence, contentRuleMaxConfidence)
	}
}

func TestBackupFileRecommendsSymbolBalance(t *testing.T) {
	d := newTestDetector()

	src := strings.Repeat("void f() {\n\tif (1) {\n\t\treturn;\n\t}\n}\n\n", 20)
	result := d.Detect("server.c.bak", []byte(src))
	if result.FileType != model.FileTypeBackup {
		t.Fatalf("FileType = %q, want backup", result.FileType)
	}
	if result.RecommendedStrategy != "symbol-balance" {
		t.Errorf("RecommendedStrategy = %q, want symbol-balance", result.RecommendedStrategy)
	}
}

func TestDetectExtensionless(t *testing.T) {
	d := newTestDetector()

	result := d.Detect("Makefile", []byte("build:\n\tgo build\n"))
	if result.FileType != model.FileTypeExtensionless {
		t.Errorf("FileType = %q, want extensionless", result.FileType)
	}
}

func TestRecommendStrategyHighlyStructuredGoPrefersAST(t *testing.T) {
	d := newTestDetector()

	src := strings.Repeat("func f() {\n\tif true {\n\t\treturn\n\t}\n}\n\n", 20)
	result := d.Detect("service.go", []byte(src))
	if !result.Features.IsHighlyStructured {
		t.Fatalf("expected highly-structured Go source, got features %+v", result.Features)
	}
	if result.RecommendedStrategy != "ast" {
		t.Errorf("RecommendedStrategy = %q, want ast", result.RecommendedStrategy)
	}
}

func TestRecommendStrategyMarkdownAndHTML(t *testing.T) {
	d := newTestDetector()

	if got := d.Detect("doc.md", []byte("# Title\n")).RecommendedStrategy; got != "markdown" {
		t.Errorf("markdown RecommendedStrategy = %q, want markdown", got)
	}
	if got := d.Detect("page.html", []byte("<html></html>\n")).RecommendedStrategy; got != "xml-html" {
		t.Errorf("html RecommendedStrategy = %q, want xml-html", got)
	}
}
