package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kkkqkx123/codegraph-parser/pkg/config"
)

func TestScanCollectsSupportedFilesAndSkipsIgnored(t *testing.T) {
	root := t.TempDir()

	write := func(rel, content string) {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("MkdirAll: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	write("main.go", "package main\n")
	write("README.txt", "plain text, no registered language\n")
	write("node_modules/pkg/index.js", "module.exports = {}\n")
	write(".git/HEAD", "ref: refs/heads/main\n")

	scanner := New(&config.IgnoreConfig{Patterns: []string{"node_modules/**"}})
	result, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	foundGo := false
	for _, f := range result.Files {
		rel, _ := filepath.Rel(root, f)
		if rel == "main.go" {
			foundGo = true
		}
		if filepath.ToSlash(rel) == "node_modules/pkg/index.js" {
			t.Errorf("expected node_modules to be ignored, found %s", rel)
		}
	}
	if !foundGo {
		t.Error("expected main.go to be collected")
	}
	if result.Languages["go"] != 1 {
		t.Errorf("Languages[go] = %d, want 1", result.Languages["go"])
	}
}

func TestScanSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".hidden"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".hidden", "secret.go"), []byte("package hidden\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	scanner := New(&config.IgnoreConfig{})
	result, err := scanner.Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(result.Files) != 0 {
		t.Errorf("expected hidden directory to be skipped entirely, got %v", result.Files)
	}
}
