// Package scan walks a directory tree and collects the files the pipeline
// should process, skipping ignored paths and unsupported extensions. This
// adapts the original implementation's internal/indexer/scanner.go Scanner/Scan almost
// unchanged in shape (WalkDir, ignore matcher, language support check) but
// drops the indexing-specific incremental/background bookkeeping and the
// max-file-size-MB config, which belong to the original implementation's indexer rather
// than to this pipeline's ambient scan.
package scan

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/kkkqkx123/codegraph-parser/internal/langspec"
	"github.com/kkkqkx123/codegraph-parser/pkg/config"
	"github.com/kkkqkx123/codegraph-parser/pkg/ignore"
)

// Scanner walks a repository and collects indexable file paths.
type Scanner struct {
	ignoreMatcher *ignore.Matcher
}

// New builds a Scanner from the ignore_patterns config section.
func New(cfg *config.IgnoreConfig) *Scanner {
	patterns := cfg.Patterns
	if len(patterns) == 0 {
		patterns = ignore.DefaultPatterns()
	}
	return &Scanner{ignoreMatcher: ignore.NewMatcher(patterns)}
}

// Result is the outcome of a directory scan.
type Result struct {
	Files        []string
	TotalFiles   int
	SkippedFiles int
	Languages    map[string]int
	Errors       []error
}

// Scan walks root and returns every file with a recognized language
// extension, honoring ignore patterns and skipping hidden directories.
func (s *Scanner) Scan(root string) (*Result, error) {
	result := &Result{Languages: make(map[string]int)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("accessing %s: %w", path, err))
			return nil
		}

		relPath, relErr := filepath.Rel(root, path)
		if relErr != nil {
			relPath = path
		}

		if d.IsDir() {
			if s.shouldIgnoreDir(relPath, d.Name()) {
				return fs.SkipDir
			}
			return nil
		}

		if s.ignoreMatcher.ShouldIgnore(relPath) {
			result.SkippedFiles++
			return nil
		}

		result.TotalFiles++

		language := langspec.DetectByExtension(filepath.Ext(path))
		if language == "" {
			result.SkippedFiles++
			return nil
		}

		result.Files = append(result.Files, path)
		result.Languages[language]++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan: walking %s: %w", root, err)
	}

	return result, nil
}

func (s *Scanner) shouldIgnoreDir(relPath, dirName string) bool {
	if strings.HasPrefix(dirName, ".") && dirName != "." {
		return true
	}
	return s.ignoreMatcher.ShouldIgnore(relPath)
}
