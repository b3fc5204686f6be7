// Package config loads the pipeline's configuration tree: defaults, then an
// optional YAML file, then environment overrides. This mirrors the original implementation's
// Load()/DefaultConfig()/applyEnvOverrides() layering, generalized to the
// configuration keys spec.md §6 names for the five pipeline layers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the parsing pipeline.
type Config struct {
	Detection     DetectionConfig     `yaml:"detection"`
	Chunking      ChunkingConfig      `yaml:"chunking"`
	PostProcess   PostProcessConfig   `yaml:"post_process"`
	Normalization NormalizationConfig `yaml:"normalization"`
	QueryMerge    QueryMergeConfig    `yaml:"query_merge"`
	Performance   PerformanceConfig   `yaml:"performance"`
	Sink          SinkConfig          `yaml:"sink"`
	Logging       LoggingConfig       `yaml:"logging"`
	Ignore        IgnoreConfig        `yaml:"ignore_patterns"`
	Server        ServerConfig        `yaml:"server"`
}

// ServerConfig names the MCP server identity reported to clients.
type ServerConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DetectionConfig configures Layer 1 (spec.md §4.1).
type DetectionConfig struct {
	BackupSuffixes      []string `yaml:"backup_suffixes"`
	HighlyStructuredMin float64  `yaml:"highly_structured_min"`
	StructuredMin       float64  `yaml:"structured_min"`
}

// ChunkingConfig configures Layer 2 (spec.md §4.2).
type ChunkingConfig struct {
	MaxChunkLines      int     `yaml:"max_chunk_lines"`
	MinChunkLines      int     `yaml:"min_chunk_lines"`
	MaxChunkSizeBytes  int     `yaml:"max_chunk_size_bytes"`
	OverlapLines       int     `yaml:"overlap_lines"`
	OverlapLinesRatio  int     `yaml:"overlap_lines_ratio"`
	MinOverlapLines    int     `yaml:"min_overlap_lines"`
	MaxOverlapLines    int     `yaml:"max_overlap_lines"`
	BoundaryLookahead  int     `yaml:"boundary_lookahead_lines"`
	GoodSplitThreshold float64 `yaml:"good_split_threshold"`
	TimeoutMs          int     `yaml:"timeout_ms"`

	// ASTAdjacencyGapLines is the §4.2.1 "Adjacency" merge distance: two
	// same-type top-level nodes within this many lines of each other merge
	// into one chunk when their combined size still fits MaxChunkSizeBytes.
	// Zero disables adjacency merging.
	ASTAdjacencyGapLines int `yaml:"ast_adjacency_gap_lines"`

	// ASTNestedFunctions gates the §4.2.1 "Containment" rule: when false
	// (the default), a container node (class, impl block...) is emitted as
	// a chunk but the nodes nested inside it are not also emitted as
	// separate chunks, since they remain reachable via the tree navigator.
	// Set true to additionally emit nested nodes as their own chunks.
	ASTNestedFunctions bool `yaml:"ast_nested_functions"`
}

// PostProcessConfig configures Layer 3 (spec.md §4.3).
type PostProcessConfig struct {
	MergeSmallChunksBelow int `yaml:"merge_small_chunks_below"`

	// MinFinalRatio is the §4.3 step 3 tail-rebalancing ratio: the final
	// chunk is folded into its predecessor when its line count falls below
	// MinFinalRatio * previous chunk's line count.
	MinFinalRatio float64 `yaml:"min_final_ratio"`

	// EnableOverlap gates §4.3 step 5 (disabled by default, per spec.md
	// §6's overlap.enabled). OverlapLines is the number of trailing lines
	// of the previous chunk to prepend; MaxOverlapRatio caps that count at
	// MaxOverlapRatio * the chunking layer's MaxChunkLines.
	EnableOverlap   bool    `yaml:"enable_overlap"`
	OverlapLines    int     `yaml:"overlap_lines"`
	MaxOverlapRatio float64 `yaml:"max_overlap_ratio"`
}

// NormalizationConfig configures Layer 4 (spec.md §4.4).
type NormalizationConfig struct {
	ASTCacheCapacity       int `yaml:"ast_cache_capacity"`
	NormalizeCacheCapacity int `yaml:"normalize_cache_capacity"`
	AdapterCacheCapacity   int `yaml:"adapter_cache_capacity"`
}

// QueryMergeConfig configures Layer 5 (spec.md §4.5).
type QueryMergeConfig struct {
	Strategy             string  `yaml:"strategy"`
	ConservativeGapLines int     `yaml:"conservative_gap_lines"`
	MaxContextSize       int     `yaml:"max_context_size"`
	MaxChunkCount        int     `yaml:"max_chunk_count"`
	SimilarityThreshold  float64 `yaml:"similarity_threshold"`
	CrossFile            bool    `yaml:"cross_file"`
	TokenModel           string  `yaml:"token_model"`
}

// PerformanceConfig configures the concurrency model (spec.md §5).
type PerformanceConfig struct {
	ParallelWorkers int `yaml:"parallel_workers"`
	ParserPoolSize  int `yaml:"parser_pool_size"`
}

// SinkConfig configures the Qdrant-backed chunk/entity sink.
type SinkConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	CollectionName string `yaml:"collection_name"`
	VectorSize     int    `yaml:"vector_size"`
}

// LoggingConfig configures the rotating file logger.
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// IgnoreConfig lists glob patterns excluded from directory scans.
type IgnoreConfig struct {
	Patterns []string `yaml:"patterns"`
}

// Load loads configuration from file (if any) or falls back to defaults,
// then applies environment overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configPath := getConfigPath()
	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.Logging.Directory = expandPath(cfg.Logging.Directory)

	return cfg, nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Detection: DetectionConfig{
			BackupSuffixes:      []string{".bak", ".orig", ".old", "~"},
			HighlyStructuredMin: 0.8,
			StructuredMin:       0.5,
		},
		Chunking: ChunkingConfig{
			MaxChunkLines:        100,
			MinChunkLines:        5,
			MaxChunkSizeBytes:    4000,
			OverlapLines:         5,
			OverlapLinesRatio:    10,
			MinOverlapLines:      1,
			MaxOverlapLines:      10,
			BoundaryLookahead:    10,
			GoodSplitThreshold:   0.6,
			TimeoutMs:            5000,
			ASTAdjacencyGapLines: 2,
			ASTNestedFunctions:   false,
		},
		PostProcess: PostProcessConfig{
			MergeSmallChunksBelow: 5,
			MinFinalRatio:         0.3,
			EnableOverlap:         false,
			OverlapLines:          2,
			MaxOverlapRatio:       0.25,
		},
		Normalization: NormalizationConfig{
			ASTCacheCapacity:       256,
			NormalizeCacheCapacity: 256,
			AdapterCacheCapacity:   32,
		},
		QueryMerge: QueryMergeConfig{
			Strategy:             "conservative",
			ConservativeGapLines: 3,
			MaxContextSize:       8000,
			MaxChunkCount:        20,
			SimilarityThreshold:  0.75,
			CrossFile:            false,
			TokenModel:           "cl100k_base",
		},
		Performance: PerformanceConfig{
			ParallelWorkers: runtime.NumCPU(),
			ParserPoolSize:  runtime.NumCPU(),
		},
		Sink: SinkConfig{
			Host:           "localhost",
			Port:           6334,
			CollectionName: "codegraph",
			VectorSize:     1,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Directory:  "~/.codegraph-parser/logs",
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Server: ServerConfig{
			Name:    "codegraph-parser",
			Version: "0.1.0",
		},
		Ignore: IgnoreConfig{
			Patterns: []string{
				"target/**",
				"build/**",
				"dist/**",
				"out/**",
				"node_modules/**",
				".pnp/**",
				"**/*.min.js",
				"**/*.bundle.js",
				".git/**",
				".idea/**",
				".vscode/**",
				"*.iml",
			},
		},
	}
}

func getConfigPath() string {
	if path := os.Getenv("CODEGRAPH_CONFIG"); path != "" {
		return path
	}

	if _, err := os.Stat("codegraph.yaml"); err == nil {
		return "codegraph.yaml"
	}

	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, ".codegraph-parser", "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CODEGRAPH_MAX_CHUNK_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Chunking.MaxChunkLines = n
		}
	}
	if v := os.Getenv("CODEGRAPH_PARALLEL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Performance.ParallelWorkers = n
		}
	}
	if v := os.Getenv("CODEGRAPH_QUERY_MERGE_STRATEGY"); v != "" {
		cfg.QueryMerge.Strategy = v
	}
	if v := os.Getenv("CODEGRAPH_SINK_HOST"); v != "" {
		cfg.Sink.Host = v
	}
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
