// Package cache implements the content-addressed caches spec.md §4.4.5 and
// §5 call for: a fixed-capacity AST cache, a normalization memoization cache,
// and an adapter-instance cache. Capacity and eviction come from
// github.com/hashicorp/golang-lru/v2 (a dependency only indirectly present in
// the original implementation's own module graph via josephgoksu-TaskWing, adopted directly
// here since the original implementation hand-rolls no LRU of its own). Keys are content
// hashes computed with crypto/sha256, following the original implementation's
// internal/cache/file_hashes.go computeFileHash pattern — never a
// non-cryptographic hash such as xxhash, which spec.md's open question on
// cache-key hashing explicitly warns against.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kkkqkx123/codegraph-parser/internal/treesitter"
)

// HashContent returns the lower-hex sha256 digest of content.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// HashReader streams r through sha256 without buffering the whole input.
func HashReader(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("cache: hashing reader: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ASTKey builds the cache key spec.md §4.4.5 mandates: ast:{path}:{sha256}.
func ASTKey(path string, content []byte) string {
	return fmt.Sprintf("ast:%s:%s", path, HashContent(content))
}

// NormalizeKey builds the memoization key for a normalize() call: the AST
// key plus the adapter/language tag, since the same AST can be normalized
// under different adapter versions.
func NormalizeKey(astKey, language string) string {
	return fmt.Sprintf("norm:%s:%s", language, astKey)
}

// ASTCache is a fixed-capacity LRU of parsed syntax trees keyed by ASTKey.
type ASTCache struct {
	lru *lru.Cache[string, *treesitter.SyntaxTree]
}

// NewASTCache builds an AST cache with the given capacity.
func NewASTCache(capacity int) (*ASTCache, error) {
	c, err := lru.New[string, *treesitter.SyntaxTree](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: creating AST cache: %w", err)
	}
	return &ASTCache{lru: c}, nil
}

func (c *ASTCache) Get(key string) (*treesitter.SyntaxTree, bool) {
	return c.lru.Get(key)
}

func (c *ASTCache) Put(key string, tree *treesitter.SyntaxTree) {
	c.lru.Add(key, tree)
}

func (c *ASTCache) Len() int {
	return c.lru.Len()
}

// NormalizeResult is whatever normalize() produces; stored generically so
// the cache package doesn't depend on internal/normalize.
type NormalizeResult struct {
	Entities      any
	Relationships any
}

// NormalizeCache memoizes normalize() output keyed by NormalizeKey.
type NormalizeCache struct {
	lru *lru.Cache[string, NormalizeResult]
}

// NewNormalizeCache builds a normalize-result cache with the given capacity.
func NewNormalizeCache(capacity int) (*NormalizeCache, error) {
	c, err := lru.New[string, NormalizeResult](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: creating normalize cache: %w", err)
	}
	return &NormalizeCache{lru: c}, nil
}

func (c *NormalizeCache) Get(key string) (NormalizeResult, bool) {
	return c.lru.Get(key)
}

func (c *NormalizeCache) Put(key string, result NormalizeResult) {
	c.lru.Add(key, result)
}

// AdapterCache caches per-language adapter instances so adapter construction
// (loading node-type tables, compiling queries) happens once per language.
type AdapterCache struct {
	lru *lru.Cache[string, any]
}

// NewAdapterCache builds an adapter cache with the given capacity.
func NewAdapterCache(capacity int) (*AdapterCache, error) {
	c, err := lru.New[string, any](capacity)
	if err != nil {
		return nil, fmt.Errorf("cache: creating adapter cache: %w", err)
	}
	return &AdapterCache{lru: c}, nil
}

func (c *AdapterCache) GetOrCreate(language string, create func() any) any {
	if v, ok := c.lru.Get(language); ok {
		return v
	}
	v := create()
	c.lru.Add(language, v)
	return v
}
