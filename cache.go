package kreuzberg

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// Cache is the opaque result side channel consulted by the pipeline
// when ExtractionConfig.UseCache is set. Get returns (nil, false, nil)
// on a miss. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*ExtractionResult, bool, error)
	Set(ctx context.Context, key string, result *ExtractionResult) error
}

var activeCache atomic.Pointer[Cache]

// SetCache installs the process-wide cache collaborator. Passing nil
// detaches it.
func SetCache(c Cache) {
	if c == nil {
		activeCache.Store(nil)
		return
	}
	activeCache.Store(&c)
}

func currentCache() Cache {
	p := activeCache.Load()
	if p == nil {
		return nil
	}
	return *p
}

// cacheKey derives the pipeline cache key from the document bytes and
// the output-affecting config settings.
func cacheKey(content []byte, mime string, cfg *ExtractionConfig) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(mime))
	h.Write([]byte{0})
	h.Write([]byte(cfg.Fingerprint()))
	return "kreuzberg:result:" + hex.EncodeToString(h.Sum(nil))
}

// MemoryCache is an in-process Cache, mainly for tests and single
// binary deployments.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*ExtractionResult
}

// NewMemoryCache returns an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]*ExtractionResult)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*ExtractionResult, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	cp := *r
	return &cp, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, result *ExtractionResult) error {
	cp := *result
	m.mu.Lock()
	m.entries[key] = &cp
	m.mu.Unlock()
	return nil
}
