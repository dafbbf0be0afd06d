package embedding

import (
	"context"
	"sync"

	"resume-tailor-go/internal/types"
)

// VectorCache 向量缓存接口。缓存键为源文本的内容哈希，
// 条目记录生成时的模型版本，版本不一致视为未命中。
type VectorCache interface {
	// Get 按内容哈希读取缓存向量；未命中时 ok 为 false
	Get(ctx context.Context, contentHash string) (vec types.EmbeddingVector, model string, ok bool, err error)

	// Set 写入缓存向量及其模型版本
	Set(ctx context.Context, vec types.EmbeddingVector, model string) error
}

// MemoryCache 进程内向量缓存，读多写少，读路径用读锁
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	vec   types.EmbeddingVector
	model string
}

// NewMemoryCache 创建进程内向量缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

// Get 实现 VectorCache
func (c *MemoryCache) Get(ctx context.Context, contentHash string) (types.EmbeddingVector, string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[contentHash]
	if !ok {
		return types.EmbeddingVector{}, "", false, nil
	}
	return entry.vec, entry.model, true, nil
}

// Set 实现 VectorCache
func (c *MemoryCache) Set(ctx context.Context, vec types.EmbeddingVector, model string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[vec.ContentHash] = memoryEntry{vec: vec, model: model}
	return nil
}

// Len 当前缓存条目数（测试用）
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
