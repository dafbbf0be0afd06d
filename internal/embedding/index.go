package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// ErrEmbeddingUnavailable 向量后端不可用（网络故障、超时等）。
// 对调用方而言是可重试错误，不应终止整个流水线。
var ErrEmbeddingUnavailable = errors.New("向量后端不可用")

// UnavailableError 包装底层失败原因的不可用错误
type UnavailableError struct {
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s: %v", ErrEmbeddingUnavailable, e.Cause)
}

func (e *UnavailableError) Unwrap() error {
	return ErrEmbeddingUnavailable
}

// Item 一条待向量化的文本及其标识
type Item struct {
	ID   string
	Text string
}

// Scored 相似度查询的一条结果
type Scored struct {
	ID    string
	Score float64 // 重缩放后的余弦相似度，[0,1]
}

// Index 向量索引：负责向量化、内容哈希缓存与相似度查询。
// 缓存是流水线中唯一的共享可变资源：命中走无锁读路径，
// 未命中通过singleflight合并，同一内容哈希最多一次在途计算。
type Index struct {
	backend embedding.Embedder
	cache   VectorCache
	model   string
	group   singleflight.Group
	logger  zerolog.Logger
}

// NewIndex 创建向量索引
func NewIndex(backend embedding.Embedder, cache VectorCache, model string) (*Index, error) {
	if backend == nil {
		return nil, fmt.Errorf("embedding backend 不能为空")
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Index{
		backend: backend,
		cache:   cache,
		model:   model,
		logger:  logger.Logger.With().Str("component", "embedding_index").Logger(),
	}, nil
}

// Model 返回当前使用的向量模型版本
func (idx *Index) Model() string {
	return idx.model
}

// ContentHash 计算缓存键：源文本的SHA-256十六进制摘要
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Embed 为一批条目生成向量。相同内容哈希的重复请求命中缓存，
// 不会再次触发后端计算，保证下游分数逐位一致。
func (idx *Index) Embed(ctx context.Context, items []Item) (map[string]types.EmbeddingVector, error) {
	out := make(map[string]types.EmbeddingVector, len(items))

	for _, item := range items {
		hash := ContentHash(item.Text)

		if vec, model, ok, err := idx.cache.Get(ctx, hash); err == nil && ok && model == idx.model {
			vec.ID = item.ID
			out[item.ID] = vec
			continue
		} else if err != nil {
			// 缓存读取失败不阻塞主流程
			idx.logger.Warn().Err(err).Str("hash", hash).Msg("读取向量缓存失败，改为直接计算")
		}

		vec, err := idx.embedOne(ctx, hash, item.Text)
		if err != nil {
			return nil, err
		}
		vec.ID = item.ID
		out[item.ID] = vec
	}
	return out, nil
}

// embedOne 计算单条文本的向量，按内容哈希做singleflight合并
func (idx *Index) embedOne(ctx context.Context, hash, text string) (types.EmbeddingVector, error) {
	result, err, _ := idx.group.Do(hash, func() (interface{}, error) {
		// 双重检查：等待在途计算期间可能已有并发写入
		if vec, model, ok, err := idx.cache.Get(ctx, hash); err == nil && ok && model == idx.model {
			return vec, nil
		}

		vectors, err := idx.backend.EmbedStrings(ctx, []string{text})
		if err != nil {
			return nil, &UnavailableError{Cause: err}
		}
		if len(vectors) == 0 || len(vectors[0]) == 0 {
			return nil, &UnavailableError{Cause: fmt.Errorf("后端返回空向量")}
		}

		vec := types.EmbeddingVector{ContentHash: hash, Values: vectors[0]}
		if err := idx.cache.Set(ctx, vec, idx.model); err != nil {
			// 缓存写入失败只记录，不影响结果
			idx.logger.Warn().Err(err).Str("hash", hash).Msg("写入向量缓存失败")
		}
		return vec, nil
	})
	if err != nil {
		return types.EmbeddingVector{}, err
	}
	return result.(types.EmbeddingVector), nil
}

// MostSimilar 在候选向量中查找与查询向量最相似的前k个，
// 按分数降序排列，同分时按ID升序保证确定性
func (idx *Index) MostSimilar(query []float64, candidates []types.EmbeddingVector, k int) []Scored {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Scored{ID: c.ID, Score: RescaledCosine(query, c.Values)})
	}
	sort.SliceStable(scored, func(a, b int) bool {
		if scored[a].Score != scored[b].Score {
			return scored[a].Score > scored[b].Score
		}
		return scored[a].ID < scored[b].ID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// RescaledCosine 余弦相似度重缩放到[0,1]：(cos+1)/2。
// 任一向量为零向量或维度不匹配时返回0。
func RescaledCosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return (cos + 1) / 2
}
