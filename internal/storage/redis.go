package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"resume-tailor-go/internal/config"
	"resume-tailor-go/internal/logger"
	"resume-tailor-go/internal/types"
)

// 向量缓存的HASH字段
const (
	vectorField       = "vector"
	modelVersionField = "model_version"
)

// vectorKeyFormat 向量缓存键，%s为源文本的内容哈希
const vectorKeyFormat = "resume_tailor:vector:%s"

// Redis 向量缓存适配器，实现 embedding.VectorCache。
// 向量和模型版本存在同一个HASH下，便于整体过期
type Redis struct {
	Client *redis.Client
	cfg    config.RedisConfig
	logger zerolog.Logger
}

// NewRedisAdapter 连接Redis并注册OpenTelemetry追踪钩子
func NewRedisAdapter(cfg config.RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("连接Redis失败 %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		cfg:    cfg,
		logger: logger.Logger.With().Str("component", "redis_cache").Logger(),
	}, nil
}

// Close 关闭客户端连接
func (r *Redis) Close() error {
	return r.Client.Close()
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// expiration 向量条目的过期时间
func (r *Redis) expiration() time.Duration {
	days := r.cfg.VectorExpireDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// Get 实现 embedding.VectorCache。未命中时ok为false且不报错
func (r *Redis) Get(ctx context.Context, contentHash string) (types.EmbeddingVector, string, bool, error) {
	key := fmt.Sprintf(vectorKeyFormat, contentHash)

	vals, err := r.Client.HMGet(ctx, key, vectorField, modelVersionField).Result()
	if err != nil {
		return types.EmbeddingVector{}, "", false, fmt.Errorf("读取向量缓存失败: %w", err)
	}
	if len(vals) < 2 || vals[0] == nil {
		return types.EmbeddingVector{}, "", false, nil
	}

	vectorJSON, ok := vals[0].(string)
	if !ok || vectorJSON == "" {
		return types.EmbeddingVector{}, "", false, fmt.Errorf("向量缓存格式错误, key=%s", key)
	}
	var values []float64
	if err := json.Unmarshal([]byte(vectorJSON), &values); err != nil {
		return types.EmbeddingVector{}, "", false, fmt.Errorf("反序列化向量失败: %w", err)
	}

	modelVersion := ""
	if vals[1] != nil {
		modelVersion, _ = vals[1].(string)
	}

	return types.EmbeddingVector{ContentHash: contentHash, Values: values}, modelVersion, true, nil
}

// Set 实现 embedding.VectorCache。pipeline保证字段与过期时间一并写入
func (r *Redis) Set(ctx context.Context, vec types.EmbeddingVector, model string) error {
	key := fmt.Sprintf(vectorKeyFormat, vec.ContentHash)

	vectorJSON, err := json.Marshal(vec.Values)
	if err != nil {
		return fmt.Errorf("序列化向量失败: %w", err)
	}

	pipe := r.Client.Pipeline()
	pipe.HSet(ctx, key, vectorField, vectorJSON)
	pipe.HSet(ctx, key, modelVersionField, model)
	pipe.Expire(ctx, key, r.expiration())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入向量缓存失败: %w", err)
	}
	return nil
}
