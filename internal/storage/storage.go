// Package storage 聚合可选的持久化依赖。
// MySQL和Redis都按需启用：配置缺省时核心流水线全部走内存路径。
package storage

import (
	"resume-tailor-go/internal/config"
	"resume-tailor-go/internal/logger"
)

// Storage 持久化组件的集合。未启用的组件为nil
type Storage struct {
	MySQL *MySQL
	Redis *Redis
}

// NewStorage 按配置初始化持久化组件。
// 任何一个组件连接失败都视为致命错误，不做静默降级
func NewStorage(cfg *config.Config) (*Storage, error) {
	s := &Storage{}

	if cfg.MySQL.Host != "" {
		mysqlStore, err := NewMySQL(cfg.MySQL)
		if err != nil {
			return nil, err
		}
		s.MySQL = mysqlStore
		logger.Info().Str("host", cfg.MySQL.Host).Str("database", cfg.MySQL.Database).Msg("MySQL存储已启用")
	}

	if cfg.Redis.Address != "" {
		redisStore, err := NewRedisAdapter(cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Redis = redisStore
		logger.Info().Str("address", cfg.Redis.Address).Msg("Redis向量缓存已启用")
	}

	return s, nil
}

// Close 释放全部已启用的连接
func (s *Storage) Close() {
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
