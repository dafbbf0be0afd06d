package processor

import (
	"resume-tailor-go/internal/storage"
)

// Option 服务的可选配置
type Option func(*Service)

// WithStorage 启用持久化：会话与阶段快照写入MySQL
func WithStorage(s *storage.Storage) Option {
	return func(svc *Service) {
		svc.store = s
	}
}

// WithRenderer 覆盖默认的纯文本渲染器
func WithRenderer(r ResumeRenderer) Option {
	return func(svc *Service) {
		if r != nil {
			svc.renderer = r
		}
	}
}
