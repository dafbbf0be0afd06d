// Package rawtext 从上传的简历/岗位文件中提取纯文本。
// 核心流水线只消费解码后的字符串，编码和格式问题都在这一层兜住。
package rawtext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat 不支持的文件格式
var ErrUnsupportedFormat = errors.New("不支持的文件格式")

// Provider 单一格式的文本提取器
type Provider interface {
	// Extract 从数据流中提取纯文本，uri仅用于日志定位
	Extract(ctx context.Context, r io.Reader, uri string) (string, error)
}

// Registry 按文件扩展名分发到对应的提取器
type Registry struct {
	providers map[string]Provider
}

// NewRegistry 创建注册了PDF、DOCX和纯文本提取器的分发器
func NewRegistry(ctx context.Context) (*Registry, error) {
	pdfProvider, err := NewPDFProvider(ctx)
	if err != nil {
		return nil, fmt.Errorf("初始化PDF提取器失败: %w", err)
	}
	return &Registry{
		providers: map[string]Provider{
			".pdf":  pdfProvider,
			".docx": NewDOCXProvider(),
			".txt":  TextProvider{},
			".md":   TextProvider{},
		},
	}, nil
}

// Extract 按文件名后缀选择提取器并提取文本
func (reg *Registry) Extract(ctx context.Context, r io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	provider, ok := reg.providers[ext]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	return provider.Extract(ctx, r, filename)
}

// Supported 当前支持的扩展名
func (reg *Registry) Supported() []string {
	out := make([]string, 0, len(reg.providers))
	for ext := range reg.providers {
		out = append(out, ext)
	}
	return out
}

// TextProvider 纯文本直读
type TextProvider struct{}

// Extract 实现 Provider
func (TextProvider) Extract(_ context.Context, r io.Reader, _ string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("读取文本失败: %w", err)
	}
	return string(data), nil
}
