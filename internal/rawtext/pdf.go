package rawtext

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
)

// pdfParseTimeout 单个PDF的解析超时
const pdfParseTimeout = 30 * time.Second

// PDFProvider 基于 Eino PDF Parser 的文本提取器。
// 不按页面分割，整个文档作为一段连续文本返回
type PDFProvider struct {
	parser *pdf.PDFParser
	logger zerolog.Logger
}

// NewPDFProvider 初始化PDF提取器
func NewPDFProvider(ctx context.Context) (*PDFProvider, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("创建PDF解析器失败: %w", err)
	}
	return &PDFProvider{
		parser: p,
		logger: logger.Logger.With().Str("component", "pdf_provider").Logger(),
	}, nil
}

// Extract 实现 Provider
func (p *PDFProvider) Extract(ctx context.Context, r io.Reader, uri string) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, pdfParseTimeout)
	defer cancel()

	docs, err := p.parser.Parse(ctx, r, einoparser.WithURI(uri))
	if err != nil {
		return "", fmt.Errorf("PDF解析失败 (%s): %w", uri, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("PDF解析无结果 (%s)", uri)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	text := strings.Join(parts, "\n\n")

	p.logger.Debug().
		Str("uri", uri).
		Int("chars", len(text)).
		Dur("duration", time.Since(start)).
		Msg("PDF文本提取完成")
	return text, nil
}
