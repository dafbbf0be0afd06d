package rawtext

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"regexp"

	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog"

	"resume-tailor-go/internal/logger"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTab          = regexp.MustCompile(`<w:tab[^>]*/?>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
)

// DOCXProvider DOCX文本提取器
type DOCXProvider struct {
	logger zerolog.Logger
}

// NewDOCXProvider 初始化DOCX提取器
func NewDOCXProvider() *DOCXProvider {
	return &DOCXProvider{
		logger: logger.Logger.With().Str("component", "docx_provider").Logger(),
	}
}

// Extract 实现 Provider。
// docx库返回的是document.xml原文，段落结束转换行后剥掉全部标签
func (d *DOCXProvider) Extract(_ context.Context, r io.Reader, uri string) (string, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", fmt.Errorf("读取DOCX失败 (%s): %w", uri, err)
	}

	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("DOCX解析失败 (%s): %w", uri, err)
	}
	defer doc.Close()

	text := stripDocxXML(doc.Editable().GetContent())
	d.logger.Debug().Str("uri", uri).Int("chars", len(text)).Msg("DOCX文本提取完成")
	return text, nil
}

// stripDocxXML 把WordprocessingML转成纯文本
func stripDocxXML(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, "\t")
	content = docxTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
