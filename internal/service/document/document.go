// Package document 解析作业要求文档
// 直接使用 eino/eino-ext 解析组件，避免冗余封装
package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino-ext/components/document/parser/docx"
	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoparser "github.com/cloudwego/eino/components/document/parser"
	"github.com/cloudwego/eino/schema"
)

// Parser 要求文档解析器
// 把上传的 PDF/DOCX/纯文本转成作业要求的纯文本
type Parser struct{}

// NewParser 创建要求文档解析器
func NewParser() *Parser {
	return &Parser{}
}

// ExtractText 按文件名后缀选择解析器并提取全文
func (p *Parser) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	fileParser, err := newParser(ctx, filename)
	if err != nil {
		return "", err
	}

	docs, err := fileParser.Parse(ctx, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parser failed: %w", err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("no content parsed from %s", filename)
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Content != "" {
			parts = append(parts, d.Content)
		}
	}
	text := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if text == "" {
		return "", fmt.Errorf("document %s is empty", filename)
	}
	return text, nil
}

// newParser 创建解析器
func newParser(ctx context.Context, filename string) (einoparser.Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	case ".docx":
		return docx.NewDocxParser(ctx, &docx.Config{
			ToSections:      false,
			IncludeComments: false,
			IncludeHeaders:  true,
			IncludeFooters:  false,
			IncludeTables:   true,
		})
	case ".txt", ".md":
		return &textParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

// textParser 纯文本解析器
type textParser struct{}

func (p *textParser) Parse(_ context.Context, reader io.Reader, opts ...einoparser.Option) ([]*schema.Document, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read: %w", err)
	}

	text := string(content)
	if text == "" {
		return []*schema.Document{}, nil
	}

	return []*schema.Document{
		{
			Content:  text,
			MetaData: make(map[string]any),
		},
	}, nil
}
