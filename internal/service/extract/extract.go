// Package extract 提供提交压缩包的代码抽取
package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"path"
	"strings"
	"unicode/utf8"
)

// ErrNoCode 压缩包损坏或不含任何代码文件
// 调用方应以占位代码继续评估，而不是中断流水线
var ErrNoCode = errors.New("no code files found in archive")

// 默认代码文件扩展名白名单
var defaultExtensions = []string{".cs", ".py", ".java", ".js", ".ts", ".cpp", ".c", ".h", ".txt"}

// 构建产物与依赖目录，抽取时跳过
var skipDirs = []string{"bin/", "obj/", "node_modules/", ".git/", "packages/", "__pycache__/"}

// 生成文件后缀，抽取时跳过
var skipSuffixes = []string{".designer.cs", ".g.cs", ".min.js"}

// Extractor 代码抽取器
type Extractor struct {
	extensions []string
}

// NewExtractor 创建代码抽取器
// extensions 为空时使用默认白名单
func NewExtractor(extensions []string) *Extractor {
	if len(extensions) == 0 {
		extensions = defaultExtensions
	}
	lowered := make([]string, len(extensions))
	for i, ext := range extensions {
		lowered[i] = strings.ToLower(ext)
	}
	return &Extractor{extensions: lowered}
}

// FromZip 将 zip 压缩包抽取为单个代码文本
// 每个匹配文件前加 "// File: <name>" 标记，按压缩包条目原始顺序拼接
// 压缩包损坏或无匹配文件时返回 ErrNoCode
func (e *Extractor) FromZip(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", ErrNoCode
	}

	var parts []string
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !e.wantFile(f.Name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}

		parts = append(parts, "// File: "+f.Name+"\n"+decodeText(content)+"\n")
	}

	if len(parts) == 0 {
		return "", ErrNoCode
	}
	return strings.Join(parts, "\n\n"), nil
}

// wantFile 判断条目是否属于代码文件
func (e *Extractor) wantFile(name string) bool {
	lower := strings.ToLower(name)

	for _, dir := range skipDirs {
		if strings.HasPrefix(lower, dir) || strings.Contains(lower, "/"+dir) {
			return false
		}
	}
	for _, suffix := range skipSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	ext := strings.ToLower(path.Ext(name))
	for _, allowed := range e.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// decodeText 尽力把字节解码为文本，无效 UTF-8 字节替换为 U+FFFD
func decodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune('�')
		} else {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}
