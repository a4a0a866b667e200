// Package testutil 提供测试辅助工具
package testutil

import (
	"archive/zip"
	"bytes"
	"testing"
)

// BuildZip 构建测试用压缩包，保持给定的条目顺序
// entries 每项为 {文件名, 内容}
func BuildZip(t *testing.T, entries [][2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range entries {
		f, err := w.Create(e[0])
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := f.Write([]byte(e[1])); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// BuildZipFile 构建只含一个文件的压缩包
func BuildZipFile(t *testing.T, name, content string) []byte {
	t.Helper()
	return BuildZip(t, [][2]string{{name, content}})
}
