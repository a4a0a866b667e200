// Package storage 提供对象存储封装
package storage

import (
	"context"
	"fmt"
	"strings"
)

// ObjectStore 对象存储接口
// 定位符格式为 "bucket/object"，由 Put 返回、SplitLocator 解析
type ObjectStore interface {
	// Get 读取对象内容
	Get(ctx context.Context, bucket, object string) ([]byte, error)
	// Put 写入对象，返回定位符 "bucket/object"
	Put(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error)
}

// SplitLocator 解析 "bucket/object" 定位符
func SplitLocator(locator string) (bucket, object string, err error) {
	parts := strings.SplitN(locator, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid object locator: %q", locator)
	}
	return parts[0], parts[1], nil
}
