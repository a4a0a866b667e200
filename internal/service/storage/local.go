package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore 本地文件系统存储，bucket 映射为子目录
// 用于开发环境和测试，生产使用 MinIO
type LocalStore struct {
	basePath string
}

// NewLocalStore 创建本地存储
func NewLocalStore(basePath string) (*LocalStore, error) {
	if basePath == "" {
		basePath = "./data/files"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// Get 读取对象内容
func (s *LocalStore) Get(ctx context.Context, bucket, object string) ([]byte, error) {
	path, err := s.objectPath(bucket, object)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Put 写入对象，返回定位符
func (s *LocalStore) Put(ctx context.Context, bucket, object string, data []byte, contentType string) (string, error) {
	path, err := s.objectPath(bucket, object)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write object %s/%s: %w", bucket, object, err)
	}
	return fmt.Sprintf("%s/%s", bucket, object), nil
}

// objectPath 拼接磁盘路径，拒绝越出存储根目录的对象名
func (s *LocalStore) objectPath(bucket, object string) (string, error) {
	if bucket == "" || object == "" {
		return "", fmt.Errorf("bucket and object are required")
	}
	path := filepath.Join(s.basePath, bucket, filepath.FromSlash(object))
	base, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("object path escapes storage root: %q", object)
	}
	return path, nil
}
