package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage 把对象写入本地目录，对象名即相对路径。
type LocalStorage struct {
	root string
}

// NewLocalStorage 创建本地目录存储，目录不存在时自动创建。
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, errors.New("local storage root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

func (s *LocalStorage) path(objectName string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(objectName))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("object name %q escapes storage root", objectName)
	}
	return p, nil
}

// Upload 写入文件，size 仅用于校验写入长度 (<0 时不校验)。
func (s *LocalStorage) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	n, copyErr := io.Copy(f, reader)
	if closeErr := f.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return copyErr
	}
	if size >= 0 && n != size {
		return fmt.Errorf("short write for %s: %d of %d bytes", objectName, n, size)
	}
	return nil
}

// Exists 检查文件是否存在。
func (s *LocalStorage) Exists(_ context.Context, objectName string) (bool, error) {
	p, err := s.path(objectName)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetPresignedURL 本地文件没有签名概念，返回 file:// 地址。
func (s *LocalStorage) GetPresignedURL(_ context.Context, objectName string, _ time.Duration) (string, error) {
	p, err := s.path(objectName)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
