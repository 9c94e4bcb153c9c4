// Package storage 定义报告产物 (直方图等) 的对象存储接口及其本地与 MinIO 实现。
package storage

import (
	"context"
	"io"
	"time"
)

// Storage 定义了对象存储的通用接口。
type Storage interface {
	// Upload 上传对象
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, objectName string) (bool, error)

	// GetPresignedURL 获取对象的临时访问地址
	GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}
