package storage

import (
	"context"
	"fmt"

	"go-garage/internal/core/config"
	"go-garage/internal/domain"
)

// New 按 storage.driver 选择实现
func New(ctx context.Context, c config.Storage) (domain.ImageSink, error) {
	switch c.Driver {
	case "", "local":
		return NewLocal(c.Dir, c.PublicPath)
	case "s3":
		return NewS3(ctx, c.S3)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", c.Driver)
	}
}
