package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"go-garage/internal/domain"
	"go-garage/pkg/utils"
)

// Memory 进程内存储，用于本地演示和测试
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory { return &Memory{blobs: map[string][]byte{}} }

var _ domain.ImageSink = (*Memory)(nil)

func (m *Memory) Put(ctx context.Context, up domain.Upload) (domain.CarImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.CarImage{}, err
	}
	src, err := up.Open()
	if err != nil {
		return domain.CarImage{}, err
	}
	defer src.Close()
	b, err := io.ReadAll(src)
	if err != nil {
		return domain.CarImage{}, err
	}
	id := utils.NewID() + safeExt(up.Filename)
	m.mu.Lock()
	m.blobs[id] = b
	m.mu.Unlock()
	return domain.CarImage{URL: "memory://" + id, PublicID: id}, nil
}

func (m *Memory) Delete(ctx context.Context, publicID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[publicID]; !ok {
		return fmt.Errorf("memory storage: %q not found", publicID)
	}
	delete(m.blobs, publicID)
	return nil
}

func (m *Memory) Has(publicID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[publicID]
	return ok
}

func (m *Memory) Get(publicID string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[publicID]
	return b, ok
}

func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
