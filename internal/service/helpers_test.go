package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"go-garage/internal/domain"
	"go-garage/internal/repo"
	"go-garage/internal/storage"
)

const suvTags = `{"car_type":"suv","company":"Toyota","dealer":"Acme"}`

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(db))
	return db
}

// flakySink 包一层内存存储，按文件名注入写失败，可让删除全部失败
type flakySink struct {
	*storage.Memory
	mu          sync.Mutex
	failPut     map[string]bool
	failDelete  bool
	deleteCalls []string
}

func newFlakySink() *flakySink {
	return &flakySink{Memory: storage.NewMemory(), failPut: map[string]bool{}}
}

func (f *flakySink) Put(ctx context.Context, up domain.Upload) (domain.CarImage, error) {
	f.mu.Lock()
	fail := f.failPut[up.Filename]
	f.mu.Unlock()
	if fail {
		return domain.CarImage{}, errors.New("sink unavailable")
	}
	return f.Memory.Put(ctx, up)
}

func (f *flakySink) Delete(ctx context.Context, publicID string) error {
	f.mu.Lock()
	f.deleteCalls = append(f.deleteCalls, publicID)
	fail := f.failDelete
	f.mu.Unlock()
	if fail {
		return errors.New("sink delete refused")
	}
	return f.Memory.Delete(ctx, publicID)
}

type fileSet struct {
	opened atomic.Int32
	files  []domain.Upload
}

// newFiles 生成 n 个文件，内容为 "<prefix>-<i>"
func newFiles(prefix string, n int) *fileSet {
	fs := &fileSet{}
	for i := 0; i < n; i++ {
		body := fmt.Sprintf("%s-%d", prefix, i)
		fs.files = append(fs.files, domain.Upload{
			Filename:    body + ".jpg",
			ContentType: "image/jpeg",
			Size:        int64(len(body)),
			Open: func() (io.ReadCloser, error) {
				fs.opened.Add(1)
				return io.NopCloser(strings.NewReader(body)), nil
			},
		})
	}
	return fs
}

// contents 按图片顺序取出 sink 中的内容
func contents(t *testing.T, sink *flakySink, imgs []domain.CarImage) []string {
	t.Helper()
	out := make([]string, 0, len(imgs))
	for _, img := range imgs {
		b, ok := sink.Get(img.PublicID)
		require.Truef(t, ok, "attachment %s missing from sink", img.PublicID)
		out = append(out, string(b))
	}
	return out
}

type failingCarRepo struct {
	domain.CarRepository
	createErr error
	saveErr   error
	deleteErr error
}

func (r *failingCarRepo) Create(ctx context.Context, c *domain.Car) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.CarRepository.Create(ctx, c)
}

func (r *failingCarRepo) Save(ctx context.Context, c *domain.Car) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	return r.CarRepository.Save(ctx, c)
}

func (r *failingCarRepo) DeleteOwned(ctx context.Context, ownerID, id string) (bool, error) {
	if r.deleteErr != nil {
		return false, r.deleteErr
	}
	return r.CarRepository.DeleteOwned(ctx, ownerID, id)
}
