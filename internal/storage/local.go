package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go-garage/internal/domain"
	"go-garage/pkg/utils"
)

const tmpDir = ".tmp"

// Local 本地目录存储，文件名 <uuid><ext>，由 /uploads 静态挂载提供访问
type Local struct {
	Dir        string
	PublicPath string
}

func NewLocal(dir, publicPath string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("local storage: empty dir")
	}
	// 临时文件放在隐藏子目录，静态挂载不对外提供
	if err := os.MkdirAll(filepath.Join(dir, tmpDir), 0o755); err != nil {
		return nil, fmt.Errorf("local storage: create dir: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &Local{Dir: dir, PublicPath: strings.TrimRight(publicPath, "/")}, nil
}

var _ domain.ImageSink = (*Local)(nil)

func (l *Local) Put(ctx context.Context, up domain.Upload) (domain.CarImage, error) {
	if err := ctx.Err(); err != nil {
		return domain.CarImage{}, err
	}
	src, err := up.Open()
	if err != nil {
		return domain.CarImage{}, fmt.Errorf("open upload %q: %w", up.Filename, err)
	}
	defer src.Close()

	name := utils.NewID() + safeExt(up.Filename)
	// 先写临时文件再 rename，避免半截文件被引用
	tmp, err := os.CreateTemp(filepath.Join(l.Dir, tmpDir), "upload-*")
	if err != nil {
		return domain.CarImage{}, err
	}
	tmpName := tmp.Name()
	fail := func(e error) (domain.CarImage, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return domain.CarImage{}, e
	}
	if _, err := io.Copy(tmp, src); err != nil {
		return fail(fmt.Errorf("write %q: %w", up.Filename, err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return domain.CarImage{}, err
	}
	if err := os.Rename(tmpName, filepath.Join(l.Dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return domain.CarImage{}, err
	}
	return domain.CarImage{URL: path.Join(l.PublicPath, name), PublicID: name}, nil
}

func (l *Local) Delete(ctx context.Context, publicID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if publicID == "" || publicID != filepath.Base(publicID) || strings.HasPrefix(publicID, ".") {
		return fmt.Errorf("local storage: invalid public id %q", publicID)
	}
	return os.Remove(filepath.Join(l.Dir, publicID))
}

// List 列出目录下的附件（不含临时文件）
func (l *Local) List() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// safeExt 只保留短的字母数字扩展名
func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// Sweep 删除 keep 之外且修改时间早于 minAge 的文件，返回孤儿列表；dryRun 只列出不删除。
// 新写入的附件可能还没落库，必须靠 minAge 跳过。
func (l *Local) Sweep(ctx context.Context, keep map[string]struct{}, minAge time.Duration, dryRun bool) ([]string, error) {
	names, err := l.List()
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-minAge)
	var orphans []string
	for _, n := range names {
		if _, ok := keep[n]; ok {
			continue
		}
		fi, err := os.Stat(filepath.Join(l.Dir, n))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return orphans, err
		}
		if fi.ModTime().After(cutoff) {
			continue
		}
		if !dryRun {
			if err := l.Delete(ctx, n); err != nil {
				return orphans, err
			}
		}
		orphans = append(orphans, n)
	}
	return orphans, nil
}
