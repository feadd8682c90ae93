package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-garage/internal/domain"
	"go-garage/pkg/utils"
)

type CreateCarInput struct {
	Title       string
	Description string
	Tags        string // JSON: {"car_type","company","dealer"}
	Files       []domain.Upload
}

// UpdateCarInput 空字符串表示不修改
type UpdateCarInput struct {
	Title         string
	Description   string
	Tags          string
	Files         []domain.Upload
	ReplaceImages bool
}

// CarService 管理 listing 及其图片附件的生命周期；所有操作按 ownerID 限定
type CarService struct {
	cars      domain.CarRepository
	sink      domain.ImageSink
	log       *zap.Logger
	maxImages int
}

func NewCarService(cars domain.CarRepository, sink domain.ImageSink, log *zap.Logger) *CarService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CarService{cars: cars, sink: sink, log: log, maxImages: domain.MaxImages}
}

func (s *CarService) Create(ctx context.Context, ownerID string, in CreateCarInput) (*domain.Car, error) {
	if len(in.Files) == 0 {
		return nil, domain.Validation("at least one image is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Validation("title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, domain.Validation("description is required")
	}
	tags, err := domain.ParseTags(in.Tags)
	if err != nil {
		return nil, err
	}

	car := &domain.Car{
		ID:          utils.NewID(),
		UserID:      ownerID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        tags,
	}
	imgs, err := s.uploadAll(ctx, car.ID, s.capFiles(car.ID, in.Files))
	if err != nil {
		return nil, err
	}
	car.Images = imgs

	if err := s.cars.Create(ctx, car); err != nil {
		s.cleanup(ctx, car.ID, imgs)
		return nil, domain.Persistence("create car failed", err)
	}
	s.log.Info("car created", zap.String("car_id", car.ID), zap.String("user_id", ownerID), zap.Int("images", len(imgs)))
	return car, nil
}

func (s *CarService) List(ctx context.Context, ownerID, search string) ([]domain.Car, error) {
	cars, err := s.cars.ListOwned(ctx, ownerID, strings.TrimSpace(search))
	if err != nil {
		return nil, domain.Persistence("list cars failed", err)
	}
	return cars, nil
}

// Get 不存在与不属于 owner 一律返回 NotFound
func (s *CarService) Get(ctx context.Context, ownerID, id string) (*domain.Car, error) {
	car, err := s.cars.FindOwned(ctx, ownerID, id)
	if err != nil {
		return nil, domain.Persistence("load car failed", err)
	}
	if car == nil {
		return nil, domain.NotFound("car not found")
	}
	return car, nil
}

func (s *CarService) Update(ctx context.Context, ownerID, id string, in UpdateCarInput) (*domain.Car, error) {
	car, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		car.Title = in.Title
	}
	if in.Description != "" {
		car.Description = in.Description
	}
	if in.Tags != "" {
		tags, err := domain.ParseTags(in.Tags)
		if err != nil {
			return nil, err
		}
		car.Tags = tags
	}

	var fresh, stale []domain.CarImage
	if len(in.Files) > 0 {
		files := in.Files
		if in.ReplaceImages {
			files = s.capFiles(car.ID, files)
		} else if len(car.Images)+len(files) > s.maxImages {
			return nil, domain.Validation(fmt.Sprintf("a car can have at most %d images", s.maxImages))
		}
		fresh, err = s.uploadAll(ctx, car.ID, files)
		if err != nil {
			return nil, err
		}
		if in.ReplaceImages {
			stale = car.Images
			car.Images = fresh
		} else {
			car.Images = append(car.Images, fresh...)
		}
	}

	if err := s.cars.Save(ctx, car); err != nil {
		s.cleanup(ctx, car.ID, fresh)
		if domain.IsNotFound(err) {
			return nil, err
		}
		return nil, domain.Persistence("update car failed", err)
	}
	// 新记录已落库，再删旧附件
	s.cleanup(ctx, car.ID, stale)
	return car, nil
}

// Delete 先尽力删除附件再删记录；记录删除失败时已删的附件不会恢复
func (s *CarService) Delete(ctx context.Context, ownerID, id string) error {
	car, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	s.cleanup(ctx, car.ID, car.Images)

	ok, err := s.cars.DeleteOwned(ctx, ownerID, id)
	if err != nil {
		return domain.Persistence("delete car failed", err)
	}
	if !ok {
		return domain.NotFound("car not found")
	}
	s.log.Info("car deleted", zap.String("car_id", id), zap.String("user_id", ownerID))
	return nil
}

// capFiles 超出上限的文件直接丢弃，不会写入 sink
func (s *CarService) capFiles(carID string, files []domain.Upload) []domain.Upload {
	if len(files) <= s.maxImages {
		return files
	}
	s.log.Info("image count capped",
		zap.String("car_id", carID),
		zap.Int("received", len(files)),
		zap.Int("kept", s.maxImages),
	)
	return files[:s.maxImages]
}

// uploadAll 并发写入，按提交顺序返回；任一失败则回滚本批已写入的附件
func (s *CarService) uploadAll(ctx context.Context, carID string, files []domain.Upload) ([]domain.CarImage, error) {
	imgs := make([]domain.CarImage, len(files))
	done := make([]bool, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			img, err := s.sink.Put(gctx, f)
			if err != nil {
				attachmentUploads.WithLabelValues("error").Inc()
				return fmt.Errorf("store %q: %w", f.Filename, err)
			}
			attachmentUploads.WithLabelValues("ok").Inc()
			imgs[i] = img
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		written := make([]domain.CarImage, 0, len(files))
		for i, ok := range done {
			if ok {
				written = append(written, imgs[i])
			}
		}
		s.cleanup(ctx, carID, written)
		return nil, domain.Persistence("image upload failed", err)
	}
	return imgs, nil
}

// cleanup 尽力删除：逐个尝试，失败只记录日志和指标，不影响调用方结果
func (s *CarService) cleanup(ctx context.Context, carID string, imgs []domain.CarImage) {
	if len(imgs) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, img := range imgs {
		if err := s.sink.Delete(ctx, img.PublicID); err != nil {
			attachmentCleanupFailures.Inc()
			s.log.Warn("attachment cleanup failed",
				zap.String("car_id", carID),
				zap.String("public_id", img.PublicID),
				zap.Error(err),
			)
		}
	}
}
