package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"go-garage/internal/domain"
)

type CarRepo struct{ db *gorm.DB }

func NewCarRepo(db *gorm.DB) *CarRepo { return &CarRepo{db: db} }

var _ domain.CarRepository = (*CarRepo)(nil)

func orderedImages(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

func renumber(imgs []domain.CarImage, carID string) {
	for i := range imgs {
		imgs[i].ID = 0
		imgs[i].CarID = carID
		imgs[i].Position = i
	}
}

// Create 连同图片一起写入
func (r *CarRepo) Create(ctx context.Context, c *domain.Car) error {
	renumber(c.Images, c.ID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
}

func (r *CarRepo) FindOwned(ctx context.Context, ownerID, id string) (*domain.Car, error) {
	var c domain.Car
	err := r.db.WithContext(ctx).
		Preload("Images", orderedImages).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// LIKE 转义符用 '!'，避免反斜杠在各数据库字符串字面量中的差异
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// ListOwned search 按空白切词，任一词命中 title/description（不区分大小写）即返回
func (r *CarRepo) ListOwned(ctx context.Context, ownerID, search string) ([]domain.Car, error) {
	q := r.db.WithContext(ctx).Model(&domain.Car{}).Where("user_id = ?", ownerID)
	if terms := strings.Fields(strings.ToLower(search)); len(terms) > 0 {
		parts := make([]string, 0, len(terms))
		args := make([]any, 0, 2*len(terms))
		for _, term := range terms {
			like := "%" + likeEscaper.Replace(term) + "%"
			parts = append(parts, "LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!'")
			args = append(args, like, like)
		}
		q = q.Where("("+strings.Join(parts, " OR ")+")", args...)
	}
	cars := make([]domain.Car, 0)
	err := q.Preload("Images", orderedImages).
		Order("created_at ASC").Order("id ASC").
		Find(&cars).Error
	if err != nil {
		return nil, err
	}
	return cars, nil
}

func (r *CarRepo) Save(ctx context.Context, c *domain.Car) error {
	now := time.Now()
	renumber(c.Images, c.ID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Car{}).
			Where("id = ? AND user_id = ?", c.ID, c.UserID).
			Updates(map[string]any{
				"title":        c.Title,
				"description":  c.Description,
				"tag_car_type": c.Tags.CarType,
				"tag_company":  c.Tags.Company,
				"tag_dealer":   c.Tags.Dealer,
				"updated_at":   now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("car not found")
		}
		if err := tx.Where("car_id = ?", c.ID).Delete(&domain.CarImage{}).Error; err != nil {
			return err
		}
		if len(c.Images) == 0 {
			return nil
		}
		return tx.Create(&c.Images).Error
	})
	if err != nil {
		return err
	}
	c.UpdatedAt = now
	return nil
}

// DeleteOwned 不存在或不属于 owner 时返回 false
func (r *CarRepo) DeleteOwned(ctx context.Context, ownerID, id string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, ownerID).Delete(&domain.Car{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("car_id = ?", id).Delete(&domain.CarImage{}).Error
	})
	return deleted, err
}

// ReferencedPublicIDs 供孤儿清理使用
func (r *CarRepo) ReferencedPublicIDs(ctx context.Context) (map[string]struct{}, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&domain.CarImage{}).Pluck("public_id", &ids).Error; err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Migrate 建表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.Car{}, &domain.CarImage{})
}
