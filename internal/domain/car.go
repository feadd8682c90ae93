package domain

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

const MaxImages = 10

type Tags struct {
	CarType string `gorm:"size:64" json:"car_type"`
	Company string `gorm:"size:64" json:"company"`
	Dealer  string `gorm:"size:128" json:"dealer"`
}

// ParseTags 三个字段都必须出现且为字符串
func ParseTags(raw string) (Tags, error) {
	var in struct {
		CarType *string `json:"car_type"`
		Company *string `json:"company"`
		Dealer  *string `json:"dealer"`
	}
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return Tags{}, Validation("invalid tags format")
	}
	if in.CarType == nil || in.Company == nil || in.Dealer == nil {
		return Tags{}, Validation("tags must contain car_type, company and dealer")
	}
	return Tags{CarType: *in.CarType, Company: *in.Company, Dealer: *in.Dealer}, nil
}

// CarImage 附件引用；PublicID 是 sink 的删除句柄
type CarImage struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"-"`
	CarID    string `gorm:"size:36;not null;index" json:"-"`
	Position int    `gorm:"not null;default:0" json:"-"`
	URL      string `gorm:"type:text;not null" json:"url"`
	PublicID string `gorm:"size:255;not null" json:"public_id"`
}

func (CarImage) TableName() string { return "car_images" }

type Car struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"user"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Tags        Tags       `gorm:"embedded;embeddedPrefix:tag_" json:"tags"`
	Images      []CarImage `gorm:"foreignKey:CarID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Car) TableName() string { return "cars" }

// Upload 待写入 sink 的原始文件；Open 可重复调用
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// CarRepository 所有读写都按 owner 过滤；找不到返回 (nil, nil)
type CarRepository interface {
	Create(ctx context.Context, c *Car) error
	FindOwned(ctx context.Context, ownerID, id string) (*Car, error)
	ListOwned(ctx context.Context, ownerID, search string) ([]Car, error)
	// Save 覆盖文本字段、tags 和完整图片列表
	Save(ctx context.Context, c *Car) error
	DeleteOwned(ctx context.Context, ownerID, id string) (bool, error)
}

// ImageSink 附件存储：Put 成功即已持久化；Delete 以 PublicID 删除
type ImageSink interface {
	Put(ctx context.Context, up Upload) (CarImage, error)
	Delete(ctx context.Context, publicID string) error
}
