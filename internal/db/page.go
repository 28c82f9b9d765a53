package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Page 表示用户的一张公开链接页，由唯一 slug 定位。
type Page struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Description string
	Theme       string `gorm:"default:default"`
	IsPublished bool   `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Links  []Link      `gorm:"constraint:OnDelete:CASCADE"`
	Design *PageDesign `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate 在缺省时分配服务端 UUID。
func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// PageDesign 保存单页的外观设置，字段取值由 view 包的目录约束。
type PageDesign struct {
	ID                string `gorm:"primaryKey"`
	PageID            string `gorm:"uniqueIndex;not null"`
	ButtonStyle       string `gorm:"default:rounded"`
	BackgroundStyle   string `gorm:"default:solid"`
	FontStyle         string `gorm:"default:sans"`
	Layout            string `gorm:"default:centered"`
	CardShadow        string `gorm:"default:md"`
	Spacing           string `gorm:"default:normal"`
	ProfileImageShape string `gorm:"default:circle"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (d *PageDesign) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}
