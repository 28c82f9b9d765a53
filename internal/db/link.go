package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link 表示链接页上的一条链接。
// Order 按显示顺序取 0..N-1，由应用层在重排时整体赋值，数据库不做约束。
type Link struct {
	ID        string `gorm:"primaryKey"`
	PageID    string `gorm:"not null;index"`
	Title     string `gorm:"not null"`
	URL       string `gorm:"not null"`
	Icon      string
	IsActive  bool `gorm:"not null;default:true"`
	Order     int  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BeforeCreate 在缺省时分配服务端 UUID。
func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
