package db

import "time"

// User 定义了用户模型。
// ID 直接使用身份提供方返回的 subject，首次登录回调时懒创建。
type User struct {
	ID        string `gorm:"primaryKey"`
	Email     string `gorm:"uniqueIndex;not null"`
	FirstName string
	LastName  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time

	Pages []Page `gorm:"constraint:OnDelete:CASCADE"`
}
