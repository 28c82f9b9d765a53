package db

import "time"

// PageStatistic 汇总链接页维度的浏览数据。
type PageStatistic struct {
	ID             uint   `gorm:"primaryKey"`
	PageID         string `gorm:"uniqueIndex"`
	PageViews      uint64 `gorm:"default:0"`
	UniqueVisitors uint64 `gorm:"default:0"`
	LastViewedAt   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (PageStatistic) TableName() string {
	return "page_statistics"
}

// PageVisit 记录访客层面的浏览历史，用于 UV/PV 去重。
// VisitorID 是对远端地址与 UA 做 blake2b 哈希后的指纹。
type PageVisit struct {
	ID            uint   `gorm:"primaryKey"`
	PageID        string `gorm:"index:idx_page_visitor,unique"`
	VisitorID     string `gorm:"size:64;index:idx_page_visitor,unique"`
	LastViewedAt  time.Time
	LastCountedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定自定义表名。
func (PageVisit) TableName() string {
	return "page_visits"
}

// PageView 记录被计入统计的单次浏览事件，供按日期/小时汇总使用。
type PageView struct {
	ID        uint   `gorm:"primaryKey"`
	PageID    string `gorm:"index"`
	VisitorID string `gorm:"size:64"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (PageView) TableName() string {
	return "page_views"
}

// LinkClick 记录公开页上的单次链接点击事件，供分析汇总使用。
type LinkClick struct {
	ID        uint   `gorm:"primaryKey"`
	LinkID    string `gorm:"index"`
	PageID    string `gorm:"index"`
	VisitorID string `gorm:"size:64"`
	CreatedAt time.Time
}

// TableName 指定自定义表名。
func (LinkClick) TableName() string {
	return "link_clicks"
}
