package service

import (
	"encoding/hex"
	"errors"
	"sort"
	"time"

	"github.com/connectly/internal/db"
	"golang.org/x/crypto/blake2b"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultViewDedupWindow = 30 * time.Minute

// AnalyticsService 负责处理页面浏览与链接点击相关的统计逻辑。
type AnalyticsService struct {
	db          *gorm.DB
	dedupWindow time.Duration
}

// NewAnalyticsService 创建 AnalyticsService，默认去重窗口为 30 分钟。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb, dedupWindow: defaultViewDedupWindow}
}

// WithDedupWindow 允许在测试或特定场景下调整去重窗口。
func (s *AnalyticsService) WithDedupWindow(d time.Duration) *AnalyticsService {
	if d <= 0 {
		return s
	}
	s.dedupWindow = d
	return s
}

// VisitorFingerprint 从远端地址与 UA 派生访客指纹。
// 不保存原始地址，只保存 blake2b 哈希的十六进制前 32 位。
func VisitorFingerprint(remoteAddr, userAgent string) string {
	sum := blake2b.Sum256([]byte(remoteAddr + "|" + userAgent))
	return hex.EncodeToString(sum[:16])
}

// RecordPageView 记录访客对页面的浏览，并返回最新的统计数据。
// 同一访客在去重窗口内的重复浏览不会增加 PV。
func (s *AnalyticsService) RecordPageView(pageID, visitorID string, now time.Time) (*db.PageStatistic, error) {
	if visitorID == "" || pageID == "" {
		return nil, errors.New("invalid visitor or page id")
	}

	var stats db.PageStatistic

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		visit := db.PageVisit{
			PageID:        pageID,
			VisitorID:     visitorID,
			LastViewedAt:  now,
			LastCountedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "page_id"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&visit)
		if insert.Error != nil {
			return insert.Error
		}

		isNewVisitor := insert.RowsAffected == 1
		countView := true
		if !isNewVisitor {
			if err := tx.Where("page_id = ? AND visitor_id = ?", pageID, visitorID).
				First(&visit).Error; err != nil {
				return err
			}
			countView = now.Sub(visit.LastCountedAt) >= s.dedupWindow
			visit.LastViewedAt = now
			if countView {
				visit.LastCountedAt = now
			}
			if err := tx.Save(&visit).Error; err != nil {
				return err
			}
		}

		statsResult := tx.Where("page_id = ?", pageID).First(&stats)
		switch {
		case errors.Is(statsResult.Error, gorm.ErrRecordNotFound):
			stats = db.PageStatistic{PageID: pageID}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		case statsResult.Error != nil:
			return statsResult.Error
		}

		if countView {
			stats.PageViews++
			event := db.PageView{PageID: pageID, VisitorID: visitorID, CreatedAt: now}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}
		if isNewVisitor {
			stats.UniqueVisitors++
		}
		stats.LastViewedAt = now

		return tx.Save(&stats).Error
	}); err != nil {
		return nil, err
	}

	return &stats, nil
}

// RecordLinkClick 记录一次链接点击事件。
func (s *AnalyticsService) RecordLinkClick(linkID, pageID, visitorID string, now time.Time) error {
	if linkID == "" || pageID == "" {
		return errors.New("invalid link or page id")
	}

	click := db.LinkClick{
		LinkID:    linkID,
		PageID:    pageID,
		VisitorID: visitorID,
		CreatedAt: now,
	}
	return s.db.Create(&click).Error
}

// LinkClickStat 描述单条链接的点击量。
type LinkClickStat struct {
	LinkID string `json:"linkId"`
	Title  string `json:"linkTitle"`
	Clicks int64  `json:"clicks"`
}

// LinkPerformance 对比链接点击与页面浏览。
type LinkPerformance struct {
	LinkID string  `json:"linkId"`
	Title  string  `json:"linkTitle"`
	Clicks int64   `json:"clicks"`
	Views  uint64  `json:"views"`
	CTR    float64 `json:"ctr"`
}

// DateViews 按日期聚合浏览量。
type DateViews struct {
	Date  string `json:"date"`
	Views int64  `json:"views"`
}

// HourViews 按一天内小时聚合浏览量。
type HourViews struct {
	Hour  int   `json:"hour"`
	Views int64 `json:"views"`
}

// ActivityEvent 表示时间线上的一次浏览或点击。
type ActivityEvent struct {
	Type      string    `json:"type"`
	LinkID    string    `json:"linkId,omitempty"`
	LinkTitle string    `json:"linkTitle,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PageAnalytics 聚合单个页面的全部分析数据。
type PageAnalytics struct {
	TotalViews       uint64            `json:"totalViews"`
	UniqueVisitors   uint64            `json:"uniqueVisitors"`
	TotalClicks      int64             `json:"totalClicks"`
	ClickThroughRate float64           `json:"clickThroughRate"`
	TopLinks         []LinkClickStat   `json:"topLinks"`
	ViewsByDate      []DateViews       `json:"viewsByDate"`
	ViewsByHour      []HourViews       `json:"viewsByHour"`
	RecentActivity   []ActivityEvent   `json:"recentActivity"`
	LinkPerformance  []LinkPerformance `json:"linkPerformanceComparison"`
}

const (
	summaryDateRangeDays = 14
	summaryTopLinkLimit  = 5
	summaryActivityLimit = 10
)

// Summary 汇总页面的浏览与点击数据。
// 日期/小时分桶在应用层完成，保持 SQLite 与 Postgres 行为一致。
func (s *AnalyticsService) Summary(pageID string, now time.Time) (*PageAnalytics, error) {
	summary := &PageAnalytics{
		TopLinks:        []LinkClickStat{},
		ViewsByHour:     make([]HourViews, 24),
		RecentActivity:  []ActivityEvent{},
		LinkPerformance: []LinkPerformance{},
	}

	var stats db.PageStatistic
	err := s.db.Where("page_id = ?", pageID).First(&stats).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	summary.TotalViews = stats.PageViews
	summary.UniqueVisitors = stats.UniqueVisitors

	if err := s.db.Model(&db.LinkClick{}).
		Where("page_id = ?", pageID).
		Count(&summary.TotalClicks).Error; err != nil {
		return nil, err
	}
	if summary.TotalViews > 0 {
		summary.ClickThroughRate = float64(summary.TotalClicks) / float64(summary.TotalViews)
	}

	var clickStats []LinkClickStat
	if err := s.db.Table("link_clicks lc").
		Select("lc.link_id, l.title, COUNT(*) AS clicks").
		Joins("JOIN links l ON l.id = lc.link_id").
		Where("lc.page_id = ?", pageID).
		Group("lc.link_id, l.title").
		Order("clicks DESC").
		Scan(&clickStats).Error; err != nil {
		return nil, err
	}

	for i, stat := range clickStats {
		if i < summaryTopLinkLimit {
			summary.TopLinks = append(summary.TopLinks, stat)
		}
		perf := LinkPerformance{
			LinkID: stat.LinkID,
			Title:  stat.Title,
			Clicks: stat.Clicks,
			Views:  summary.TotalViews,
		}
		if perf.Views > 0 {
			perf.CTR = float64(perf.Clicks) / float64(perf.Views)
		}
		summary.LinkPerformance = append(summary.LinkPerformance, perf)
	}

	rangeStart := now.AddDate(0, 0, -(summaryDateRangeDays - 1)).Truncate(24 * time.Hour)
	var views []db.PageView
	if err := s.db.Where("page_id = ? AND created_at >= ?", pageID, rangeStart).
		Find(&views).Error; err != nil {
		return nil, err
	}

	byDate := make(map[string]int64)
	for _, v := range views {
		byDate[v.CreatedAt.Format("2006-01-02")]++
		summary.ViewsByHour[v.CreatedAt.Hour()].Views++
	}
	for hour := range summary.ViewsByHour {
		summary.ViewsByHour[hour].Hour = hour
	}
	for day := 0; day < summaryDateRangeDays; day++ {
		date := rangeStart.AddDate(0, 0, day).Format("2006-01-02")
		summary.ViewsByDate = append(summary.ViewsByDate, DateViews{Date: date, Views: byDate[date]})
	}

	activity, err := s.recentActivity(pageID)
	if err != nil {
		return nil, err
	}
	summary.RecentActivity = activity

	return summary, nil
}

func (s *AnalyticsService) recentActivity(pageID string) ([]ActivityEvent, error) {
	var recentViews []db.PageView
	if err := s.db.Where("page_id = ?", pageID).
		Order("created_at desc").Limit(summaryActivityLimit).
		Find(&recentViews).Error; err != nil {
		return nil, err
	}

	var recentClicks []struct {
		LinkID    string
		Title     string
		CreatedAt time.Time
	}
	if err := s.db.Table("link_clicks lc").
		Select("lc.link_id, l.title, lc.created_at").
		Joins("JOIN links l ON l.id = lc.link_id").
		Where("lc.page_id = ?", pageID).
		Order("lc.created_at desc").
		Limit(summaryActivityLimit).
		Scan(&recentClicks).Error; err != nil {
		return nil, err
	}

	events := make([]ActivityEvent, 0, len(recentViews)+len(recentClicks))
	for _, v := range recentViews {
		events = append(events, ActivityEvent{Type: "view", Timestamp: v.CreatedAt})
	}
	for _, c := range recentClicks {
		events = append(events, ActivityEvent{
			Type:      "click",
			LinkID:    c.LinkID,
			LinkTitle: c.Title,
			Timestamp: c.CreatedAt,
		})
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp.After(events[j].Timestamp)
	})
	if len(events) > summaryActivityLimit {
		events = events[:summaryActivityLimit]
	}
	return events, nil
}
