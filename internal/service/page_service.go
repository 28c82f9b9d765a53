package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/connectly/internal/db"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound     = errors.New("page not found")
	ErrPageTitleMissing = errors.New("page title is required")
	ErrSlugInvalid      = errors.New("page slug must be url-safe")
	ErrSlugTaken        = errors.New("page slug already exists")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// PageService wraps page related database operations.
// Every method takes the resolved owner identity explicitly; there is no
// ambient current-user lookup below the handler layer.
type PageService struct {
	db *gorm.DB
}

// NewPageService returns a new PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// PageInput represents fields accepted when creating a page.
type PageInput struct {
	Title       string
	Slug        string
	Description string
	Theme       string
	IsPublished *bool
}

// PageUpdateInput carries partial updates; nil fields are left untouched.
type PageUpdateInput struct {
	Title       *string
	Slug        *string
	Description *string
	Theme       *string
	IsPublished *bool
}

// PageFilter describes filters for listing a user's pages.
type PageFilter struct {
	Search  string
	Page    int
	PerPage int
}

// PageListResult aggregates paginated list data and counters.
type PageListResult struct {
	Pages      []db.Page
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// List 返回指定用户的分页页面列表，支持按标题模糊过滤。
func (s *PageService) List(userID string, filter PageFilter) (*PageListResult, error) {
	result := &PageListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	query := s.db.Model(&db.Page{}).Where("user_id = ?", userID)
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("title LIKE ?", "%"+search+"%")
	}

	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	var pages []db.Page
	if err := query.Order("created_at desc").Limit(result.PerPage).Offset(offset).Find(&pages).Error; err != nil {
		return nil, err
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Pages = pages
	return result, nil
}

// Get fetches a page by id, scoped to its owner.
func (s *PageService) Get(userID, pageID string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("id = ? AND user_id = ?", pageID, userID).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// GetPublishedBySlug fetches a published page for the public view.
// Unpublished pages behave as if they did not exist.
func (s *PageService) GetPublishedBySlug(slug string) (*db.Page, error) {
	var page db.Page
	if err := s.db.Where("slug = ? AND is_published = ?", strings.TrimSpace(slug), true).First(&page).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// Create validates input and inserts a new page for the user.
// 重复 slug 不会写入任何行。
func (s *PageService) Create(userID string, input PageInput) (*db.Page, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrPageTitleMissing
	}

	slug := strings.TrimSpace(input.Slug)
	if !slugPattern.MatchString(slug) {
		return nil, ErrSlugInvalid
	}

	if err := s.checkSlugAvailable(slug, ""); err != nil {
		return nil, err
	}

	theme := strings.TrimSpace(input.Theme)
	if theme == "" {
		theme = "default"
	}

	page := db.Page{
		UserID:      userID,
		Title:       title,
		Slug:        slug,
		Description: strings.TrimSpace(input.Description),
		Theme:       theme,
	}
	if input.IsPublished != nil {
		page.IsPublished = *input.IsPublished
	}

	if err := s.db.Create(&page).Error; err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}

	return &page, nil
}

// Update applies a partial update to an owned page.
func (s *PageService) Update(userID, pageID string, input PageUpdateInput) (*db.Page, error) {
	page, err := s.Get(userID, pageID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrPageTitleMissing
		}
		page.Title = title
	}
	if input.Slug != nil {
		slug := strings.TrimSpace(*input.Slug)
		if !slugPattern.MatchString(slug) {
			return nil, ErrSlugInvalid
		}
		if slug != page.Slug {
			if err := s.checkSlugAvailable(slug, page.ID); err != nil {
				return nil, err
			}
		}
		page.Slug = slug
	}
	if input.Description != nil {
		page.Description = strings.TrimSpace(*input.Description)
	}
	if input.Theme != nil {
		page.Theme = strings.TrimSpace(*input.Theme)
	}
	if input.IsPublished != nil {
		page.IsPublished = *input.IsPublished
	}

	if err := s.db.Save(page).Error; err != nil {
		return nil, fmt.Errorf("update page: %w", err)
	}

	return page, nil
}

// Delete removes an owned page together with its links, design and metrics.
// 级联在事务内显式执行，不依赖数据库外键行为。
func (s *PageService) Delete(userID, pageID string) error {
	if _, err := s.Get(userID, pageID); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return deletePageCascade(tx, pageID)
	})
}

// EnsureDefault 返回用户的默认页面；首次访问仪表盘时懒创建一张。
func (s *PageService) EnsureDefault(userID string) (*db.Page, error) {
	var page db.Page
	err := s.db.Where("user_id = ?", userID).Order("created_at asc").First(&page).Error
	if err == nil {
		return &page, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	page = db.Page{
		UserID: userID,
		Title:  "My Links",
		Slug:   "links-" + uuid.NewString()[:8],
	}
	if err := s.db.Create(&page).Error; err != nil {
		return nil, fmt.Errorf("create default page: %w", err)
	}

	return &page, nil
}

func (s *PageService) checkSlugAvailable(slug, excludeID string) error {
	query := s.db.Model(&db.Page{}).Where("slug = ?", slug)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}

// deletePageCascade 删除页面及其全部从属记录，供页面删除与用户删除复用。
func deletePageCascade(tx *gorm.DB, pageID string) error {
	for _, step := range []struct {
		model any
		where string
	}{
		{&db.Link{}, "page_id = ?"},
		{&db.PageDesign{}, "page_id = ?"},
		{&db.PageVisit{}, "page_id = ?"},
		{&db.PageStatistic{}, "page_id = ?"},
		{&db.PageView{}, "page_id = ?"},
		{&db.LinkClick{}, "page_id = ?"},
	} {
		if err := tx.Where(step.where, pageID).Delete(step.model).Error; err != nil {
			return fmt.Errorf("delete page children: %w", err)
		}
	}

	if err := tx.Where("id = ?", pageID).Delete(&db.Page{}).Error; err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}
