package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/connectly/internal/db"
	"gorm.io/gorm"
)

var (
	ErrLinkNotFound     = errors.New("link not found")
	ErrLinkTitleMissing = errors.New("link title is required")
	ErrLinkURLMissing   = errors.New("link url is required")
	ErrLinkForbidden    = errors.New("link belongs to another user")
	ErrReorderEmpty     = errors.New("reorder payload is empty")
)

// LinkService wraps link related database operations.
// Ownership is always checked through the owning page before any mutation.
type LinkService struct {
	db *gorm.DB
}

// NewLinkService returns a new LinkService instance.
func NewLinkService(gdb *gorm.DB) *LinkService {
	return &LinkService{db: gdb}
}

// LinkInput represents fields accepted when creating a link.
type LinkInput struct {
	Title    string
	URL      string
	Icon     string
	IsActive *bool
	Order    *int
}

// LinkUpdateInput carries partial updates; nil fields are left untouched.
type LinkUpdateInput struct {
	Title    *string
	URL      *string
	Icon     *string
	IsActive *bool
	Order    *int
}

// LinkOrder pairs a link id with its new position.
type LinkOrder struct {
	ID    string
	Order int
}

// ListForPage 返回用户名下某页面的链接，按 order 升序排列。
func (s *LinkService) ListForPage(userID, pageID string) ([]db.Link, error) {
	if err := s.checkPageOwned(userID, pageID); err != nil {
		return nil, err
	}

	var links []db.Link
	if err := s.db.Where("page_id = ?", pageID).
		Order(`"order" asc`).Order("created_at asc").
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// Create inserts a link under a page owned by the user.
// 未指定顺序时追加到列表末尾。
func (s *LinkService) Create(userID, pageID string, input LinkInput) (*db.Link, error) {
	if err := s.checkPageOwned(userID, pageID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrLinkTitleMissing
	}
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return nil, ErrLinkURLMissing
	}

	link := db.Link{
		PageID:   pageID,
		Title:    title,
		URL:      url,
		Icon:     strings.TrimSpace(input.Icon),
		IsActive: true,
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}

	if input.Order != nil {
		link.Order = *input.Order
	} else {
		next, err := s.nextOrder(pageID)
		if err != nil {
			return nil, err
		}
		link.Order = next
	}

	if err := s.db.Create(&link).Error; err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}

	return &link, nil
}

// Get fetches a link by id, scoped to its owner via the owning page.
func (s *LinkService) Get(userID, linkID string) (*db.Link, error) {
	var link db.Link
	err := s.db.Joins("JOIN pages ON pages.id = links.page_id").
		Where("links.id = ? AND pages.user_id = ?", linkID, userID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

// Update applies a partial update to an owned link.
func (s *LinkService) Update(userID, linkID string, input LinkUpdateInput) (*db.Link, error) {
	link, err := s.Get(userID, linkID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrLinkTitleMissing
		}
		link.Title = title
	}
	if input.URL != nil {
		url := strings.TrimSpace(*input.URL)
		if url == "" {
			return nil, ErrLinkURLMissing
		}
		link.URL = url
	}
	if input.Icon != nil {
		link.Icon = strings.TrimSpace(*input.Icon)
	}
	if input.IsActive != nil {
		link.IsActive = *input.IsActive
	}
	if input.Order != nil {
		link.Order = *input.Order
	}

	if err := s.db.Save(link).Error; err != nil {
		return nil, fmt.Errorf("update link: %w", err)
	}

	return link, nil
}

// Delete removes an owned link.
func (s *LinkService) Delete(userID, linkID string) error {
	link, err := s.Get(userID, linkID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(&db.Link{}, "id = ?", link.ID).Error; err != nil {
		return fmt.Errorf("delete link: %w", err)
	}
	return nil
}

// Reorder 批量重排链接顺序。
// 先校验所有 id 都属于该用户；任意一条不属于则整体拒绝。
// 更新在单个事务中执行，部分失败不会留下新旧混杂的顺序。
func (s *LinkService) Reorder(userID string, orders []LinkOrder) error {
	if len(orders) == 0 {
		return ErrReorderEmpty
	}

	ids := make([]string, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}

	var owned int64
	if err := s.db.Model(&db.Link{}).
		Joins("JOIN pages ON pages.id = links.page_id").
		Where("links.id IN ? AND pages.user_id = ?", ids, userID).
		Count(&owned).Error; err != nil {
		return err
	}
	if owned != int64(len(ids)) {
		return ErrLinkForbidden
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, order := range orders {
			if err := tx.Model(&db.Link{}).Where("id = ?", order.ID).
				Update("order", order.Order).Error; err != nil {
				return fmt.Errorf("reorder links: %w", err)
			}
		}
		return nil
	})
}

func (s *LinkService) nextOrder(pageID string) (int, error) {
	var maxOrder int
	if err := s.db.Model(&db.Link{}).
		Where("page_id = ?", pageID).
		Select(`COALESCE(MAX("order"), -1)`).
		Scan(&maxOrder).Error; err != nil {
		return 0, fmt.Errorf("resolve link order: %w", err)
	}
	return maxOrder + 1, nil
}

func (s *LinkService) checkPageOwned(userID, pageID string) error {
	var count int64
	if err := s.db.Model(&db.Page{}).
		Where("id = ? AND user_id = ?", pageID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrPageNotFound
	}
	return nil
}
