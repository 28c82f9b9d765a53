// Package linklist 维护单个页面链接的有序本地副本，
// 以乐观更新的方式与服务端保持同步。
//
// 每个变更操作都先落到本地状态，再发起网络调用；失败时的回滚策略是
// 粗粒度的「丢弃本地状态并重新拉取权威数据」，而不是精确的逆操作。
package linklist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrUnknownLink     = errors.New("link not present in local state")
	ErrNotAPermutation = errors.New("reorder ids are not a permutation of the current list")
	ErrEmptyReorder    = errors.New("reorder requires at least one id")
	ErrBackendRequired = errors.New("backend is required")
	ErrPageIDRequired  = errors.New("page id is required")
	ErrTitleRequired   = errors.New("link title is required")
	ErrURLRequired     = errors.New("link url is required")
)

// Link 是控制器视角下的一条链接。
type Link struct {
	ID       string `json:"id"`
	PageID   string `json:"pageId"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Icon     string `json:"icon"`
	IsActive bool   `json:"isActive"`
	Order    int    `json:"order"`
}

// Patch carries partial link updates; nil fields are left untouched.
type Patch struct {
	Title    *string
	URL      *string
	Icon     *string
	IsActive *bool
}

// OrderUpdate pairs a link id with its new position.
type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Backend 是控制器依赖的最小服务端接口。
type Backend interface {
	FetchLinks(ctx context.Context, pageID string) ([]Link, error)
	CreateLink(ctx context.Context, pageID string, link Link) (Link, error)
	UpdateLink(ctx context.Context, id string, patch Patch) (Link, error)
	DeleteLink(ctx context.Context, id string) error
	ReorderLinks(ctx context.Context, updates []OrderUpdate) error
}

// Controller 持有一个页面链接列表的有序本地副本。
// 所有方法并发安全；顺序恒为 0..N-1 的紧凑序列。
type Controller struct {
	mu      sync.Mutex
	backend Backend
	pageID  string
	links   []Link
}

// NewController 创建控制器；调用 Load 之前本地状态为空。
func NewController(backend Backend, pageID string) (*Controller, error) {
	if backend == nil {
		return nil, ErrBackendRequired
	}
	if pageID == "" {
		return nil, ErrPageIDRequired
	}
	return &Controller{backend: backend, pageID: pageID}, nil
}

// Load 用服务端权威数据替换本地状态。
func (c *Controller) Load(ctx context.Context) error {
	links, err := c.backend.FetchLinks(ctx, c.pageID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.links = normalize(links)
	return nil
}

// Links 返回本地状态的拷贝，按显示顺序排列。
func (c *Controller) Links() []Link {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Link(nil), c.links...)
}

// Len 返回本地链接数。
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.links)
}

// Append 在列表末尾乐观插入一条新链接。
//
// 本地条目先以临时 ID 出现，创建成功后前滚为服务端确认的记录
// （含服务端分配的 ID）；创建失败时重新拉取权威状态，乐观条目随之消失。
func (c *Controller) Append(ctx context.Context, title, url string) (Link, error) {
	if title == "" {
		return Link{}, ErrTitleRequired
	}
	if url == "" {
		return Link{}, ErrURLRequired
	}

	tempID := "local-" + uuid.NewString()

	c.mu.Lock()
	optimistic := Link{
		ID:       tempID,
		PageID:   c.pageID,
		Title:    title,
		URL:      url,
		IsActive: true,
		Order:    len(c.links),
	}
	c.links = append(c.links, optimistic)
	c.mu.Unlock()

	confirmed, err := c.backend.CreateLink(ctx, c.pageID, optimistic)
	if err != nil {
		return Link{}, c.rollback(ctx, fmt.Errorf("append link: %w", err))
	}

	c.mu.Lock()
	for i := range c.links {
		if c.links[i].ID == tempID {
			confirmed.Order = c.links[i].Order
			c.links[i] = confirmed
			break
		}
	}
	c.mu.Unlock()

	return confirmed, nil
}

// Update 乐观应用字段变更；失败时通过重新拉取回滚。
func (c *Controller) Update(ctx context.Context, id string, patch Patch) (Link, error) {
	c.mu.Lock()
	index := c.indexOf(id)
	if index < 0 {
		c.mu.Unlock()
		return Link{}, ErrUnknownLink
	}
	applyPatch(&c.links[index], patch)
	c.mu.Unlock()

	confirmed, err := c.backend.UpdateLink(ctx, id, patch)
	if err != nil {
		return Link{}, c.rollback(ctx, fmt.Errorf("update link: %w", err))
	}

	c.mu.Lock()
	if index := c.indexOf(id); index >= 0 {
		confirmed.Order = c.links[index].Order
		c.links[index] = confirmed
	}
	c.mu.Unlock()

	return confirmed, nil
}

// Delete 乐观移除一条链接；失败时通过重新拉取恢复。
// 删除后本地顺序立即压实为 0..N-1。
func (c *Controller) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	index := c.indexOf(id)
	if index < 0 {
		c.mu.Unlock()
		return ErrUnknownLink
	}
	c.links = append(c.links[:index], c.links[index+1:]...)
	for i := range c.links {
		c.links[i].Order = i
	}
	c.mu.Unlock()

	if err := c.backend.DeleteLink(ctx, id); err != nil {
		return c.rollback(ctx, fmt.Errorf("delete link: %w", err))
	}
	return nil
}

// Reorder 接受新的完整排列（id 序列），为每个条目赋 Order = 下标，
// 本地立即生效，并把整个批次作为单次调用发送。
// 顺序完全按位置赋值，全量重排从构造上杜绝了空洞与并列。
func (c *Controller) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return ErrEmptyReorder
	}

	c.mu.Lock()
	if len(ids) != len(c.links) {
		c.mu.Unlock()
		return ErrNotAPermutation
	}

	byID := make(map[string]Link, len(c.links))
	for _, link := range c.links {
		byID[link.ID] = link
	}

	reordered := make([]Link, 0, len(ids))
	updates := make([]OrderUpdate, 0, len(ids))
	for index, id := range ids {
		link, ok := byID[id]
		if !ok {
			c.mu.Unlock()
			return ErrNotAPermutation
		}
		delete(byID, id)
		link.Order = index
		reordered = append(reordered, link)
		updates = append(updates, OrderUpdate{ID: id, Order: index})
	}

	c.links = reordered
	c.mu.Unlock()

	if err := c.backend.ReorderLinks(ctx, updates); err != nil {
		return c.rollback(ctx, fmt.Errorf("reorder links: %w", err))
	}
	return nil
}

// rollback 丢弃本地乐观状态并重新拉取权威数据。
// 拉取本身失败时保留当前本地状态，两个错误一并返回。
func (c *Controller) rollback(ctx context.Context, opErr error) error {
	links, err := c.backend.FetchLinks(ctx, c.pageID)
	if err != nil {
		return fmt.Errorf("%w (rollback refetch failed: %v)", opErr, err)
	}

	c.mu.Lock()
	c.links = normalize(links)
	c.mu.Unlock()
	return opErr
}

// indexOf 要求调用方已持有锁。
func (c *Controller) indexOf(id string) int {
	for i := range c.links {
		if c.links[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPatch(link *Link, patch Patch) {
	if patch.Title != nil {
		link.Title = *patch.Title
	}
	if patch.URL != nil {
		link.URL = *patch.URL
	}
	if patch.Icon != nil {
		link.Icon = *patch.Icon
	}
	if patch.IsActive != nil {
		link.IsActive = *patch.IsActive
	}
}

// normalize 按 Order 稳定排序并压实为 0..N-1。
func normalize(links []Link) []Link {
	sorted := append([]Link(nil), links...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	for i := range sorted {
		sorted[i].Order = i
	}
	return sorted
}
