package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/connectly/internal/db"
	"github.com/connectly/internal/service"
	"github.com/gin-gonic/gin"
)

type createLinkRequest struct {
	PageID   string `json:"pageId" binding:"required"`
	Title    string `json:"title" binding:"required"`
	URL      string `json:"url" binding:"required"`
	Icon     string `json:"icon"`
	IsActive *bool  `json:"isActive"`
	Order    *int   `json:"order"`
}

type updateLinkRequest struct {
	Title    *string `json:"title"`
	URL      *string `json:"url"`
	Icon     *string `json:"icon"`
	IsActive *bool   `json:"isActive"`
	Order    *int    `json:"order"`
}

type reorderEntry struct {
	ID    string `json:"id" binding:"required"`
	Order int    `json:"order"`
}

type reorderRequest struct {
	Links []reorderEntry `json:"links" binding:"required"`
}

func linkPayload(link *db.Link) gin.H {
	return gin.H{
		"id":        link.ID,
		"pageId":    link.PageID,
		"title":     link.Title,
		"url":       link.URL,
		"icon":      link.Icon,
		"isActive":  link.IsActive,
		"order":     link.Order,
		"createdAt": link.CreatedAt,
		"updatedAt": link.UpdatedAt,
	}
}

// GetLinks 返回某页面的链接列表，按 order 升序。
func (a *API) GetLinks(c *gin.Context) {
	pageID := c.Query("pageId")
	if pageID == "" {
		respondError(c, http.StatusBadRequest, "missing pageId")
		return
	}

	links, err := a.links.ListForPage(currentUserID(c), pageID)
	if err != nil {
		handleLinkError(c, err)
		return
	}

	payload := make([]gin.H, 0, len(links))
	for i := range links {
		payload = append(payload, linkPayload(&links[i]))
	}

	c.JSON(http.StatusOK, gin.H{"data": payload})
}

// CreateLink 在用户名下的页面创建链接。
func (a *API) CreateLink(c *gin.Context) {
	var req createLinkRequest
	if !bindJSON(c, &req, "pageId, title and url are required") {
		return
	}

	link, err := a.links.Create(currentUserID(c), req.PageID, service.LinkInput{
		Title:    req.Title,
		URL:      req.URL,
		Icon:     req.Icon,
		IsActive: req.IsActive,
		Order:    req.Order,
	})
	if err != nil {
		handleLinkError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"link": linkPayload(link)})
}

// UpdateLink 对链接做部分更新，所有权经由所属页面校验。
func (a *API) UpdateLink(c *gin.Context) {
	var req updateLinkRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	link, err := a.links.Update(currentUserID(c), c.Param("id"), service.LinkUpdateInput{
		Title:    req.Title,
		URL:      req.URL,
		Icon:     req.Icon,
		IsActive: req.IsActive,
		Order:    req.Order,
	})
	if err != nil {
		handleLinkError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": linkPayload(link)})
}

// DeleteLink 删除链接。
func (a *API) DeleteLink(c *gin.Context) {
	if err := a.links.Delete(currentUserID(c), c.Param("id")); err != nil {
		handleLinkError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "link deleted"})
}

// ReorderLinks 批量重排链接顺序：全部通过所有权校验后在单个事务内更新。
func (a *API) ReorderLinks(c *gin.Context) {
	var req reorderRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	orders := make([]service.LinkOrder, 0, len(req.Links))
	for _, entry := range req.Links {
		orders = append(orders, service.LinkOrder{ID: entry.ID, Order: entry.Order})
	}

	if err := a.links.Reorder(currentUserID(c), orders); err != nil {
		switch {
		case errors.Is(err, service.ErrReorderEmpty):
			respondError(c, http.StatusBadRequest, "reorder payload is empty")
		case errors.Is(err, service.ErrLinkForbidden):
			respondError(c, http.StatusForbidden, "some links not found or access denied")
		default:
			log.Printf("reorder links failed: %v", err)
			respondError(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	a.metrics.RecordReorder()
	c.JSON(http.StatusOK, gin.H{"message": "links reordered"})
}

func handleLinkError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPageNotFound):
		respondError(c, http.StatusNotFound, "page not found")
	case errors.Is(err, service.ErrLinkNotFound):
		respondError(c, http.StatusNotFound, "link not found")
	case errors.Is(err, service.ErrLinkTitleMissing):
		respondError(c, http.StatusBadRequest, "link title is required")
	case errors.Is(err, service.ErrLinkURLMissing):
		respondError(c, http.StatusBadRequest, "link url is required")
	default:
		log.Printf("link handler error: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
