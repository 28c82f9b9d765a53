package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/connectly/internal/db"
	"github.com/connectly/internal/service"
	"github.com/connectly/internal/view"
	"github.com/gin-gonic/gin"
)

type createPageRequest struct {
	Title       string `json:"title" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
	IsPublished *bool  `json:"isPublished"`
}

type updatePageRequest struct {
	Title       *string `json:"title"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Theme       *string `json:"theme"`
	IsPublished *bool   `json:"isPublished"`
}

type designRequest struct {
	ButtonStyle       *string `json:"buttonStyle"`
	BackgroundStyle   *string `json:"backgroundStyle"`
	FontStyle         *string `json:"fontStyle"`
	Layout            *string `json:"layout"`
	CardShadow        *string `json:"cardShadow"`
	Spacing           *string `json:"spacing"`
	ProfileImageShape *string `json:"profileImageShape"`
}

func pagePayload(page *db.Page) gin.H {
	return gin.H{
		"id":          page.ID,
		"userId":      page.UserID,
		"title":       page.Title,
		"slug":        page.Slug,
		"description": page.Description,
		"theme":       page.Theme,
		"isPublished": page.IsPublished,
		"createdAt":   page.CreatedAt,
		"updatedAt":   page.UpdatedAt,
	}
}

func designPayload(design *db.PageDesign) gin.H {
	return gin.H{
		"pageId":            design.PageID,
		"buttonStyle":       design.ButtonStyle,
		"backgroundStyle":   design.BackgroundStyle,
		"fontStyle":         design.FontStyle,
		"layout":            design.Layout,
		"cardShadow":        design.CardShadow,
		"spacing":           design.Spacing,
		"profileImageShape": design.ProfileImageShape,
	}
}

// GetPages 返回当前用户的分页页面列表。
// 兼容旧客户端的 userId 查询参数：与会话身份不一致时拒绝。
func (a *API) GetPages(c *gin.Context) {
	userID := currentUserID(c)
	if requested := c.Query("userId"); requested != "" && requested != userID {
		respondError(c, http.StatusForbidden, "cannot list another user's pages")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := a.pages.List(userID, service.PageFilter{
		Search:  c.Query("search"),
		Page:    page,
		PerPage: limit,
	})
	if err != nil {
		log.Printf("list pages failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	payload := make([]gin.H, 0, len(result.Pages))
	for i := range result.Pages {
		payload = append(payload, pagePayload(&result.Pages[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"data": payload,
		"pagination": gin.H{
			"page":       result.Page,
			"limit":      result.PerPage,
			"total":      result.Total,
			"totalPages": result.TotalPages,
		},
	})
}

// CreatePage 创建页面；slug 重复时返回 400 且不写入任何行。
func (a *API) CreatePage(c *gin.Context) {
	var req createPageRequest
	if !bindJSON(c, &req, "title and slug are required") {
		return
	}

	if req.Theme != "" && !view.IsValidTheme(req.Theme) {
		respondError(c, http.StatusBadRequest, "unknown theme")
		return
	}

	page, err := a.pages.Create(currentUserID(c), service.PageInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Theme:       req.Theme,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		handlePageError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"page": pagePayload(page)})
}

// GetPage 返回单个页面，仅限所有者。
func (a *API) GetPage(c *gin.Context) {
	page, err := a.pages.Get(currentUserID(c), c.Param("id"))
	if err != nil {
		handlePageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": pagePayload(page)})
}

// UpdatePage 对页面做部分更新。
func (a *API) UpdatePage(c *gin.Context) {
	var req updatePageRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	if req.Theme != nil && !view.IsValidTheme(*req.Theme) {
		respondError(c, http.StatusBadRequest, "unknown theme")
		return
	}

	page, err := a.pages.Update(currentUserID(c), c.Param("id"), service.PageUpdateInput{
		Title:       req.Title,
		Slug:        req.Slug,
		Description: req.Description,
		Theme:       req.Theme,
		IsPublished: req.IsPublished,
	})
	if err != nil {
		handlePageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": pagePayload(page)})
}

// DeletePage 删除页面及其链接、外观和统计数据。
func (a *API) DeletePage(c *gin.Context) {
	if err := a.pages.Delete(currentUserID(c), c.Param("id")); err != nil {
		handlePageError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "page deleted"})
}

// Dashboard 返回用户的默认页面，首次访问时懒创建。
func (a *API) Dashboard(c *gin.Context) {
	page, err := a.pages.EnsureDefault(currentUserID(c))
	if err != nil {
		log.Printf("ensure default page failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"page": pagePayload(page)})
}

// GetPageDesign 返回页面外观设置。
func (a *API) GetPageDesign(c *gin.Context) {
	page, err := a.pages.Get(currentUserID(c), c.Param("id"))
	if err != nil {
		handlePageError(c, err)
		return
	}

	design, err := a.designs.GetForPage(page.ID)
	if err != nil {
		log.Printf("get page design failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"design": designPayload(design)})
}

// SavePageDesign 校验并保存页面外观设置。
func (a *API) SavePageDesign(c *gin.Context) {
	page, err := a.pages.Get(currentUserID(c), c.Param("id"))
	if err != nil {
		handlePageError(c, err)
		return
	}

	var req designRequest
	if !bindJSON(c, &req, "invalid request body") {
		return
	}

	design, err := a.designs.Save(page.ID, service.DesignInput{
		ButtonStyle:       req.ButtonStyle,
		BackgroundStyle:   req.BackgroundStyle,
		FontStyle:         req.FontStyle,
		Layout:            req.Layout,
		CardShadow:        req.CardShadow,
		Spacing:           req.Spacing,
		ProfileImageShape: req.ProfileImageShape,
	})
	if err != nil {
		if errors.Is(err, service.ErrDesignInvalidValue) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("save page design failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"design": designPayload(design)})
}

// GetPageAnalytics 返回页面的分析汇总。
func (a *API) GetPageAnalytics(c *gin.Context) {
	page, err := a.pages.Get(currentUserID(c), c.Param("id"))
	if err != nil {
		handlePageError(c, err)
		return
	}

	summary, err := a.analytics.Summary(page.ID, time.Now())
	if err != nil {
		log.Printf("page analytics failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"analytics": summary})
}

// GetThemes 返回主题目录与外观字段取值，供仪表盘选择器使用。
func (a *API) GetThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"themes":  view.ThemeOptions(),
		"options": view.DesignFieldOptions(),
	})
}

func handlePageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPageNotFound):
		respondError(c, http.StatusNotFound, "page not found")
	case errors.Is(err, service.ErrPageTitleMissing):
		respondError(c, http.StatusBadRequest, "page title is required")
	case errors.Is(err, service.ErrSlugInvalid):
		respondError(c, http.StatusBadRequest, "slug must contain only lowercase letters, digits and dashes")
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, http.StatusBadRequest, "slug already exists")
	default:
		log.Printf("page handler error: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}
