package handler

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/connectly/internal/db"
	"github.com/connectly/internal/service"
	"github.com/connectly/internal/view"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

// renderDescription 将页面描述从 Markdown 渲染为净化后的 HTML。
func renderDescription(markdown string) string {
	if markdown == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(markdown), &buf); err != nil {
		log.Printf("render page description failed: %v", err)
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}

// ShowPublicPage 返回已发布页面的公开视图并记录一次去重后的浏览。
func (a *API) ShowPublicPage(c *gin.Context) {
	page, err := a.pages.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "page not found")
			return
		}
		log.Printf("public page lookup failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	var links []db.Link
	if err := a.db.Where("page_id = ? AND is_active = ?", page.ID, true).
		Order(`"order" asc`).Order("created_at asc").
		Find(&links).Error; err != nil {
		log.Printf("public page links failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	design, err := a.designs.GetForPage(page.ID)
	if err != nil {
		log.Printf("public page design failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	// 浏览统计失败不阻断页面展示
	visitor := service.VisitorFingerprint(c.ClientIP(), c.Request.UserAgent())
	if _, err := a.analytics.RecordPageView(page.ID, visitor, time.Now()); err != nil {
		log.Printf("record page view failed: %v", err)
	} else {
		a.metrics.RecordPageView()
	}

	linkItems := make([]gin.H, 0, len(links))
	for i := range links {
		link := &links[i]
		linkItems = append(linkItems, gin.H{
			"id":    link.ID,
			"title": link.Title,
			"url":   link.URL,
			"icon":  link.Icon,
			"order": link.Order,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"page": gin.H{
			"title":           page.Title,
			"slug":            page.Slug,
			"description":     page.Description,
			"descriptionHtml": renderDescription(page.Description),
			"theme":           page.Theme,
		},
		"themeColors": view.ThemeColorsFor(page.Theme),
		"design":      designPayload(design),
		"links":       linkItems,
	})
}

// RedirectLink 记录链接点击并 302 跳转到目标地址。
// 未发布页面或停用链接表现为不存在。
func (a *API) RedirectLink(c *gin.Context) {
	var link db.Link
	err := a.db.Joins("JOIN pages ON pages.id = links.page_id").
		Where("links.id = ? AND links.is_active = ? AND pages.is_published = ?",
			c.Param("id"), true, true).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusNotFound, "link not found")
			return
		}
		log.Printf("redirect lookup failed: %v", err)
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	visitor := service.VisitorFingerprint(c.ClientIP(), c.Request.UserAgent())
	if err := a.analytics.RecordLinkClick(link.ID, link.PageID, visitor, time.Now()); err != nil {
		log.Printf("record link click failed: %v", err)
	} else {
		a.metrics.RecordLinkClick()
	}

	c.Redirect(http.StatusFound, link.URL)
}
