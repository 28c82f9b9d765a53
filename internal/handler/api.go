package handler

import (
	"github.com/connectly/internal/config"
	"github.com/connectly/internal/metrics"
	"github.com/connectly/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db           *gorm.DB
	users        *service.UserService
	pages        *service.PageService
	links        *service.LinkService
	designs      *service.DesignService
	analytics    *service.AnalyticsService
	metrics      *metrics.Collector
	oauth        *oauth2.Config
	dashboardURL string
	uploadDir    string
	uploadURL    string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, cfg config.AppConfig) *API {
	return &API{
		db:        gdb,
		users:     service.NewUserService(gdb),
		pages:     service.NewPageService(gdb),
		links:     service.NewLinkService(gdb),
		designs:   service.NewDesignService(gdb),
		analytics: service.NewAnalyticsService(gdb),
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		dashboardURL: cfg.DashboardURL,
		uploadDir:    cfg.UploadDir,
		uploadURL:    cfg.UploadURLPath,
	}
}

// WithMetrics attaches a metrics collector; business counters stay silent without one.
func (a *API) WithMetrics(collector *metrics.Collector) *API {
	a.metrics = collector
	return a
}

// DB exposes the underlying gorm instance for composition in tests.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Ping 健康检查。
func (a *API) Ping(c *gin.Context) {
	c.JSON(200, gin.H{"message": "pong"})
}
