// Package metrics 负责收集并暴露 Prometheus 指标。
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector 收集 HTTP 层与业务层指标。
type Collector struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	pageViews    prometheus.Counter
	linkClicks   prometheus.Counter
	rateLimited  prometheus.Counter
	reorderTotal prometheus.Counter
}

// NewCollector 创建 Collector 并在私有 registry 上注册全部指标。
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "connectly_http_requests_total",
			Help: "HTTP 请求总数，按方法、路由与状态码区分",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connectly_http_request_duration_seconds",
			Help:    "HTTP 请求耗时（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pageViews: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connectly_page_views_total",
			Help: "被计入统计的公开页浏览总数",
		}),
		linkClicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connectly_link_clicks_total",
			Help: "链接点击跳转总数",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connectly_rate_limited_total",
			Help: "被限流拒绝的请求总数",
		}),
		reorderTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "connectly_link_reorders_total",
			Help: "成功执行的批量重排总数",
		}),
	}

	c.registry.MustRegister(
		c.requests,
		c.latency,
		c.pageViews,
		c.linkClicks,
		c.rateLimited,
		c.reorderTotal,
	)

	return c
}

// RecordPageView 累计一次公开页浏览。
func (c *Collector) RecordPageView() {
	if c == nil {
		return
	}
	c.pageViews.Inc()
}

// RecordLinkClick 累计一次链接点击。
func (c *Collector) RecordLinkClick() {
	if c == nil {
		return
	}
	c.linkClicks.Inc()
}

// RecordRateLimited 累计一次限流拒绝。
func (c *Collector) RecordRateLimited() {
	if c == nil {
		return
	}
	c.rateLimited.Inc()
}

// RecordReorder 累计一次成功的批量重排。
func (c *Collector) RecordReorder() {
	if c == nil {
		return
	}
	c.reorderTotal.Inc()
}

// Middleware 返回记录请求计数与耗时的 gin 中间件。
// 使用注册的路由模板而不是原始路径，避免标签基数爆炸。
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		c.requests.WithLabelValues(
			ctx.Request.Method,
			route,
			strconv.Itoa(ctx.Writer.Status()),
		).Inc()
		c.latency.WithLabelValues(ctx.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// Handler 暴露 /metrics 端点。
func (c *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
