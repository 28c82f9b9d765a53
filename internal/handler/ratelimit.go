package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/connectly/internal/metrics"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const rateLimiterIdleTTL = 10 * time.Minute

// RateLimiter 按客户端 IP 对公开路由限流。
// 空闲的限流器条目会被周期性清理，避免 map 无界增长。
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	metrics  *metrics.Collector
}

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter 创建限流器；perMinute 为每分钟允许的请求数。
func NewRateLimiter(perMinute int, collector *metrics.Collector) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
		metrics:  collector,
	}
}

// Middleware 返回 gin 中间件，超限请求返回 429。
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			rl.metrics.RecordRateLimited()
			respondError(c, http.StatusTooManyRequests, "too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = now

	for existing, state := range rl.limiters {
		if existing != key && now.Sub(state.lastAccess) > rateLimiterIdleTTL {
			delete(rl.limiters, existing)
		}
	}

	return entry.limiter.Allow()
}
