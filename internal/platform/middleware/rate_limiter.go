package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter 速率限制器（固定時間窗口，按客戶端 IP 計數）
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitorWindow
	rate     int           // 每個時間窗口允許的請求數
	window   time.Duration // 時間窗口
	overrides map[string]*RateLimiter // 特定路徑的限制器
}

type visitorWindow struct {
	lastSeen  time.Time
	requests  int
	resetTime time.Time
}

// NewRateLimiter 創建新的速率限制器
// rate: 每個時間窗口允許的請求數
// window: 時間窗口（例如：time.Minute）
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		visitors:  make(map[string]*visitorWindow),
		rate:      rate,
		window:    window,
		overrides: make(map[string]*RateLimiter),
	}

	// 啟動清理 goroutine，定期清理過期的訪問者記錄
	go rl.cleanupVisitors()

	return rl
}

// SetPathLimit 為特定路徑設置獨立的限制
// 必須在路由啟動前呼叫，啟動後不可再修改
func (rl *RateLimiter) SetPathLimit(path string, rate int, window time.Duration) {
	rl.overrides[path] = NewRateLimiter(rate, window)
}

// Middleware 返回 Gin 中間件
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := rl
		if override, exists := rl.overrides[c.Request.URL.Path]; exists {
			limiter = override
		}

		ip := GetClientIP(c)
		if !limiter.allowRequest(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "請求過於頻繁，請稍後再試",
				"success": false,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// allowRequest 檢查是否允許請求
func (rl *RateLimiter) allowRequest(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	visitor, exists := rl.visitors[ip]

	if !exists {
		rl.visitors[ip] = &visitorWindow{
			lastSeen:  now,
			requests:  1,
			resetTime: now.Add(rl.window),
		}
		return true
	}

	// 時間窗口已過期則重置計數器
	if now.After(visitor.resetTime) {
		visitor.requests = 1
		visitor.resetTime = now.Add(rl.window)
		visitor.lastSeen = now
		return true
	}

	if visitor.requests >= rl.rate {
		visitor.lastSeen = now
		return false
	}

	visitor.requests++
	visitor.lastSeen = now
	return true
}

// cleanupVisitors 定期清理過期的訪問者記錄
func (rl *RateLimiter) cleanupVisitors() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()

		for ip, visitor := range rl.visitors {
			// 如果訪問者超過 10 分鐘沒有活動，刪除記錄
			if now.Sub(visitor.lastSeen) > 10*time.Minute {
				delete(rl.visitors, ip)
			}
		}

		rl.mu.Unlock()
	}
}
