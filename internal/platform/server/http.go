package server

import (
	"time"

	"cipher-chat/internal/constants"
	"cipher-chat/internal/platform/config"
	"cipher-chat/internal/platform/health"
	"cipher-chat/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// securityHeadersMiddleware 添加安全標頭
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 防止點擊劫持
		c.Header("X-Frame-Options", "DENY")

		// 防止 MIME 類型嗅探
		c.Header("X-Content-Type-Options", "nosniff")

		// 啟用 XSS 保護
		c.Header("X-XSS-Protection", "1; mode=block")

		// 內容安全策略
		c.Header("Content-Security-Policy", "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self'; connect-src 'self'; frame-ancestors 'none';")

		// 推薦政策
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// 權限政策
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		c.Next()
	}
}

// corsMiddleware 安全的 CORS 中間件
func corsMiddleware() gin.HandlerFunc {
	// 只允許特定的來源（生產環境應該從配置文件讀取）
	allowedOrigins := map[string]bool{
		"http://localhost:3000": true, // 開發環境前端
		"http://localhost:8080": true, // 本地測試
		"http://127.0.0.1:5500": true, // Live Server
		"http://127.0.0.1:8080": true, // 本地測試 (127.0.0.1)
		"http://localhost:5500": true, // Live Server (localhost)
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		if allowedOrigins[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Header("Access-Control-Max-Age", "86400") // 預檢請求緩存 24 小時

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// Router 設定路由
func Router(api *API) *gin.Engine {
	r := gin.Default()

	r.Use(corsMiddleware())

	// 添加請求 ID 中間件（最優先）
	r.Use(middleware.RequestIDMiddleware())

	// 添加安全標頭中間件
	r.Use(securityHeadersMiddleware())

	// 添加請求元數據中間件（提取 IP、User-Agent）
	r.Use(middleware.RequestMetadataMiddleware())

	// 從配置讀取限制參數
	cfg := config.Get()

	// 添加請求大小限制
	r.Use(middleware.RequestSizeLimiter(constants.DefaultMaxRequestBodySize))

	// 創建 Rate Limiter
	defaultLimit := constants.DefaultRateLimitPerMinute
	if cfg != nil && cfg.Limits.RateLimiting.DefaultPerMinute > 0 {
		defaultLimit = cfg.Limits.RateLimiting.DefaultPerMinute
	}
	rateLimiter := middleware.NewRateLimiter(defaultLimit, time.Minute)

	// 為不同端點設置不同的速率限制
	if cfg != nil && cfg.Limits.RateLimiting.Enabled {
		if cfg.Limits.RateLimiting.LoginPerMin > 0 {
			rateLimiter.SetPathLimit("/api/v1/auth/login", cfg.Limits.RateLimiting.LoginPerMin, time.Minute)
		}
		if cfg.Limits.RateLimiting.MessagesPerMin > 0 {
			rateLimiter.SetPathLimit("/api/v1/messages", cfg.Limits.RateLimiting.MessagesPerMin, time.Minute)
		}
		if cfg.Limits.RateLimiting.SSEPerMin > 0 {
			rateLimiter.SetPathLimit("/api/v1/messages/stream", cfg.Limits.RateLimiting.SSEPerMin, time.Minute)
		}
	}

	r.Use(rateLimiter.Middleware())

	// 創建 SSE 連接限制器
	sseMaxPerIP := constants.DefaultSSEMaxConnectionsPerIP
	sseInterval := constants.DefaultSSEMinConnectionInterval
	sseMaxTotal := constants.DefaultSSEMaxTotalConnections
	if cfg != nil {
		if cfg.Limits.SSE.MaxConnectionsPerIP > 0 {
			sseMaxPerIP = cfg.Limits.SSE.MaxConnectionsPerIP
		}
		if cfg.Limits.SSE.MinConnectionInterval > 0 {
			sseInterval = cfg.Limits.SSE.MinConnectionInterval
		}
		if cfg.Limits.SSE.MaxTotalConnections > 0 {
			sseMaxTotal = cfg.Limits.SSE.MaxTotalConnections
		}
	}
	sseLimiter := middleware.NewSSEConnectionLimiter(sseMaxPerIP, time.Duration(sseInterval)*time.Second, sseMaxTotal)

	// 創建處理器
	healthHandler := health.NewHealthHandler()

	// health check
	r.GET("/health", healthHandler.HealthCheck)

	// 認證（登入前可訪問）
	r.GET("/api/v1/auth/status", api.authStatus)
	r.POST("/api/v1/auth/login", api.login)

	// 需要會話的路由
	authed := r.Group("/api/v1", middleware.SessionAuthMiddleware(api.sessions))
	authed.POST("/auth/logout", api.logout)
	authed.POST("/rooms/join", api.joinRoom)
	authed.POST("/rooms/leave", api.leaveRoom)
	authed.POST("/messages", api.sendMessage)

	// SSE endpoint - 應用額外的連接限制
	authed.GET("/messages/stream", sseLimiter.Middleware(), api.streamMessages)

	return r
}
