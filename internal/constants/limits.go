package constants

// HTTP 請求相關常數
const (
	// 默認值（可被配置覆蓋）
	DefaultMaxRequestBodySize = 1 << 20 // 1MB
	DefaultRequestTimeout     = 30      // 秒
)

// 訊息相關常數
const (
	DefaultMaxMessageLength = 4096
	MessageChannelBuffer    = 16
)

// 登入鎖定相關常數
const (
	DefaultMaxLoginAttempts      = 5
	DefaultLockDurationSeconds   = 600
	DefaultWindowDurationSeconds = 600
)

// 會話相關常數
const (
	DefaultIdleTimeoutSeconds = 60
	DefaultTokenTTLMinutes    = 60
)

// Rate Limiting 默認值
const (
	DefaultRateLimitPerMinute   = 100
	DefaultLoginRateLimit       = 10
	DefaultMessageRateLimit     = 30
	DefaultSSERateLimit         = 5
	RateLimitCleanupIntervalMin = 10 // 分鐘
)

// SSE 連接相關常數
const (
	DefaultSSEMaxConnectionsPerIP   = 3
	DefaultSSEMaxTotalConnections   = 1000
	DefaultSSEMinConnectionInterval = 10 // 秒
	DefaultSSEHeartbeatInterval     = 15 // 秒
	SSEConnectionCleanupIntervalMin = 10 // 分鐘
)

// MongoDB 查詢相關常數
const (
	DefaultMongoQueryLimit = 20
	MaxMongoHistoryLimit   = 50
)
