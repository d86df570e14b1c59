package middleware

import (
	"net/http"
	"strings"

	"cipher-chat/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	// SessionKey gin.Context 中存放會話的鍵
	SessionKey = "session"
)

// SessionAuthMiddleware 驗證會話令牌並將會話注入請求
// 令牌優先取 Authorization: Bearer 頭部，其次取 token 查詢參數
// （EventSource 無法自訂頭部，SSE 連線依賴查詢參數）
func SessionAuthMiddleware(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "未授權訪問",
				"success": false,
			})
			c.Abort()
			return
		}

		sess, err := manager.Resolve(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "會話無效或已過期",
				"success": false,
			})
			c.Abort()
			return
		}

		// 任何已驗證的請求都視為活動，重置閒置計時
		sess.Touch()

		c.Set(SessionKey, sess)

		c.Next()
	}
}

// extractToken 從請求中提取會話令牌
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}

	return c.Query("token")
}

// GetSession 從 gin.Context 獲取當前會話
func GetSession(c *gin.Context) (*session.Session, bool) {
	value, exists := c.Get(SessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*session.Session)
	return sess, ok
}
