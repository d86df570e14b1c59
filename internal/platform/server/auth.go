package server

import (
	"net/http"

	"cipher-chat/internal/httputil"
	"cipher-chat/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// authStatus 查詢當前客戶端的登入限制狀態
// 前端據此在載入時決定是否直接顯示鎖定倒數
func (api *API) authStatus(c *gin.Context) {
	clientIP := middleware.GetClientIP(c)
	status := api.guard.CheckStatus(clientIP)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    status,
	})
}

// login 驗證通行密碼並簽發會話
func (api *API) login(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的請求格式"})
		return
	}

	clientIP := middleware.GetClientIP(c)
	result := api.guard.Attempt(clientIP, req.Password)

	if result.Locked {
		api.audit.LogLockout(c.Request.Context(), clientIP, result.RemainingTime)
		// 鎖定不是請求錯誤，回 200 並附上倒數讓前端顯示
		c.JSON(http.StatusOK, gin.H{
			"success":        false,
			"locked":         true,
			"remaining_time": result.RemainingTime,
			"error":          "嘗試次數過多，請稍後再試",
		})
		return
	}

	api.audit.LogLoginAttempt(c.Request.Context(), clientIP, result.Success, result.RemainingAttempts)

	if !result.Success {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":              "通行密碼錯誤",
			"success":            false,
			"remaining_attempts": result.RemainingAttempts,
			"request_id":         middleware.GetRequestID(c),
		})
		return
	}

	sess, token, err := api.sessions.Create()
	if err != nil {
		httputil.InternalServerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"session_id": sess.ID,
			"token":      token,
		},
	})
}

// logout 主動結束會話
func (api *API) logout(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		httputil.Unauthorized(c, "")
		return
	}

	api.sessions.End(sess.ID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "已登出",
	})
}
