package server

import (
	"net/http"
	"time"

	"cipher-chat/internal/chatroom"
	"cipher-chat/internal/httputil"
	"cipher-chat/internal/platform/logger"
	"cipher-chat/internal/platform/middleware"
	"cipher-chat/internal/storage/database/history"

	"github.com/gin-gonic/gin"
)

// sendMessage 發送訊息
// 明文只在加密前的這一刻存在於服務端，廣播和持久化都只碰密文信封
func (api *API) sendMessage(c *gin.Context) {
	var req struct {
		Content string `json:"content"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的請求格式"})
		return
	}

	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		httputil.BadRequest(c, err.Error())
		return
	}

	sess, ok := middleware.GetSession(c)
	if !ok {
		httputil.Unauthorized(c, "")
		return
	}

	userID, roomID, secret, joined := sess.Room()
	if !joined {
		httputil.BadRequest(c, "尚未加入任何聊天室")
		return
	}

	content := middleware.SanitizeInput(req.Content)

	envelope, err := api.crypto.EncryptForRoom(content, secret)
	if err != nil {
		httputil.InternalServerError(c, err)
		return
	}

	now := time.Now()

	// 發送者由回應本地回顯，不再收一次自己的訊息
	api.hub.BroadcastExcept(roomID, sess.ID, chatroom.Event{
		Type:             chatroom.EventReceiveMessage,
		UserID:           userID,
		EncryptedMessage: envelope,
		Timestamp:        now.Format(time.RFC3339),
	})

	// 持久化密文（啟用歷史存儲時）
	if api.repos != nil {
		record := &history.EncryptedMessage{
			RoomID:    roomID,
			SenderID:  userID,
			Envelope:  envelope,
			CreatedAt: now,
		}
		if err := api.repos.History.Create(c.Request.Context(), record); err != nil {
			// 投遞已完成，持久化失敗不影響發送結果
			logger.Errorf(c.Request.Context(), "保存訊息歷史失敗: %v", err)
		}
	}

	api.audit.LogMessageSent(c.Request.Context(), userID, roomID)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"sender_id":  userID,
			"room_id":    roomID,
			"envelope":   envelope,
			"created_at": now.Format(time.RFC3339),
		},
	})
}
