package server

import (
	"time"

	"cipher-chat/internal/chatroom"
	"cipher-chat/internal/constants"
	"cipher-chat/internal/platform/config"
	"cipher-chat/internal/platform/middleware"

	"github.com/gin-gonic/gin"
)

// streamMessages 使用 SSE 推送聊天室事件
// 每條連接對應一個事件中樞訂閱；會話離開聊天室或結束時訂閱通道
// 會被關閉，循環隨之退出
func (api *API) streamMessages(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		c.JSON(401, gin.H{"error": "未授權訪問"})
		return
	}

	_, roomID, _, joined := sess.Room()
	if !joined {
		c.JSON(400, gin.H{"error": "尚未加入任何聊天室"})
		return
	}

	setupSSEHeaders(c)

	events := api.hub.Subscribe(roomID, sess.ID)
	defer api.hub.Unsubscribe(roomID, sess.ID, events)

	// 聊天室概況只發給剛連上的這條連接
	c.SSEvent(chatroom.EventRoomInfo, gin.H{
		"room_id":      roomID,
		"online_count": api.registry.OnlineCount(roomID),
	})
	c.Writer.Flush()

	handleSSELoop(c, events)
}

// setupSSEHeaders 設置 SSE headers
func setupSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"status": "ok"})
	c.Writer.Flush()
}

// handleSSELoop 處理 SSE 循環
func handleSSELoop(c *gin.Context, events <-chan chatroom.Event) {
	cfg := config.Get()
	heartbeatInterval := constants.DefaultSSEHeartbeatInterval
	if cfg != nil && cfg.Limits.SSE.HeartbeatInterval > 0 {
		heartbeatInterval = cfg.Limits.SSE.HeartbeatInterval
	}

	ticker := time.NewTicker(time.Duration(heartbeatInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return

		case <-ticker.C:
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Unix()})
			c.Writer.Flush()

		case event, ok := <-events:
			if !ok {
				// 訂閱被取消（離開聊天室或會話結束）
				return
			}
			c.SSEvent(event.Type, event)
			c.Writer.Flush()
		}
	}
}
