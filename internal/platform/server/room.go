package server

import (
	"context"
	"net/http"
	"time"

	"cipher-chat/internal/chatroom"
	"cipher-chat/internal/constants"
	"cipher-chat/internal/httputil"
	"cipher-chat/internal/platform/config"
	"cipher-chat/internal/platform/logger"
	"cipher-chat/internal/platform/middleware"
	"cipher-chat/internal/security/roomkey"
	"cipher-chat/internal/session"

	"github.com/gin-gonic/gin"
)

// joinRoom 加入聊天室
// 密語為空字串時加入公共聊天室；同一密語的所有會話落在同一個私有
// 聊天室。已在其他聊天室的會話會先被移出舊聊天室
func (api *API) joinRoom(c *gin.Context) {
	var req struct {
		Secret string `json:"secret"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的請求格式"})
		return
	}

	sess, ok := middleware.GetSession(c)
	if !ok {
		httputil.Unauthorized(c, "")
		return
	}

	// 換聊天室必須先離開舊的
	if _, _, _, joined := sess.Room(); joined {
		api.detachFromRoom(c.Request.Context(), sess)
	}

	roomID := roomkey.RoomID(req.Secret)
	nickname := chatroom.GenerateNickname()

	onlineCount := api.registry.Join(roomID, nickname)
	sess.JoinRoom(nickname, roomID, req.Secret)

	// 上線通知只發給其他成員，自己的狀態走 join 回應
	api.hub.BroadcastExcept(roomID, sess.ID, chatroom.Event{
		Type:        chatroom.EventUserStatus,
		UserID:      nickname,
		Status:      chatroom.StatusOnline,
		OnlineCount: onlineCount,
		Timestamp:   time.Now().Format(time.RFC3339),
	})

	api.audit.LogRoomJoin(c.Request.Context(), nickname, roomID, roomkey.IsPublic(roomID))

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user_id":      nickname,
			"room_id":      roomID,
			"is_public":    roomkey.IsPublic(roomID),
			"online_count": onlineCount,
			"history":      api.fetchHistory(c.Request.Context(), roomID),
		},
	})
}

// leaveRoom 離開當前聊天室
func (api *API) leaveRoom(c *gin.Context) {
	sess, ok := middleware.GetSession(c)
	if !ok {
		httputil.Unauthorized(c, "")
		return
	}

	if _, _, _, joined := sess.Room(); !joined {
		httputil.BadRequest(c, "尚未加入任何聊天室")
		return
	}

	api.detachFromRoom(c.Request.Context(), sess)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "已離開聊天室",
	})
}

// DetachSession 會話結束（登出或閒置逾時）後的清理
// 把會話移出聊天室並通知其他成員
func (api *API) DetachSession(ctx context.Context, sess *session.Session, reason string) {
	api.detachFromRoom(ctx, sess)
	api.audit.LogSessionEnded(ctx, sess.ID, reason)
}

// detachFromRoom 把會話移出當前聊天室並廣播離線通知
func (api *API) detachFromRoom(ctx context.Context, sess *session.Session) {
	userID, roomID, _, joined := sess.Room()
	if !joined {
		return
	}

	api.hub.Evict(roomID, sess.ID)
	onlineCount, existed := api.registry.Leave(roomID, userID)
	sess.LeaveRoom()

	if !existed {
		logger.Warning(ctx, "離開聊天室時成員不在名單上",
			logger.WithUserID(userID),
			logger.WithRoomID(roomID),
			logger.WithAction("leave_room"))
	}

	// 離線通知只發給其他成員
	api.hub.BroadcastExcept(roomID, sess.ID, chatroom.Event{
		Type:        chatroom.EventUserStatus,
		UserID:      userID,
		Status:      chatroom.StatusOffline,
		OnlineCount: onlineCount,
		Timestamp:   time.Now().Format(time.RFC3339),
	})

	// 私有聊天室清空後刪除其加密歷史
	if onlineCount == 0 && !roomkey.IsPublic(roomID) && api.repos != nil {
		if deleted, err := api.repos.History.DeleteByRoom(ctx, roomID); err != nil {
			logger.Errorf(ctx, "清除聊天室歷史失敗: %v", err)
		} else if deleted > 0 {
			logger.Info(ctx, "私有聊天室已清空，歷史已刪除",
				logger.WithRoomID(roomID),
				logger.WithAction("purge_history"),
				logger.WithDetails(map[string]interface{}{"deleted": deleted}))
		}
	}

	api.audit.LogRoomLeave(ctx, userID, roomID)
}

// fetchHistory 拉取聊天室最近的加密訊息歷史
// 未啟用持久化或未配置拉取時回傳空列表
func (api *API) fetchHistory(ctx context.Context, roomID string) []gin.H {
	history := []gin.H{}

	if api.repos == nil {
		return history
	}

	cfg := config.Get()
	limit := 0
	if cfg != nil {
		limit = cfg.Limits.History.FetchOnJoin
	}
	if limit <= 0 {
		return history
	}
	if limit > constants.MaxMongoHistoryLimit {
		limit = constants.MaxMongoHistoryLimit
	}

	// 聊天室 ID 進入查詢條件前先驗證格式
	if err := middleware.ValidateRoomID(roomID); err != nil {
		logger.Warning(ctx, "聊天室 ID 格式異常，跳過歷史查詢",
			logger.WithRoomID(roomID),
			logger.WithAction("fetch_history"))
		return history
	}

	messages, err := api.repos.History.ListRecentByRoom(ctx, roomID, int64(limit))
	if err != nil {
		logger.Errorf(ctx, "拉取訊息歷史失敗: %v", err)
		return history
	}

	for _, msg := range messages {
		history = append(history, gin.H{
			"sender_id":  msg.SenderID,
			"envelope":   msg.Envelope,
			"created_at": msg.CreatedAt.Format(time.RFC3339),
		})
	}

	return history
}
