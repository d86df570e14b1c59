package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// AuditService 審計服務
// 記錄認證、鎖定和聊天室事件，輸出獨立於應用日誌
type AuditService struct {
	enabled bool
	logger  *log.Logger
}

// NewAuditService 創建審計服務
func NewAuditService(enabled bool) *AuditService {
	return &AuditService{
		enabled: enabled,
		logger:  log.Default(),
	}
}

// AuditEvent 審計事件
type AuditEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType string                 `json:"event_type"`
	UserID    string                 `json:"user_id,omitempty"`
	RoomID    string                 `json:"room_id,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Action    string                 `json:"action"`
	Result    string                 `json:"result"` // success, failure
	Details   map[string]interface{} `json:"details,omitempty"`
	IPAddress string                 `json:"ip_address,omitempty"`
}

// LogLoginAttempt 記錄登入嘗試
func (a *AuditService) LogLoginAttempt(ctx context.Context, ipAddress string, success bool, remainingAttempts int) {
	if !a.enabled {
		return
	}

	result := "success"
	if !success {
		result = "failure"
	}

	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "authentication",
		Action:    "login",
		Result:    result,
		IPAddress: ipAddress,
		Details: map[string]interface{}{
			"remaining_attempts": remainingAttempts,
		},
	})
}

// LogLockout 記錄客戶端進入鎖定
func (a *AuditService) LogLockout(ctx context.Context, ipAddress string, remainingTime int) {
	if !a.enabled {
		return
	}

	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "authentication",
		Action:    "lockout",
		Result:    "failure",
		IPAddress: ipAddress,
		Details: map[string]interface{}{
			"remaining_time": remainingTime,
		},
	})
}

// LogRoomJoin 記錄加入聊天室
func (a *AuditService) LogRoomJoin(ctx context.Context, userID, roomID string, isPublic bool) {
	if !a.enabled {
		return
	}

	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "room_join",
		UserID:    userID,
		RoomID:    roomID,
		Action:    "join_room",
		Result:    "success",
		Details: map[string]interface{}{
			"is_public": isPublic,
		},
	})
}

// LogRoomLeave 記錄離開聊天室
func (a *AuditService) LogRoomLeave(ctx context.Context, userID, roomID string) {
	if !a.enabled {
		return
	}

	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "room_leave",
		UserID:    userID,
		RoomID:    roomID,
		Action:    "leave_room",
		Result:    "success",
	})
}

// LogMessageSent 記錄訊息發送（只記元數據，不記內容）
func (a *AuditService) LogMessageSent(ctx context.Context, userID, roomID string) {
	if !a.enabled {
		return
	}

	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "message_sent",
		UserID:    userID,
		RoomID:    roomID,
		Action:    "send_message",
		Result:    "success",
	})
}

// LogSessionEnded 記錄會話結束
// reason: logout（主動登出）或 idle_timeout（閒置逾時）
func (a *AuditService) LogSessionEnded(ctx context.Context, sessionID, reason string) {
	if !a.enabled {
		return
	}

	a.log(AuditEvent{
		Timestamp: time.Now(),
		EventType: "session_ended",
		SessionID: sessionID,
		Action:    "end_session",
		Result:    "success",
		Details: map[string]interface{}{
			"reason": reason,
		},
	})
}

// log 輸出審計事件
func (a *AuditService) log(event AuditEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		a.logger.Printf("[AUDIT] 序列化審計事件失敗: %v", err)
		return
	}

	a.logger.Printf("[AUDIT] %s", string(data))
}
