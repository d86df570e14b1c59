package chatroom

import (
	"context"
	"sync"

	"cipher-chat/internal/platform/logger"
)

// 事件類型
const (
	// EventRoomInfo 連接建立時的聊天室概況
	EventRoomInfo = "room_info"
	// EventUserStatus 成員上線/離線通知
	EventUserStatus = "user_status"
	// EventReceiveMessage 加密訊息投遞
	EventReceiveMessage = "receive_message"
)

// 成員狀態
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Event 聊天室事件
// 聊天室 ID、發送者和時間戳都是明文元數據；訊息本體只以加密信封
// 的形式出現在 EncryptedMessage 欄位
type Event struct {
	Type             string `json:"type"`
	UserID           string `json:"user_id,omitempty"`
	Status           string `json:"status,omitempty"`
	OnlineCount      int    `json:"online_count,omitempty"`
	EncryptedMessage string `json:"encrypted_message,omitempty"`
	Timestamp        string `json:"timestamp,omitempty"`
}

// Hub 聊天室事件中樞
// 按聊天室分發事件給訂閱者（每個訂閱者對應一條 SSE 連接）
// 投遞是非阻塞的：訂閱者的緩衝滿了就丟棄事件，慢消費者不能拖住整個聊天室
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan Event // roomID -> sessionID -> channel
	buffer      int
}

// NewHub 創建事件中樞
// buffer 是每個訂閱者的事件緩衝大小
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 10
	}
	return &Hub{
		subscribers: make(map[string]map[string]chan Event),
		buffer:      buffer,
	}
}

// Subscribe 訂閱聊天室事件
// 同一會話重複訂閱會先解除舊的訂閱
func (h *Hub) Subscribe(roomID, sessionID string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, exists := h.subscribers[roomID]
	if !exists {
		subs = make(map[string]chan Event)
		h.subscribers[roomID] = subs
	}

	if old, ok := subs[sessionID]; ok {
		close(old)
	}

	ch := make(chan Event, h.buffer)
	subs[sessionID] = ch
	return ch
}

// Unsubscribe 解除訂閱並關閉事件通道
// 只在傳入的通道仍是該會話的當前訂閱時生效：重連後舊連接的延遲
// 解除訂閱不能誤關新連接的通道
func (h *Hub) Unsubscribe(roomID, sessionID string, ch <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, exists := h.subscribers[roomID]
	if !exists {
		return
	}

	current, ok := subs[sessionID]
	if !ok || (<-chan Event)(current) != ch {
		return
	}

	close(current)
	delete(subs, sessionID)

	if len(subs) == 0 {
		delete(h.subscribers, roomID)
	}
}

// Evict 強制解除會話的當前訂閱（離開聊天室或會話結束）
func (h *Hub) Evict(roomID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, exists := h.subscribers[roomID]
	if !exists {
		return
	}

	if ch, ok := subs[sessionID]; ok {
		close(ch)
		delete(subs, sessionID)
	}

	if len(subs) == 0 {
		delete(h.subscribers, roomID)
	}
}

// Broadcast 向聊天室所有訂閱者投遞事件
func (h *Hub) Broadcast(roomID string, event Event) {
	h.BroadcastExcept(roomID, "", event)
}

// BroadcastExcept 向聊天室除指定會話外的訂閱者投遞事件
// 發送者自己的訊息由客戶端本地回顯，不需要再收一次
func (h *Hub) BroadcastExcept(roomID, exceptSessionID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sessionID, ch := range h.subscribers[roomID] {
		if sessionID == exceptSessionID {
			continue
		}

		select {
		case ch <- event:
		default:
			// 緩衝已滿：丟棄事件，讓慢消費者自己落後
			logger.Warning(context.Background(), "訂閱者緩衝已滿，事件被丟棄",
				logger.WithRoomID(roomID),
				logger.WithSessionID(sessionID),
				logger.WithAction("drop_event"))
		}
	}
}

// SubscriberCount 聊天室當前訂閱者數量
func (h *Hub) SubscriberCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[roomID])
}
