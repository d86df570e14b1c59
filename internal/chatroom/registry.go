package chatroom

import (
	"sync"

	"cipher-chat/internal/security/roomkey"
)

// Registry 聊天室成員登記表
// 記錄每個聊天室當前在線的暱稱集合，只存在於內存：聊天室是臨時的，
// 服務重啟後不保留任何成員狀態
// 公共聊天室常駐；私密聊天室在最後一個成員離開後刪除
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]struct{}
}

// NewRegistry 創建聊天室登記表
func NewRegistry() *Registry {
	return &Registry{
		rooms: map[string]map[string]struct{}{
			roomkey.PublicRoom: {},
		},
	}
}

// Join 登記成員加入聊天室，回傳加入後的在線人數
// 聊天室不存在時自動創建
func (r *Registry) Join(roomID, userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.rooms[roomID]
	if !exists {
		members = make(map[string]struct{})
		r.rooms[roomID] = members
	}

	members[userID] = struct{}{}
	return len(members)
}

// Leave 登記成員離開聊天室，回傳離開後的在線人數
// 成員不在聊天室內時不產生任何效果，existed 為 false
func (r *Registry) Leave(roomID, userID string) (onlineCount int, existed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, exists := r.rooms[roomID]
	if !exists {
		return 0, false
	}

	if _, ok := members[userID]; !ok {
		return len(members), false
	}

	delete(members, userID)
	count := len(members)

	// 空的私密聊天室直接刪除，公共聊天室常駐
	if count == 0 && !roomkey.IsPublic(roomID) {
		delete(r.rooms, roomID)
	}

	return count, true
}

// OnlineCount 聊天室當前在線人數
func (r *Registry) OnlineCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// RoomCount 當前存在的聊天室數量（含公共聊天室）
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
