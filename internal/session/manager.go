package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cipher-chat/internal/platform/logger"

	"github.com/google/uuid"
)

// 會話結束原因
const (
	EndReasonLogout      = "logout"
	EndReasonIdleTimeout = "idle_timeout"
)

// Session 一個已登入的會話
// 會話持有自己的閒置看門狗和當前聊天室狀態；聊天室密語在加入後
// 不允許變更，換聊天室必須先離開再重新加入
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.RWMutex
	userID   string // 聊天室內的臨時暱稱，加入後才有值
	roomID   string
	secret   string
	watchdog *Watchdog
}

// JoinRoom 記錄會話當前加入的聊天室
func (s *Session) JoinRoom(userID, roomID, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.roomID = roomID
	s.secret = secret
}

// LeaveRoom 清除會話的聊天室狀態
func (s *Session) LeaveRoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = ""
	s.roomID = ""
	s.secret = ""
}

// Room 當前聊天室狀態；尚未加入任何聊天室時 ok 為 false
func (s *Session) Room() (userID, roomID, secret string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.roomID, s.secret, s.roomID != ""
}

// Touch 記錄一次用戶活動
func (s *Session) Touch() {
	s.watchdog.Touch()
}

// IdleSeconds 當前閒置秒數
func (s *Session) IdleSeconds() int {
	return s.watchdog.Idle()
}

// Manager 會話管理器
// 簽發 token、追蹤活躍會話、為每個會話掛上閒置看門狗
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	tokens       *TokenManager
	idleCeiling  int
	tickInterval time.Duration
	onEnd        func(s *Session, reason string)
}

// NewManager 創建會話管理器
// onEnd 在會話結束（登出或閒置逾時）時被調用，用於通知外部協作者；
// 此時會話已從管理器移除，但其聊天室狀態仍可讀取
func NewManager(tokens *TokenManager, idleCeiling int, tickInterval time.Duration, onEnd func(s *Session, reason string)) *Manager {
	if idleCeiling <= 0 {
		idleCeiling = DefaultIdleCeiling
	}
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}

	return &Manager{
		sessions:     make(map[string]*Session),
		tokens:       tokens,
		idleCeiling:  idleCeiling,
		tickInterval: tickInterval,
		onEnd:        onEnd,
	}
}

// Create 登入成功後創建新會話，回傳會話和它的 token
func (m *Manager) Create() (*Session, string, error) {
	id := uuid.New().String()

	token, err := m.tokens.Generate(id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	s := &Session{
		ID:        id,
		CreatedAt: time.Now(),
	}
	// 看門狗過期時由管理器出面終止會話
	s.watchdog = NewWatchdog(m.idleCeiling, m.tickInterval, func() {
		m.expire(id)
	})

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info(context.Background(), "會話已創建",
		logger.WithSessionID(id),
		logger.WithAction("create_session"))

	return s, token, nil
}

// Get 根據 ID 取得活躍會話
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Resolve 校驗 token 並取得對應的活躍會話
func (m *Manager) Resolve(token string) (*Session, error) {
	id, err := m.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	s, ok := m.Get(id)
	if !ok {
		// token 合法但會話已結束（登出或閒置逾時）
		return nil, fmt.Errorf("session %s no longer active", id)
	}

	return s, nil
}

// End 主動結束會話（登出）
// 冪等：重複結束同一會話不產生任何效果
func (m *Manager) End(id string) {
	m.remove(id, EndReasonLogout)
}

// expire 看門狗過期後的強制終止
func (m *Manager) expire(id string) {
	logger.Warning(context.Background(), "會話因閒置逾時被強制終止",
		logger.WithSessionID(id),
		logger.WithAction("idle_timeout"))
	m.remove(id, EndReasonIdleTimeout)
}

// SetOnEnd 設定會話結束回調
// 回調依賴會話管理器本身時，用此方法在管理器創建後補上
func (m *Manager) SetOnEnd(onEnd func(s *Session, reason string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEnd = onEnd
}

// remove 移除會話並通知外部
func (m *Manager) remove(id, reason string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	// 回調可能在看門狗 goroutine 上被讀取，必須在鎖內取出
	onEnd := m.onEnd
	m.mu.Unlock()

	if !ok {
		return
	}

	// 正常登出時必須取消看門狗，避免對已失效的會話再發終止信號
	s.watchdog.Stop()

	if onEnd != nil {
		onEnd(s, reason)
	}
}

// Count 當前活躍會話數
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
