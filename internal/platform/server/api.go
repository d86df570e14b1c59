package server

import (
	"cipher-chat/internal/chatroom"
	"cipher-chat/internal/security/audit"
	"cipher-chat/internal/security/encryption"
	"cipher-chat/internal/security/lockout"
	"cipher-chat/internal/session"
	"cipher-chat/internal/storage/database"
)

// API 聚合所有處理器依賴
type API struct {
	guard    *lockout.Guard
	sessions *session.Manager
	registry *chatroom.Registry
	hub      *chatroom.Hub
	crypto   *encryption.MessageEncryption
	audit    *audit.AuditService
	repos    *database.Repositories // 為 nil 時訊息歷史不持久化
}

// NewAPI 創建 API 處理器集合
func NewAPI(
	guard *lockout.Guard,
	sessions *session.Manager,
	registry *chatroom.Registry,
	hub *chatroom.Hub,
	crypto *encryption.MessageEncryption,
	auditService *audit.AuditService,
	repos *database.Repositories,
) *API {
	return &API{
		guard:    guard,
		sessions: sessions,
		registry: registry,
		hub:      hub,
		crypto:   crypto,
		audit:    auditService,
		repos:    repos,
	}
}
