package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cipher-chat/internal/chatroom"
	"cipher-chat/internal/constants"
	"cipher-chat/internal/platform/config"
	"cipher-chat/internal/platform/driver"
	"cipher-chat/internal/platform/logger"
	"cipher-chat/internal/platform/server"
	"cipher-chat/internal/security/audit"
	"cipher-chat/internal/security/encryption"
	"cipher-chat/internal/security/lockout"
	"cipher-chat/internal/session"
	"cipher-chat/internal/storage/database"
)

func main() {
	if err := mainNoExit(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// mainNoExit 分離主要邏輯以避免 exitAfterDefer 問題，確保 defer 函數正常執行.
func mainNoExit() error {
	// 初始化日誌.
	if err := logger.InitLogger(); err != nil {
		return err
	}
	defer logger.CloseLogger()

	ctx := context.Background()

	// 載入配置.
	if err := config.Load(); err != nil {
		return err
	}
	cfg := config.Get()
	logger.Infof(ctx, "設定載入成功，環境: %s", config.GetEnv())

	// 連接資料庫（訊息歷史存儲為可選）.
	if err := driver.ConnectMongo(); err != nil {
		return err
	}
	defer func() {
		if err := driver.CloseMongo(); err != nil {
			logger.Errorf(ctx, "關閉 MongoDB 連接失敗: %v", err)
		}
	}()

	// 設置 MongoDB 連接到 database 包
	database.SetMongoDB(driver.GetMongoDatabase())

	// 初始化 Repository（MongoDB 未啟用時為 nil，訊息不持久化）.
	repos := database.NewRepositories()

	// 登入限制
	guard := lockout.NewGuard(lockoutConfig(cfg), lockout.NewCredentialVerifier(
		cfg.Security.Authentication.Password,
		cfg.Security.Authentication.PasswordHash,
	))

	// 會話管理
	tokenTTL := time.Duration(cfg.Security.Authentication.TokenTTLMinutes) * time.Minute
	tokens := session.NewTokenManager(cfg.Security.Authentication.JWTSecret, tokenTTL)

	sessions := session.NewManager(tokens, cfg.Session.IdleTimeoutSeconds, time.Second, nil)

	// 聊天室狀態與事件分發
	registry := chatroom.NewRegistry()

	buffer := constants.MessageChannelBuffer
	if cfg.Limits.Message.ChannelBuffer > 0 {
		buffer = cfg.Limits.Message.ChannelBuffer
	}
	hub := chatroom.NewHub(buffer)

	crypto := encryption.NewMessageEncryption()
	auditService := audit.NewAuditService(cfg.Security.Audit.Enabled)

	api := server.NewAPI(guard, sessions, registry, hub, crypto, auditService, repos)

	// 結束回調依賴 API，待其創建完成後再註冊，避免看門狗 goroutine 讀到未初始化的變量
	sessions.SetOnEnd(func(s *session.Session, reason string) {
		api.DetachSession(context.Background(), s, reason)
	})

	logger.Infof(ctx, "正在啟動 %s 伺服器...", cfg.App.Name)

	// 啟動 HTTP 伺服器（阻塞直到收到關閉信號）
	return server.Start(api)
}

// lockoutConfig 把配置轉為登入限制參數，未配置的項目用默認值
func lockoutConfig(cfg *config.Config) lockout.Config {
	out := lockout.DefaultConfig()

	if cfg.Security.Lockout.MaxAttempts > 0 {
		out.MaxAttempts = cfg.Security.Lockout.MaxAttempts
	}
	if cfg.Security.Lockout.LockDurationSeconds > 0 {
		out.LockDuration = time.Duration(cfg.Security.Lockout.LockDurationSeconds) * time.Second
	}
	if cfg.Security.Lockout.WindowDurationSeconds > 0 {
		out.WindowDuration = time.Duration(cfg.Security.Lockout.WindowDurationSeconds) * time.Second
	}

	return out
}
