package database

import (
	"context"

	"cipher-chat/internal/platform/logger"
	"cipher-chat/internal/storage/database/history"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Repositories 倉儲集合.
type Repositories struct {
	History history.HistoryRepository
}

// NewRepositories 創建倉儲集合.
// MongoDB 未啟用時回傳 nil，呼叫端以 nil 檢查決定是否持久化
func NewRepositories() *Repositories {
	db := mongoDB
	if db == nil {
		return nil
	}

	// 創建索引以優化查詢性能
	ctx := context.Background()
	if err := history.CreateIndexes(ctx, db); err != nil {
		// 記錄錯誤但不中斷服務啟動
		logger.Warningf(ctx, "創建索引失敗: %v", err)
	}

	return &Repositories{
		History: history.NewHistoryStore(db),
	}
}

// 全局變數，用於存儲 MongoDB 連接
var mongoDB *mongo.Database

// SetMongoDB 設置 MongoDB 連接.
func SetMongoDB(db *mongo.Database) {
	mongoDB = db
}
