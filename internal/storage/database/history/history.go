package history

import (
	"context"
	"time"
)

// HistoryRepository 加密訊息歷史倉儲接口.
type HistoryRepository interface {
	Create(ctx context.Context, message *EncryptedMessage) error
	ListRecentByRoom(ctx context.Context, roomID string, limit int64) ([]*EncryptedMessage, error)
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
}

// EncryptedMessage 加密訊息數據模型.
// Envelope 為密文信封（base64），服務端不保存明文
type EncryptedMessage struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	RoomID    string    `bson:"room_id" json:"room_id"`
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Envelope  string    `bson:"envelope" json:"envelope"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
