package history

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// HistoryStore 加密訊息歷史存儲實作.
type HistoryStore struct {
	collection *mongo.Collection
}

// NewHistoryStore 創建新的歷史存儲.
func NewHistoryStore(db *mongo.Database) *HistoryStore {
	return &HistoryStore{
		collection: db.Collection("encrypted_messages"),
	}
}

// Create 保存加密訊息.
func (s *HistoryStore) Create(ctx context.Context, message *EncryptedMessage) error {
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := s.collection.InsertOne(ctx, message)
	return err
}

// ListRecentByRoom 列出聊天室最近的加密訊息（由新到舊排序後反轉為時間順序）.
func (s *HistoryStore) ListRecentByRoom(ctx context.Context, roomID string, limit int64) ([]*EncryptedMessage, error) {
	opts := options.Find()
	opts.SetLimit(limit)
	opts.SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []*EncryptedMessage
	for cursor.Next(ctx) {
		var message EncryptedMessage
		if err := cursor.Decode(&message); err != nil {
			return nil, err
		}
		messages = append(messages, &message)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	// 反轉為時間順序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// DeleteByRoom 刪除聊天室的所有歷史訊息（私有聊天室清空時使用）.
func (s *HistoryStore) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	result, err := s.collection.DeleteMany(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// CreateIndexes 創建查詢索引.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	collection := db.Collection("encrypted_messages")

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "room_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
