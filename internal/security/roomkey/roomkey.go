package roomkey

import (
	"crypto/sha256"
	"encoding/hex"
)

// KeySize 聊天室密鑰長度 (128 bits)
const KeySize = 16

// PublicRoom 公共聊天室的固定標識
// 未輸入自定義密語的用戶都會落在這個聊天室
const PublicRoom = "public"

// Derive 從自定義密語推導聊天室密鑰
// 算法: SHA-256(密語) 取前 16 bytes 作為 AES-128 密鑰
// 空密語正規化為 PublicRoom，所以所有未設密語的用戶共享同一把公開密鑰
// 純函數：相同輸入永遠得到相同密鑰
func Derive(secret string) []byte {
	if secret == "" {
		secret = PublicRoom
	}

	digest := sha256.Sum256([]byte(secret))

	key := make([]byte, KeySize)
	copy(key, digest[:KeySize])
	return key
}

// RoomID 計算密語對應的聊天室 ID
// 私密聊天室的 ID 是密鑰的十六進制表示，公共聊天室固定為 PublicRoom
// 密語本身不會出現在傳輸層，頻道上只看得到這個 ID
func RoomID(secret string) string {
	if secret == "" {
		return PublicRoom
	}
	return hex.EncodeToString(Derive(secret))
}

// IsPublic 檢查聊天室 ID 是否為公共聊天室
func IsPublic(roomID string) bool {
	return roomID == PublicRoom
}
