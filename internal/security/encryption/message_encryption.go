package encryption

import (
	"context"
	"errors"
	"fmt"

	"cipher-chat/internal/platform/logger"
	"cipher-chat/internal/security/roomkey"
)

// 解密失敗時顯示給用戶的替代文案
// 解密錯誤一律不致命：訊息從對話中丟棄，連線和會話照常繼續
const (
	// NoticeWrongRoom 結構錯誤或填充驗證失敗，多半是密語與當前聊天室不符
	NoticeWrongRoom = "無法解密（可能與當前房間不符）"
	// NoticeVersionSkew 識別碼驗證失敗，密語錯誤或前後端版本不一致
	NoticeVersionSkew = "識別碼驗證失敗，請確認前後端程序版本"
)

// MessageEncryption 訊息加密服務
// 協調密鑰推導和信封編解碼：每次操作重新從密語推導密鑰，不做快取
// 推導是純函數，快取只有在會話中途換密語時才有風險；會話的密語在
// 加入聊天室後不允許變更，但仍選擇每次重導，與既有客戶端行為一致
type MessageEncryption struct{}

// NewMessageEncryption 創建訊息加密服務
func NewMessageEncryption() *MessageEncryption {
	return &MessageEncryption{}
}

// EncryptForRoom 用聊天室密語加密訊息
// 回傳可直接放進傳輸層的信封字串
func (m *MessageEncryption) EncryptForRoom(content, secret string) (string, error) {
	aesCBC, err := NewAESCBCEncryption(roomkey.Derive(secret))
	if err != nil {
		return "", fmt.Errorf("failed to create encryptor: %w", err)
	}

	envelope, err := aesCBC.Encrypt(content)
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}

	return envelope, nil
}

// DecryptFromRoom 用聊天室密語解密信封
// 錯誤屬於 ErrMalformedEnvelope / ErrDecryptionFailed / ErrIntegrityMismatch
// 三類之一；調用方應以 Notice 取得替代文案，不應中斷會話
func (m *MessageEncryption) DecryptFromRoom(envelope, secret string) (string, error) {
	aesCBC, err := NewAESCBCEncryption(roomkey.Derive(secret))
	if err != nil {
		return "", fmt.Errorf("failed to create decryptor: %w", err)
	}

	return aesCBC.Decrypt(envelope)
}

// Notice 將解密錯誤映射為顯示給用戶的文案
// 識別碼缺失和密鑰不匹配給出不同提示，其他錯誤一律當作聊天室不符
func Notice(err error) string {
	if errors.Is(err, ErrIntegrityMismatch) {
		return NoticeVersionSkew
	}
	return NoticeWrongRoom
}

// DecryptOrNotice 解密信封，失敗時回傳替代文案
// 回傳值第二項表示解密是否成功
func (m *MessageEncryption) DecryptOrNotice(ctx context.Context, envelope, secret, roomID string) (string, bool) {
	content, err := m.DecryptFromRoom(envelope, secret)
	if err != nil {
		logger.Warning(ctx, "訊息解密失敗",
			logger.WithRoomID(roomID),
			logger.WithAction("decrypt_message"),
			logger.WithDetails(map[string]interface{}{"error": err.Error()}))
		return Notice(err), false
	}
	return content, true
}
