package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// 解碼錯誤分類
// 三類錯誤對應三種不同的用戶提示，見 MessageEncryption
var (
	// ErrMalformedEnvelope 信封結構不合法（base64 錯誤、長度不足或未對齊塊大小）
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrDecryptionFailed 填充驗證失敗，通常表示密鑰（聊天室密語）不匹配
	ErrDecryptionFailed = errors.New("decryption failed")
	// ErrIntegrityMismatch 填充合法但識別碼缺失，表示密語錯誤或前後端版本不一致
	ErrIntegrityMismatch = errors.New("identifier mismatch")
)

// identifier 加密前綴識別碼
// 附加在明文最前面，解密後用來做輕量的完整性/版本檢查
// 注意：這不是 MAC，擋不住主動偽造，只能偵測密鑰不匹配和版本偏差
const identifier = "QsSama"

// AESCBCEncryption AES-128-CBC 加密實現
// CBC 模式特點：
// - 塊密碼，需要 PKCS#7 填充
// - 每條訊息使用新的隨機 IV
// - 信封格式: base64(IV + ciphertext)，無分隔符，長度由固定 IV 和塊對齊隱含
type AESCBCEncryption struct {
	key []byte // 128-bit (16 bytes) key
}

// NewAESCBCEncryption 創建 AES-128-CBC 加密實例
func NewAESCBCEncryption(key []byte) (*AESCBCEncryption, error) {
	// 驗證密鑰長度必須是 16 bytes (128 bits)
	if len(key) != 16 {
		return nil, fmt.Errorf("key must be 16 bytes (128 bits), got %d bytes", len(key))
	}

	// 防禦性複製密鑰
	keyCopy := make([]byte, len(key))
	copy(keyCopy, key)

	return &AESCBCEncryption{
		key: keyCopy,
	}, nil
}

// Encrypt 加密訊息
// 格式: base64(IV + ciphertext)
// 每次調用生成新的隨機 IV，同一密鑰下不會重用
func (e *AESCBCEncryption) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	// 附加識別碼後做 PKCS#7 填充
	padded := pkcs7Pad([]byte(identifier+plaintext), aes.BlockSize)

	// 生成隨機 IV
	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	// CBC 加密
	ciphertext := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, padded)

	// 將 IV 和密文組合（IV 在前）
	result := make([]byte, aes.BlockSize+len(ciphertext))
	copy(result[:aes.BlockSize], iv)
	copy(result[aes.BlockSize:], ciphertext)

	return base64.StdEncoding.EncodeToString(result), nil
}

// Decrypt 解密信封
// 失敗時回傳的錯誤必屬於 ErrMalformedEnvelope / ErrDecryptionFailed /
// ErrIntegrityMismatch 三類之一，可用 errors.Is 判斷
func (e *AESCBCEncryption) Decrypt(envelope string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64: %v", ErrMalformedEnvelope, err)
	}

	// 至少要有 IV 加一個密文塊，且對齊塊大小
	if len(data) < 2*aes.BlockSize {
		return "", fmt.Errorf("%w: need at least %d bytes, got %d", ErrMalformedEnvelope, 2*aes.BlockSize, len(data))
	}
	if len(data)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: length %d not block aligned", ErrMalformedEnvelope, len(data))
	}

	block, err := aes.NewCipher(e.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	// 提取 IV 和密文
	iv := data[:aes.BlockSize]
	ciphertext := data[aes.BlockSize:]

	// CBC 解密
	padded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(padded, ciphertext)

	// 填充驗證失敗是密語不匹配的強信號
	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	// 錯誤密鑰偶爾也能解出合法填充，這時內容會是亂碼
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: recovered bytes are not valid UTF-8", ErrDecryptionFailed)
	}

	// 識別碼檢查：填充合法但識別碼缺失表示密語錯誤或版本偏差
	message := string(plaintext)
	if !strings.HasPrefix(message, identifier) {
		return "", fmt.Errorf("%w: identifier prefix missing", ErrIntegrityMismatch)
	}

	return message[len(identifier):], nil
}

// pkcs7Pad PKCS#7 填充
// 填充值等於填充長度，明文已對齊時仍補滿一整塊
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad 移除並驗證 PKCS#7 填充
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}

	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("invalid padding value %d", padLen)
	}

	// 每個填充字節都必須等於填充長度
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("inconsistent padding bytes")
		}
	}

	return data[:len(data)-padLen], nil
}
