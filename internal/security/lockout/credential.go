package lockout

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// NewCredentialVerifier 創建共享通行密碼的校驗函數
// 優先使用 bcrypt 雜湊（生產環境），未配置雜湊時退回明文
// 常數時間比較（開發環境）
func NewCredentialVerifier(plaintext, bcryptHash string) func(candidate string) bool {
	if bcryptHash != "" {
		return func(candidate string) bool {
			return bcrypt.CompareHashAndPassword([]byte(bcryptHash), []byte(candidate)) == nil
		}
	}

	return func(candidate string) bool {
		return subtle.ConstantTimeCompare([]byte(plaintext), []byte(candidate)) == 1
	}
}

// HashCredential 產生通行密碼的 bcrypt 雜湊，供配置生成使用
func HashCredential(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
