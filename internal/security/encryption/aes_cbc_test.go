package encryption

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"cipher-chat/internal/security/roomkey"
)

func TestAESCBCEncryption(t *testing.T) {
	enc, err := NewAESCBCEncryption(roomkey.Derive("team7"))
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name      string
		plaintext string
	}{
		{"Simple text", "Hello, World!"},
		{"Empty message", ""},
		{"Unicode", "你好世界！🔐"},
		{"Long text", strings.Repeat("This is a long message. ", 100)},
		{"Special chars", "!@#$%^&*()_+-=[]{}|;':\",./<>?"},
		{"Newlines", "Line 1\nLine 2\nLine 3"},
		{"Block aligned", strings.Repeat("a", 26)}, // 識別碼 6 + 26 = 32，剛好兩塊
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			envelope, err := enc.Encrypt(tc.plaintext)
			if err != nil {
				t.Fatalf("Encryption failed: %v", err)
			}

			// 信封必須是合法 base64
			raw, err := base64.StdEncoding.DecodeString(envelope)
			if err != nil {
				t.Fatalf("Envelope is not valid base64: %v", err)
			}

			// IV(16) + 至少一個密文塊，且對齊塊大小
			if len(raw) < 32 || len(raw)%16 != 0 {
				t.Errorf("Invalid envelope length: %d", len(raw))
			}

			decrypted, err := enc.Decrypt(envelope)
			if err != nil {
				t.Fatalf("Decryption failed: %v", err)
			}

			if decrypted != tc.plaintext {
				t.Errorf("Decryption mismatch.\nWant: %s\nGot: %s", tc.plaintext, decrypted)
			}
		})
	}
}

func TestAESCBCEncryption_InvalidKey(t *testing.T) {
	testCases := []struct {
		name    string
		keySize int
	}{
		{"Empty", 0},
		{"Too short", 8},
		{"Too long 24", 24},
		{"Too long 32", 32},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key := make([]byte, tc.keySize)
			_, err := NewAESCBCEncryption(key)
			if err == nil {
				t.Errorf("Expected error for key size %d, got nil", tc.keySize)
			}
		})
	}
}

func TestAESCBCEncryption_WrongKey(t *testing.T) {
	enc1, _ := NewAESCBCEncryption(roomkey.Derive("team7"))
	enc2, _ := NewAESCBCEncryption(roomkey.Derive("team8"))

	plaintext := "Secret message"

	// 用 team7 的密鑰加密，team8 的密鑰解密
	for i := 0; i < 50; i++ {
		envelope, err := enc1.Encrypt(plaintext)
		if err != nil {
			t.Fatal(err)
		}

		decrypted, err := enc2.Decrypt(envelope)
		if err == nil {
			// 錯誤密鑰絕不能還原出原文
			if decrypted == plaintext {
				t.Fatal("Wrong key must never decrypt to the original plaintext")
			}
			t.Fatal("Wrong key should fail padding, UTF-8 or identifier validation")
		}

		// 錯誤必須落在分類裡
		if !errors.Is(err, ErrDecryptionFailed) && !errors.Is(err, ErrIntegrityMismatch) {
			t.Fatalf("Unexpected error class: %v", err)
		}
	}
}

func TestAESCBCEncryption_MalformedEnvelope(t *testing.T) {
	enc, _ := NewAESCBCEncryption(roomkey.Derive("team7"))

	testCases := []struct {
		name     string
		envelope string
	}{
		{"Invalid base64", "not base64 !!!"},
		{"Empty", ""},
		{"Too short", base64.StdEncoding.EncodeToString(make([]byte, 16))},         // 只有 IV
		{"Not block aligned", base64.StdEncoding.EncodeToString(make([]byte, 40))}, // 16 + 24
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := enc.Decrypt(tc.envelope)
			if !errors.Is(err, ErrMalformedEnvelope) {
				t.Errorf("Expected ErrMalformedEnvelope, got %v", err)
			}
		})
	}
}

func TestAESCBCEncryption_FreshIV(t *testing.T) {
	enc, _ := NewAESCBCEncryption(roomkey.Derive("team7"))

	plaintext := "Same message"

	envelope1, _ := enc.Encrypt(plaintext)
	envelope2, _ := enc.Encrypt(plaintext)

	// 同一密鑰同一明文，IV 不同所以信封不同
	if envelope1 == envelope2 {
		t.Error("Same plaintext should produce different envelopes (fresh IVs)")
	}

	decrypted1, _ := enc.Decrypt(envelope1)
	decrypted2, _ := enc.Decrypt(envelope2)

	if decrypted1 != plaintext || decrypted2 != plaintext {
		t.Error("Both envelopes should decrypt to the same plaintext")
	}
}

func TestAESCBCEncryption_EnvelopeSize(t *testing.T) {
	// secret = "team7", plaintext = "hello":
	// 識別碼 6 + 5 = 11 bytes，填充到一塊 16 bytes
	// IV(16) + ciphertext(16) = 32 bytes → base64 44 字符
	enc, _ := NewAESCBCEncryption(roomkey.Derive("team7"))

	envelope, err := enc.Encrypt("hello")
	if err != nil {
		t.Fatal(err)
	}

	if len(strings.TrimRight(envelope, "=")) != 43 || len(envelope) != 44 {
		t.Errorf("Envelope for \"hello\" should be 44 base64 chars, got %d", len(envelope))
	}

	decrypted, err := enc.Decrypt(envelope)
	if err != nil {
		t.Fatal(err)
	}
	if decrypted != "hello" {
		t.Errorf("Decrypted = %q, want \"hello\"", decrypted)
	}
}

func TestPKCS7Padding(t *testing.T) {
	testCases := []struct {
		name    string
		dataLen int
		padLen  int
	}{
		{"Empty", 0, 16},
		{"One byte", 1, 15},
		{"Almost full", 15, 1},
		{"Exactly one block", 16, 16}, // 對齊時補滿一整塊
		{"One block and one byte", 17, 15},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			data := make([]byte, tc.dataLen)
			rand.Read(data)

			padded := pkcs7Pad(data, 16)
			if len(padded) != tc.dataLen+tc.padLen {
				t.Errorf("Padded length = %d, want %d", len(padded), tc.dataLen+tc.padLen)
			}
			if len(padded)%16 != 0 {
				t.Errorf("Padded length %d not block aligned", len(padded))
			}

			unpadded, err := pkcs7Unpad(padded, 16)
			if err != nil {
				t.Fatalf("Unpad failed: %v", err)
			}
			if len(unpadded) != tc.dataLen {
				t.Errorf("Unpadded length = %d, want %d", len(unpadded), tc.dataLen)
			}
		})
	}
}

func TestPKCS7Unpad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"Empty", []byte{}},
		{"Not aligned", make([]byte, 15)},
		{"Zero padding value", append(make([]byte, 15), 0)},
		{"Padding value too large", append(make([]byte, 15), 17)},
		{"Inconsistent padding", append([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 3}, 2)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := pkcs7Unpad(tc.data, 16); err == nil {
				t.Error("Expected unpad error, got nil")
			}
		})
	}
}

func BenchmarkAESCBCEncryption_Encrypt(b *testing.B) {
	enc, _ := NewAESCBCEncryption(roomkey.Derive("team7"))

	plaintext := "This is a benchmark test message"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = enc.Encrypt(plaintext)
	}
}

func BenchmarkAESCBCEncryption_Decrypt(b *testing.B) {
	enc, _ := NewAESCBCEncryption(roomkey.Derive("team7"))

	plaintext := "This is a benchmark test message"
	envelope, _ := enc.Encrypt(plaintext)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = enc.Decrypt(envelope)
	}
}
