package roomkey

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestDerive_KeySize(t *testing.T) {
	testCases := []string{"", "team7", "你好世界", "a very long secret string with spaces"}

	for _, secret := range testCases {
		key := Derive(secret)
		if len(key) != KeySize {
			t.Errorf("Derive(%q) returned %d bytes, want %d", secret, len(key), KeySize)
		}
	}
}

func TestDerive_Deterministic(t *testing.T) {
	// 相同密語必須推導出相同密鑰
	key1 := Derive("team7")
	key2 := Derive("team7")

	if !bytes.Equal(key1, key2) {
		t.Error("Same secret should derive the same key")
	}
}

func TestDerive_EmptySecretNormalization(t *testing.T) {
	// 空密語等同於公共聊天室密語
	empty := Derive("")
	public := Derive(PublicRoom)

	if !bytes.Equal(empty, public) {
		t.Error("Empty secret should derive the public room key")
	}
}

func TestDerive_DistinctSecrets(t *testing.T) {
	// 不同密語應該得到不同密鑰
	key1 := Derive("team7")
	key2 := Derive("team8")

	if bytes.Equal(key1, key2) {
		t.Error("Distinct secrets should derive distinct keys")
	}
}

func TestDerive_MatchesSHA256Prefix(t *testing.T) {
	// 密鑰必須是 SHA-256 摘要的前 16 bytes（跨端相容性）
	digest := sha256.Sum256([]byte("team7"))
	key := Derive("team7")

	if !bytes.Equal(key, digest[:16]) {
		t.Error("Key should be the first 16 bytes of SHA-256(secret)")
	}
}

func TestRoomID(t *testing.T) {
	// 公共聊天室的 ID 是固定字面值
	if RoomID("") != PublicRoom {
		t.Errorf("RoomID(\"\") = %q, want %q", RoomID(""), PublicRoom)
	}

	// 私密聊天室的 ID 是密鑰的十六進制
	id := RoomID("team7")
	want := hex.EncodeToString(Derive("team7"))
	if id != want {
		t.Errorf("RoomID(\"team7\") = %q, want %q", id, want)
	}

	if len(id) != KeySize*2 {
		t.Errorf("Private room ID should be %d hex chars, got %d", KeySize*2, len(id))
	}
}

func TestIsPublic(t *testing.T) {
	if !IsPublic(PublicRoom) {
		t.Error("PublicRoom should be public")
	}
	if IsPublic(RoomID("team7")) {
		t.Error("Private room ID should not be public")
	}
}
