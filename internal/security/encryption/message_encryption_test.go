package encryption

import (
	"context"
	"testing"
)

func TestMessageEncryption_RoomRoundTrip(t *testing.T) {
	m := NewMessageEncryption()

	envelope, err := m.EncryptForRoom("晚上八點老地方", "team7")
	if err != nil {
		t.Fatal(err)
	}

	content, err := m.DecryptFromRoom(envelope, "team7")
	if err != nil {
		t.Fatal(err)
	}
	if content != "晚上八點老地方" {
		t.Errorf("DecryptFromRoom = %q", content)
	}
}

// 不同密語的成員看到的是替代文案，不是錯誤
func TestMessageEncryption_WrongSecretYieldsNotice(t *testing.T) {
	m := NewMessageEncryption()
	ctx := context.Background()

	envelope, err := m.EncryptForRoom("secret meeting", "team7")
	if err != nil {
		t.Fatal(err)
	}

	content, ok := m.DecryptOrNotice(ctx, envelope, "team8", "someroom")
	if ok {
		t.Fatal("Decryption with the wrong secret should not succeed")
	}
	if content != NoticeWrongRoom && content != NoticeVersionSkew {
		t.Errorf("Notice = %q, want one of the two replacement texts", content)
	}
}

func TestMessageEncryption_EmptySecretIsPublicRoom(t *testing.T) {
	m := NewMessageEncryption()

	// 空密語與字面值 public 推導出同一把密鑰
	envelope, err := m.EncryptForRoom("hello", "")
	if err != nil {
		t.Fatal(err)
	}

	content, err := m.DecryptFromRoom(envelope, "public")
	if err != nil {
		t.Fatal(err)
	}
	if content != "hello" {
		t.Errorf("DecryptFromRoom = %q, want \"hello\"", content)
	}
}

func TestNotice_Mapping(t *testing.T) {
	if got := Notice(ErrIntegrityMismatch); got != NoticeVersionSkew {
		t.Errorf("Notice(ErrIntegrityMismatch) = %q, want %q", got, NoticeVersionSkew)
	}
	if got := Notice(ErrMalformedEnvelope); got != NoticeWrongRoom {
		t.Errorf("Notice(ErrMalformedEnvelope) = %q, want %q", got, NoticeWrongRoom)
	}
	if got := Notice(ErrDecryptionFailed); got != NoticeWrongRoom {
		t.Errorf("Notice(ErrDecryptionFailed) = %q, want %q", got, NoticeWrongRoom)
	}
}
