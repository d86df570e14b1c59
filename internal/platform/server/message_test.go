package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cipher-chat/internal/chatroom"
	"cipher-chat/internal/platform/middleware"
	"cipher-chat/internal/security/audit"
	"cipher-chat/internal/security/encryption"
	"cipher-chat/internal/security/roomkey"
	"cipher-chat/internal/session"
	"cipher-chat/internal/storage/database"
	"cipher-chat/internal/storage/database/history"

	"github.com/gin-gonic/gin"
)

// fakeHistoryRepository 測試用的內存歷史倉儲
type fakeHistoryRepository struct {
	created      []*history.EncryptedMessage
	deletedRooms []string
}

func (f *fakeHistoryRepository) Create(_ context.Context, message *history.EncryptedMessage) error {
	f.created = append(f.created, message)
	return nil
}

func (f *fakeHistoryRepository) ListRecentByRoom(_ context.Context, roomID string, _ int64) ([]*history.EncryptedMessage, error) {
	var out []*history.EncryptedMessage
	for _, msg := range f.created {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (f *fakeHistoryRepository) DeleteByRoom(_ context.Context, roomID string) (int64, error) {
	f.deletedRooms = append(f.deletedRooms, roomID)
	var kept []*history.EncryptedMessage
	deleted := int64(0)
	for _, msg := range f.created {
		if msg.RoomID == roomID {
			deleted++
			continue
		}
		kept = append(kept, msg)
	}
	f.created = kept
	return deleted, nil
}

func newTestAPI(repos *database.Repositories) (*API, *session.Manager) {
	tokens := session.NewTokenManager("test-secret", time.Hour)
	sessions := session.NewManager(tokens, 60, time.Second, nil)

	return NewAPI(
		nil,
		sessions,
		chatroom.NewRegistry(),
		chatroom.NewHub(10),
		encryption.NewMessageEncryption(),
		audit.NewAuditService(false),
		repos,
	), sessions
}

func postJSON(t *testing.T, sess *session.Session, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.SessionKey, sess)
	return c, w
}

func joinTestRoom(t *testing.T, api *API, sessions *session.Manager, nickname, secret string) (*session.Session, <-chan chatroom.Event) {
	t.Helper()

	sess, _, err := sessions.Create()
	if err != nil {
		t.Fatal(err)
	}

	roomID := roomkey.RoomID(secret)
	api.registry.Join(roomID, nickname)
	sess.JoinRoom(nickname, roomID, secret)
	return sess, api.hub.Subscribe(roomID, sess.ID)
}

func TestSendMessage_DeliversToOthersOnly(t *testing.T) {
	api, sessions := newTestAPI(nil)

	sender, senderCh := joinTestRoom(t, api, sessions, "明月", "team7")
	_, otherCh := joinTestRoom(t, api, sessions, "清風", "team7")

	c, w := postJSON(t, sender, `{"content":"hello"}`)
	api.sendMessage(c)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}

	// 其他成員收到密文信封，且能用同一密語解開
	select {
	case ev := <-otherCh:
		if ev.Type != chatroom.EventReceiveMessage || ev.UserID != "明月" {
			t.Errorf("Unexpected event: %+v", ev)
		}
		content, err := api.crypto.DecryptFromRoom(ev.EncryptedMessage, "team7")
		if err != nil {
			t.Fatalf("DecryptFromRoom: %v", err)
		}
		if content != "hello" {
			t.Errorf("Decrypted content = %q, want \"hello\"", content)
		}
	case <-time.After(time.Second):
		t.Fatal("Other member never received the message")
	}

	// 發送者的串流不應該重收自己的訊息，本地回顯走 HTTP 回應
	select {
	case ev := <-senderCh:
		t.Errorf("Sender stream received its own message: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLeaveRoom_PurgesEmptyPrivateRoomHistory(t *testing.T) {
	fake := &fakeHistoryRepository{}
	api, sessions := newTestAPI(&database.Repositories{History: fake})

	sess, _ := joinTestRoom(t, api, sessions, "明月", "team7")
	roomID := roomkey.RoomID("team7")

	c, w := postJSON(t, sess, `{"content":"hello"}`)
	api.sendMessage(c)
	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if len(fake.created) != 1 {
		t.Fatalf("Persisted %d messages, want 1", len(fake.created))
	}

	// 最後一個成員離開後，私有聊天室的加密歷史必須被刪除
	api.detachFromRoom(context.Background(), sess)

	if len(fake.deletedRooms) != 1 || fake.deletedRooms[0] != roomID {
		t.Errorf("DeleteByRoom calls = %v, want [%s]", fake.deletedRooms, roomID)
	}
	if len(fake.created) != 0 {
		t.Errorf("%d messages remain after purge", len(fake.created))
	}
}

func TestLeaveRoom_KeepsPublicRoomHistory(t *testing.T) {
	fake := &fakeHistoryRepository{}
	api, sessions := newTestAPI(&database.Repositories{History: fake})

	// 空密語落在公共聊天室
	sess, _ := joinTestRoom(t, api, sessions, "明月", "")

	api.detachFromRoom(context.Background(), sess)

	if len(fake.deletedRooms) != 0 {
		t.Errorf("Public room history was purged: %v", fake.deletedRooms)
	}
}
