package chatroom

import (
	"testing"
	"time"
)

func receiveOrTimeout(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
		return Event{}
	}
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(10)

	ch1 := h.Subscribe("room1", "session1")
	ch2 := h.Subscribe("room1", "session2")
	other := h.Subscribe("room2", "session3")

	h.Broadcast("room1", Event{Type: EventUserStatus, UserID: "明月", Status: StatusOnline, OnlineCount: 2})

	for _, ch := range []<-chan Event{ch1, ch2} {
		ev := receiveOrTimeout(t, ch)
		if ev.Type != EventUserStatus || ev.UserID != "明月" {
			t.Errorf("Unexpected event: %+v", ev)
		}
	}

	// 其他聊天室的訂閱者不應該收到
	select {
	case ev := <-other:
		t.Errorf("Subscriber of another room received event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_BroadcastExcept(t *testing.T) {
	h := NewHub(10)

	sender := h.Subscribe("room1", "sender")
	receiver := h.Subscribe("room1", "receiver")

	h.BroadcastExcept("room1", "sender", Event{Type: EventReceiveMessage, EncryptedMessage: "abc"})

	ev := receiveOrTimeout(t, receiver)
	if ev.EncryptedMessage != "abc" {
		t.Errorf("Receiver got %+v", ev)
	}

	select {
	case ev := <-sender:
		t.Errorf("Sender should not receive its own message: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub(10)

	ch := h.Subscribe("room1", "session1")
	h.Unsubscribe("room1", "session1", ch)

	// 通道被關閉
	if _, ok := <-ch; ok {
		t.Error("Channel should be closed after Unsubscribe")
	}

	if h.SubscriberCount("room1") != 0 {
		t.Errorf("SubscriberCount = %d, want 0", h.SubscriberCount("room1"))
	}

	// 解除不存在的訂閱不應該恐慌
	h.Unsubscribe("room1", "session1", ch)
	h.Unsubscribe("nowhere", "nobody", ch)
}

func TestHub_StaleUnsubscribeKeepsFreshChannel(t *testing.T) {
	h := NewHub(10)

	// 模擬斷線重連：舊連接的延遲解除訂閱在新連接建立之後才執行
	old := h.Subscribe("room1", "session1")
	fresh := h.Subscribe("room1", "session1")
	h.Unsubscribe("room1", "session1", old)

	if h.SubscriberCount("room1") != 1 {
		t.Fatalf("SubscriberCount = %d, want 1", h.SubscriberCount("room1"))
	}

	h.Broadcast("room1", Event{Type: EventReceiveMessage, EncryptedMessage: "abc"})

	ev := receiveOrTimeout(t, fresh)
	if ev.EncryptedMessage != "abc" {
		t.Errorf("Fresh channel got %+v", ev)
	}
}

func TestHub_Evict(t *testing.T) {
	h := NewHub(10)

	ch := h.Subscribe("room1", "session1")
	h.Evict("room1", "session1")

	if _, ok := <-ch; ok {
		t.Error("Channel should be closed after Evict")
	}
	if h.SubscriberCount("room1") != 0 {
		t.Errorf("SubscriberCount = %d, want 0", h.SubscriberCount("room1"))
	}

	// 移除不存在的訂閱不應該恐慌
	h.Evict("room1", "session1")
	h.Evict("nowhere", "nobody")
}

func TestHub_ResubscribeReplacesOldChannel(t *testing.T) {
	h := NewHub(10)

	old := h.Subscribe("room1", "session1")
	fresh := h.Subscribe("room1", "session1")

	if _, ok := <-old; ok {
		t.Error("Old channel should be closed on resubscribe")
	}

	h.Broadcast("room1", Event{Type: EventUserStatus})
	receiveOrTimeout(t, fresh)

	if h.SubscriberCount("room1") != 1 {
		t.Errorf("SubscriberCount = %d, want 1", h.SubscriberCount("room1"))
	}
}

func TestHub_FullBufferDropsEvent(t *testing.T) {
	h := NewHub(1)

	ch := h.Subscribe("room1", "slow")

	// 第二個事件因緩衝已滿被丟棄，Broadcast 不能阻塞
	done := make(chan struct{})
	go func() {
		h.Broadcast("room1", Event{Type: EventUserStatus, OnlineCount: 1})
		h.Broadcast("room1", Event{Type: EventUserStatus, OnlineCount: 2})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked on a slow subscriber")
	}

	ev := receiveOrTimeout(t, ch)
	if ev.OnlineCount != 1 {
		t.Errorf("First buffered event = %+v", ev)
	}
}
