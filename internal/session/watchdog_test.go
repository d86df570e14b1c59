package session

import (
	"sync/atomic"
	"testing"
	"time"
)

// 測試用短節拍，換算關係和生產配置（1s 節拍、60s 上限）相同
const testTick = 20 * time.Millisecond

func TestWatchdog_FiresExactlyOnce(t *testing.T) {
	var fires int32

	w := NewWatchdog(3, testTick, func() {
		atomic.AddInt32(&fires, 1)
	})
	defer w.Stop()

	// 上限 3 個節拍，等足夠長的時間確認只觸發一次
	time.Sleep(12 * testTick)

	if n := atomic.LoadInt32(&fires); n != 1 {
		t.Errorf("Watchdog fired %d times, want exactly 1", n)
	}
	if !w.Fired() {
		t.Error("Fired() should report true after expiry")
	}
}

func TestWatchdog_DoesNotFireEarly(t *testing.T) {
	var fires int32

	w := NewWatchdog(10, testTick, func() {
		atomic.AddInt32(&fires, 1)
	})
	defer w.Stop()

	// 只過了一半的節拍，不應該觸發
	time.Sleep(5 * testTick)

	if n := atomic.LoadInt32(&fires); n != 0 {
		t.Errorf("Watchdog fired %d times before the ceiling", n)
	}
}

func TestWatchdog_TouchResets(t *testing.T) {
	var fires int32

	w := NewWatchdog(4, testTick, func() {
		atomic.AddInt32(&fires, 1)
	})
	defer w.Stop()

	// 持續活動期間不應該觸發
	for i := 0; i < 8; i++ {
		time.Sleep(2 * testTick)
		w.Touch()
	}

	if n := atomic.LoadInt32(&fires); n != 0 {
		t.Errorf("Watchdog fired %d times despite activity", n)
	}
	if w.Idle() > 1 {
		t.Errorf("Idle() = %d right after Touch, want 0 or 1", w.Idle())
	}

	// 活動停止後才觸發
	time.Sleep(10 * testTick)
	if n := atomic.LoadInt32(&fires); n != 1 {
		t.Errorf("Watchdog fired %d times after activity stopped, want 1", n)
	}
}

func TestWatchdog_StopCancelsWithoutFiring(t *testing.T) {
	var fires int32

	w := NewWatchdog(3, testTick, func() {
		atomic.AddInt32(&fires, 1)
	})

	time.Sleep(testTick)
	w.Stop()
	time.Sleep(8 * testTick)

	if n := atomic.LoadInt32(&fires); n != 0 {
		t.Errorf("Stopped watchdog fired %d times, want 0", n)
	}
	if w.Fired() {
		t.Error("Fired() should be false after Stop")
	}

	// Stop 必須冪等
	w.Stop()
}

func TestWatchdog_TouchAfterExpiryIsIgnored(t *testing.T) {
	var fires int32

	w := NewWatchdog(2, testTick, func() {
		atomic.AddInt32(&fires, 1)
	})
	defer w.Stop()

	time.Sleep(8 * testTick)
	if n := atomic.LoadInt32(&fires); n != 1 {
		t.Fatalf("Watchdog fired %d times, want 1", n)
	}

	// 終止狀態下的活動信號被忽略，不會復活
	w.Touch()
	time.Sleep(8 * testTick)

	if n := atomic.LoadInt32(&fires); n != 1 {
		t.Errorf("Expired watchdog fired again after Touch: %d fires", n)
	}
}
