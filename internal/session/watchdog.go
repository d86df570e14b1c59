package session

import (
	"sync"
	"time"
)

// 閒置看門狗默認配置，與既有客戶端一致
const (
	// DefaultIdleCeiling 閒置秒數上限
	DefaultIdleCeiling = 60
	// DefaultTickInterval 計時節拍
	DefaultTickInterval = time.Second
)

// Watchdog 閒置會話看門狗
// 每個節拍累加閒置秒數，達到上限時觸發一次強制登出回調，之後
// 停止計時（終止狀態，新會話必須創建新的看門狗）
// 看門狗自己不終止會話，終止動作委派給回調裡的會話層
type Watchdog struct {
	mu       sync.Mutex
	interval time.Duration
	ceiling  int
	elapsed  int
	ticker   *time.Ticker
	stopChan chan struct{}
	stopped  bool
	fired    bool
	onExpire func()
}

// NewWatchdog 創建並啟動閒置看門狗
// onExpire 在達到上限時被調用，且只會被調用一次
func NewWatchdog(ceiling int, interval time.Duration, onExpire func()) *Watchdog {
	if ceiling <= 0 {
		ceiling = DefaultIdleCeiling
	}
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	w := &Watchdog{
		interval: interval,
		ceiling:  ceiling,
		ticker:   time.NewTicker(interval),
		stopChan: make(chan struct{}),
		onExpire: onExpire,
	}

	go w.run()

	return w
}

// run 計時循環
func (w *Watchdog) run() {
	for {
		select {
		case <-w.ticker.C:
			w.mu.Lock()
			if w.stopped {
				w.mu.Unlock()
				return
			}

			w.elapsed++
			if w.elapsed < w.ceiling {
				w.mu.Unlock()
				continue
			}

			// 達到上限：進入終止狀態，回調只觸發這一次
			w.stopped = true
			w.fired = true
			w.ticker.Stop()
			callback := w.onExpire
			w.mu.Unlock()

			if callback != nil {
				callback()
			}
			return

		case <-w.stopChan:
			return
		}
	}
}

// Touch 記錄一次活動，閒置計數歸零並重新開始計時
// 已終止的看門狗忽略活動信號
func (w *Watchdog) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	w.elapsed = 0
	w.ticker.Reset(w.interval)
}

// Stop 取消看門狗，不觸發回調
// 會話正常結束時必須調用，避免對已失效的會話發出終止信號
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	w.stopped = true
	w.ticker.Stop()
	close(w.stopChan)
}

// Idle 當前已閒置的節拍數，供倒計時顯示使用
func (w *Watchdog) Idle() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elapsed
}

// Fired 看門狗是否已觸發過期回調
func (w *Watchdog) Fired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}
