package lockout

import (
	"sync"
	"time"
)

// 登入限制默認配置，與既有部署一致
const (
	// DefaultMaxAttempts 最大錯誤嘗試次數
	DefaultMaxAttempts = 5
	// DefaultLockDuration 鎖定時長
	DefaultLockDuration = 600 * time.Second
	// DefaultWindowDuration 統計錯誤次數的時間窗口
	DefaultWindowDuration = 600 * time.Second
)

// Config 登入限制配置
type Config struct {
	MaxAttempts    int           // 觸發鎖定的錯誤次數閾值
	LockDuration   time.Duration // 鎖定時長
	WindowDuration time.Duration // 錯誤計數的滾動時間窗口
}

// DefaultConfig 默認登入限制配置
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    DefaultMaxAttempts,
		LockDuration:   DefaultLockDuration,
		WindowDuration: DefaultWindowDuration,
	}
}

// Status 鎖定狀態查詢結果
type Status struct {
	Locked            bool `json:"locked"`
	RemainingAttempts int  `json:"remaining_attempts"`
	RemainingTime     int  `json:"remaining_time"` // 剩餘鎖定秒數
}

// Result 一次登入嘗試的結果
type Result struct {
	Success           bool `json:"success"`
	Locked            bool `json:"locked"`
	RemainingAttempts int  `json:"remaining_attempts"`
	RemainingTime     int  `json:"remaining_time"`
}

// record 單一客戶端的嘗試記錄
type record struct {
	attempts     int
	firstAttempt time.Time
	lockedUntil  time.Time // 零值表示未鎖定
	lastSeen     time.Time
}

// Guard 登入嘗試鎖定器
// 以客戶端 IP 為單位追蹤錯誤嘗試：連續錯誤達到閾值後進入鎖定，
// 鎖定期滿自動解鎖並歸零計數；窗口外的舊錯誤不再計入
// 所有狀態轉移在單一互斥鎖下完成，並發嘗試不會重複計數越過閾值
type Guard struct {
	mu      sync.Mutex
	cfg     Config
	records map[string]*record
	verify  func(candidate string) bool
	now     func() time.Time // 測試時可替換
}

// NewGuard 創建登入嘗試鎖定器
// verify 負責校驗憑證本身（見 NewCredentialVerifier）
func NewGuard(cfg Config, verify func(candidate string) bool) *Guard {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.LockDuration <= 0 {
		cfg.LockDuration = DefaultLockDuration
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = DefaultWindowDuration
	}

	g := &Guard{
		cfg:     cfg,
		records: make(map[string]*record),
		verify:  verify,
		now:     time.Now,
	}

	// 定期清理不活躍的記錄
	go g.cleanupRecords()

	return g
}

// CheckStatus 查詢客戶端當前的鎖定狀態
// 純查詢，唯一的變更是鎖定期滿時的自動解鎖
func (g *Guard) CheckStatus(clientIP string) Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.statusLocked(clientIP, g.now())
}

// Attempt 提交一次登入嘗試
// 鎖定中的客戶端直接拒絕，不消耗嘗試次數；
// 憑證正確時歸零計數，錯誤時計數加一並在達到閾值時進入鎖定
func (g *Guard) Attempt(clientIP, candidate string) Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	status := g.statusLocked(clientIP, now)
	if status.Locked {
		return Result{
			Success:           false,
			Locked:            true,
			RemainingAttempts: 0,
			RemainingTime:     status.RemainingTime,
		}
	}

	if g.verify(candidate) {
		g.resetLocked(clientIP, now)
		return Result{
			Success:           true,
			RemainingAttempts: g.cfg.MaxAttempts,
		}
	}

	g.recordFailureLocked(clientIP, now)

	after := g.statusLocked(clientIP, now)
	return Result{
		Success:           false,
		Locked:            after.Locked,
		RemainingAttempts: after.RemainingAttempts,
		RemainingTime:     after.RemainingTime,
	}
}

// statusLocked 計算鎖定狀態，調用方必須持有 g.mu
func (g *Guard) statusLocked(clientIP string, now time.Time) Status {
	rec, exists := g.records[clientIP]
	if !exists {
		return Status{Locked: false, RemainingAttempts: g.cfg.MaxAttempts}
	}

	rec.lastSeen = now

	// 鎖定中
	if !rec.lockedUntil.IsZero() && now.Before(rec.lockedUntil) {
		remaining := int(rec.lockedUntil.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		return Status{Locked: true, RemainingAttempts: 0, RemainingTime: remaining}
	}

	// 鎖定期滿，自動解鎖並歸零
	if !rec.lockedUntil.IsZero() && !now.Before(rec.lockedUntil) {
		rec.attempts = 0
		rec.firstAttempt = now
		rec.lockedUntil = time.Time{}
		return Status{Locked: false, RemainingAttempts: g.cfg.MaxAttempts}
	}

	// 窗口外的舊錯誤不再計入
	if now.Sub(rec.firstAttempt) > g.cfg.WindowDuration {
		rec.attempts = 0
		rec.firstAttempt = now
		return Status{Locked: false, RemainingAttempts: g.cfg.MaxAttempts}
	}

	remaining := g.cfg.MaxAttempts - rec.attempts
	if remaining < 0 {
		remaining = 0
	}
	return Status{Locked: false, RemainingAttempts: remaining}
}

// recordFailureLocked 記錄一次錯誤嘗試，調用方必須持有 g.mu
func (g *Guard) recordFailureLocked(clientIP string, now time.Time) {
	rec, exists := g.records[clientIP]
	if !exists {
		g.records[clientIP] = &record{
			attempts:     1,
			firstAttempt: now,
			lastSeen:     now,
		}
		return
	}

	// 鎖定中不再累計
	if !rec.lockedUntil.IsZero() && now.Before(rec.lockedUntil) {
		return
	}

	if now.Sub(rec.firstAttempt) > g.cfg.WindowDuration {
		rec.attempts = 0
		rec.firstAttempt = now
	}

	rec.attempts++
	rec.lastSeen = now

	if rec.attempts >= g.cfg.MaxAttempts {
		rec.lockedUntil = now.Add(g.cfg.LockDuration)
	}
}

// resetLocked 登入成功後歸零計數，調用方必須持有 g.mu
func (g *Guard) resetLocked(clientIP string, now time.Time) {
	g.records[clientIP] = &record{
		firstAttempt: now,
		lastSeen:     now,
	}
}

// cleanupRecords 定期清理過期的嘗試記錄
func (g *Guard) cleanupRecords() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		g.mu.Lock()
		now := g.now()

		// 超過窗口加鎖定時長沒有活動的記錄已無意義
		expiry := g.cfg.WindowDuration + g.cfg.LockDuration
		for ip, rec := range g.records {
			if now.Sub(rec.lastSeen) > expiry {
				delete(g.records, ip)
			}
		}

		g.mu.Unlock()
	}
}
