package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles login attempts per client IP and login name. It
// complements the per-account lockout in Service, which cannot stop one
// client from probing many accounts.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptWindow
	max      int
	window   time.Duration
	lockout  time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

type attemptWindow struct {
	count       int
	started     time.Time
	lockedUntil time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine.
// Zero values fall back to 5 attempts per 15 minutes with a 30 minute lockout.
func NewRateLimiter(maxAttempts int, window, lockout time.Duration) *RateLimiter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if lockout <= 0 {
		lockout = 30 * time.Minute
	}

	rl := &RateLimiter{
		attempts: make(map[string]*attemptWindow),
		max:      maxAttempts,
		window:   window,
		lockout:  lockout,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop(window)
	return rl
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func limiterKey(ip, login string) string {
	return ip + "|" + login
}

// Allow reports whether another attempt may be made and, if not, how long to wait.
func (rl *RateLimiter) Allow(ip, login string) (bool, time.Duration) {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.attempts[limiterKey(ip, login)]
	if !ok {
		return true, 0
	}
	if now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.started) > rl.window || record.count < rl.max {
		return true, 0
	}
	return false, rl.lockout
}

// RecordFailure counts a failed attempt and reports whether it triggered a lockout.
func (rl *RateLimiter) RecordFailure(ip, login string) bool {
	key := limiterKey(ip, login)
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.attempts[key]
	if !ok || now.Sub(record.started) > rl.window {
		record = &attemptWindow{started: now}
		rl.attempts[key] = record
	}
	record.count++
	if record.count >= rl.max {
		record.lockedUntil = now.Add(rl.lockout)
		return true
	}
	return false
}

// RecordSuccess forgets previous failures.
func (rl *RateLimiter) RecordSuccess(ip, login string) {
	rl.mu.Lock()
	delete(rl.attempts, limiterKey(ip, login))
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup(time.Now())
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, record := range rl.attempts {
		if now.Sub(record.started) > rl.window && now.After(record.lockedUntil) {
			delete(rl.attempts, key)
		}
	}
}
