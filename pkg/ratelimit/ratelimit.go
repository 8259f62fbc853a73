// Package ratelimit, anahtar bazlı (token subject) fixed-window rate limiting sağlar.
//
// Kanal mutation'ları upstream REST API'ye bot token'ı ile iletilir; tek bir
// API kullanıcısının bot'un upstream kotasını tüketmesini bu limiter önler.
//
// Davranış:
//   - window içinde max istek → izin verilir
//   - max+1. istekte cooldown başlar, cooldown boyunca tüm istekler reddedilir
//   - cooldown bitince pencere sıfırlanır
package ratelimit

import (
	"sync"
	"time"
)

// bucket, bir anahtar için sayaç ve cooldown bilgisi tutar.
type bucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time // zero value = cooldown yok
}

// Limiter, anahtar bazlı rate limiter.
//
// Kullanım:
//
//	limiter := ratelimit.New(10, 10*time.Second, 30*time.Second)
//	defer limiter.Close()
//	if !limiter.Allow(subject) { return 429 }
type Limiter struct {
	mu          sync.Mutex
	buckets     map[string]*bucket
	max         int
	window      time.Duration
	cooldown    time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// New, yeni bir limiter oluşturur ve arka plan temizleme goroutine'ini başlatır.
// max ≤ 0 ise nil döner; nil Limiter her isteğe izin verir.
func New(max int, window, cooldown time.Duration) *Limiter {
	if max <= 0 {
		return nil
	}

	l := &Limiter{
		buckets:     make(map[string]*bucket),
		max:         max,
		window:      window,
		cooldown:    cooldown,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	go l.cleanupLoop(window + cooldown)

	return l
}

// Allow, anahtarın bir istek daha yapıp yapamayacağını döner ve isteği sayar.
func (l *Limiter) Allow(key string) bool {
	if l == nil {
		return true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		l.buckets[key] = &bucket{count: 1, windowStart: now}
		return true
	}

	if !b.cooldownUntil.IsZero() {
		if now.Before(b.cooldownUntil) {
			return false
		}
		// Cooldown bitti, yeni pencere
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	if now.Sub(b.windowStart) > l.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	if b.count > l.max {
		b.cooldownUntil = now.Add(l.cooldown)
		return false
	}
	return true
}

// RetryAfter, kalan cooldown süresini saniye cinsinden döner (Retry-After header'ı).
// Cooldown yoksa 0.
func (l *Limiter) RetryAfter(key string) int {
	if l == nil {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists || b.cooldownUntil.IsZero() {
		return 0
	}

	remaining := b.cooldownUntil.Sub(l.now())
	if remaining <= 0 {
		return 0
	}
	// +1 yuvarlama: client tam süreyi beklesin
	return int(remaining.Seconds()) + 1
}

// Close, temizleme goroutine'ini durdurur. Birden fazla çağrılabilir.
func (l *Limiter) Close() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stopCleanup) })
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.cleanup()
		case <-l.stopCleanup:
			return
		}
	}
}

// cleanup, hem penceresi hem cooldown'ı bitmiş bucket'ları siler.
func (l *Limiter) cleanup() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		windowExpired := now.Sub(b.windowStart) > l.window
		cooldownExpired := b.cooldownUntil.IsZero() || now.After(b.cooldownUntil)
		if windowExpired && cooldownExpired {
			delete(l.buckets, key)
		}
	}
}
