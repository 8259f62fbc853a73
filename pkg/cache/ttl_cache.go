// Package cache, süreli (TTL) in-memory cache sağlar.
//
// Permission resolution sonuçlarını memoize etmek için kullanılır: aynı
// (kanal, üye) çifti için tekrar tekrar fold hesaplamak yerine sonuç TTL
// boyunca saklanır. Gateway'den state değişikliği geldiğinde ilgili
// entry'ler Delete/DeleteFunc/Clear ile invalidate edilir.
//
// sync.RWMutex ile korunur; HTTP handler'ları ve gateway goroutine'i aynı anda erişebilir.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTLCache, generic in-memory TTL cache.
//
//	c := cache.New[string, models.Permission](30*time.Second, time.Minute)
//	defer c.Close()
//	c.Set("c1:m1", perms)
//	perms, ok := c.Get("c1:m1")
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New, yeni bir TTLCache oluşturur.
//
// cleanupInterval > 0 ise süresi dolan entry'leri periyodik olarak map'ten silen
// bir goroutine başlatılır; Close ile durdurulur. Get süresi dolmuş entry'yi
// zaten döndürmez, cleanup sadece bellek içindir.
func New[K comparable, V any](ttl, cleanupInterval time.Duration) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}

	return c
}

// Get, key'e ait değeri döner. Key yoksa veya süresi dolmuşsa (zero, false).
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set, değeri TTL ile yazar.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{value: value, expiresAt: c.now().Add(c.ttl)}
}

// DeleteFunc, predicate'i sağlayan tüm key'leri siler.
// Örn: gateway bir guild'e yazdığında o guild'in tüm sonuçlarını invalidate etmek.
func (c *TTLCache[K, V]) DeleteFunc(predicate func(key K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if predicate(key) {
			delete(c.entries, key)
		}
	}
}

// Close, cleanup goroutine'ini durdurur. Birden fazla çağrı güvenlidir.
func (c *TTLCache[K, V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *TTLCache[K, V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *TTLCache[K, V]) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
