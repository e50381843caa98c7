package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket shared by every caller.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a limiter with r tokens per second and burst b.
func NewLimiter(r float64, b int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(r), b)}
}

func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available or ctx is done.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}

// KeyedLimiter hands out one limiter per key (a file path in watch mode) so
// a file saved in a tight loop cannot starve re-analysis of the others.
// Entries idle for longer than ttl are dropped on the next Get.
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*keyedEntry
	rate     float64
	burst    int
	ttl      time.Duration
	now      func() time.Time
}

type keyedEntry struct {
	limiter  *Limiter
	lastUsed time.Time
}

func NewKeyedLimiter(r float64, b int, ttl time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		limiters: make(map[string]*keyedEntry),
		rate:     r,
		burst:    b,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (k *KeyedLimiter) Get(key string) *Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	for other, entry := range k.limiters {
		if other != key && now.Sub(entry.lastUsed) > k.ttl {
			delete(k.limiters, other)
		}
	}

	entry, ok := k.limiters[key]
	if !ok {
		entry = &keyedEntry{limiter: NewLimiter(k.rate, k.burst)}
		k.limiters[key] = entry
	}
	entry.lastUsed = now
	return entry.limiter
}

// Allow consumes one token from key's limiter.
func (k *KeyedLimiter) Allow(key string) bool {
	return k.Get(key).Allow(1)
}

func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
