package server

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxConcurrentSockets = 10000
	socketsPerSecond     = 5.0
	socketBurst          = 10
)

// ConnLimiter gates new chat socket connections with a global concurrency
// cap and a per-IP token bucket on connection attempts. Operations on
// established sockets are never limited.
type ConnLimiter struct {
	current atomic.Int64
	max     int64

	mu        sync.Mutex
	buckets   map[string]*ipBucket
	rate      rate.Limit
	burst     int
	cleanupAt time.Time
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewConnLimiter(maxSockets int64, perSecond float64, burst int) *ConnLimiter {
	return &ConnLimiter{
		max:       maxSockets,
		buckets:   make(map[string]*ipBucket),
		rate:      rate.Limit(perSecond),
		burst:     burst,
		cleanupAt: time.Now().Add(5 * time.Minute),
	}
}

// Acquire reserves a socket slot for ip. It reports false when the per-IP
// attempt rate or the global cap is exceeded; a successful acquire must be
// paired with Release when the socket closes.
func (l *ConnLimiter) Acquire(ip string) bool {
	if !l.allow(ip) {
		return false
	}

	for {
		current := l.current.Load()
		if current >= l.max {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

func (l *ConnLimiter) Release() {
	l.current.Add(-1)
}

func (l *ConnLimiter) Current() int64 {
	return l.current.Load()
}

func (l *ConnLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if time.Now().After(l.cleanupAt) {
		l.cleanup()
		l.cleanupAt = time.Now().Add(5 * time.Minute)
	}

	bucket, ok := l.buckets[ip]
	if !ok {
		bucket = &ipBucket{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.buckets[ip] = bucket
	}
	bucket.lastSeen = time.Now()

	return bucket.limiter.Allow()
}

// cleanup drops buckets idle for 10 minutes. Must be called with mu held.
func (l *ConnLimiter) cleanup() {
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, bucket := range l.buckets {
		if bucket.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}
