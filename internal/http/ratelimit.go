package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const limiterCleanupEvery = 5 * time.Minute

// mutationLimiter budgets write requests per client IP over fixed one-minute
// windows. Reads are never limited; the server only consults the limiter for
// mutating methods.
type mutationLimiter struct {
	perMinute int
	now       func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// visitor is one IP's spend inside its current window.
type visitor struct {
	windowStart time.Time
	seen        int
}

func newMutationLimiter(perMinute int) *mutationLimiter {
	l := &mutationLimiter{
		perMinute:   perMinute,
		now:         time.Now,
		visitors:    make(map[string]*visitor),
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

// allow spends one unit of the IP's budget, reporting whether the request may
// proceed. A window older than a minute reopens fresh.
func (l *mutationLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.visitors[clientIP]
	if v == nil || now.Sub(v.windowStart) >= time.Minute {
		l.visitors[clientIP] = &visitor{windowStart: now, seen: 1}
		return true
	}

	v.seen++
	if v.seen > l.perMinute {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

func (l *mutationLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.dropIdleVisitors()
		case <-l.stopCleanup:
			return
		}
	}
}

// dropIdleVisitors forgets IPs whose window closed long ago, bounding the map.
func (l *mutationLimiter) dropIdleVisitors() {
	cutoff := l.now().Add(-2 * limiterCleanupEvery)

	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, v := range l.visitors {
		if v.windowStart.Before(cutoff) {
			delete(l.visitors, ip)
		}
	}
}

func (l *mutationLimiter) stop() {
	l.shutdownOnce.Do(func() {
		close(l.stopCleanup)
	})
}
