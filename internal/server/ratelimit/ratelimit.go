// Package ratelimit provides per-client rate limiting using token buckets.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Limit           int           // Requests allowed per window
	Window          time.Duration // Window the limit refills over
	Burst           int           // Bucket capacity (defaults to Limit if 0)
	CleanupInterval time.Duration // How often idle buckets are dropped
}

// DefaultConfig allows ten report requests per hour with a burst of two.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Limit:           10,
		Window:          time.Hour,
		Burst:           2,
		CleanupInterval: 5 * time.Minute,
	}
}

// Info contains information about rate limit status.
type Info struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per client key.
type Limiter struct {
	cfg Config

	mu      sync.Mutex
	buckets map[string]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLimiter creates a limiter and starts its cleanup loop when enabled.
func NewLimiter(cfg Config) *Limiter {
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Limit
	}
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled && cfg.CleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Allow consumes a token for key if one is available.
func (l *Limiter) Allow(key string) (bool, Info) {
	if !l.cfg.Enabled || l.cfg.Limit <= 0 {
		return true, Info{}
	}

	now := time.Now()
	lim := l.bucketFor(key, now)

	info := Info{Limit: l.cfg.Limit}
	res := lim.ReserveN(now, 1)
	if !res.OK() {
		info.RetryAfter = l.cfg.Window
		return false, info
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		info.RetryAfter = delay
		return false, info
	}
	info.Remaining = max(0, int(lim.TokensAt(now)))
	return true, info
}

func (l *Limiter) bucketFor(key string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		every := l.cfg.Window / time.Duration(l.cfg.Limit)
		b = &bucket{limiter: rate.NewLimiter(rate.Every(every), l.cfg.Burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.cleanup(time.Now().Add(-l.cfg.Window))
		case <-l.stop:
			return
		}
	}
}

// cleanup drops buckets idle since before cutoff. An idle bucket has refilled
// completely, so dropping it does not change any decision.
func (l *Limiter) cleanup(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Stop ends the cleanup loop. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}
