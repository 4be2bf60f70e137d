// Package ratelimit provides per-client token bucket rate limiting for the
// HTTP API. Model-backed endpoints get strict hourly budgets; everything else
// falls under a per-minute default.
package ratelimit

import (
	"net/http"
	"sync"
	"time"
)

// Rule limits one group of endpoints, matched by method and path prefix.
type Rule struct {
	Prefix string
	Method string
	Limit  int
	Window time.Duration
	// Burst caps how many requests can land at once. Defaults to Limit.
	Burst int
}

// Config holds limiter configuration.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	Rules         []Rule
}

// DefaultConfig returns limits tuned for the evaluation API. Endpoints that
// invoke models are expensive and get small hourly budgets.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  300,
		DefaultWindow: time.Minute,
		Rules: []Rule{
			{Prefix: "/evaluate", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
			{Prefix: "/classify", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
			{Prefix: "/generate", Method: http.MethodPost, Limit: 10, Window: time.Hour, Burst: 2},
			{Prefix: "/runs", Method: http.MethodDelete, Limit: 60, Window: time.Minute, Burst: 10},
		},
	}
}

// Info describes the limit decision for one request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

func (b *bucket) refill(now time.Time) {
	b.tokens += now.Sub(b.last).Seconds() * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = now
}

func (b *bucket) take(now time.Time) bool {
	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// retryAfter reports how long until one token is available.
func (b *bucket) retryAfter() time.Duration {
	if b.tokens >= 1 || b.refillRate <= 0 {
		return 0
	}
	return time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
}

// Limiter tracks a token bucket per client and matched rule.
type Limiter struct {
	cfg     *Config
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter. A nil config gets DefaultConfig. Idle buckets
// are pruned in the background until Stop is called.
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	l := &Limiter{
		cfg:     cfg,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if cfg.Enabled {
		go l.janitor()
	}
	return l
}

// Allow reports whether a request from clientID to the given path and method
// fits within its budget, consuming a token when it does.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.cfg.Enabled {
		return true, Info{Allowed: true}
	}
	// Health checks are never limited.
	if path == "/health" && method == http.MethodGet {
		return true, Info{Allowed: true}
	}

	limit, window, burst := l.cfg.DefaultLimit, l.cfg.DefaultWindow, l.cfg.DefaultLimit
	key := clientID + " " + method + " default"
	if rule := l.match(path, method); rule != nil {
		limit, window, burst = rule.Limit, rule.Window, rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		key = clientID + " " + method + " " + rule.Prefix
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			tokens:     float64(burst),
			capacity:   float64(burst),
			refillRate: float64(limit) / window.Seconds(),
			last:       time.Now(),
		}
		l.buckets[key] = b
	}

	now := time.Now()
	allowed := b.take(now)
	info := Info{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: int(b.tokens),
	}
	if !allowed {
		info.RetryAfter = b.retryAfter()
	}
	return allowed, info
}

func (l *Limiter) match(path, method string) *Rule {
	for i := range l.cfg.Rules {
		rule := &l.cfg.Rules[i]
		if rule.Method == method && hasPrefix(path, rule.Prefix) {
			return rule
		}
	}
	return nil
}

// hasPrefix matches whole path segments, so "/runs" matches "/runs/abc" but
// not "/runsx".
func hasPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// janitor prunes buckets that have been idle long enough to refill.
func (l *Limiter) janitor() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-time.Hour)
			l.mu.Lock()
			for key, b := range l.buckets {
				if b.last.Before(cutoff) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		case <-l.stop:
			return
		}
	}
}

// Stop terminates the background pruning goroutine.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}
