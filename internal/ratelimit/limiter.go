// Package ratelimit implements per-user, per-endpoint-class sliding-window
// admission control.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Rule bounds one endpoint class: at most Limit requests per Window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Config holds the rule table of a Limiter.
type Config struct {
	Default       Rule
	Classes       map[string]Rule
	SweepInterval time.Duration
}

// DefaultConfig mirrors the production defaults: 10 messages, 20 notes and
// 20 tasks per minute, 30 per minute for everything else.
func DefaultConfig() Config {
	return Config{
		Default: Rule{Limit: 30, Window: time.Minute},
		Classes: map[string]Rule{
			ClassMessages: {Limit: 10, Window: time.Minute},
			ClassNotes:    {Limit: 20, Window: time.Minute},
			ClassTasks:    {Limit: 20, Window: time.Minute},
		},
		SweepInterval: 5 * time.Minute,
	}
}

// Rule returns the rule for class, falling back to the default rule.
func (c Config) Rule(class string) Rule {
	if r, ok := c.Classes[class]; ok {
		return r
	}
	return c.Default
}

// MetricLabel names class for metrics: configured classes keep their name,
// everything else collapses into "default" so raw paths never become labels.
func (c Config) MetricLabel(class string) string {
	if _, ok := c.Classes[class]; ok {
		return class
	}
	return "default"
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the oldest admitted request leaves the window.
	Reset  time.Time
	Window time.Duration
	// RetryAfter is set on rejection: whole seconds until Reset, at least 1.
	RetryAfter int
}

type bucket struct {
	mu     sync.Mutex
	stamps []time.Time
	window time.Duration
	// dead is set once the sweep has unlinked the bucket from the map.
	dead bool
}

// prune drops timestamps strictly older than cutoff. Stamps are appended in
// order so the expired ones form a prefix.
func (b *bucket) prune(cutoff time.Time) {
	i := 0
	for i < len(b.stamps) && b.stamps[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		b.stamps = append(b.stamps[:0], b.stamps[i:]...)
	}
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// Limiter is safe for concurrent use. The check and the admit for one bucket
// happen under that bucket's lock, so concurrent requests can never admit
// more than the limit.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewLimiter builds a Limiter for cfg.
func NewLimiter(cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
	for _, o := range opts {
		o(l)
	}
	l.lastSweep = l.now()
	return l
}

// Config returns the rule table the limiter was built with.
func (l *Limiter) Config() Config { return l.cfg }

// Allow checks and, when admitted, records one request of userKey in class.
func (l *Limiter) Allow(userKey, class string) Decision {
	rule := l.cfg.Rule(class)
	key := userKey + "\x00" + class

	for {
		b := l.bucket(key, rule.Window)
		b.mu.Lock()
		if b.dead {
			b.mu.Unlock()
			continue
		}
		d := l.admit(b, rule)
		b.mu.Unlock()
		return d
	}
}

func (l *Limiter) admit(b *bucket, rule Rule) Decision {
	now := l.now()
	b.prune(now.Add(-rule.Window))

	count := len(b.stamps)
	reset := now.Add(rule.Window)
	if count > 0 {
		reset = b.stamps[0].Add(rule.Window)
	}
	d := Decision{
		Limit:  rule.Limit,
		Reset:  reset,
		Window: rule.Window,
	}
	if count < rule.Limit {
		b.stamps = append(b.stamps, now)
		d.Allowed = true
		d.Remaining = rule.Limit - count - 1
		return d
	}
	d.RetryAfter = int(math.Ceil(reset.Sub(now).Seconds()))
	if d.RetryAfter < 1 {
		d.RetryAfter = 1
	}
	return d
}

// bucket returns the live bucket for key, creating it if needed, and runs
// the opportunistic sweep when it is due.
func (l *Limiter) bucket(key string, window time.Duration) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cfg.SweepInterval > 0 && l.now().Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweepLocked()
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{window: window}
		l.buckets[key] = b
	}
	return b
}

// Sweep drops stale timestamps and removes empty buckets.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
}

// sweepLocked keeps two windows of history per bucket; l.mu must be held.
func (l *Limiter) sweepLocked() {
	now := l.now()
	for key, b := range l.buckets {
		b.mu.Lock()
		b.prune(now.Add(-2 * b.window))
		if len(b.stamps) == 0 {
			b.dead = true
			delete(l.buckets, key)
		}
		b.mu.Unlock()
	}
	l.lastSweep = now
}

// Len reports the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
