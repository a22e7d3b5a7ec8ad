package ratelimit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestAllow_LimitThenReject(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(DefaultConfig(), WithClock(clk.Now))

	for i := 0; i < 10; i++ {
		d := l.Allow("u1", ClassMessages)
		if !d.Allowed {
			t.Fatalf("request %d rejected", i+1)
		}
		if want := 9 - i; d.Remaining != want {
			t.Fatalf("request %d remaining=%d want %d", i+1, d.Remaining, want)
		}
	}
	d := l.Allow("u1", ClassMessages)
	if d.Allowed {
		t.Fatalf("11th request admitted")
	}
	if d.Remaining != 0 || d.RetryAfter != 60 {
		t.Fatalf("unexpected rejection: %+v", d)
	}
	if !d.Reset.Equal(clk.Now().Add(time.Minute)) {
		t.Fatalf("reset=%v", d.Reset)
	}
}

func TestAllow_IsolatedPerUserAndClass(t *testing.T) {
	l := NewLimiter(Config{Default: Rule{Limit: 1, Window: time.Minute}})
	if !l.Allow("a", "get:/x").Allowed {
		t.Fatalf("first request rejected")
	}
	if l.Allow("a", "get:/x").Allowed {
		t.Fatalf("second request admitted")
	}
	if !l.Allow("b", "get:/x").Allowed {
		t.Fatalf("other user affected")
	}
	if !l.Allow("a", "get:/y").Allowed {
		t.Fatalf("other class affected")
	}
}

func TestAllow_WindowSlides(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(Config{Default: Rule{Limit: 2, Window: time.Minute}}, WithClock(clk.Now))

	l.Allow("u", "c")
	clk.Advance(30 * time.Second)
	l.Allow("u", "c")
	clk.Advance(10 * time.Second)

	d := l.Allow("u", "c")
	if d.Allowed {
		t.Fatalf("admitted inside the window")
	}
	if d.RetryAfter != 20 {
		t.Fatalf("retry_after=%d want 20", d.RetryAfter)
	}

	clk.Advance(21 * time.Second)
	d = l.Allow("u", "c")
	if !d.Allowed {
		t.Fatalf("rejected after oldest request expired")
	}
	if d.Remaining != 0 {
		t.Fatalf("remaining=%d want 0", d.Remaining)
	}
}

func TestAllow_RetryAfterAtLeastOne(t *testing.T) {
	clk := newFakeClock()
	l := NewLimiter(Config{Default: Rule{Limit: 1, Window: time.Second}}, WithClock(clk.Now))
	l.Allow("u", "c")
	clk.Advance(999 * time.Millisecond)
	d := l.Allow("u", "c")
	if d.Allowed || d.RetryAfter != 1 {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestSweep_RemovesIdleBuckets(t *testing.T) {
	clk := newFakeClock()
	cfg := Config{Default: Rule{Limit: 5, Window: time.Minute}, SweepInterval: 5 * time.Minute}
	l := NewLimiter(cfg, WithClock(clk.Now))

	l.Allow("a", "c")
	l.Allow("b", "c")
	if l.Len() != 2 {
		t.Fatalf("len=%d want 2", l.Len())
	}

	clk.Advance(3 * time.Minute)
	l.Sweep()
	if l.Len() != 0 {
		t.Fatalf("len=%d want 0 after sweep", l.Len())
	}
}

func TestSweep_Opportunistic(t *testing.T) {
	clk := newFakeClock()
	cfg := Config{Default: Rule{Limit: 5, Window: time.Minute}, SweepInterval: 5 * time.Minute}
	l := NewLimiter(cfg, WithClock(clk.Now))

	l.Allow("idle", "c")
	clk.Advance(4 * time.Minute)
	l.Allow("active", "c")
	if l.Len() != 2 {
		t.Fatalf("swept before interval elapsed: len=%d", l.Len())
	}

	clk.Advance(time.Minute)
	l.Allow("active", "c")
	if l.Len() != 1 {
		t.Fatalf("len=%d want 1 after opportunistic sweep", l.Len())
	}
}

func TestAllow_ConcurrentAdmitsExactlyLimit(t *testing.T) {
	l := NewLimiter(Config{Default: Rule{Limit: 25, Window: time.Minute}})

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Allow("u", "c").Allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()
	if admitted != 25 {
		t.Fatalf("admitted=%d want 25", admitted)
	}
}

func TestAllow_ConcurrentWithSweep(t *testing.T) {
	l := NewLimiter(Config{Default: Rule{Limit: 50, Window: time.Minute}})

	var admitted int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if l.Allow("u", "c").Allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
		go func() {
			defer wg.Done()
			l.Sweep()
		}()
	}
	wg.Wait()
	if admitted != 50 {
		t.Fatalf("admitted=%d want 50", admitted)
	}
}
